// Package game runs the per-frame loop: read the latest capture and pose
// snapshots, step the rock simulation, resolve collisions against pose
// circles, and hand a frame view to the renderer. All heavy work stays off
// this goroutine; the loop only ever reads the newest published state.
package game

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/rockfall/camera"
	"github.com/pthm-cable/rockfall/components"
	"github.com/pthm-cable/rockfall/config"
	"github.com/pthm-cable/rockfall/pipeline"
	"github.com/pthm-cable/rockfall/pose"
	"github.com/pthm-cable/rockfall/systems"
	"github.com/pthm-cable/rockfall/telemetry"
	"github.com/pthm-cable/rockfall/ui"
)

// Options wires the loop to its collaborators. Frames and Poses are the
// slots the capture and inference stages publish into; RequestDeviceCycle
// forwards a cycle request back to the capture stage.
type Options struct {
	Seed               int64
	Frames             *pipeline.Slot[*camera.Frame]
	Poses              *pipeline.Slot[pose.Result]
	Status             <-chan pipeline.StatusEvent
	RequestDeviceCycle func(index int)
	Renderer           Renderer
	Output             *telemetry.OutputManager
}

// Game holds the complete loop state.
type Game struct {
	world *ecs.World
	rng   *rand.Rand

	rockMapper *ecs.Map4[
		components.Position,
		components.Velocity,
		components.Body,
		components.Rock,
	]
	rockFilter *ecs.Filter4[
		components.Position,
		components.Velocity,
		components.Body,
		components.Rock,
	]
	posMap  *ecs.Map1[components.Position]
	bodyMap *ecs.Map1[components.Body]
	rockMap *ecs.Map1[components.Rock]

	frames *pipeline.Slot[*camera.Frame]
	poses  *pipeline.Slot[pose.Result]
	status <-chan pipeline.StatusEvent
	cycle  func(index int)

	grid     *systems.SpatialGrid
	degrade  *systems.DegradeController
	prof     *telemetry.Profiler
	out      *telemetry.OutputManager
	match    *Match
	effects  *Effects
	renderer Renderer

	width, height float32
	deviceIndex   int

	clock      float64 // game time in seconds
	frameIndex int64
	spawnTimer float64
	nextRockID uint32
	aliveRocks int
	lastTotal  time.Duration
	poseLag    uint64
	lastHUD    ui.HUDData
	hudPrimed  bool
	lastLog    float64

	queryBuf  []ecs.Entity
	deadBuf   []ecs.Entity
	peopleBuf []pose.Person
	view      FrameView
}

// NewGame creates the loop with all collaborators wired.
func NewGame(opts Options) *Game {
	cfg := config.Cfg()
	world := ecs.NewWorld()

	g := &Game{
		world: world,
		rng:   rand.New(rand.NewSource(opts.Seed)),
		rockMapper: ecs.NewMap4[
			components.Position,
			components.Velocity,
			components.Body,
			components.Rock,
		](world),
		rockFilter: ecs.NewFilter4[
			components.Position,
			components.Velocity,
			components.Body,
			components.Rock,
		](world),
		posMap:  ecs.NewMap1[components.Position](world),
		bodyMap: ecs.NewMap1[components.Body](world),
		rockMap: ecs.NewMap1[components.Rock](world),

		frames: opts.Frames,
		poses:  opts.Poses,
		status: opts.Status,
		cycle:  opts.RequestDeviceCycle,

		renderer: opts.Renderer,
		out:      opts.Output,

		width:       cfg.Derived.ScreenW32,
		height:      cfg.Derived.ScreenH32,
		deviceIndex: cfg.Capture.DeviceIndex,

		queryBuf: make([]ecs.Entity, 0, 32),
	}

	if g.renderer == nil {
		g.renderer = NopRenderer{}
	}
	if g.frames == nil {
		g.frames = pipeline.NewSlot[*camera.Frame]()
	}
	if g.poses == nil {
		g.poses = pipeline.NewSlot[pose.Result]()
	}

	g.grid = systems.NewSpatialGrid(g.width, g.height, float32(cfg.Collision.CellSize))
	g.degrade = systems.NewDegradeController(
		cfg.Degrade.WindowSize,
		cfg.Degrade.MedianMultiple,
		systems.DefaultUnits,
	)
	g.prof = telemetry.NewProfiler(cfg.Telemetry.HistorySize, cfg.Telemetry.AvgWindow)
	g.match = NewMatch(cfg.Players)
	g.effects = NewEffects(cfg.Effects, g.rng)

	return g
}

// Step advances the loop by one frame. dt is the render frame delta in
// seconds; the simulation integrates with it directly.
func (g *Game) Step(dt float64) {
	cfg := config.Cfg()
	g.clock += dt
	g.frameIndex++
	g.prof.StartFrame()

	span := g.prof.Begin(telemetry.SectionCaptureRead)
	frame, frameSeq, _, frameOK := g.frames.Read()
	span.End()

	span = g.prof.Begin(telemetry.SectionPoseRead)
	result, _, _, poseOK := g.poses.Read()
	span.End()
	if frameOK && poseOK && frameSeq >= result.Seq {
		g.poseLag = frameSeq - result.Seq
	}

	var people []pose.Person
	if poseOK {
		people = g.activePeople(cfg, result.People)
	}

	g.drainStatus(cfg)

	degraded := g.degrade.Plan(g.lastTotal)

	span = g.prof.Begin(telemetry.SectionSimulate)
	g.simulate(cfg, dt)
	span.End()

	span = g.prof.Begin(telemetry.SectionSpatialGrid)
	g.rebuildGrid()
	span.End()

	span = g.prof.Begin(telemetry.SectionCollide)
	if poseOK {
		g.collide(cfg, people)
	}
	g.removeDead()
	span.End()

	span = g.prof.Begin(telemetry.SectionEffects)
	var effectsUpdate time.Duration
	if !g.degrade.ShouldSkip(systems.UnitEffects) {
		t0 := time.Now()
		g.effects.Update(float32(dt))
		effectsUpdate = time.Since(t0)
	}
	span.End()

	g.buildView(frame, people, poseOK, degraded)
	stats := g.renderer.Render(&g.view)

	// Only units that ran get a new measurement; skipped units keep their
	// last cost so the skip ranking stays meaningful.
	if g.view.ShowEffects {
		g.degrade.ReportCost(systems.UnitEffects, effectsUpdate+stats.Effects)
	}
	if g.view.ShowPose {
		g.degrade.ReportCost(systems.UnitPoseOverlay, stats.PoseOverlay)
	}
	if g.view.ShowBackground {
		g.degrade.ReportCost(systems.UnitBackground, stats.Background)
	}
	if g.view.ShowOSD {
		g.degrade.ReportCost(systems.UnitOSD, stats.OSD)
	}

	ft := g.prof.EndFrame()
	if err := g.out.WriteProfile(ft); err != nil {
		slog.Warn("profile_write_failed", "error", err)
	}
	g.degrade.Observe(ft.Total)
	g.lastTotal = ft.Total

	g.maybeLogPerf(cfg, degraded)
}

// drainStatus handles pending capture stage events without blocking. A
// failed device escalates to a cycle request onto the next index.
func (g *Game) drainStatus(cfg *config.Config) {
	if g.status == nil {
		return
	}
	for {
		select {
		case ev := <-g.status:
			switch ev.Kind {
			case pipeline.StatusCaptureFailed:
				next := ev.DeviceIndex + 1
				if next > cfg.Capture.ScanMaxIndex {
					next = 0
				}
				slog.Warn("capture_failed",
					"device_index", ev.DeviceIndex,
					"next_index", next,
					"error", ev.Err,
				)
				if g.cycle != nil {
					g.cycle(next)
				}
			case pipeline.StatusDeviceCycled:
				g.deviceIndex = ev.DeviceIndex
				slog.Info("device_cycled", "device_index", ev.DeviceIndex)
			}
		default:
			return
		}
	}
}

// simulate spawns rocks on the configured interval and integrates motion.
// Off-screen rocks are marked dead; removal is batched in removeDead.
func (g *Game) simulate(cfg *config.Config, dt float64) {
	g.spawnTimer += dt
	for g.spawnTimer >= cfg.Rocks.SpawnInterval {
		g.spawnTimer -= cfg.Rocks.SpawnInterval
		if g.aliveRocks < cfg.Rocks.MaxAlive {
			g.spawnRock(cfg)
		}
	}

	dt32 := float32(dt)
	margin := g.height + 5

	query := g.rockFilter.Query()
	for query.Next() {
		pos, vel, body, rock := query.Get()
		if !rock.Alive {
			continue
		}
		pos.X += vel.X * dt32
		pos.Y += vel.Y * dt32
		if pos.Y-body.Radius > margin {
			rock.Alive = false
		}
	}
}

// spawnRock creates one rock just above the top edge.
func (g *Game) spawnRock(cfg *config.Config) {
	rc := cfg.Rocks
	r := float32(rc.MinRadius + g.rng.Float64()*(rc.MaxRadius-rc.MinRadius))

	pos := components.Position{
		X: r + g.rng.Float32()*(g.width-2*r),
		Y: -r,
	}
	vel := components.Velocity{
		X: float32((g.rng.Float64()*2 - 1) * rc.DriftMax),
		Y: float32(rc.FallSpeedMin + g.rng.Float64()*(rc.FallSpeedMax-rc.FallSpeedMin)),
	}
	body := components.Body{Radius: r}
	rock := components.Rock{ID: g.nextRockID, Alive: true}
	g.nextRockID++

	g.rockMapper.NewEntity(&pos, &vel, &body, &rock)
	g.aliveRocks++
}

// rebuildGrid refills the spatial index from live rocks.
func (g *Game) rebuildGrid() {
	g.grid.Clear()
	query := g.rockFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, _, _, rock := query.Get()
		if rock.Alive {
			g.grid.Insert(entity, pos.X, pos.Y)
		}
	}
}

// activePeople returns the people used for collision and rendering. In
// duplicate mode a single detected subject in a two-player match is
// mirrored across the screen midline, so one person in front of the
// camera covers both halves.
func (g *Game) activePeople(cfg *config.Config, people []pose.Person) []pose.Person {
	if !cfg.Inference.Duplicate || len(g.match.Players) != 2 || len(people) != 1 {
		return people
	}
	g.peopleBuf = g.peopleBuf[:0]
	g.peopleBuf = append(g.peopleBuf, people[0], mirrorPerson(&people[0], g.width))
	return g.peopleBuf
}

func mirrorPerson(p *pose.Person, width float32) pose.Person {
	return pose.Person{
		Head:  mirrorCircles(p.Head, width),
		Hands: mirrorCircles(p.Hands, width),
		Feet:  mirrorCircles(p.Feet, width),
	}
}

func mirrorCircles(src []pose.Circle, width float32) []pose.Circle {
	if len(src) == 0 {
		return nil
	}
	out := make([]pose.Circle, len(src))
	for i, c := range src {
		out[i] = c
		out[i].X = width - c.X
	}
	return out
}

// collide tests every pose circle against nearby rocks. Head contact costs
// a life (with the invulnerability window); hand and foot contact destroys
// the rock and scores.
func (g *Game) collide(cfg *config.Config, people []pose.Person) {
	for i := range people {
		person := &people[i]
		playerID := g.playerFor(person)

		for _, tag := range pose.Regions {
			for _, c := range person.Region(tag) {
				g.queryBuf = g.grid.QueryCircleInto(g.queryBuf[:0], c.X, c.Y, c.R, g.posMap, g.bodyMap)
				for _, e := range g.queryBuf {
					if tag == pose.RegionHead {
						if !g.destroyRock(e, 110, 110, 110) {
							continue
						}
						if g.match.HandleHeadHit(playerID, g.clock) {
							slog.Info("head_hit", "player", playerID, "lives", g.match.Player(playerID).Lives)
						}
					} else if g.destroyRock(e, 255, 220, 0) {
						g.match.HandleKick(playerID, cfg.Players.KickScore)
					}
				}
			}
		}
	}
}

// destroyRock marks a rock dead and spawns a burst. Returns false if the
// rock was already destroyed this frame.
func (g *Game) destroyRock(e ecs.Entity, r, gr, b uint8) bool {
	rock := g.rockMap.Get(e)
	if rock == nil || !rock.Alive {
		return false
	}
	rock.Alive = false
	if pos := g.posMap.Get(e); pos != nil {
		g.effects.Burst(pos.X, pos.Y, r, gr, b)
	}
	return true
}

// playerFor maps a detected person to a player by which screen half their
// head (or failing that, any circle) occupies.
func (g *Game) playerFor(person *pose.Person) int {
	if len(g.match.Players) < 2 {
		return 0
	}
	for _, tag := range pose.Regions {
		if cs := person.Region(tag); len(cs) > 0 {
			if cs[0].X < g.width/2 {
				return 0
			}
			return 1
		}
	}
	return 0
}

// removeDead removes destroyed and off-screen rocks. Two passes: queries
// must finish before the world is mutated.
func (g *Game) removeDead() {
	g.deadBuf = g.deadBuf[:0]
	query := g.rockFilter.Query()
	for query.Next() {
		_, _, _, rock := query.Get()
		if !rock.Alive {
			g.deadBuf = append(g.deadBuf, query.Entity())
		}
	}
	for _, e := range g.deadBuf {
		g.rockMapper.Remove(e)
		g.aliveRocks--
	}
}

// buildView assembles the frame view the renderer consumes.
func (g *Game) buildView(frame *camera.Frame, people []pose.Person, poseOK, degraded bool) {
	v := &g.view
	v.Frame = frame
	if poseOK {
		v.People = people
	} else {
		v.People = nil
	}

	v.Rocks = v.Rocks[:0]
	query := g.rockFilter.Query()
	for query.Next() {
		pos, _, body, rock := query.Get()
		if rock.Alive {
			v.Rocks = append(v.Rocks, RockView{X: pos.X, Y: pos.Y, R: body.Radius})
		}
	}

	v.Particles = g.effects.Particles()

	v.ShowBackground = !g.degrade.ShouldSkip(systems.UnitBackground)
	v.ShowPose = !g.degrade.ShouldSkip(systems.UnitPoseOverlay)
	v.ShowOSD = !g.degrade.ShouldSkip(systems.UnitOSD)
	v.ShowEffects = !g.degrade.ShouldSkip(systems.UnitEffects)

	hud := ui.HUDData{
		NumPlayers: len(g.match.Players),
		MatchOver:  g.match.Over,
		PoseLag:    g.poseLag,
		Degraded:   degraded,
	}
	for i, p := range g.match.Players {
		if i >= len(hud.Players) {
			break
		}
		hud.Players[i] = ui.PlayerHUD{Score: p.Score, Lives: p.Lives, GameOver: p.GameOver}
	}
	if winner, ok := g.match.Winner(); ok {
		hud.Winner = winner
		hud.HasWinner = true
	}
	v.HUD = hud
	v.HUDChanged = !g.hudPrimed || !hud.Equal(g.lastHUD)
	g.lastHUD = hud
	g.hudPrimed = true

	if v.ShowOSD {
		v.OSD = g.prof.OSDLines()
	} else {
		v.OSD = nil
	}
}

// maybeLogPerf emits a rolling profiler summary on the configured cadence.
func (g *Game) maybeLogPerf(cfg *config.Config, degraded bool) {
	if cfg.Telemetry.LogEverySec <= 0 {
		return
	}
	if g.clock-g.lastLog < cfg.Telemetry.LogEverySec {
		return
	}
	g.lastLog = g.clock
	slog.Info("frame_stats",
		"frame", g.frameIndex,
		"rocks", g.aliveRocks,
		"particles", g.effects.Count(),
		"pose_lag", g.poseLag,
		"degraded", degraded,
		"profiler", g.prof,
	)
}

// Clock returns elapsed game time in seconds.
func (g *Game) Clock() float64 { return g.clock }

// FrameIndex returns the number of completed frames.
func (g *Game) FrameIndex() int64 { return g.frameIndex }

// RockCount returns the number of live rocks.
func (g *Game) RockCount() int { return g.aliveRocks }

// Match returns the player/score state.
func (g *Game) Match() *Match { return g.match }

// Profiler exposes the frame profiler.
func (g *Game) Profiler() *telemetry.Profiler { return g.prof }

// SetRenderer replaces the renderer. The raylib renderer needs the game's
// profiler, so it is attached after construction.
func (g *Game) SetRenderer(r Renderer) {
	if r == nil {
		r = NopRenderer{}
	}
	g.renderer = r
}

// DeviceIndex returns the capture device currently in use, tracked from
// status events.
func (g *Game) DeviceIndex() int { return g.deviceIndex }

// Unload releases the renderer.
func (g *Game) Unload() {
	g.renderer.Close()
}
