// Package renderer draws the frame view with raylib: camera backdrop,
// pose overlay, rocks, particles, HUD, and the profiler OSD.
package renderer

import (
	"image/color"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/rockfall/camera"
	"github.com/pthm-cable/rockfall/game"
	"github.com/pthm-cable/rockfall/pose"
	"github.com/pthm-cable/rockfall/telemetry"
)

// Region overlay colors, matching the analysis overlay convention.
var regionColors = map[string]rl.Color{
	pose.RegionHead:  rl.NewColor(255, 200, 0, 255),
	pose.RegionHands: rl.NewColor(60, 220, 60, 255),
	pose.RegionFeet:  rl.NewColor(80, 80, 255, 255),
}

var (
	rockFill = rl.NewColor(80, 80, 80, 255)
	rockEdge = rl.NewColor(130, 130, 130, 255)
)

// Raylib implements game.Renderer on top of an initialized raylib window.
type Raylib struct {
	prof   *telemetry.Profiler
	width  int32
	height int32

	camTex   rl.Texture2D
	camW     int
	camH     int
	pixels   []color.RGBA
	texReady bool
	lastSeq  uint64

	hudLines []string
}

// New creates the renderer. The raylib window must already exist.
func New(prof *telemetry.Profiler, width, height int) *Raylib {
	return &Raylib{
		prof:   prof,
		width:  int32(width),
		height: int32(height),
	}
}

// Render draws one complete frame and reports per-unit costs.
func (r *Raylib) Render(v *game.FrameView) game.RenderStats {
	var stats game.RenderStats

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	span := r.prof.Begin(telemetry.SectionDrawCamera)
	if v.ShowBackground && v.Frame != nil {
		t0 := time.Now()
		r.drawCameraFrame(v.Frame)
		stats.Background = time.Since(t0)
	}
	span.End()

	span = r.prof.Begin(telemetry.SectionDrawPose)
	if v.ShowPose {
		t0 := time.Now()
		drawPose(v.People)
		stats.PoseOverlay = time.Since(t0)
	}
	span.End()

	span = r.prof.Begin(telemetry.SectionDrawRocks)
	for _, rock := range v.Rocks {
		rl.DrawCircle(int32(rock.X), int32(rock.Y), rock.R, rockFill)
		rl.DrawCircleLines(int32(rock.X), int32(rock.Y), rock.R, rockEdge)
	}
	if v.ShowEffects {
		t0 := time.Now()
		drawParticles(v.Particles)
		stats.Effects = time.Since(t0)
	}
	span.End()

	span = r.prof.Begin(telemetry.SectionDrawHUD)
	r.drawHUD(v)
	if v.ShowOSD {
		t0 := time.Now()
		r.drawOSD(v.OSD)
		stats.OSD = time.Since(t0)
	}
	span.End()

	rl.EndDrawing()
	return stats
}

// drawCameraFrame uploads the frame pixels into the backdrop texture and
// draws it scaled to the window. Upload happens only when a new capture
// seq arrives; a re-rendered frame reuses the texture as-is.
func (r *Raylib) drawCameraFrame(f *camera.Frame) {
	if !r.texReady || r.camW != f.Width || r.camH != f.Height {
		if r.texReady {
			rl.UnloadTexture(r.camTex)
		}
		img := rl.GenImageColor(f.Width, f.Height, rl.Black)
		r.camTex = rl.LoadTextureFromImage(img)
		rl.UnloadImage(img)
		rl.SetTextureFilter(r.camTex, rl.FilterBilinear)

		r.camW = f.Width
		r.camH = f.Height
		r.pixels = make([]color.RGBA, f.Width*f.Height)
		r.texReady = true
		r.lastSeq = 0
	}

	if f.Seq != r.lastSeq && len(f.Pixels) >= len(r.pixels)*4 {
		for i := range r.pixels {
			r.pixels[i] = color.RGBA{
				R: f.Pixels[i*4],
				G: f.Pixels[i*4+1],
				B: f.Pixels[i*4+2],
				A: f.Pixels[i*4+3],
			}
		}
		rl.UpdateTexture(r.camTex, r.pixels)
		r.lastSeq = f.Seq
	}

	src := rl.Rectangle{Width: float32(r.camW), Height: float32(r.camH)}
	dst := rl.Rectangle{Width: float32(r.width), Height: float32(r.height)}
	rl.DrawTexturePro(r.camTex, src, dst, rl.Vector2{}, 0, rl.White)
}

// drawPose overlays the region circles for every detected person.
func drawPose(people []pose.Person) {
	for i := range people {
		p := &people[i]
		for _, tag := range pose.Regions {
			drawRegion(p.Region(tag), regionColors[tag])
		}
	}
}

func drawRegion(circles []pose.Circle, col rl.Color) {
	for _, c := range circles {
		rl.DrawCircleLines(int32(c.X), int32(c.Y), c.R, col)
	}
}

// drawParticles renders burst fragments as a dim halo plus a bright core,
// both fading and shrinking with age.
func drawParticles(particles []game.Particle) {
	for i := range particles {
		p := &particles[i]
		age := p.Age()
		intensity := (1 - age) * (1 - age)
		radius := p.Size * (1 - 0.6*age)
		if radius < 1 {
			radius = 1
		}

		halo := rl.Color{R: p.R, G: p.G, B: p.B, A: uint8(60*intensity + 20)}
		core := rl.Color{R: p.R, G: p.G, B: p.B, A: uint8(180*intensity + 40)}
		rl.DrawCircle(int32(p.X), int32(p.Y), radius*1.08, halo)
		rl.DrawCircle(int32(p.X), int32(p.Y), radius*0.55, core)
	}
}

// drawHUD renders player lines top-left and the match banner. The text
// lines are re-formatted only when the loop flags a change.
func (r *Raylib) drawHUD(v *game.FrameView) {
	if v.HUDChanged || r.hudLines == nil {
		r.hudLines = v.HUD.Lines()
	}
	y := int32(10)
	for _, line := range r.hudLines {
		rl.DrawText(line, 12, y, 24, rl.RayWhite)
		y += 30
	}
	if v.HUD.Degraded {
		rl.DrawText("degraded", r.width-130, 10, 20, rl.Yellow)
	}
}

// drawOSD renders the profiler lines bottom-left in a small font.
func (r *Raylib) drawOSD(lines []string) {
	y := r.height - int32(len(lines))*18 - 10
	for _, line := range lines {
		rl.DrawText(line, 12, y, 16, rl.LightGray)
		y += 18
	}
}

// Close releases GPU resources.
func (r *Raylib) Close() {
	if r.texReady {
		rl.UnloadTexture(r.camTex)
		r.texReady = false
	}
}
