package game

import (
	"testing"
	"time"

	"github.com/pthm-cable/rockfall/config"
	"github.com/pthm-cable/rockfall/systems"
)

// stallRenderer simulates a render spike and reports fixed unit costs so
// the controller has a meaningful skip ranking. Like the real renderer it
// only reports cost for units it actually drew.
type stallRenderer struct {
	delay time.Duration
}

func (r *stallRenderer) Render(v *FrameView) RenderStats {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	var s RenderStats
	if v.ShowEffects {
		s.Effects = 8 * time.Millisecond
	}
	if v.ShowPose {
		s.PoseOverlay = 4 * time.Millisecond
	}
	if v.ShowBackground {
		s.Background = 2 * time.Millisecond
	}
	if v.ShowOSD {
		s.OSD = 1 * time.Millisecond
	}
	return s
}

func (r *stallRenderer) Close() {}

func TestGame_DegradesUnderLoadAndRecovers(t *testing.T) {
	config.MustInit("")
	g := NewGame(Options{Seed: 9})
	sr := &stallRenderer{}
	g.SetRenderer(sr)

	const dt = 1.0 / 60.0

	// Fill the window with fast frames to establish a low median.
	for i := 0; i < 30; i++ {
		g.Step(dt)
	}
	if g.degrade.Degraded() {
		t.Fatal("steady load should not be degraded")
	}

	// One slow frame; the following frame must be planned degraded, with
	// the heaviest unit skipped first.
	sr.delay = 40 * time.Millisecond
	g.Step(dt)
	sr.delay = 0
	g.Step(dt)

	if !g.degrade.Degraded() {
		t.Fatal("frame after a spike should be degraded")
	}
	if !g.degrade.ShouldSkip(systems.UnitEffects) {
		t.Fatal("heaviest unit should be skipped first")
	}
	if g.view.ShowEffects {
		t.Fatal("view should reflect the skip decision")
	}

	// Once frame times settle, degradation clears within a couple frames.
	g.Step(dt)
	g.Step(dt)
	if g.degrade.Degraded() {
		t.Fatal("load gone, degradation should have cleared")
	}
}

func TestGame_SkippedUnitKeepsMeasuredCost(t *testing.T) {
	config.MustInit("")
	g := NewGame(Options{Seed: 3})
	sr := &stallRenderer{}
	g.SetRenderer(sr)

	const dt = 1.0 / 60.0
	for i := 0; i < 30; i++ {
		g.Step(dt)
	}
	if got := g.degrade.LastCost(systems.UnitEffects); got < 8*time.Millisecond {
		t.Fatalf("effects cost = %v before the spike, want >= 8ms", got)
	}

	// Spike, then a degraded frame that skips effects. The renderer reports
	// zero for the skipped unit; the controller must keep the prior
	// measurement instead of adopting the zero.
	sr.delay = 40 * time.Millisecond
	g.Step(dt)
	sr.delay = 0
	g.Step(dt)

	if !g.degrade.ShouldSkip(systems.UnitEffects) {
		t.Fatal("expected the effects unit to be skipped")
	}
	if got := g.degrade.LastCost(systems.UnitEffects); got < 8*time.Millisecond {
		t.Fatalf("skipped unit cost = %v, want the last measurement kept", got)
	}
}
