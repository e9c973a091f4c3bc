package telemetry

import (
	"math/rand"
	"testing"
	"time"
)

func TestProfiler_BasicTiming(t *testing.T) {
	p := NewProfiler(10, 10)

	for i := 0; i < 5; i++ {
		p.StartFrame()
		span := p.Begin(SectionSimulate)
		time.Sleep(100 * time.Microsecond)
		span.End()
		span = p.Begin(SectionCollide)
		time.Sleep(200 * time.Microsecond)
		span.End()
		p.EndFrame()
	}

	avg := p.Averages()
	if avg["frame_total"] <= 0 {
		t.Error("expected positive average frame total")
	}
	if avg[SectionSimulate] <= 0 || avg[SectionCollide] <= 0 {
		t.Error("expected section averages to be populated")
	}
}

// The frame total is wall clock and must cover the sum of all named
// sections for every flushed frame, whatever order sections ran in.
func TestProfiler_TotalCoversSectionSum(t *testing.T) {
	p := NewProfiler(64, 64)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 20; i++ {
		p.StartFrame()
		names := append([]string(nil), Sections...)
		rng.Shuffle(len(names), func(a, b int) { names[a], names[b] = names[b], names[a] })
		for _, name := range names[:3+rng.Intn(5)] {
			span := p.Begin(name)
			time.Sleep(time.Duration(rng.Intn(200)) * time.Microsecond)
			span.End()
		}
		ft := p.EndFrame()

		if ft.Total < ft.SectionSum() {
			t.Errorf("frame %d: total %v less than section sum %v", ft.Frame, ft.Total, ft.SectionSum())
		}
		if ft.Unaccounted() < 0 {
			t.Errorf("frame %d: negative unaccounted time", ft.Frame)
		}
	}
}

// A span closed via defer on an early-return path must record exactly once.
func TestProfiler_SpanEndsOnceOnEarlyReturn(t *testing.T) {
	p := NewProfiler(10, 10)
	p.StartFrame()

	func() {
		span := p.Begin(SectionCollide)
		defer span.End()
		time.Sleep(100 * time.Microsecond)
		span.End() // explicit close before return; deferred End must not double-count
	}()

	ft := p.EndFrame()
	d := ft.Section(SectionCollide)
	if d <= 0 {
		t.Fatal("expected collide section recorded")
	}
	if d > 10*time.Millisecond {
		t.Errorf("section looks double-counted: %v", d)
	}
}

func TestProfiler_SkippedSectionIsZero(t *testing.T) {
	p := NewProfiler(10, 10)
	p.StartFrame()
	span := p.Begin(SectionSimulate)
	span.End()
	ft := p.EndFrame()

	if ft.Section(SectionEffects) != 0 {
		t.Error("expected zero duration for a section never entered")
	}
}

func TestProfiler_RingEvictsOldest(t *testing.T) {
	p := NewProfiler(4, 4)

	for i := 0; i < 10; i++ {
		p.StartFrame()
		p.EndFrame()
	}

	recent := p.Recent(10)
	if len(recent) != 4 {
		t.Fatalf("expected 4 retained frames, got %d", len(recent))
	}
	// Newest last, ids contiguous.
	for i := 1; i < len(recent); i++ {
		if recent[i].Frame != recent[i-1].Frame+1 {
			t.Errorf("frames not contiguous: %d after %d", recent[i].Frame, recent[i-1].Frame)
		}
	}
	if recent[len(recent)-1].Frame != 9 {
		t.Errorf("expected newest frame 9, got %d", recent[len(recent)-1].Frame)
	}
}

func TestProfiler_RecentShorterThanRequested(t *testing.T) {
	p := NewProfiler(16, 16)
	p.StartFrame()
	p.EndFrame()

	if got := len(p.Recent(5)); got != 1 {
		t.Errorf("expected 1 frame, got %d", got)
	}
}

func TestFrameTiming_CSVColumnsMatchSections(t *testing.T) {
	p := NewProfiler(4, 4)
	p.StartFrame()
	span := p.Begin(SectionDrawRocks)
	time.Sleep(time.Millisecond)
	span.End()
	ft := p.EndFrame()

	row := ft.ToCSV()
	if row.DrawRocksMS <= 0 {
		t.Error("draw_rocks duration lost in CSV conversion")
	}
	if row.TotalMS < row.DrawRocksMS {
		t.Error("CSV total below section value")
	}
	if row.Frame != ft.Frame {
		t.Error("frame id mismatch in CSV row")
	}
}
