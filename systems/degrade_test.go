package systems

import (
	"testing"
	"time"
)

func fillWindow(c *DegradeController, d time.Duration, n int) {
	for i := 0; i < n; i++ {
		c.Observe(d)
	}
}

func TestDegrade_EmptyWindowNeverDegrades(t *testing.T) {
	c := NewDegradeController(30, 2.0, DefaultUnits)

	if c.Plan(100 * time.Millisecond) {
		t.Error("expected no degradation with an empty window")
	}
	for _, id := range DefaultUnits {
		if c.ShouldSkip(id) {
			t.Errorf("unit %s skipped with empty window", id)
		}
	}
}

func TestDegrade_ThresholdAgainstMedian(t *testing.T) {
	c := NewDegradeController(30, 2.0, DefaultUnits)
	fillWindow(c, 16*time.Millisecond, 30)

	if c.Plan(16 * time.Millisecond) {
		t.Error("normal frame marked degraded")
	}
	if !c.Plan(100 * time.Millisecond) {
		t.Error("slow frame not marked degraded")
	}
}

// Ten consecutive 100ms frames against a 16ms median: degraded from the
// first slow previous-total on, and restored within one frame once
// durations drop back.
func TestDegrade_OverloadEpisode(t *testing.T) {
	c := NewDegradeController(60, 2.0, DefaultUnits)
	fillWindow(c, 16*time.Millisecond, 40)

	// Frame 1 follows a normal frame: not degraded.
	if c.Plan(16 * time.Millisecond) {
		t.Error("frame 1 degraded without a slow prior frame")
	}
	c.Observe(100 * time.Millisecond)

	// Frames 2..10 follow 100ms frames.
	for frame := 2; frame <= 10; frame++ {
		if !c.Plan(100 * time.Millisecond) {
			t.Errorf("frame %d not degraded", frame)
		}
		c.Observe(100 * time.Millisecond)
	}

	// Recovery: one fast frame restores full work.
	if c.Plan(16 * time.Millisecond) {
		t.Error("not restored within one frame after recovery")
	}
}

func TestDegrade_NoUnitSkippedTwiceInARow(t *testing.T) {
	c := NewDegradeController(30, 2.0, DefaultUnits)
	fillWindow(c, 16*time.Millisecond, 30)
	for _, id := range DefaultUnits {
		c.ReportCost(id, 4*time.Millisecond)
	}

	prev := make(map[string]bool, len(DefaultUnits))
	for frame := 0; frame < 50; frame++ {
		// Durations repeatedly crossing the threshold.
		last := 100 * time.Millisecond
		if frame%3 == 0 {
			last = 16 * time.Millisecond
		}
		c.Plan(last)

		for _, id := range DefaultUnits {
			skip := c.ShouldSkip(id)
			if skip && prev[id] {
				t.Fatalf("frame %d: unit %s skipped two frames in a row", frame, id)
			}
			prev[id] = skip
		}
		c.Observe(16 * time.Millisecond)
	}
}

func TestDegrade_SkipsHeaviestFirst(t *testing.T) {
	c := NewDegradeController(30, 2.0, DefaultUnits)
	fillWindow(c, 16*time.Millisecond, 30)

	// 70ms of skippable cost; the threshold is 32ms, so skipping the
	// heaviest unit (64ms) is enough.
	c.ReportCost(UnitOSD, 64*time.Millisecond)
	c.ReportCost(UnitEffects, 2*time.Millisecond)
	c.ReportCost(UnitPoseOverlay, 2*time.Millisecond)
	c.ReportCost(UnitBackground, 2*time.Millisecond)

	if !c.Plan(90 * time.Millisecond) {
		t.Fatal("expected degraded frame")
	}
	if !c.ShouldSkip(UnitOSD) {
		t.Error("heaviest unit not skipped")
	}
	if c.ShouldSkip(UnitEffects) {
		t.Error("cheap unit skipped although the heaviest already saved enough")
	}
}

func TestDegrade_MedianIgnoresOutliers(t *testing.T) {
	c := NewDegradeController(60, 2.0, DefaultUnits)
	fillWindow(c, 16*time.Millisecond, 50)
	fillWindow(c, 100*time.Millisecond, 5)

	m := c.Median()
	if m != 16*time.Millisecond {
		t.Errorf("expected median 16ms, got %v", m)
	}
}
