package systems

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Work unit identifiers for optional per-frame work, registered heaviest
// visual work first. The controller ranks and filters these; the main loop
// interprets the decisions with ordinary conditionals.
const (
	UnitEffects     = "effects"
	UnitPoseOverlay = "pose_overlay"
	UnitBackground  = "background"
	UnitOSD         = "osd"
)

// DefaultUnits lists the optional work units in default rank order.
var DefaultUnits = []string{UnitEffects, UnitPoseOverlay, UnitBackground, UnitOSD}

type workUnit struct {
	id          string
	lastCost    time.Duration
	skippedLast bool
	skipNow     bool
}

// DegradeController decides, per frame, which optional work units to skip.
// It keeps a rolling window of total frame durations; when the previous
// frame exceeded a configurable multiple of the window median, it suppresses
// units in descending last-measured-cost order until the predicted frame
// duration falls back under the threshold. No unit is ever skipped two
// frames in a row, bounding the staleness of any single piece of state.
//
// This is a heuristic, not an optimizer: it trades small bounded staleness
// for bounded worst-case latency. It never errors; with an empty window it
// only ever produces all-false decisions.
type DegradeController struct {
	window     []time.Duration
	writeIndex int
	count      int
	multiple   float64

	units   []workUnit
	byID    map[string]int
	scratch []float64

	degraded bool
}

// NewDegradeController creates a controller with the given rolling window
// capacity, median multiple, and work units in rank order.
func NewDegradeController(windowSize int, multiple float64, unitIDs []string) *DegradeController {
	if windowSize < 1 {
		windowSize = 60
	}
	if multiple <= 1 {
		multiple = 2.0
	}
	c := &DegradeController{
		window:   make([]time.Duration, windowSize),
		multiple: multiple,
		units:    make([]workUnit, len(unitIDs)),
		byID:     make(map[string]int, len(unitIDs)),
		scratch:  make([]float64, 0, windowSize),
	}
	for i, id := range unitIDs {
		c.units[i] = workUnit{id: id}
		c.byID[id] = i
	}
	return c
}

// Observe pushes a completed frame's total duration into the window.
func (c *DegradeController) Observe(total time.Duration) {
	c.window[c.writeIndex] = total
	c.writeIndex = (c.writeIndex + 1) % len(c.window)
	if c.count < len(c.window) {
		c.count++
	}
}

// ReportCost records the measured duration of a unit that ran this frame.
// Used to rank skip candidates by how much they are expected to save.
func (c *DegradeController) ReportCost(id string, d time.Duration) {
	if i, ok := c.byID[id]; ok {
		c.units[i].lastCost = d
	}
}

// LastCost returns the last measured duration of a unit, or 0 for an
// unknown id.
func (c *DegradeController) LastCost(id string) time.Duration {
	if i, ok := c.byID[id]; ok {
		return c.units[i].lastCost
	}
	return 0
}

// Median returns the window median, or 0 with an empty window.
func (c *DegradeController) Median() time.Duration {
	if c.count == 0 {
		return 0
	}
	c.scratch = c.scratch[:0]
	for i := 0; i < c.count; i++ {
		c.scratch = append(c.scratch, float64(c.window[i]))
	}
	sort.Float64s(c.scratch)
	return time.Duration(stat.Quantile(0.5, stat.Empirical, c.scratch, nil))
}

// Plan computes this frame's skip decisions from the previous frame's total
// duration. Returns true if the frame is degraded.
func (c *DegradeController) Plan(lastTotal time.Duration) bool {
	// Last frame's decisions become the consecutive-skip guard.
	for i := range c.units {
		c.units[i].skippedLast = c.units[i].skipNow
		c.units[i].skipNow = false
	}

	c.degraded = false
	median := c.Median()
	if median == 0 {
		return false
	}
	threshold := time.Duration(float64(median) * c.multiple)
	if lastTotal <= threshold {
		return false
	}
	c.degraded = true

	// Skip candidates in descending last-measured-cost order until the
	// predicted duration drops under the threshold or the no-consecutive
	// rule blocks further skipping.
	order := make([]int, len(c.units))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return c.units[order[a]].lastCost > c.units[order[b]].lastCost
	})

	predicted := lastTotal
	for _, i := range order {
		if predicted <= threshold {
			break
		}
		if c.units[i].skippedLast {
			continue
		}
		c.units[i].skipNow = true
		predicted -= c.units[i].lastCost
	}
	return true
}

// Degraded reports whether the current frame was planned as degraded.
func (c *DegradeController) Degraded() bool {
	return c.degraded
}

// ShouldSkip reports whether the named unit is suppressed this frame.
func (c *DegradeController) ShouldSkip(id string) bool {
	if i, ok := c.byID[id]; ok {
		return c.units[i].skipNow
	}
	return false
}
