// Package telemetry provides per-frame section timing with bounded history
// and CSV export for offline analysis.
package telemetry

import (
	"fmt"
	"log/slog"
	"time"
)

// Section names for one main-loop frame. The set is fixed ahead of time;
// the CSV column order follows Sections and analysis tooling relies on it.
const (
	SectionCaptureRead = "capture_read"
	SectionPoseRead    = "pose_read"
	SectionSimulate    = "simulate"
	SectionSpatialGrid = "spatial_grid"
	SectionCollide     = "collide"
	SectionEffects     = "effects"
	SectionDrawCamera  = "draw_camera"
	SectionDrawPose    = "draw_pose"
	SectionDrawRocks   = "draw_rocks"
	SectionDrawHUD     = "draw_hud"
)

// Sections lists all section names in stable (export) order.
var Sections = []string{
	SectionCaptureRead,
	SectionPoseRead,
	SectionSimulate,
	SectionSpatialGrid,
	SectionCollide,
	SectionEffects,
	SectionDrawCamera,
	SectionDrawPose,
	SectionDrawRocks,
	SectionDrawHUD,
}

// NumSections is the size of the fixed section set.
const NumSections = 10

// FrameTiming holds the completed timings of one frame. Immutable after the
// profiler flushes it.
type FrameTiming struct {
	Frame    int64
	Start    time.Time
	Total    time.Duration
	Sections [NumSections]time.Duration // indexed by position in Sections
}

// Section returns the duration recorded for the named section.
func (ft *FrameTiming) Section(name string) time.Duration {
	for i, n := range Sections {
		if n == name {
			return ft.Sections[i]
		}
	}
	return 0
}

// SectionSum returns the total time attributed to named sections.
func (ft *FrameTiming) SectionSum() time.Duration {
	var sum time.Duration
	for _, d := range ft.Sections {
		sum += d
	}
	return sum
}

// Unaccounted returns the frame time not attributed to any section. This is
// a first-class observable (renderer overruns land here), not an error.
func (ft *FrameTiming) Unaccounted() time.Duration {
	if u := ft.Total - ft.SectionSum(); u > 0 {
		return u
	}
	return 0
}

// Profiler accumulates section timings for the frame in progress and keeps
// a fixed-capacity ring of completed frames. Owned by the main loop; not
// safe for concurrent use and not meant to be.
type Profiler struct {
	index map[string]int

	current    [NumSections]time.Duration
	frame      int64
	frameStart time.Time

	history    []FrameTiming
	writeIndex int
	count      int

	avgWindow int
}

// NewProfiler creates a profiler with the given ring capacity and rolling
// average window (both in frames).
func NewProfiler(historySize, avgWindow int) *Profiler {
	if historySize < 1 {
		historySize = 600
	}
	if avgWindow < 1 {
		avgWindow = 60
	}
	idx := make(map[string]int, NumSections)
	for i, n := range Sections {
		idx[n] = i
	}
	return &Profiler{
		index:     idx,
		history:   make([]FrameTiming, historySize),
		avgWindow: avgWindow,
	}
}

// StartFrame begins timing a new frame and resets section accumulators.
func (p *Profiler) StartFrame() {
	p.frameStart = time.Now()
	p.current = [NumSections]time.Duration{}
}

// Span times one open section. End records the elapsed time exactly once,
// so it is safe to defer on paths with early returns.
type Span struct {
	p     *Profiler
	idx   int
	t0    time.Time
	ended bool
}

// Begin opens a section span. Unknown names yield a no-op span.
func (p *Profiler) Begin(name string) Span {
	idx, ok := p.index[name]
	if !ok {
		return Span{idx: -1}
	}
	return Span{p: p, idx: idx, t0: time.Now()}
}

// End closes the span, accumulating its elapsed time into the current
// frame. Subsequent calls are no-ops.
func (s *Span) End() {
	if s.p == nil || s.ended || s.idx < 0 {
		return
	}
	s.ended = true
	s.p.current[s.idx] += time.Since(s.t0)
}

// EndFrame completes the frame: computes the wall-clock total, pushes the
// FrameTiming into the ring (oldest evicted), and returns it for export.
func (p *Profiler) EndFrame() FrameTiming {
	ft := FrameTiming{
		Frame:    p.frame,
		Start:    p.frameStart,
		Total:    time.Since(p.frameStart),
		Sections: p.current,
	}
	p.frame++

	p.history[p.writeIndex] = ft
	p.writeIndex = (p.writeIndex + 1) % len(p.history)
	if p.count < len(p.history) {
		p.count++
	}
	return ft
}

// Recent returns the last n completed frames, newest last. Fewer are
// returned if history is shorter.
func (p *Profiler) Recent(n int) []FrameTiming {
	if n > p.count {
		n = p.count
	}
	out := make([]FrameTiming, 0, n)
	for i := n; i > 0; i-- {
		idx := (p.writeIndex - i + len(p.history)) % len(p.history)
		out = append(out, p.history[idx])
	}
	return out
}

// Averages returns rolling mean durations over the average window: one
// entry per section, plus "frame_total" and "other" (unaccounted).
func (p *Profiler) Averages() map[string]time.Duration {
	recent := p.Recent(p.avgWindow)
	out := make(map[string]time.Duration, NumSections+2)
	if len(recent) == 0 {
		return out
	}

	var total, other time.Duration
	var sums [NumSections]time.Duration
	for i := range recent {
		total += recent[i].Total
		other += recent[i].Unaccounted()
		for j, d := range recent[i].Sections {
			sums[j] += d
		}
	}

	n := time.Duration(len(recent))
	out["frame_total"] = total / n
	out["other"] = other / n
	for j, name := range Sections {
		out[name] = sums[j] / n
	}
	return out
}

// LogValue implements slog.LogValuer so periodic perf logging stays
// structured.
func (p *Profiler) LogValue() slog.Value {
	avg := p.Averages()
	attrs := make([]slog.Attr, 0, len(avg))
	attrs = append(attrs,
		slog.Int64("frame_total_us", avg["frame_total"].Microseconds()),
		slog.Int64("other_us", avg["other"].Microseconds()),
	)
	for _, name := range Sections {
		attrs = append(attrs, slog.Int64(name+"_us", avg[name].Microseconds()))
	}
	return slog.GroupValue(attrs...)
}

// OSDLines returns human-readable rolling averages for the on-screen
// profiler overlay, one line per section plus the frame total and the
// unattributed remainder.
func (p *Profiler) OSDLines() []string {
	avg := p.Averages()
	frameMS := float64(avg["frame_total"]) / float64(time.Millisecond)

	fps := 0.0
	if frameMS > 0 {
		fps = 1000.0 / frameMS
	}
	lines := make([]string, 0, NumSections+2)
	lines = append(lines, fmt.Sprintf("prof: frame %.1f ms (%.1f fps)", frameMS, fps))

	pct := func(d time.Duration) float64 {
		if frameMS <= 0 {
			return 0
		}
		return float64(d) / float64(time.Millisecond) / frameMS * 100
	}
	for _, name := range Sections {
		d := avg[name]
		lines = append(lines, fmt.Sprintf(" - %s: %.1f ms (%.0f%%)", name, float64(d)/float64(time.Millisecond), pct(d)))
	}
	if other := avg["other"]; other > 100*time.Microsecond {
		lines = append(lines, fmt.Sprintf(" - other: %.1f ms (%.0f%%)", float64(other)/float64(time.Millisecond), pct(other)))
	}
	return lines
}
