package pose

import (
	"math"
	"time"

	"github.com/pthm-cable/rockfall/camera"
)

// SweepEstimator is a stand-in driver for demos and soak runs: it
// synthesizes subjects whose circles sweep across the frame. Deterministic
// in the frame seq, so a replayed capture yields identical results.
type SweepEstimator struct {
	Delay    time.Duration // simulated inference cost per call
	Subjects int           // people to synthesize, clamped by maxSubjects
}

// Infer produces Subjects synthetic people placed from the frame seq.
func (e *SweepEstimator) Infer(frame *camera.Frame, maxSubjects int) ([]Person, error) {
	if e.Delay > 0 {
		time.Sleep(e.Delay)
	}

	n := e.Subjects
	if n < 1 {
		n = 1
	}
	if n > maxSubjects {
		n = maxSubjects
	}

	w := float32(frame.Width)
	h := float32(frame.Height)
	phase := float64(frame.Seq) * 0.02

	people := make([]Person, 0, n)
	for i := 0; i < n; i++ {
		// Each subject sweeps its own half (or the whole frame solo).
		lane := w
		offset := float32(0)
		if n > 1 {
			lane = w / float32(n)
			offset = lane * float32(i)
		}
		cx := offset + lane/2 + lane*0.35*float32(math.Sin(phase+float64(i)*math.Pi/2))

		people = append(people, Person{
			Head:  []Circle{{X: cx, Y: h * 0.30, R: 40}},
			Hands: []Circle{{X: cx - 80, Y: h * 0.50, R: 28}, {X: cx + 80, Y: h * 0.50, R: 28}},
			Feet:  []Circle{{X: cx - 40, Y: h * 0.85, R: 30}, {X: cx + 40, Y: h * 0.85, R: 30}},
		})
	}
	return people, nil
}

// Close implements Estimator.
func (e *SweepEstimator) Close() error { return nil }
