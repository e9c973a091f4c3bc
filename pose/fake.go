package pose

import (
	"sync/atomic"
	"time"

	"github.com/pthm-cable/rockfall/camera"
)

// FakeEstimator returns scripted results, optionally after a fixed delay.
// Used by tests and the synthetic demo mode.
type FakeEstimator struct {
	// Delay simulates inference cost per call.
	Delay time.Duration

	// People is returned for every call. Nil means "no subjects".
	People []Person

	// Err, when non-nil, is returned every FailEvery-th call (every call if
	// FailEvery is zero).
	Err       error
	FailEvery int

	calls atomic.Int64
}

// Infer implements Estimator.
func (f *FakeEstimator) Infer(frame *camera.Frame, maxSubjects int) ([]Person, error) {
	n := f.calls.Add(1)
	if f.Delay > 0 {
		time.Sleep(f.Delay)
	}
	if f.Err != nil {
		if f.FailEvery <= 0 || n%int64(f.FailEvery) == 0 {
			return nil, f.Err
		}
	}
	people := f.People
	if len(people) > maxSubjects {
		people = people[:maxSubjects]
	}
	return people, nil
}

// Close implements Estimator.
func (f *FakeEstimator) Close() error { return nil }

// Calls returns how many times Infer has been invoked.
func (f *FakeEstimator) Calls() int64 { return f.calls.Load() }
