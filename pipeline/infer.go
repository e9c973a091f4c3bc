package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pthm-cable/rockfall/camera"
	"github.com/pthm-cable/rockfall/pose"
)

// InferStage consumes the latest captured frame, runs the estimator, and
// publishes the result tagged with the source frame's sequence number.
// Exactly one Infer call is in flight at any time: a frame arriving
// mid-call is picked up as "pending latest" after the call returns, never
// preempted. Estimator errors are logged and counted, never propagated;
// the previously published result stays current.
type InferStage struct {
	est         pose.Estimator
	in          *Slot[*camera.Frame]
	out         *Slot[pose.Result]
	maxSubjects int

	errCount atomic.Uint64
	wg       sync.WaitGroup
}

// NewInferStage creates an inference stage between the two slots.
func NewInferStage(est pose.Estimator, in *Slot[*camera.Frame], out *Slot[pose.Result], maxSubjects int) *InferStage {
	if maxSubjects <= 0 {
		maxSubjects = 2
	}
	return &InferStage{est: est, in: in, out: out, maxSubjects: maxSubjects}
}

// Start spawns the inference loop.
func (s *InferStage) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

// Wait blocks until the loop has exited. Call after cancelling the context;
// an in-flight Infer call completes first.
func (s *InferStage) Wait() {
	s.wg.Wait()
}

// ErrCount returns how many estimator calls have failed so far.
func (s *InferStage) ErrCount() uint64 {
	return s.errCount.Load()
}

func (s *InferStage) run(ctx context.Context) {
	defer s.wg.Done()

	var lastSeq uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.in.Notify():
		}

		frame, seq, _, ok := s.in.Read()
		if !ok || seq == lastSeq {
			continue
		}

		people, err := s.est.Infer(frame, s.maxSubjects)

		// The frame is consumed either way; a failed item is skipped, not
		// retried, so one bad frame cannot stall the pipeline.
		lastSeq = seq

		if err != nil {
			s.errCount.Add(1)
			slog.Warn("pose inference failed", "seq", seq, "error", err)
			continue
		}

		s.out.Publish(pose.Result{People: people, Seq: seq}, seq)
	}
}
