// Package pipeline implements the capture → inference → game data path:
// latest-wins slots shared between stages, the capture stage with retry and
// device cycling, and the inference stage bounded to one call in flight.
package pipeline

import (
	"sync"
	"time"
)

// Slot is a single-value mailbox: each Publish overwrites the previous
// value, readers get a snapshot of the most recent one. There is no queue
// and no blocking on either side; slow readers simply skip intermediate
// values. Safe for one writer and any number of concurrent readers.
type Slot[T any] struct {
	mu    sync.Mutex
	value T
	seq   uint64
	ts    time.Time
	set   bool

	// notify carries a coalesced "new data" token so a consumer can wait
	// without busy-spinning. Capacity 1; a full channel means a wake-up is
	// already pending, which is all a latest-wins consumer needs.
	notify chan struct{}
}

// NewSlot creates an empty slot.
func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{notify: make(chan struct{}, 1)}
}

// Publish replaces the slot's value and metadata. seq is supplied by the
// producer and must be monotonically increasing (the capture stage numbers
// frames, the inference stage tags results with the source frame's seq).
// Never blocks.
func (s *Slot[T]) Publish(v T, seq uint64) {
	s.mu.Lock()
	s.value = v
	s.seq = seq
	s.ts = time.Now()
	s.set = true
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default: // wake-up already pending
	}
}

// Read returns a snapshot of the latest published value and its metadata.
// ok is false until the first Publish. Never blocks.
func (s *Slot[T]) Read() (v T, seq uint64, ts time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.seq, s.ts, s.set
}

// Notify returns the channel that receives a token after each Publish,
// coalesced to at most one pending token. Intended for a single consumer.
func (s *Slot[T]) Notify() <-chan struct{} {
	return s.notify
}
