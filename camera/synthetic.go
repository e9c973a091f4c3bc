package camera

import (
	"errors"
	"sync/atomic"
	"time"
)

// ErrDeviceClosed is returned by ReadFrame after Close.
var ErrDeviceClosed = errors.New("camera: device closed")

// SyntheticDevice generates flat-colored frames at a fixed rate. It stands
// in for a real driver in the demo binary and in tests, including scripted
// read failures for exercising the capture stage's retry path.
type SyntheticDevice struct {
	Width     int
	Height    int
	FrameRate int // frames per second; 0 means unpaced

	// failAfter, when > 0, makes every read past that count fail until
	// ClearFailure is called. Atomics so tests can script episodes while
	// the capture goroutine is reading.
	failAfter atomic.Int64
	reads     atomic.Int64
	closed    atomic.Bool
}

// NewSyntheticDevice returns a synthetic device at the given resolution.
func NewSyntheticDevice(width, height, fps int) *SyntheticDevice {
	return &SyntheticDevice{Width: width, Height: height, FrameRate: fps}
}

// SyntheticOpener returns an Opener whose every index yields a fresh
// synthetic device.
func SyntheticOpener(fps int) Opener {
	return OpenerFunc(func(deviceIndex, width, height int) (Device, error) {
		return NewSyntheticDevice(width, height, fps), nil
	})
}

// FailAfter starts a failure episode: every read past n fails until
// ClearFailure.
func (d *SyntheticDevice) FailAfter(n int64) {
	d.reads.Store(0)
	d.failAfter.Store(n)
}

// ClearFailure ends a scripted failure episode.
func (d *SyntheticDevice) ClearFailure() {
	d.failAfter.Store(0)
	d.reads.Store(0)
}

// ReadFrame implements Device.
func (d *SyntheticDevice) ReadFrame() (*Frame, error) {
	if d.closed.Load() {
		return nil, ErrDeviceClosed
	}
	reads := d.reads.Add(1)
	if fa := d.failAfter.Load(); fa > 0 && reads > fa {
		return nil, errors.New("camera: synthetic read failure")
	}
	if d.FrameRate > 0 {
		time.Sleep(time.Second / time.Duration(d.FrameRate))
	}

	pixels := make([]byte, d.Width*d.Height*4)
	// Shade drifts with the read count so consecutive frames differ.
	shade := byte(32 + (reads*3)%160)
	for i := 0; i < len(pixels); i += 4 {
		pixels[i] = shade
		pixels[i+1] = shade
		pixels[i+2] = shade / 2
		pixels[i+3] = 255
	}
	return &Frame{
		Pixels:    pixels,
		Width:     d.Width,
		Height:    d.Height,
		Timestamp: time.Now(),
	}, nil
}

// Close implements Device.
func (d *SyntheticDevice) Close() error {
	d.closed.Store(true)
	return nil
}
