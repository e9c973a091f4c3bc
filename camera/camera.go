// Package camera defines the capture collaborator boundary: opening a
// device, reading raw frames, and enumerating candidates for the selection
// menu. The concrete driver lives behind the Device interface; this package
// ships a synthetic device for demos and tests.
package camera

import (
	"fmt"
	"time"
)

// Frame is one captured image. The buffer is owned by the pipeline once
// published: producers must not mutate Pixels after handing the frame off,
// and consumers treat it as read-only. A new capture allocates a new frame,
// so a snapshot already obtained by a reader stays valid.
type Frame struct {
	// Pixels is the raw image buffer, RGBA, row-major, Width*Height*4 bytes.
	Pixels []byte

	Width  int
	Height int

	// Seq is assigned by the capture stage, monotonically increasing.
	Seq uint64

	// Timestamp is the capture time (source time, not processing time).
	Timestamp time.Time
}

// Device is an open capture handle. ReadFrame blocks until a frame is
// available or the device fails. All methods are called from a single
// goroutine (the capture stage owns the handle).
type Device interface {
	ReadFrame() (*Frame, error)
	Close() error
}

// Opener opens a capture device by index at the requested resolution.
type Opener interface {
	Open(deviceIndex, width, height int) (Device, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(deviceIndex, width, height int) (Device, error)

// Open implements Opener.
func (f OpenerFunc) Open(deviceIndex, width, height int) (Device, error) {
	return f(deviceIndex, width, height)
}

// Info describes a scanned capture candidate for the selection menu.
type Info struct {
	Index   int
	Name    string
	Width   int
	Height  int
}

// Label formats an Info the way the selection menu lists it.
func (i Info) Label() string {
	name := i.Name
	if name == "" {
		name = "camera"
	}
	return fmt.Sprintf("[%d] %s %dx%d", i.Index, name, i.Width, i.Height)
}

// Scan probes device indices 0..maxIndex with the given opener and returns
// the ones that open and deliver a first frame. Devices are closed again
// before returning; the menu reopens the chosen one.
func Scan(op Opener, maxIndex, width, height int) []Info {
	var found []Info
	for idx := 0; idx <= maxIndex; idx++ {
		dev, err := op.Open(idx, width, height)
		if err != nil {
			continue
		}
		frame, err := dev.ReadFrame()
		if err == nil && frame != nil {
			found = append(found, Info{
				Index:  idx,
				Width:  frame.Width,
				Height: frame.Height,
			})
		}
		dev.Close()
	}
	return found
}
