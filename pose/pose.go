// Package pose defines the analysis collaborator boundary: an estimator
// consumes a camera frame and returns per-person keypoint circles grouped
// by body region.
package pose

import (
	"github.com/pthm-cable/rockfall/camera"
)

// Region tags for keypoint groups. The set is fixed; consumers (collision,
// rendering, CSV tooling) rely on it not growing at runtime.
const (
	RegionHead  = "head"
	RegionHands = "hands"
	RegionFeet  = "feet"
)

// Regions lists all region tags in stable order.
var Regions = []string{RegionHead, RegionHands, RegionFeet}

// Circle is a keypoint with an effective radius, in frame pixel coordinates.
type Circle struct {
	X, Y float32
	R    float32
}

// Person holds the keypoint circles for one detected subject.
type Person struct {
	Head  []Circle
	Hands []Circle
	Feet  []Circle
}

// Region returns the circles for the given region tag.
func (p *Person) Region(tag string) []Circle {
	switch tag {
	case RegionHead:
		return p.Head
	case RegionHands:
		return p.Hands
	case RegionFeet:
		return p.Feet
	}
	return nil
}

// Result is one inference output. Seq is the sequence number of the camera
// frame it was derived from; staleness is measured against it downstream.
type Result struct {
	People []Person
	Seq    uint64
}

// Estimator runs pose inference on a single frame. Implementations may be
// slow (tens of milliseconds); the pipeline guarantees at most one call in
// flight. Called only from the inference stage goroutine.
type Estimator interface {
	Infer(frame *camera.Frame, maxSubjects int) ([]Person, error)
	Close() error
}
