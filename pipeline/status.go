package pipeline

// StatusKind identifies a cross-stage signal. These travel on the status
// channel, never on the data slots.
type StatusKind int

const (
	// StatusCaptureFailed means the capture stage exhausted its retry
	// budget for the current device. The main loop is expected to request
	// a device cycle.
	StatusCaptureFailed StatusKind = iota

	// StatusDeviceCycled means the capture stage finished switching to a
	// new device index.
	StatusDeviceCycled
)

// StatusEvent is one signal from the capture stage to the main loop.
type StatusEvent struct {
	Kind        StatusKind
	DeviceIndex int
	Err         error
}
