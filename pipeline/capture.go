package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pthm-cable/rockfall/camera"
)

// CaptureConfig holds the capture stage parameters.
type CaptureConfig struct {
	DeviceIndex int
	Width       int
	Height      int

	// RetryAttempts bounds the reads retried inside one failure episode
	// before the stage escalates on the status channel.
	RetryAttempts int

	// RetryDelay is the base backoff between retries; it doubles per
	// attempt within an episode.
	RetryDelay time.Duration
}

// CaptureStage pulls frames from the device on its own goroutine and
// publishes them into the frame slot with an incrementing sequence number.
// The device handle is owned exclusively by the stage goroutine; cycling to
// another index happens there too, triggered by RequestDeviceCycle.
type CaptureStage struct {
	opener camera.Opener
	cfg    CaptureConfig
	out    *Slot[*camera.Frame]

	status chan StatusEvent
	cycle  chan int

	wg sync.WaitGroup
}

// NewCaptureStage creates a capture stage publishing into out.
func NewCaptureStage(opener camera.Opener, cfg CaptureConfig, out *Slot[*camera.Frame]) *CaptureStage {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 5
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 20 * time.Millisecond
	}
	return &CaptureStage{
		opener: opener,
		cfg:    cfg,
		out:    out,
		status: make(chan StatusEvent, 8),
		cycle:  make(chan int, 1),
	}
}

// Start opens the initial device and spawns the capture loop. Opening
// synchronously lets a dead camera surface as a startup error instead of a
// status event.
func (c *CaptureStage) Start(ctx context.Context) error {
	dev, err := c.opener.Open(c.cfg.DeviceIndex, c.cfg.Width, c.cfg.Height)
	if err != nil {
		return fmt.Errorf("opening capture device %d: %w", c.cfg.DeviceIndex, err)
	}
	c.wg.Add(1)
	go c.run(ctx, dev, c.cfg.DeviceIndex)
	return nil
}

// Wait blocks until the capture loop has exited and the device is closed.
// Call after cancelling the context passed to Start.
func (c *CaptureStage) Wait() {
	c.wg.Wait()
}

// Status returns the stage's signal channel. Events are dropped, not
// blocked on, if the consumer falls behind.
func (c *CaptureStage) Status() <-chan StatusEvent {
	return c.status
}

// RequestDeviceCycle asks the stage to close its device and reopen at the
// given index. Coalesced: a newer request replaces a pending one.
func (c *CaptureStage) RequestDeviceCycle(index int) {
	select {
	case <-c.cycle:
	default:
	}
	c.cycle <- index
}

func (c *CaptureStage) emit(ev StatusEvent) {
	select {
	case c.status <- ev:
	default:
	}
}

func (c *CaptureStage) run(ctx context.Context, dev camera.Device, index int) {
	defer c.wg.Done()
	defer func() {
		if dev != nil {
			dev.Close()
		}
	}()

	var seq uint64
	failures := 0

	for {
		if ctx.Err() != nil {
			return
		}

		select {
		case next := <-c.cycle:
			dev, index = c.cycleDevice(dev, index, next)
			failures = 0
			continue
		default:
		}

		if dev == nil {
			// Last cycle attempt failed; only a new request or shutdown
			// gets us out.
			select {
			case <-ctx.Done():
				return
			case next := <-c.cycle:
				dev, index = c.cycleDevice(dev, index, next)
				failures = 0
			}
			continue
		}

		frame, err := dev.ReadFrame()
		if err != nil {
			failures++
			if failures > c.cfg.RetryAttempts {
				slog.Error("capture failed, retries exhausted",
					"device", index, "attempts", failures-1, "error", err)
				c.emit(StatusEvent{Kind: StatusCaptureFailed, DeviceIndex: index, Err: err})
				select {
				case <-ctx.Done():
					return
				case next := <-c.cycle:
					dev, index = c.cycleDevice(dev, index, next)
					failures = 0
				}
				continue
			}

			backoff := c.cfg.RetryDelay << (failures - 1)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			continue
		}
		failures = 0

		seq++
		frame.Seq = seq
		if frame.Timestamp.IsZero() {
			frame.Timestamp = time.Now()
		}
		c.out.Publish(frame, seq)
	}
}

// cycleDevice closes the current handle and opens the requested index. Runs
// on the stage goroutine only.
func (c *CaptureStage) cycleDevice(dev camera.Device, current, next int) (camera.Device, int) {
	if dev != nil {
		dev.Close()
	}
	opened, err := c.opener.Open(next, c.cfg.Width, c.cfg.Height)
	if err != nil {
		slog.Error("device cycle failed", "from", current, "to", next, "error", err)
		c.emit(StatusEvent{Kind: StatusCaptureFailed, DeviceIndex: next, Err: err})
		return nil, next
	}
	slog.Info("capture device cycled", "from", current, "to", next)
	c.emit(StatusEvent{Kind: StatusDeviceCycled, DeviceIndex: next})
	return opened, next
}
