package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/pthm-cable/rockfall/camera"
)

func waitForSeq(t *testing.T, slot *Slot[*camera.Frame], min uint64, timeout time.Duration) uint64 {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		_, seq, _, ok := slot.Read()
		if ok && seq >= min {
			return seq
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("slot did not reach seq %d within %s", min, timeout)
	return 0
}

func TestCaptureStage_PublishesIncrementingSeq(t *testing.T) {
	slot := NewSlot[*camera.Frame]()
	stage := NewCaptureStage(camera.SyntheticOpener(0), CaptureConfig{Width: 64, Height: 48}, slot)

	ctx, cancel := context.WithCancel(context.Background())
	if err := stage.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	waitForSeq(t, slot, 50, 2*time.Second)

	frame, seq, _, ok := slot.Read()
	if !ok {
		t.Fatal("expected frames published")
	}
	if frame.Seq != seq {
		t.Errorf("frame seq %d does not match slot seq %d", frame.Seq, seq)
	}
	if frame.Timestamp.IsZero() {
		t.Error("expected capture timestamp set")
	}

	cancel()
	stage.Wait()
}

func TestCaptureStage_RetryThenStatusEscalation(t *testing.T) {
	dev := camera.NewSyntheticDevice(64, 48, 0)
	dev.FailAfter(3)

	opened := 0
	opener := camera.OpenerFunc(func(index, w, h int) (camera.Device, error) {
		opened++
		if opened == 1 {
			return dev, nil
		}
		return camera.NewSyntheticDevice(w, h, 0), nil
	})

	slot := NewSlot[*camera.Frame]()
	stage := NewCaptureStage(opener, CaptureConfig{
		Width: 64, Height: 48,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	}, slot)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := stage.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	select {
	case ev := <-stage.Status():
		if ev.Kind != StatusCaptureFailed {
			t.Fatalf("expected CaptureFailed, got %v", ev.Kind)
		}
		if ev.Err == nil {
			t.Error("expected failure reason attached")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a capture-failed status event")
	}

	// The main loop's response: cycle to the next device. The stage must
	// recover and resume publishing with its sequence intact.
	before, _, _, _ := slot.Read()
	var beforeSeq uint64
	if before != nil {
		beforeSeq = before.Seq
	}
	stage.RequestDeviceCycle(1)

	select {
	case ev := <-stage.Status():
		if ev.Kind != StatusDeviceCycled || ev.DeviceIndex != 1 {
			t.Fatalf("expected DeviceCycled on index 1, got %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a device-cycled status event")
	}

	waitForSeq(t, slot, beforeSeq+10, 2*time.Second)

	cancel()
	stage.Wait()
}

func TestCaptureStage_ShutdownClosesDevice(t *testing.T) {
	dev := camera.NewSyntheticDevice(64, 48, 0)
	opener := camera.OpenerFunc(func(index, w, h int) (camera.Device, error) {
		return dev, nil
	})

	slot := NewSlot[*camera.Frame]()
	stage := NewCaptureStage(opener, CaptureConfig{Width: 64, Height: 48}, slot)

	ctx, cancel := context.WithCancel(context.Background())
	if err := stage.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitForSeq(t, slot, 1, 2*time.Second)

	cancel()
	stage.Wait()

	if _, err := dev.ReadFrame(); err != camera.ErrDeviceClosed {
		t.Errorf("expected device closed after shutdown, got %v", err)
	}
}
