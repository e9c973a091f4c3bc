package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/rockfall/camera"
	"github.com/pthm-cable/rockfall/config"
	"github.com/pthm-cable/rockfall/game"
	"github.com/pthm-cable/rockfall/pipeline"
	"github.com/pthm-cable/rockfall/pose"
	"github.com/pthm-cable/rockfall/renderer"
	"github.com/pthm-cable/rockfall/telemetry"
	"github.com/pthm-cable/rockfall/ui"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	selectCam := flag.Bool("select-camera", false, "Show the camera selection menu on startup")
	outputDir := flag.String("output-dir", "", "Output directory for profile CSV and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxFrames := flag.Int64("max-frames", 0, "Stop after N frames (0 = unlimited)")
	inferDelay := flag.Duration("infer-delay", 8*time.Millisecond, "Simulated inference cost of the stand-in estimator")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Capture and analysis drivers are external collaborators; the module
	// ships synthetic stand-ins so the loop runs end to end out of the box.
	opener := camera.SyntheticOpener(cfg.Screen.TargetFPS)
	estimator := &pose.SweepEstimator{
		Delay:    *inferDelay,
		Subjects: cfg.Players.Count,
	}

	om, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	if om != nil {
		slog.Info("output enabled", "run_id", om.RunID(), "dir", om.Dir())
		if err := om.WriteConfig(cfg); err != nil {
			slog.Warn("config snapshot failed", "error", err)
		}
	}

	if !*headless {
		rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Rockfall")
		defer rl.CloseWindow()
		rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

		if *selectCam {
			index, ok := runCameraMenu(opener, cfg)
			if !ok {
				return // user closed the window
			}
			cfg.Capture.DeviceIndex = index
			slog.Info("camera selected", "device_index", index)
		}
	}

	// Pipeline wiring: capture -> slot A -> inference -> slot B.
	frames := pipeline.NewSlot[*camera.Frame]()
	poses := pipeline.NewSlot[pose.Result]()

	capture := pipeline.NewCaptureStage(opener, pipeline.CaptureConfig{
		DeviceIndex:   cfg.Capture.DeviceIndex,
		Width:         cfg.Capture.Width,
		Height:        cfg.Capture.Height,
		RetryAttempts: cfg.Capture.RetryAttempts,
		RetryDelay:    time.Duration(cfg.Capture.RetryDelayMS * float64(time.Millisecond)),
	}, frames)
	infer := pipeline.NewInferStage(estimator, frames, poses, cfg.Inference.MaxSubjects)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := capture.Start(ctx); err != nil {
		slog.Error("failed to open capture device", "device_index", cfg.Capture.DeviceIndex, "error", err)
		os.Exit(1)
	}
	infer.Start(ctx)

	g := game.NewGame(game.Options{
		Seed:               rngSeed,
		Frames:             frames,
		Poses:              poses,
		Status:             capture.Status(),
		RequestDeviceCycle: capture.RequestDeviceCycle,
		Output:             om,
	})

	slog.Info("starting",
		"seed", rngSeed,
		"headless", *headless,
		"players", cfg.Players.Count,
		"max_frames", *maxFrames,
	)

	if *headless {
		dt := 1.0 / float64(cfg.Screen.TargetFPS)
		for *maxFrames == 0 || g.FrameIndex() < *maxFrames {
			g.Step(dt)
		}
	} else {
		g.SetRenderer(renderer.New(g.Profiler(), cfg.Screen.Width, cfg.Screen.Height))
		for !rl.WindowShouldClose() {
			g.Step(float64(rl.GetFrameTime()))
			if *maxFrames > 0 && g.FrameIndex() >= *maxFrames {
				break
			}
		}
	}

	// Orderly shutdown: stop the stages, let in-flight work finish, then
	// flush outputs.
	cancel()
	capture.Wait()
	infer.Wait()
	if err := estimator.Close(); err != nil {
		slog.Warn("estimator close failed", "error", err)
	}
	g.Unload()
	if err := om.Close(); err != nil {
		slog.Warn("output close failed", "error", err)
	}
	slog.Info("stopped", "frames", g.FrameIndex(), "inference_errors", infer.ErrCount())
}

// runCameraMenu drives the selection menu until the user confirms or
// closes the window.
func runCameraMenu(opener camera.Opener, cfg *config.Config) (int, bool) {
	menu := ui.NewCameraMenu(opener, cfg.Capture.ScanMaxIndex, cfg.Capture.Width, cfg.Capture.Height)
	for !rl.WindowShouldClose() {
		rl.BeginDrawing()
		index, done := menu.Step()
		rl.EndDrawing()
		if done {
			return index, true
		}
	}
	return 0, false
}
