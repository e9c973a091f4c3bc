package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"github.com/pthm-cable/rockfall/config"
)

// FrameRowCSV is one exported profiler row: frame id, wall-clock timestamp,
// total, one column per fixed section. Column order is stable; offline
// tooling depends on it.
type FrameRowCSV struct {
	Frame         int64   `csv:"frame"`
	TS            float64 `csv:"ts"`
	TotalMS       float64 `csv:"total_ms"`
	CaptureReadMS float64 `csv:"capture_read_ms"`
	PoseReadMS    float64 `csv:"pose_read_ms"`
	SimulateMS    float64 `csv:"simulate_ms"`
	SpatialGridMS float64 `csv:"spatial_grid_ms"`
	CollideMS     float64 `csv:"collide_ms"`
	EffectsMS     float64 `csv:"effects_ms"`
	DrawCameraMS  float64 `csv:"draw_camera_ms"`
	DrawPoseMS    float64 `csv:"draw_pose_ms"`
	DrawRocksMS   float64 `csv:"draw_rocks_ms"`
	DrawHUDMS     float64 `csv:"draw_hud_ms"`
}

// SectionMS returns the row's value for the named section column.
func (r *FrameRowCSV) SectionMS(name string) float64 {
	switch name {
	case SectionCaptureRead:
		return r.CaptureReadMS
	case SectionPoseRead:
		return r.PoseReadMS
	case SectionSimulate:
		return r.SimulateMS
	case SectionSpatialGrid:
		return r.SpatialGridMS
	case SectionCollide:
		return r.CollideMS
	case SectionEffects:
		return r.EffectsMS
	case SectionDrawCamera:
		return r.DrawCameraMS
	case SectionDrawPose:
		return r.DrawPoseMS
	case SectionDrawRocks:
		return r.DrawRocksMS
	case SectionDrawHUD:
		return r.DrawHUDMS
	}
	return 0
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// ToCSV converts a flushed FrameTiming to its export row.
func (ft *FrameTiming) ToCSV() FrameRowCSV {
	return FrameRowCSV{
		Frame:         ft.Frame,
		TS:            float64(ft.Start.UnixNano()) / 1e9,
		TotalMS:       ms(ft.Total),
		CaptureReadMS: ms(ft.Section(SectionCaptureRead)),
		PoseReadMS:    ms(ft.Section(SectionPoseRead)),
		SimulateMS:    ms(ft.Section(SectionSimulate)),
		SpatialGridMS: ms(ft.Section(SectionSpatialGrid)),
		CollideMS:     ms(ft.Section(SectionCollide)),
		EffectsMS:     ms(ft.Section(SectionEffects)),
		DrawCameraMS:  ms(ft.Section(SectionDrawCamera)),
		DrawPoseMS:    ms(ft.Section(SectionDrawPose)),
		DrawRocksMS:   ms(ft.Section(SectionDrawRocks)),
		DrawHUDMS:     ms(ft.Section(SectionDrawHUD)),
	}
}

// OutputManager handles structured run output: profile.csv plus a config
// snapshot, under a per-run directory named by a run ID.
type OutputManager struct {
	dir         string
	runID       string
	profileFile *os.File

	profileHeaderWritten bool
}

// NewOutputManager creates the run directory and opens profile.csv.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	runID := uuid.NewString()
	runDir := filepath.Join(dir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: runDir, runID: runID}

	f, err := os.Create(filepath.Join(runDir, "profile.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating profile.csv: %w", err)
	}
	om.profileFile = f

	return om, nil
}

// RunID returns the unique identifier of this run.
func (om *OutputManager) RunID() string {
	if om == nil {
		return ""
	}
	return om.runID
}

// Dir returns the run output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// WriteConfig saves the active configuration as YAML alongside the data.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteProfile appends one frame row to profile.csv.
func (om *OutputManager) WriteProfile(ft FrameTiming) error {
	if om == nil {
		return nil
	}

	records := []FrameRowCSV{ft.ToCSV()}

	if !om.profileHeaderWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, om.profileFile); err != nil {
			return fmt.Errorf("writing profile: %w", err)
		}
		om.profileHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.profileFile); err != nil {
			return fmt.Errorf("writing profile: %w", err)
		}
	}

	return nil
}

// Close flushes and closes the output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	if om.profileFile != nil {
		return om.profileFile.Close()
	}
	return nil
}
