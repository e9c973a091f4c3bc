package game

import (
	"time"

	"github.com/pthm-cable/rockfall/camera"
	"github.com/pthm-cable/rockfall/pose"
	"github.com/pthm-cable/rockfall/ui"
)

// RockView is the render-side snapshot of one rock.
type RockView struct {
	X, Y, R float32
}

// FrameView is everything the renderer needs for one frame. The loop owns
// the view and reuses its slices across frames.
type FrameView struct {
	Frame     *camera.Frame // nil until the first capture lands
	People    []pose.Person
	Rocks     []RockView
	Particles []Particle

	HUD        ui.HUDData
	HUDChanged bool
	OSD        []string

	// Degradation decisions for this frame's optional work.
	ShowBackground bool // camera frame backdrop
	ShowPose       bool // pose overlay circles
	ShowOSD        bool // profiler lines
	ShowEffects    bool // particle draw
}

// RenderStats reports how long each optional work unit took, so the
// degradation controller can rank skip candidates by measured cost.
type RenderStats struct {
	Background  time.Duration
	PoseOverlay time.Duration
	Effects     time.Duration
	OSD         time.Duration
}

// Renderer draws one complete frame. The raylib implementation lives in
// the renderer package; tests and headless runs use NopRenderer.
type Renderer interface {
	Render(view *FrameView) RenderStats
	Close()
}

// NopRenderer ignores every frame. Used headless and in tests.
type NopRenderer struct{}

func (NopRenderer) Render(*FrameView) RenderStats { return RenderStats{} }
func (NopRenderer) Close()                        {}
