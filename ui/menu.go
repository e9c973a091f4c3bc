package ui

import (
	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/rockfall/camera"
)

// CameraMenu is a fullscreen device picker shown before the game starts.
// Arrow keys or W/S move the selection, Enter or a click confirms, R
// rescans. The caller drives it one frame at a time inside its own
// BeginDrawing/EndDrawing pair.
type CameraMenu struct {
	opener   camera.Opener
	maxIndex int
	width    int
	height   int

	infos    []camera.Info
	selected int
}

// NewCameraMenu scans for devices and builds the menu.
func NewCameraMenu(op camera.Opener, maxIndex, width, height int) *CameraMenu {
	m := &CameraMenu{
		opener:   op,
		maxIndex: maxIndex,
		width:    width,
		height:   height,
	}
	m.Rescan()
	return m
}

// Rescan probes device indices again and clamps the selection.
func (m *CameraMenu) Rescan() {
	m.infos = camera.Scan(m.opener, m.maxIndex, m.width, m.height)
	if m.selected >= len(m.infos) {
		m.selected = len(m.infos) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// Devices returns the scanned device list.
func (m *CameraMenu) Devices() []camera.Info {
	return m.infos
}

// Step draws one menu frame and handles input. Returns the chosen device
// index and true once the user confirms a selection.
func (m *CameraMenu) Step() (int, bool) {
	rl.ClearBackground(rl.NewColor(16, 16, 16, 255))

	rl.DrawText("Select Camera", 60, 40, 36, rl.RayWhite)
	rl.DrawText("Choose the input camera for the game.", 60, 90, 20, rl.LightGray)
	rl.DrawText("Up/Down or W/S to select, Enter to confirm, R to rescan", 60, 118, 18, rl.Gray)

	if len(m.infos) == 0 {
		rl.DrawText("No cameras detected. Press R to rescan.", 60, 170, 22, rl.LightGray)
	}

	// Keyboard navigation.
	if len(m.infos) > 0 {
		if rl.IsKeyPressed(rl.KeyDown) || rl.IsKeyPressed(rl.KeyS) {
			m.selected = (m.selected + 1) % len(m.infos)
		}
		if rl.IsKeyPressed(rl.KeyUp) || rl.IsKeyPressed(rl.KeyW) {
			m.selected = (m.selected - 1 + len(m.infos)) % len(m.infos)
		}
		if rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeySpace) {
			return m.infos[m.selected].Index, true
		}
	}
	if rl.IsKeyPressed(rl.KeyR) {
		m.Rescan()
	}

	// Device rows as buttons; clicking one confirms it directly.
	rowY := float32(170)
	for i, info := range m.infos {
		label := info.Label()
		if i == m.selected {
			label = "> " + label
		}
		rect := rl.Rectangle{X: 60, Y: rowY, Width: float32(m.width) - 120, Height: 34}
		if gui.Button(rect, label) {
			m.selected = i
			return info.Index, true
		}
		rowY += 40
	}

	if gui.Button(rl.Rectangle{X: 60, Y: rowY + 20, Width: 160, Height: 34}, "Rescan") {
		m.Rescan()
	}

	return 0, false
}
