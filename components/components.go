// Package components defines ECS components for the simulation.
package components

// Position represents an entity's screen position.
type Position struct {
	X, Y float32
}

// Velocity represents an entity's velocity in px/s.
type Velocity struct {
	X, Y float32
}

// Body holds an entity's collision radius.
type Body struct {
	Radius float32
}

// Rock holds rock-specific state. Alive is cleared on collision resolution
// or off-screen exit; a cleanup pass removes dead entities at the end of
// the frame.
type Rock struct {
	ID    uint32
	Alive bool
}
