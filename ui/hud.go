// Package ui holds the HUD view model and the camera selection menu.
package ui

import "fmt"

// PlayerHUD is the per-player slice of the HUD.
type PlayerHUD struct {
	Score    int
	Lives    int
	GameOver bool
}

// HUDData is everything the renderer needs to draw the overlay for one
// frame. The loop compares it against the previous frame's value so the
// renderer can skip re-layout when nothing changed.
type HUDData struct {
	Players    [2]PlayerHUD
	NumPlayers int
	MatchOver  bool
	Winner     int
	HasWinner  bool

	PoseLag  uint64 // capture seqs between newest frame and newest pose result
	Degraded bool
}

// Equal reports whether two HUD snapshots would render identically.
func (h HUDData) Equal(o HUDData) bool {
	return h == o
}

// Lines formats the HUD as text lines, one per player plus status.
func (h HUDData) Lines() []string {
	lines := make([]string, 0, h.NumPlayers+1)
	for i := 0; i < h.NumPlayers && i < len(h.Players); i++ {
		p := h.Players[i]
		if p.GameOver {
			lines = append(lines, fmt.Sprintf("P%d  score %d  OUT", i+1, p.Score))
		} else {
			lines = append(lines, fmt.Sprintf("P%d  score %d  lives %d", i+1, p.Score, p.Lives))
		}
	}
	switch {
	case h.MatchOver && h.HasWinner:
		lines = append(lines, fmt.Sprintf("GAME OVER  P%d wins", h.Winner+1))
	case h.MatchOver:
		lines = append(lines, "GAME OVER  tie")
	}
	return lines
}
