package ui

import "testing"

func TestHUDData_Lines(t *testing.T) {
	h := HUDData{
		NumPlayers: 2,
		Players: [2]PlayerHUD{
			{Score: 4, Lives: 2},
			{Score: 1, Lives: 0, GameOver: true},
		},
		MatchOver: true,
		Winner:    0,
		HasWinner: true,
	}

	lines := h.Lines()
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %v", len(lines), lines)
	}
	if lines[0] != "P1  score 4  lives 2" {
		t.Fatalf("line 0 = %q", lines[0])
	}
	if lines[1] != "P2  score 1  OUT" {
		t.Fatalf("line 1 = %q", lines[1])
	}
	if lines[2] != "GAME OVER  P1 wins" {
		t.Fatalf("line 2 = %q", lines[2])
	}
}

func TestHUDData_TieLine(t *testing.T) {
	h := HUDData{NumPlayers: 1, MatchOver: true}
	lines := h.Lines()
	if lines[len(lines)-1] != "GAME OVER  tie" {
		t.Fatalf("last line = %q", lines[len(lines)-1])
	}
}

func TestHUDData_Equal(t *testing.T) {
	a := HUDData{NumPlayers: 2, Players: [2]PlayerHUD{{Score: 1, Lives: 3}}}
	b := a
	if !a.Equal(b) {
		t.Fatal("identical snapshots should compare equal")
	}
	b.Players[0].Score++
	if a.Equal(b) {
		t.Fatal("score change should break equality")
	}
	b = a
	b.PoseLag = 5
	if a.Equal(b) {
		t.Fatal("pose lag change should break equality")
	}
}
