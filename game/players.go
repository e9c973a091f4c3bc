package game

import "github.com/pthm-cable/rockfall/config"

// PlayerState tracks one player's score, lives, and the invulnerability
// window that follows a head hit. Times are game-clock seconds, not wall
// clock, so a paused or slowed loop does not eat the window.
type PlayerState struct {
	ID       int
	Score    int
	Lives    int
	GameOver bool

	maxLives     int
	lastHit      float64
	invulnerable float64
}

// NewPlayerState creates a player with the configured number of lives.
func NewPlayerState(id, lives int, invulnerableSec float64) *PlayerState {
	return &PlayerState{
		ID:           id,
		Lives:        lives,
		maxLives:     lives,
		lastHit:      -invulnerableSec, // first hit always lands
		invulnerable: invulnerableSec,
	}
}

// TakeDamage removes a life unless the player is inside the invulnerability
// window. Returns true if damage was actually taken.
func (p *PlayerState) TakeDamage(now float64) bool {
	if now-p.lastHit < p.invulnerable {
		return false
	}
	p.Lives--
	p.lastHit = now
	if p.Lives <= 0 {
		p.GameOver = true
	}
	return true
}

// Invulnerable reports whether the player is still inside the window.
func (p *PlayerState) Invulnerable(now float64) bool {
	return now-p.lastHit < p.invulnerable
}

// AddScore adds points. Ignored once the player is out.
func (p *PlayerState) AddScore(points int) {
	if !p.GameOver {
		p.Score += points
	}
}

// Reset restores the player for a new round.
func (p *PlayerState) Reset() {
	p.Score = 0
	p.Lives = p.maxLives
	p.GameOver = false
	p.lastHit = -p.invulnerable
}

// Match holds all players and the round-over state. The loop keeps running
// after the match ends; Over is data for the HUD, not a loop condition.
type Match struct {
	Players []*PlayerState
	Over    bool
}

// NewMatch creates a match from the player config section.
func NewMatch(pc config.PlayersConfig) *Match {
	m := &Match{}
	for i := 0; i < pc.Count; i++ {
		m.Players = append(m.Players, NewPlayerState(i, pc.Lives, pc.InvulnerableSec))
	}
	return m
}

// Player returns the player with the given id, or nil.
func (m *Match) Player(id int) *PlayerState {
	if id < 0 || id >= len(m.Players) {
		return nil
	}
	return m.Players[id]
}

// HandleHeadHit applies head-hit damage to a player. The match ends as soon
// as any player runs out of lives. Returns true if damage was taken.
func (m *Match) HandleHeadHit(id int, now float64) bool {
	if m.Over {
		return false
	}
	p := m.Player(id)
	if p == nil {
		return false
	}
	taken := p.TakeDamage(now)
	for _, q := range m.Players {
		if q.GameOver {
			m.Over = true
			break
		}
	}
	return taken
}

// HandleKick scores a destroyed rock for a player.
func (m *Match) HandleKick(id, points int) {
	if m.Over {
		return
	}
	if p := m.Player(id); p != nil {
		p.AddScore(points)
	}
}

// Winner resolves the winning player id once the match is over. The second
// return is false while the match is running or on a tie.
func (m *Match) Winner() (int, bool) {
	if !m.Over {
		return 0, false
	}

	// If exactly one player survived, they win regardless of score.
	surviving := -1
	count := 0
	for _, p := range m.Players {
		if !p.GameOver {
			surviving = p.ID
			count++
		}
	}
	if count == 1 {
		return surviving, true
	}

	// Otherwise highest score wins; equal top scores tie.
	best := -1
	bestID := 0
	tied := false
	for _, p := range m.Players {
		if p.Score > best {
			best = p.Score
			bestID = p.ID
			tied = false
		} else if p.Score == best {
			tied = true
		}
	}
	if tied {
		return 0, false
	}
	return bestID, true
}

// Reset restores every player and reopens the match.
func (m *Match) Reset() {
	for _, p := range m.Players {
		p.Reset()
	}
	m.Over = false
}
