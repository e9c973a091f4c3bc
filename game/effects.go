package game

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/rockfall/config"
)

// Particle is one burst fragment. Simulated here, drawn by the renderer.
type Particle struct {
	X, Y    float32
	VX, VY  float32
	Life    float32
	MaxLife float32
	Size    float32
	Gravity float32
	R, G, B uint8
}

// Age returns 0 at birth and 1 at death.
func (p *Particle) Age() float32 {
	if p.MaxLife <= 0 {
		return 1
	}
	a := 1 - p.Life/p.MaxLife
	if a < 0 {
		return 0
	}
	if a > 1 {
		return 1
	}
	return a
}

// Effects owns the particle pool for rock-break bursts. Update is an
// optional work unit; when the degradation controller skips it the pool
// simply ages one frame late.
type Effects struct {
	cfg       config.EffectsConfig
	rng       *rand.Rand
	particles []Particle
}

// NewEffects creates an empty pool sized from config.
func NewEffects(cfg config.EffectsConfig, rng *rand.Rand) *Effects {
	return &Effects{
		cfg:       cfg,
		rng:       rng,
		particles: make([]Particle, 0, cfg.MaxParticles),
	}
}

// Burst spawns a radial explosion at the given point.
func (e *Effects) Burst(x, y float32, r, g, b uint8) {
	for i := 0; i < e.cfg.BurstCount; i++ {
		if len(e.particles) >= e.cfg.MaxParticles {
			return
		}
		ang := e.rng.Float64() * 2 * math.Pi
		spd := e.cfg.SpeedMin + e.rng.Float64()*(e.cfg.SpeedMax-e.cfg.SpeedMin)
		life := float32(e.cfg.LifeMin + e.rng.Float64()*(e.cfg.LifeMax-e.cfg.LifeMin))

		e.particles = append(e.particles, Particle{
			X:       x,
			Y:       y,
			VX:      float32(math.Cos(ang) * spd),
			VY:      float32(math.Sin(ang) * spd),
			Life:    life,
			MaxLife: life,
			Size:    2 + e.rng.Float32()*4,
			Gravity: -90 + e.rng.Float32()*60, // upward drift, screen y grows down
			R:       jitterChannel(e.rng, r),
			G:       jitterChannel(e.rng, g),
			B:       jitterChannel(e.rng, b),
		})
	}
}

// Update integrates and culls expired particles in place.
func (e *Effects) Update(dt float32) {
	if dt <= 0 {
		return
	}
	alive := e.particles[:0]
	for i := range e.particles {
		p := e.particles[i]
		p.VY += p.Gravity * dt
		p.X += p.VX * dt
		p.Y += p.VY * dt
		p.Life -= dt
		if p.Life > 0 {
			alive = append(alive, p)
		}
	}
	e.particles = alive
}

// Particles returns the live pool for rendering.
func (e *Effects) Particles() []Particle {
	return e.particles
}

// Count returns the number of live particles.
func (e *Effects) Count() int {
	return len(e.particles)
}

func jitterChannel(rng *rand.Rand, c uint8) uint8 {
	v := int(c) + rng.Intn(41) - 20
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return uint8(v)
}
