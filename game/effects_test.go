package game

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/rockfall/config"
)

func testEffectsConfig() config.EffectsConfig {
	return config.EffectsConfig{
		BurstCount:   10,
		LifeMin:      0.5,
		LifeMax:      1.0,
		SpeedMin:     50,
		SpeedMax:     100,
		MaxParticles: 25,
	}
}

func TestEffects_BurstAndDecay(t *testing.T) {
	e := NewEffects(testEffectsConfig(), rand.New(rand.NewSource(1)))

	e.Burst(100, 100, 255, 220, 0)
	if e.Count() != 10 {
		t.Fatalf("count = %d after burst, want 10", e.Count())
	}

	// All lifetimes are at most 1s; everything dies within 1s of updates.
	for i := 0; i < 70; i++ {
		e.Update(1.0 / 60.0)
	}
	if e.Count() != 0 {
		t.Fatalf("count = %d after lifetime, want 0", e.Count())
	}
}

func TestEffects_PoolCap(t *testing.T) {
	e := NewEffects(testEffectsConfig(), rand.New(rand.NewSource(2)))

	for i := 0; i < 5; i++ {
		e.Burst(50, 50, 200, 200, 200)
	}
	if e.Count() > 25 {
		t.Fatalf("count = %d, want <= 25", e.Count())
	}
}

func TestEffects_ZeroDTNoop(t *testing.T) {
	e := NewEffects(testEffectsConfig(), rand.New(rand.NewSource(3)))
	e.Burst(10, 10, 255, 255, 255)
	before := e.Count()
	e.Update(0)
	if e.Count() != before {
		t.Fatalf("zero dt changed the pool: %d -> %d", before, e.Count())
	}
}

func TestParticle_Age(t *testing.T) {
	p := Particle{Life: 1.0, MaxLife: 2.0}
	if got := p.Age(); got != 0.5 {
		t.Fatalf("age = %.2f, want 0.5", got)
	}
	p.Life = -0.1
	if got := p.Age(); got != 1.0 {
		t.Fatalf("age = %.2f past death, want 1.0", got)
	}
}
