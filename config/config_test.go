package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}

	if cfg.Screen.Width <= 0 || cfg.Screen.Height <= 0 {
		t.Errorf("expected positive screen dimensions, got %dx%d", cfg.Screen.Width, cfg.Screen.Height)
	}
	if cfg.Degrade.WindowSize <= 0 {
		t.Error("expected positive degrade window size")
	}
	if cfg.Derived.ScreenW32 != float32(cfg.Screen.Width) {
		t.Error("derived screen width not computed")
	}
}

func TestLoad_UserOverridesMergeWithDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	override := []byte("rocks:\n  spawn_interval: 0.25\n")
	if err := os.WriteFile(path, override, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}

	if cfg.Rocks.SpawnInterval != 0.25 {
		t.Errorf("override not applied: spawn_interval=%v", cfg.Rocks.SpawnInterval)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Rocks.MaxRadius == 0 {
		t.Error("default rocks.max_radius lost during merge")
	}
}

func TestValidate_CellSizeInvariant(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	cfg.Collision.CellSize = cfg.Collision.MaxProbeRadius + cfg.Rocks.MaxRadius - 1
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for undersized grid cell")
	}
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("writing snapshot: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("reloading snapshot: %v", err)
	}
	if loaded.Rocks.SpawnInterval != cfg.Rocks.SpawnInterval {
		t.Error("snapshot round-trip changed rocks.spawn_interval")
	}
}
