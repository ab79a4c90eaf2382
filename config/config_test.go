package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultMatchesEmbeddedYAML(t *testing.T) {
	cfg := Default()

	if cfg.Physics.NumIterations != 10 {
		t.Errorf("NumIterations = %v, want 10", cfg.Physics.NumIterations)
	}
	if cfg.World.GridCellSize != 12 {
		t.Errorf("GridCellSize = %v, want 12", cfg.World.GridCellSize)
	}
	if cfg.Capacities.MaxParticles <= 0 {
		t.Errorf("MaxParticles = %v, want > 0", cfg.Capacities.MaxParticles)
	}
}

// S10: loading an override file only changes the fields it sets, leaving
// every other default intact.
func TestLoadMergesOverrideOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	override := []byte("physics:\n  num_iterations: 4\n")
	if err := os.WriteFile(path, override, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Physics.NumIterations != 4 {
		t.Errorf("NumIterations = %v, want 4 (overridden)", cfg.Physics.NumIterations)
	}
	if cfg.World.Width != 1280 {
		t.Errorf("Width = %v, want 1280 (default, untouched)", cfg.World.Width)
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := Load("/nonexistent/path/override.yaml"); err == nil {
		t.Fatal("Load with missing path returned nil error")
	}
}

func TestMustLoadPanicsOnMissingFile(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("MustLoad did not panic on missing file")
		}
	}()
	MustLoad("/nonexistent/path/override.yaml")
}
