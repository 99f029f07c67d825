package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}
	if got := cfg.Lattice.Size().Voxels(); got != 16*16*8 {
		t.Errorf("voxels = %d, want %d", got, 16*16*8)
	}
	if len(cfg.Species) != 3 || cfg.Species[0].Name != "Vacant" || cfg.Species[2].Name != "B" {
		t.Fatalf("unexpected default species: %+v", cfg.Species)
	}
	if len(cfg.Population) != 2 || cfg.Population[0].Count+cfg.Population[1].Count != 320 {
		t.Errorf("unexpected default population: %+v", cfg.Population)
	}
}

func TestLoadMergesUserFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	user := `
lattice:
  rows: 2
  cols: 2
  layers: 1
species:
  - name: Vacant
    mode: count
    fill: true
  - name: A
    mode: track
    substrate: Vacant
population:
  - species: A
    count: 1
`
	if err := os.WriteFile(path, []byte(user), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Lattice.Size().Voxels(); got != 4 {
		t.Errorf("voxels = %d, want 4", got)
	}
	if len(cfg.Species) != 2 {
		t.Errorf("species list should be replaced, got %d entries", len(cfg.Species))
	}
	// Fields absent from the user file keep their defaults.
	if cfg.Lattice.VoxelRadius != 5.0e-9 {
		t.Errorf("VoxelRadius = %v, want default", cfg.Lattice.VoxelRadius)
	}
	if cfg.Telemetry.WindowSteps != 50 {
		t.Errorf("WindowSteps = %d, want default 50", cfg.Telemetry.WindowSteps)
	}
}

func TestLoadSpeciesOnlyDropsDefaultPopulation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	user := `
species:
  - name: Solvent
    mode: count
    fill: true
`
	if err := os.WriteFile(path, []byte(user), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Population) != 0 {
		t.Errorf("default population kept with replaced species: %+v", cfg.Population)
	}
}

func TestLoadKeepsExplicitPopulation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	user := `
species:
  - name: Solvent
    mode: count
  - name: A
    mode: track
    substrate: Solvent
population:
  - species: A
    count: 3
`
	if err := os.WriteFile(path, []byte(user), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Population) != 1 || cfg.Population[0].Count != 3 {
		t.Errorf("Population = %+v, want the user's single entry", cfg.Population)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero rows", func(c *Config) { c.Lattice.Rows = 0 }, "extents"},
		{"overflowing extents", func(c *Config) {
			c.Lattice.Rows, c.Lattice.Cols, c.Lattice.Layers = 1<<22, 1<<22, 1<<22
		}, "overflows"},
		{"bad radius", func(c *Config) { c.Lattice.VoxelRadius = 0 }, "voxel_radius"},
		{"bad mode", func(c *Config) { c.Species[1].Mode = "both" }, "mode must be"},
		{"duplicate species", func(c *Config) { c.Species[2].Name = "A" }, "duplicate"},
		{"late substrate", func(c *Config) { c.Species[0].Substrate = "A" }, "declared earlier"},
		{"fill tracked", func(c *Config) { c.Species[1].Fill = true }, "fill requires"},
		{"unknown population", func(c *Config) { c.Population[0].Species = "Z" }, "unknown species"},
		{"overfull", func(c *Config) { c.Population[0].Count = 1 << 20 }, "exceeds"},
		{"window", func(c *Config) { c.Telemetry.WindowSteps = 0 }, "window_steps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load written config: %v", err)
	}
	if back.Lattice != cfg.Lattice || len(back.Species) != len(cfg.Species) || len(back.Population) != len(cfg.Population) {
		t.Error("written config does not reload to the same lattice")
	}
}

func TestCfgPanicsBeforeInit(t *testing.T) {
	global = nil
	defer func() {
		if recover() == nil {
			t.Error("Cfg() did not panic before Init")
		}
	}()
	Cfg()
}
