package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeConfig writes yaml to a temp file and returns its path.
func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.World.Scale != 100.0 {
		t.Errorf("world.scale = %v, want 100.0", cfg.World.Scale)
	}
	if cfg.Rules.CohesionRadius != 5.0 || cfg.Rules.SeparationRadius != 3.0 || cfg.Rules.AlignmentRadius != 5.0 {
		t.Errorf("rule radii = %v/%v/%v, want 5/3/5",
			cfg.Rules.CohesionRadius, cfg.Rules.SeparationRadius, cfg.Rules.AlignmentRadius)
	}
	if cfg.Physics.DT != 0.2 || cfg.Physics.MaxSpeed != 1.0 {
		t.Errorf("physics = dt %v max_speed %v, want 0.2/1.0", cfg.Physics.DT, cfg.Physics.MaxSpeed)
	}
	if cfg.Grid.Neighborhood != 27 {
		t.Errorf("grid.neighborhood = %d, want 27", cfg.Grid.Neighborhood)
	}
	if cfg.Population.Count != 5000 {
		t.Errorf("population.count = %d, want 5000", cfg.Population.Count)
	}
}

func TestDerivedValues(t *testing.T) {
	tests := []struct {
		name          string
		override      string
		wantCellWidth float64
		wantRes       int
	}{
		// Defaults: max radius 5, scale 100.
		{"27-cell", "", 5.0, 40},
		{"8-cell", "grid:\n  neighborhood: 8\n", 10.0, 20},
		{"odd width rounds up", "rules:\n  cohesion_radius: 7\n", 7.0, 29},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := ""
			if tc.override != "" {
				path = writeConfig(t, tc.override)
			}
			cfg, err := Load(path)
			if err != nil {
				t.Fatal(err)
			}

			d := cfg.Derived
			if d.CellWidth != tc.wantCellWidth {
				t.Errorf("CellWidth = %v, want %v", d.CellWidth, tc.wantCellWidth)
			}
			if d.GridRes != tc.wantRes {
				t.Errorf("GridRes = %d, want %d", d.GridRes, tc.wantRes)
			}
			if d.CellCount != tc.wantRes*tc.wantRes*tc.wantRes {
				t.Errorf("CellCount = %d, want %d", d.CellCount, tc.wantRes*tc.wantRes*tc.wantRes)
			}
			if d.GridMin != -cfg.World.Scale {
				t.Errorf("GridMin = %v, want %v", d.GridMin, -cfg.World.Scale)
			}
			if d.DT32 != float32(cfg.Physics.DT) || d.Scale32 != float32(cfg.World.Scale) {
				t.Errorf("float32 mirrors out of sync with source fields")
			}
		})
	}
}

func TestOverrideMergesWithDefaults(t *testing.T) {
	path := writeConfig(t, "population:\n  count: 123\nrules:\n  cohesion_weight: 0.05\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Population.Count != 123 {
		t.Errorf("population.count = %d, want 123", cfg.Population.Count)
	}
	if cfg.Rules.CohesionWeight != 0.05 {
		t.Errorf("rules.cohesion_weight = %v, want 0.05", cfg.Rules.CohesionWeight)
	}
	// Untouched fields keep their defaults.
	if cfg.Rules.SeparationWeight != 0.1 {
		t.Errorf("rules.separation_weight = %v, want default 0.1", cfg.Rules.SeparationWeight)
	}
	if cfg.World.Scale != 100.0 {
		t.Errorf("world.scale = %v, want default 100.0", cfg.World.Scale)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		override string
		wantErr  string
	}{
		{"zero scale", "world:\n  scale: 0\n", "world.scale"},
		{"negative dt", "physics:\n  dt: -0.1\n", "physics.dt"},
		{"zero max speed", "physics:\n  max_speed: 0\n", "physics.max_speed"},
		{"zero radius", "rules:\n  separation_radius: 0\n", "rule radii"},
		{"bad neighborhood", "grid:\n  neighborhood: 26\n", "neighborhood"},
		{"radius exceeds domain", "rules:\n  cohesion_radius: 300\n", "does not fit"},
		{"zero population", "population:\n  count: 0\n", "population.count"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.override))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
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
		t.Fatal(err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.World.Scale != cfg.World.Scale || back.Population.Count != cfg.Population.Count {
		t.Fatal("round-tripped config differs from original")
	}
	if back.Derived.GridRes != cfg.Derived.GridRes {
		t.Fatal("derived values differ after round trip")
	}
}
