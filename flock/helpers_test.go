package flock

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/flock3d/config"
)

// testConfig loads the embedded defaults, optionally overridden by a YAML
// fragment written to a temp file.
func testConfig(t *testing.T, override string) *config.Config {
	t.Helper()

	path := ""
	if override != "" {
		path = filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte(override), 0644); err != nil {
			t.Fatalf("writing test config: %v", err)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("loading test config: %v", err)
	}
	return cfg
}

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func vecApprox(a, b Vec3, tol float64) bool {
	return approx(float64(a.X), float64(b.X), tol) &&
		approx(float64(a.Y), float64(b.Y), tol) &&
		approx(float64(a.Z), float64(b.Z), tol)
}

// speed returns the velocity magnitude in float64.
func speed(v Vec3) float64 {
	return math.Sqrt(float64(v.X)*float64(v.X) + float64(v.Y)*float64(v.Y) + float64(v.Z)*float64(v.Z))
}
