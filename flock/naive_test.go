package flock

import (
	"math"
	"testing"
)

// TestCohesionSeeksCentroid places five stationary agents with a cohesion
// radius covering all of them: after one frame each agent's velocity must
// point at the centroid of the other four with the configured weight.
func TestCohesionSeeksCentroid(t *testing.T) {
	cfg := testConfig(t, `
rules:
  cohesion_radius: 50.0
physics:
  dt: 0.2
`)

	sim, err := New(cfg, 5, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer sim.Close()

	placed := []Vec3{
		{10, 0, 0},
		{-10, 0, 0},
		{0, 10, 0},
		{0, -10, 0},
		{0, 0, 10},
	}
	pos := sim.Positions()
	vel := sim.Velocities()
	for i := range placed {
		pos[i] = placed[i]
		vel[i] = Vec3{}
	}

	// Expected velocity per agent: (centroid of the others - own position)
	// scaled by the cohesion weight. Pairwise distances exceed the
	// separation and alignment radii, and all velocities start at zero, so
	// the other rules contribute nothing.
	expected := make([]Vec3, len(placed))
	for i := range placed {
		var cx, cy, cz float64
		for j := range placed {
			if j == i {
				continue
			}
			cx += float64(placed[j].X)
			cy += float64(placed[j].Y)
			cz += float64(placed[j].Z)
		}
		w := cfg.Rules.CohesionWeight
		expected[i] = Vec3{
			X: float32((cx/4 - float64(placed[i].X)) * w),
			Y: float32((cy/4 - float64(placed[i].Y)) * w),
			Z: float32((cz/4 - float64(placed[i].Z)) * w),
		}
	}

	if err := sim.StepNaive(cfg.Derived.DT32); err != nil {
		t.Fatal(err)
	}

	for i, want := range expected {
		got := sim.Velocities()[i]
		if !vecApprox(got, want, 1e-4) {
			t.Errorf("agent %d: velocity %v, want %v", i, got, want)
		}
	}
}

func TestSpeedClamp(t *testing.T) {
	cfg := testConfig(t, "")

	sim, err := New(cfg, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer sim.Close()

	// Agent 0 starts well over the speed limit; its single neighbor is
	// inside every rule radius. The unclamped update must still exceed
	// maxSpeed so the clamp path is exercised.
	pos := sim.Positions()
	vel := sim.Velocities()
	pos[0] = Vec3{0, 0, 0}
	pos[1] = Vec3{0.5, 0, 0}
	vel[0] = Vec3{-2, 1, 0}
	vel[1] = Vec3{0.2, -0.1, 0}

	// Full three-rule expectation for agent 0 with its one neighbor.
	r := cfg.Rules
	ux := float64(vel[0].X) +
		(float64(pos[1].X)-float64(pos[0].X))*r.CohesionWeight +
		(float64(pos[0].X)-float64(pos[1].X))*r.SeparationWeight +
		float64(vel[1].X)*r.AlignmentWeight
	uy := float64(vel[0].Y) + float64(vel[1].Y)*r.AlignmentWeight
	unclamped := math.Sqrt(ux*ux + uy*uy)
	if unclamped <= cfg.Physics.MaxSpeed {
		t.Fatalf("test setup broken: unclamped speed %v does not exceed max %v", unclamped, cfg.Physics.MaxSpeed)
	}

	if err := sim.StepNaive(cfg.Derived.DT32); err != nil {
		t.Fatal(err)
	}

	got := sim.Velocities()[0]
	if s := speed(got); !approx(s, cfg.Physics.MaxSpeed, 1e-4) {
		t.Errorf("clamped speed %v, want exactly %v", s, cfg.Physics.MaxSpeed)
	}

	// Direction must be preserved by the clamp.
	wantX := ux / unclamped * cfg.Physics.MaxSpeed
	wantY := uy / unclamped * cfg.Physics.MaxSpeed
	if !approx(float64(got.X), wantX, 1e-4) || !approx(float64(got.Y), wantY, 1e-4) || !approx(float64(got.Z), 0, 1e-4) {
		t.Errorf("clamped direction changed: got %v, want (%v, %v, 0)", got, wantX, wantY)
	}
}

// TestNoNeighborsNoChange verifies the zero-neighbor guard: a lone agent's
// velocity is untouched by a step.
func TestNoNeighborsNoChange(t *testing.T) {
	cfg := testConfig(t, "")

	sim, err := New(cfg, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	defer sim.Close()

	before := sim.Velocities()[0]
	if err := sim.StepNaive(cfg.Derived.DT32); err != nil {
		t.Fatal(err)
	}
	after := sim.Velocities()[0]

	if !vecApprox(before, after, 1e-7) {
		t.Errorf("velocity changed with no neighbors: %v -> %v", before, after)
	}
}
