package flock

import (
	"errors"
	"math"
	"testing"
)

func TestNewRejectsInvalidCount(t *testing.T) {
	cfg := testConfig(t, "")

	for _, n := range []int{0, -1, -5000} {
		if _, err := New(cfg, n, 1); !errors.Is(err, ErrInvalidCount) {
			t.Fatalf("New(n=%d): got %v, want ErrInvalidCount", n, err)
		}
	}
}

func TestNewRandomizesWithinDomain(t *testing.T) {
	cfg := testConfig(t, "")
	sim, err := New(cfg, 2000, 7)
	if err != nil {
		t.Fatal(err)
	}
	defer sim.Close()

	scale := float64(cfg.Derived.Scale32)
	maxSpeed := cfg.Physics.MaxSpeed
	for i := 0; i < sim.N(); i++ {
		p := sim.Positions()[i]
		for axis, c := range []float32{p.X, p.Y, p.Z} {
			if float64(c) < -scale || float64(c) >= scale {
				t.Fatalf("agent %d axis %d position %v outside domain", i, axis, c)
			}
		}
		v := sim.Velocities()[i]
		for axis, c := range []float32{v.X, v.Y, v.Z} {
			if math.Abs(float64(c)) > maxSpeed {
				t.Fatalf("agent %d axis %d velocity component %v exceeds max speed", i, axis, c)
			}
		}
	}
}

func TestNewIsDeterministicPerSeed(t *testing.T) {
	cfg := testConfig(t, "")

	a, err := New(cfg, 100, 31)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := New(cfg, 100, 31)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	for i := 0; i < 100; i++ {
		if a.Positions()[i] != b.Positions()[i] || a.Velocities()[i] != b.Velocities()[i] {
			t.Fatalf("agent %d differs between same-seed simulations", i)
		}
	}
}

func TestStepRejectsInvalidTimestep(t *testing.T) {
	cfg := testConfig(t, "")
	sim, err := New(cfg, 10, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer sim.Close()

	steps := map[string]func(float32) error{
		"naive":     sim.StepNaive,
		"scattered": sim.StepScattered,
		"coherent":  sim.StepCoherent,
	}
	for name, step := range steps {
		for _, dt := range []float32{0, -0.2} {
			if err := step(dt); !errors.Is(err, ErrInvalidStep) {
				t.Fatalf("%s(dt=%v): got %v, want ErrInvalidStep", name, dt, err)
			}
		}
	}
}

func TestCloseLifecycle(t *testing.T) {
	cfg := testConfig(t, "")
	sim, err := New(cfg, 10, 1)
	if err != nil {
		t.Fatal(err)
	}

	if err := sim.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := sim.Close(); !errors.Is(err, ErrClosed) {
		t.Fatalf("second Close: got %v, want ErrClosed", err)
	}
	if err := sim.StepNaive(0.2); !errors.Is(err, ErrClosed) {
		t.Fatalf("step after Close: got %v, want ErrClosed", err)
	}
	if err := sim.StepCoherent(0.2); !errors.Is(err, ErrClosed) {
		t.Fatalf("coherent step after Close: got %v, want ErrClosed", err)
	}
	if err := sim.CopyToRender(make([]float32, 30), make([]float32, 30)); !errors.Is(err, ErrClosed) {
		t.Fatalf("CopyToRender after Close: got %v, want ErrClosed", err)
	}
}

func TestCopyToRender(t *testing.T) {
	cfg := testConfig(t, "")
	const n = 5
	sim, err := New(cfg, n, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer sim.Close()

	pos := make([]float32, 3*n)
	vel := make([]float32, 3*n)
	if err := sim.CopyToRender(pos, vel); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < n; i++ {
		p := sim.Positions()[i]
		v := sim.Velocities()[i]
		if pos[3*i] != p.X || pos[3*i+1] != p.Y || pos[3*i+2] != p.Z {
			t.Fatalf("agent %d position triple %v, want %v", i, pos[3*i:3*i+3], p)
		}
		if vel[3*i] != v.X || vel[3*i+1] != v.Y || vel[3*i+2] != v.Z {
			t.Fatalf("agent %d velocity triple %v, want %v", i, vel[3*i:3*i+3], v)
		}
	}

	if err := sim.CopyToRender(make([]float32, 3*n-1), vel); !errors.Is(err, ErrShortBuffer) {
		t.Fatalf("short position buffer: got %v, want ErrShortBuffer", err)
	}
	if err := sim.CopyToRender(pos, make([]float32, 3*n-1)); !errors.Is(err, ErrShortBuffer) {
		t.Fatalf("short velocity buffer: got %v, want ErrShortBuffer", err)
	}
}

// TestSetWeightsZeroFreezesVelocity zeroes all rule weights: a step then
// leaves velocities untouched while positions still advance.
func TestSetWeightsZeroFreezesVelocity(t *testing.T) {
	cfg := testConfig(t, "")
	sim, err := New(cfg, 200, 9)
	if err != nil {
		t.Fatal(err)
	}
	defer sim.Close()

	sim.SetWeights(0, 0, 0)

	// Initial random velocities may exceed max speed in magnitude; scale
	// them under it so the clamp cannot fire and mask a weight bug.
	for i := range sim.Velocities() {
		sim.Velocities()[i] = sim.Velocities()[i].Scale(0.4)
	}

	before := make([]Vec3, sim.N())
	copy(before, sim.Velocities())

	if err := sim.StepCoherent(cfg.Derived.DT32); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < sim.N(); i++ {
		if sim.Velocities()[i] != before[i] {
			t.Fatalf("agent %d velocity changed with zero weights: %v -> %v", i, before[i], sim.Velocities()[i])
		}
	}
}

// TestStageHookOrder records hook invocations for one coherent and one naive
// frame and checks the per-strategy stage sequence.
func TestStageHookOrder(t *testing.T) {
	cfg := testConfig(t, "")
	sim, err := New(cfg, 100, 3)
	if err != nil {
		t.Fatal(err)
	}
	defer sim.Close()

	var stages []string
	sim.SetStageHook(func(stage string) { stages = append(stages, stage) })

	if err := sim.StepCoherent(cfg.Derived.DT32); err != nil {
		t.Fatal(err)
	}
	want := []string{"grid_build", "gather", "velocity", "integrate"}
	if len(stages) != len(want) {
		t.Fatalf("coherent stages %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Fatalf("coherent stages %v, want %v", stages, want)
		}
	}

	stages = stages[:0]
	if err := sim.StepNaive(cfg.Derived.DT32); err != nil {
		t.Fatal(err)
	}
	want = []string{"velocity", "integrate"}
	if len(stages) != len(want) || stages[0] != want[0] || stages[1] != want[1] {
		t.Fatalf("naive stages %v, want %v", stages, want)
	}

	sim.SetStageHook(nil)
	if err := sim.StepScattered(cfg.Derived.DT32); err != nil {
		t.Fatal(err)
	}
}
