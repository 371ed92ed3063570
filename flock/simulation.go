// Package flock implements a 3-D boid simulation core: a fixed population
// of agents steered by cohesion, separation and alignment rules, advanced
// one frame at a time by one of three interchangeable neighbor-search
// strategies (all-pairs, scattered uniform grid, coherent uniform grid).
package flock

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/pthm-cable/flock3d/config"
)

var (
	// ErrInvalidCount reports a non-positive agent count at init.
	ErrInvalidCount = errors.New("flock: agent count must be positive")
	// ErrInvalidStep reports a non-positive timestep.
	ErrInvalidStep = errors.New("flock: timestep must be positive")
	// ErrClosed reports use of a simulation after Close.
	ErrClosed = errors.New("flock: simulation is closed")
	// ErrShortBuffer reports an undersized render output buffer.
	ErrShortBuffer = errors.New("flock: output buffer too small")
)

// Simulation owns all agent state and per-frame scratch buffers for one run.
// The population size is fixed between New and Close. Step methods and
// accessors are not safe for concurrent use; the driver invokes one frame
// at a time and the simulation parallelizes internally.
type Simulation struct {
	n int

	// Agent state in original id order. vel is the current velocity, velNext
	// the write target of the frame's velocity stage; they swap after the
	// stage barrier so no agent ever reads a partially updated frame.
	pos     []Vec3
	vel     []Vec3
	velNext []Vec3

	// Sorted-order mirrors used by the coherent strategy only. Valid between
	// the gather pass and the end of the frame's scan.
	posSorted []Vec3
	velSorted []Vec3

	grid   *gridIndex
	pool   *workerPool
	params ruleParams
	scale  float32 // domain half-width
	closed bool

	// stageHook, when set, is called at the start of each stage of a frame
	// with the stage name. Used by the driver for phase timing.
	stageHook func(stage string)
}

// New allocates and randomizes state for n agents within the configured
// domain. Allocation is all-or-nothing: there is no partial resize later,
// and a failed init leaves nothing to release.
func New(cfg *config.Config, n int, seed int64) (*Simulation, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCount, n)
	}

	s := &Simulation{
		n:         n,
		pos:       make([]Vec3, n),
		vel:       make([]Vec3, n),
		velNext:   make([]Vec3, n),
		posSorted: make([]Vec3, n),
		velSorted: make([]Vec3, n),
		grid:      newGridIndex(cfg, n),
		pool:      newWorkerPool(),
		params:    newRuleParams(cfg),
		scale:     cfg.Derived.Scale32,
	}
	s.randomize(rand.New(rand.NewSource(seed)), cfg.Derived.MaxSpeed32)
	return s, nil
}

// N returns the population size.
func (s *Simulation) N() int {
	return s.n
}

// Positions exposes the position array by reference, in original agent order.
func (s *Simulation) Positions() []Vec3 {
	return s.pos
}

// Velocities exposes the current velocity array by reference, in original
// agent order.
func (s *Simulation) Velocities() []Vec3 {
	return s.vel
}

// SetWeights adjusts the three rule weights for subsequent frames. Radii are
// fixed for the lifetime of the simulation because the grid cell width is
// derived from them at init.
func (s *Simulation) SetWeights(cohesion, separation, alignment float64) {
	s.params.cohesionWeight = cohesion
	s.params.separationWeight = separation
	s.params.alignmentWeight = alignment
}

// SetStageHook installs a callback invoked at each stage boundary within a
// frame ("grid_build", "gather", "velocity", "integrate"). Pass nil to
// disable. Not safe to call while a step is running.
func (s *Simulation) SetStageHook(fn func(stage string)) {
	s.stageHook = fn
}

func (s *Simulation) stage(name string) {
	if s.stageHook != nil {
		s.stageHook(name)
	}
}

// CopyToRender writes current positions and velocities as x,y,z float32
// triples in original agent order into the caller's buffers. Read-only with
// respect to simulation state.
func (s *Simulation) CopyToRender(positions, velocities []float32) error {
	if s.closed {
		return ErrClosed
	}
	if len(positions) < 3*s.n || len(velocities) < 3*s.n {
		return fmt.Errorf("%w: need %d floats, got %d/%d", ErrShortBuffer, 3*s.n, len(positions), len(velocities))
	}

	for i := 0; i < s.n; i++ {
		positions[3*i] = s.pos[i].X
		positions[3*i+1] = s.pos[i].Y
		positions[3*i+2] = s.pos[i].Z
		velocities[3*i] = s.vel[i].X
		velocities[3*i+1] = s.vel[i].Y
		velocities[3*i+2] = s.vel[i].Z
	}
	return nil
}

// Close stops the worker pool and releases all buffers. Calling Close twice
// is a contract violation and returns ErrClosed.
func (s *Simulation) Close() error {
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	s.pool.stop()
	s.pos = nil
	s.vel = nil
	s.velNext = nil
	s.posSorted = nil
	s.velSorted = nil
	s.grid = nil
	return nil
}

// checkStep validates the per-frame entry contract shared by all strategies.
func (s *Simulation) checkStep(dt float32) error {
	if s.closed {
		return ErrClosed
	}
	if dt <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidStep, dt)
	}
	return nil
}

// swapVelocities promotes the frame's freshly written velocities. Called
// only after the velocity stage barrier.
func (s *Simulation) swapVelocities() {
	s.vel, s.velNext = s.velNext, s.vel
}
