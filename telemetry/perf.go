// Package telemetry provides frame timing collection and CSV output for
// the simulation driver and benchmark tool.
package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for the stages of one simulation step.
const (
	PhaseGridBuild = "grid_build"
	PhaseGather    = "gather"
	PhaseVelocity  = "velocity"
	PhaseIntegrate = "integrate"
	PhaseCopyOut   = "copy_out"
)

// PerfSample holds timing data for a single step.
type PerfSample struct {
	StepDuration time.Duration
	Phases       map[string]time.Duration
}

// PerfCollector tracks performance metrics over a rolling window of steps.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	stepStart     time.Time
	phaseStart    time.Time
	lastPhase     string

	// Frame timing (for the viewer)
	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of steps to average over (e.g., 60 for 1 second at 60fps).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartStep begins timing a new simulation step.
func (p *PerfCollector) StartStep() {
	p.stepStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase. Matches the simulation's stage
// hook signature, so it can be wired directly with SetStageHook.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	// End previous phase if any
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndStep finishes timing the current step and records the sample.
func (p *PerfCollector) EndStep() {
	now := time.Now()
	// End final phase
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	sample := PerfSample{
		StepDuration: now.Sub(p.stepStart),
		Phases:       p.currentPhases,
	}

	p.samples[p.writeIndex] = sample
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// RecordFrame records wall-clock frame timing for the viewer.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// StepDurationsUs returns the step durations in the current window, in
// microseconds, oldest sample first not guaranteed (ring order).
func (p *PerfCollector) StepDurationsUs() []float64 {
	out := make([]float64, 0, p.sampleCount)
	for i := 0; i < p.sampleCount; i++ {
		out = append(out, float64(p.samples[i].StepDuration.Microseconds()))
	}
	return out
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgStepDuration time.Duration
	MinStepDuration time.Duration
	MaxStepDuration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of total step time
	PhasePct map[string]float64

	StepsPerSecond float64

	// Frame timing (viewer)
	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	var fps float64
	if p.frameDuration > 0 {
		fps = float64(time.Second) / float64(p.frameDuration)
	}

	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg:      make(map[string]time.Duration),
			PhasePct:      make(map[string]float64),
			FrameDuration: p.frameDuration,
			FPS:           fps,
		}
	}

	var totalStep time.Duration
	var minStep, maxStep time.Duration
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		totalStep += s.StepDuration

		if i == 0 || s.StepDuration < minStep {
			minStep = s.StepDuration
		}
		if s.StepDuration > maxStep {
			maxStep = s.StepDuration
		}

		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avgStep := totalStep / time.Duration(p.sampleCount)

	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avgStep > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avgStep) * 100
		}
	}

	var stepsPerSec float64
	if avgStep > 0 {
		stepsPerSec = float64(time.Second) / float64(avgStep)
	}

	return PerfStats{
		AvgStepDuration: avgStep,
		MinStepDuration: minStep,
		MaxStepDuration: maxStep,
		PhaseAvg:        phaseAvg,
		PhasePct:        phasePct,
		StepsPerSecond:  stepsPerSec,
		FrameDuration:   p.frameDuration,
		FPS:             fps,
	}
}

// LogStats logs performance statistics via slog.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_step_us", s.AvgStepDuration.Microseconds(),
		"min_step_us", s.MinStepDuration.Microseconds(),
		"max_step_us", s.MaxStepDuration.Microseconds(),
		"steps_per_sec", int(s.StepsPerSecond),
	}
	for phase, dur := range s.PhaseAvg {
		attrs = append(attrs, "phase_"+phase+"_us", dur.Microseconds())
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	slog.Info("perf", attrs...)
}

// ToCSV flattens the stats into a fixed-column CSV record.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:   windowEnd,
		AvgStepUs:   s.AvgStepDuration.Microseconds(),
		MinStepUs:   s.MinStepDuration.Microseconds(),
		MaxStepUs:   s.MaxStepDuration.Microseconds(),
		StepsPerSec: s.StepsPerSecond,
		GridBuildUs: s.PhaseAvg[PhaseGridBuild].Microseconds(),
		GatherUs:    s.PhaseAvg[PhaseGather].Microseconds(),
		VelocityUs:  s.PhaseAvg[PhaseVelocity].Microseconds(),
		IntegrateUs: s.PhaseAvg[PhaseIntegrate].Microseconds(),
		CopyOutUs:   s.PhaseAvg[PhaseCopyOut].Microseconds(),
		FPS:         s.FPS,
	}
}

// PerfStatsCSV is the perf.csv row format.
type PerfStatsCSV struct {
	WindowEnd   int64   `csv:"window_end"`
	AvgStepUs   int64   `csv:"avg_step_us"`
	MinStepUs   int64   `csv:"min_step_us"`
	MaxStepUs   int64   `csv:"max_step_us"`
	StepsPerSec float64 `csv:"steps_per_sec"`
	GridBuildUs int64   `csv:"grid_build_us"`
	GatherUs    int64   `csv:"gather_us"`
	VelocityUs  int64   `csv:"velocity_us"`
	IntegrateUs int64   `csv:"integrate_us"`
	CopyOutUs   int64   `csv:"copy_out_us"`
	FPS         float64 `csv:"fps"`
}
