package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated step statistics for one reporting window.
type WindowStats struct {
	WindowEnd   int64   `csv:"window_end"`
	Strategy    string  `csv:"strategy"`
	Agents      int     `csv:"agents"`
	Frames      int     `csv:"frames"`
	StepsPerSec float64 `csv:"steps_per_sec"`
	MeanStepUs  float64 `csv:"mean_step_us"`
	StdStepUs   float64 `csv:"std_step_us"`
	P50StepUs   float64 `csv:"p50_step_us"`
	P90StepUs   float64 `csv:"p90_step_us"`
	MaxStepUs   float64 `csv:"max_step_us"`
}

// Summary holds aggregate statistics over a set of step durations.
type Summary struct {
	Mean, Std, P50, P90, Min, Max float64
}

// Summarize computes mean, deviation and quantiles of step durations in
// microseconds. Returns the zero Summary for an empty input.
func Summarize(us []float64) Summary {
	if len(us) == 0 {
		return Summary{}
	}

	sorted := append([]float64(nil), us...)
	sort.Float64s(sorted)

	// stat.StdDev divides by n-1 and returns NaN for a single sample.
	std := 0.0
	if len(sorted) > 1 {
		std = stat.StdDev(sorted, nil)
	}

	return Summary{
		Mean: stat.Mean(sorted, nil),
		Std:  std,
		P50:  stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P90:  stat.Quantile(0.9, stat.Empirical, sorted, nil),
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
	}
}

// NewWindowStats aggregates the collector's current window into a stats
// record for the given strategy and population.
func NewWindowStats(p *PerfCollector, windowEnd int64, strategy string, agents int) WindowStats {
	us := p.StepDurationsUs()
	sum := Summarize(us)

	var stepsPerSec float64
	if sum.Mean > 0 {
		stepsPerSec = 1e6 / sum.Mean
	}

	return WindowStats{
		WindowEnd:   windowEnd,
		Strategy:    strategy,
		Agents:      agents,
		Frames:      len(us),
		StepsPerSec: stepsPerSec,
		MeanStepUs:  sum.Mean,
		StdStepUs:   sum.Std,
		P50StepUs:   sum.P50,
		P90StepUs:   sum.P90,
		MaxStepUs:   sum.Max,
	}
}

// Log emits the window stats via slog.
func (w WindowStats) Log() {
	slog.Info("window stats",
		"window_end", w.WindowEnd,
		"strategy", w.Strategy,
		"agents", w.Agents,
		"frames", w.Frames,
		"steps_per_sec", int(w.StepsPerSec),
		"mean_step_us", int(w.MeanStepUs),
		"p50_step_us", int(w.P50StepUs),
		"p90_step_us", int(w.P90StepUs),
	)
}
