// Benchmark tool comparing the three neighbor-search strategies across
// population sizes.
//
// Usage: go run ./cmd/bench -agents 1000,5000,20000 -frames 200 -output results.csv
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/flock3d/config"
	"github.com/pthm-cable/flock3d/flock"
	"github.com/pthm-cable/flock3d/telemetry"
)

// Result is one row of the benchmark output.
type Result struct {
	Strategy    string  `csv:"strategy"`
	Agents      int     `csv:"agents"`
	Frames      int     `csv:"frames"`
	MeanStepUs  float64 `csv:"mean_step_us"`
	StdStepUs   float64 `csv:"std_step_us"`
	P50StepUs   float64 `csv:"p50_step_us"`
	P90StepUs   float64 `csv:"p90_step_us"`
	MaxStepUs   float64 `csv:"max_step_us"`
	StepsPerSec float64 `csv:"steps_per_sec"`
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	agentsList := flag.String("agents", "1000,5000,20000", "Comma-separated population sizes")
	frames := flag.Int("frames", 200, "Timed frames per run")
	warmup := flag.Int("warmup", 20, "Untimed warmup frames per run")
	seed := flag.Int64("seed", 1, "RNG seed (same initial state for every strategy)")
	naiveCap := flag.Int("naive-cap", 20000, "Skip the naive strategy above this population")
	output := flag.String("output", "", "Output CSV file (empty = stdout summary only)")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Cfg()

	sizes, err := parseSizes(*agentsList)
	if err != nil {
		log.Fatalf("invalid -agents: %v", err)
	}

	var results []Result
	for _, n := range sizes {
		for _, strategy := range []string{"naive", "scattered", "coherent"} {
			if strategy == "naive" && n > *naiveCap {
				fmt.Printf("%-10s n=%-7d skipped (above -naive-cap)\n", strategy, n)
				continue
			}
			r, err := run(cfg, strategy, n, *frames, *warmup, *seed)
			if err != nil {
				log.Fatalf("%s n=%d: %v", strategy, n, err)
			}
			results = append(results, r)
			fmt.Printf("%-10s n=%-7d mean=%8.0fus p50=%8.0fus p90=%8.0fus  %7.1f steps/s\n",
				r.Strategy, r.Agents, r.MeanStepUs, r.P50StepUs, r.P90StepUs, r.StepsPerSec)
		}
	}

	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatalf("failed to create output: %v", err)
		}
		defer f.Close()
		if err := gocsv.Marshal(results, f); err != nil {
			log.Fatalf("failed to write output: %v", err)
		}
		fmt.Printf("wrote %d rows to %s\n", len(results), *output)
	}
}

// run times one strategy at one population size and summarizes step durations.
func run(cfg *config.Config, strategy string, n, frames, warmup int, seed int64) (Result, error) {
	sim, err := flock.New(cfg, n, seed)
	if err != nil {
		return Result{}, err
	}
	defer sim.Close()

	var step func(float32) error
	switch strategy {
	case "naive":
		step = sim.StepNaive
	case "scattered":
		step = sim.StepScattered
	case "coherent":
		step = sim.StepCoherent
	}

	dt := cfg.Derived.DT32
	for i := 0; i < warmup; i++ {
		if err := step(dt); err != nil {
			return Result{}, err
		}
	}

	us := make([]float64, 0, frames)
	for i := 0; i < frames; i++ {
		start := time.Now()
		if err := step(dt); err != nil {
			return Result{}, err
		}
		us = append(us, float64(time.Since(start).Microseconds()))
	}

	sum := telemetry.Summarize(us)
	var stepsPerSec float64
	if sum.Mean > 0 {
		stepsPerSec = 1e6 / sum.Mean
	}

	return Result{
		Strategy:    strategy,
		Agents:      n,
		Frames:      frames,
		MeanStepUs:  sum.Mean,
		StdStepUs:   sum.Std,
		P50StepUs:   sum.P50,
		P90StepUs:   sum.P90,
		MaxStepUs:   sum.Max,
		StepsPerSec: stepsPerSec,
	}, nil
}

func parseSizes(s string) ([]int, error) {
	var sizes []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", part, err)
		}
		if n <= 0 {
			return nil, fmt.Errorf("population %d must be positive", n)
		}
		sizes = append(sizes, n)
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("no sizes given")
	}
	return sizes, nil
}
