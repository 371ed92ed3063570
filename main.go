package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flock3d/camera"
	"github.com/pthm-cable/flock3d/config"
	"github.com/pthm-cable/flock3d/flock"
	"github.com/pthm-cable/flock3d/renderer"
	"github.com/pthm-cable/flock3d/telemetry"
	"github.com/pthm-cable/flock3d/ui"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	n := flag.Int("n", 0, "Agent count (0 = use config)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	strategy := flag.String("strategy", "coherent", "Neighbor-search strategy: naive, scattered or coherent")
	headless := flag.Bool("headless", false, "Run without graphics")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = unlimited)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	selfCheck := flag.Bool("selfcheck", false, "Run the grid index self-check and exit")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if *selfCheck {
		if err := flock.SelfCheck(cfg); err != nil {
			slog.Error("grid self-check failed", "error", err)
			os.Exit(1)
		}
		slog.Info("grid self-check passed", "neighborhood", cfg.Grid.Neighborhood)
		return
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	count := *n
	if count == 0 {
		count = cfg.Population.Count
	}

	sim, err := flock.New(cfg, count, rngSeed)
	if err != nil {
		slog.Error("failed to initialize simulation", "error", err)
		os.Exit(1)
	}
	defer sim.Close()

	stepFn, err := stepFunc(sim, *strategy)
	if err != nil {
		slog.Error("unknown strategy", "strategy", *strategy)
		os.Exit(1)
	}

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)
	sim.SetStageHook(perf.StartPhase)

	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to initialize output", "error", err)
		os.Exit(1)
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	slog.Info("starting simulation",
		"agents", count,
		"seed", rngSeed,
		"strategy", *strategy,
		"neighborhood", cfg.Grid.Neighborhood,
		"headless", *headless,
	)

	if *headless {
		runHeadless(sim, stepFn, cfg, perf, out, *strategy, *maxFrames, *logStats)
		return
	}
	runViewer(sim, cfg, perf, out, *strategy, *maxFrames, *logStats)
}

// stepFunc resolves a strategy name to the simulation's step method.
func stepFunc(sim *flock.Simulation, name string) (func(float32) error, error) {
	switch name {
	case "naive":
		return sim.StepNaive, nil
	case "scattered":
		return sim.StepScattered, nil
	case "coherent":
		return sim.StepCoherent, nil
	}
	return nil, fmt.Errorf("unknown strategy %q", name)
}

func runHeadless(sim *flock.Simulation, step func(float32) error, cfg *config.Config,
	perf *telemetry.PerfCollector, out *telemetry.OutputManager,
	strategy string, maxFrames int, logStats bool) {

	dt := cfg.Derived.DT32
	window := cfg.Telemetry.PerfCollectorWindow

	for frame := 1; ; frame++ {
		perf.StartStep()
		if err := step(dt); err != nil {
			slog.Error("step failed", "frame", frame, "error", err)
			os.Exit(1)
		}
		perf.EndStep()

		if frame%window == 0 {
			stats := telemetry.NewWindowStats(perf, int64(frame), strategy, sim.N())
			if logStats {
				stats.Log()
				perf.Stats().LogStats()
			}
			if err := out.WriteTelemetry(stats); err != nil {
				slog.Error("failed to write telemetry", "error", err)
			}
			if err := out.WritePerf(perf.Stats(), int64(frame)); err != nil {
				slog.Error("failed to write perf", "error", err)
			}
		}

		if maxFrames > 0 && frame >= maxFrames {
			slog.Info("max frames reached", "frame", frame)
			return
		}
	}
}

func runViewer(sim *flock.Simulation, cfg *config.Config,
	perf *telemetry.PerfCollector, out *telemetry.OutputManager,
	strategy string, maxFrames int, logStats bool) {

	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "flock3d")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	cam := camera.New(cfg.Derived.Scale32)
	rend := renderer.New(sim.N(), cfg.Derived.Scale32, cfg.Derived.MaxSpeed32)
	panel := ui.NewPanel(10, 10, 340)

	st := ui.State{
		Strategy:         strategyIndex(strategy),
		CohesionWeight:   float32(cfg.Rules.CohesionWeight),
		SeparationWeight: float32(cfg.Rules.SeparationWeight),
		AlignmentWeight:  float32(cfg.Rules.AlignmentWeight),
	}

	dt := cfg.Derived.DT32
	window := cfg.Telemetry.PerfCollectorWindow
	frame := 0

	for !rl.WindowShouldClose() {
		// Camera input
		if rl.IsMouseButtonDown(rl.MouseLeftButton) {
			d := rl.GetMouseDelta()
			cam.Rotate(d.X*0.005, d.Y*0.005)
		}
		if wheel := rl.GetMouseWheelMove(); wheel != 0 {
			cam.Dolly(1 - wheel*0.1)
		}
		if rl.IsKeyPressed(rl.KeyR) {
			cam.Reset(cfg.Derived.Scale32)
		}
		if rl.IsKeyPressed(rl.KeyTab) {
			panel.Toggle()
		}
		if rl.IsKeyPressed(rl.KeySpace) {
			st.Paused = !st.Paused
		}

		if !st.Paused {
			frame++
			step, err := stepFunc(sim, ui.StrategyNames[st.Strategy])
			if err != nil {
				slog.Error("unknown strategy", "error", err)
				break
			}
			perf.StartStep()
			if err := step(dt); err != nil {
				slog.Error("step failed", "frame", frame, "error", err)
				break
			}
			perf.EndStep()

			if frame%window == 0 {
				stats := telemetry.NewWindowStats(perf, int64(frame), ui.StrategyNames[st.Strategy], sim.N())
				if logStats {
					stats.Log()
				}
				if err := out.WriteTelemetry(stats); err != nil {
					slog.Error("failed to write telemetry", "error", err)
				}
			}
		}

		if err := rend.Sync(sim); err != nil {
			slog.Error("render sync failed", "error", err)
			break
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)
		rend.Draw(cam)
		if panel.Draw(&st) {
			sim.SetWeights(float64(st.CohesionWeight), float64(st.SeparationWeight), float64(st.AlignmentWeight))
		}
		rl.DrawFPS(int32(cfg.Screen.Width)-100, 10)
		rl.EndDrawing()
		perf.RecordFrame()

		if maxFrames > 0 && frame >= maxFrames {
			break
		}
	}
}

func strategyIndex(name string) int32 {
	for i, s := range ui.StrategyNames {
		if s == name {
			return int32(i)
		}
	}
	return 2
}
