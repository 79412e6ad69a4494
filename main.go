package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/oviz-lab/fluidlab/app"
	"github.com/oviz-lab/fluidlab/config"
	"github.com/oviz-lab/fluidlab/dataset"
	"github.com/oviz-lab/fluidlab/posefeed"
	"github.com/oviz-lab/fluidlab/renderer"
	"github.com/oviz-lab/fluidlab/ui"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics, driven by the scripted orbit")
	datasetPath := flag.String("dataset", "", "Path to a .rvf scalar volume (empty = synthetic)")
	velocityPath := flag.String("velocity", "", "Path to a matching .rvv velocity volume")
	synthetic := flag.String("synthetic", "turbulence", "Synthetic dataset when no file is given: turbulence or scalar")
	listen := flag.String("listen", "", "Websocket listen address for live poses (empty = scripted orbit)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = unlimited)")

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

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	field, err := loadField(*datasetPath, *velocityPath, *synthetic, rngSeed)
	if err != nil {
		slog.Error("failed to load dataset", "error", err)
		os.Exit(1)
	}

	// Headless runs step simulated time, so results do not depend on how
	// fast the loop spins.
	var clk *stepClock
	opts := app.Options{
		Seed:           rngSeed,
		OutputDir:      *outputDir,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
	}
	if *headless {
		clk = &stepClock{}
		opts.Clock = clk.now
	}

	a, err := app.New(field, cfg, opts)
	if err != nil {
		slog.Error("failed to start session", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	dispatcher := posefeed.NewDispatcher(a, func() (mgl32.Vec3, bool) {
		hit := a.Effector()
		return hit.Point, hit.Valid
	})

	if *headless {
		runHeadless(a, dispatcher, clk, cfg, rngSeed, *maxFrames)
		return
	}
	runWindow(a, dispatcher, cfg, rngSeed, *listen, *maxFrames)
}

// stepClock is a hand-advanced millisecond clock for headless runs.
type stepClock struct{ ms int64 }

func (c *stepClock) now() int64 { return c.ms }

// loadField loads the requested dataset or synthesizes one.
func loadField(path, velocity, synthetic string, seed int64) (*dataset.Field, error) {
	if path == "" {
		dims := [3]int{64, 64, 64}
		spacing := mgl32.Vec3{1, 1, 1}
		switch synthetic {
		case "scalar":
			return dataset.SyntheticScalar(dims, spacing, seed), nil
		default:
			return dataset.SyntheticTurbulence(dims, spacing, seed), nil
		}
	}

	field, err := dataset.Load(path)
	if err != nil {
		return nil, err
	}
	if velocity != "" {
		if err := field.AttachVelocity(velocity); err != nil {
			return nil, err
		}
	}
	return field, nil
}

// runHeadless drives the pipeline with the scripted orbit at a fixed step,
// no window and no renderer.
func runHeadless(a *app.App, d *posefeed.Dispatcher, clk *stepClock, cfg *config.Config, seed int64, maxFrames int) {
	orbit := posefeed.NewOrbit(
		cfg.Posefeed.OrbitPeriodSec,
		cfg.Posefeed.StylusSweepSec,
		float32(cfg.Posefeed.OrbitDistance),
		seed,
	)

	stepMs := int64(1000 / cfg.Screen.TargetFPS)
	slog.Info("starting headless run", "seed", seed, "max_frames", maxFrames, "step_ms", stepMs)

	for frame := 0; maxFrames == 0 || frame < maxFrames; frame++ {
		clk.ms = int64(frame) * stepMs
		d.Apply(orbit.Step(clk.ms))
	}
	slog.Info("headless run finished")
}

// runWindow opens the raylib viewer. Poses arrive either over the
// websocket (the update context, on its own goroutine) or from the
// scripted orbit stepped inside the frame loop.
func runWindow(a *app.App, d *posefeed.Dispatcher, cfg *config.Config, seed int64, listen string, maxFrames int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var orbit *posefeed.Orbit
	if listen != "" {
		server := posefeed.NewServer(d)
		go func() {
			if err := server.Run(ctx, listen); err != nil {
				slog.Error("pose feed failed", "error", err)
			}
		}()
	} else {
		orbit = posefeed.NewOrbit(
			cfg.Posefeed.OrbitPeriodSec,
			cfg.Posefeed.StylusSweepSec,
			float32(cfg.Posefeed.OrbitDistance),
			seed,
		)
	}

	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "fluidlab")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	scene := renderer.NewScene(cfg)
	panel := ui.NewPanel(cfg, 20, 20, 280)
	start := time.Now()

	for frame := 0; !rl.WindowShouldClose(); frame++ {
		if orbit != nil {
			d.Apply(orbit.Step(time.Since(start).Milliseconds()))
		}
		if rl.IsKeyPressed(rl.KeyTab) {
			panel.Toggle()
		}

		fs := a.FrameState()

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)
		scene.Draw(fs, a.Preview(), fs.SurfacePct)
		panel.Draw(a, fs)
		rl.DrawFPS(int32(cfg.Screen.Width)-100, 20)
		rl.EndDrawing()
		a.RecordPresent()

		if maxFrames > 0 && frame >= maxFrames {
			break
		}
	}
}
