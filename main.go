package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/mould/config"
	"github.com/pthm-cable/mould/game"
	"github.com/pthm-cable/mould/input"
	"github.com/pthm-cable/mould/pipeline"
	"github.com/pthm-cable/mould/preset"
	"github.com/pthm-cable/mould/renderer"
	"github.com/pthm-cable/mould/screenshot"
	"github.com/pthm-cable/mould/ui"
)

// Headless trail resolution when the config leaves the screen size to the monitor.
const (
	headlessWidth  = 640
	headlessHeight = 360
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run the CPU pipeline without a window")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config seed, then time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	audioFile := flag.String("audio", "", "WAV file to play and detect beats from")
	midiPort := flag.String("midi-port", "", "MIDI input port number or name prefix")
	hud := flag.Bool("hud", false, "Draw the status and perf overlay")

	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *audioFile != "" {
		cfg.Audio.Enabled = true
		cfg.Audio.File = *audioFile
	}
	if *midiPort != "" {
		cfg.MIDI.Enabled = true
		cfg.MIDI.Port = *midiPort
	}
	if *outputDir == "" {
		*outputDir = cfg.Telemetry.OutputDir
	}
	if *hud {
		cfg.Screen.HUD = true
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = cfg.Simulation.Seed
	}
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Derived.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	beats, stopBeats, err := startBeats(ctx, cfg)
	if err != nil {
		slog.Error("failed to start beat source", "error", err)
		os.Exit(1)
	}
	defer stopBeats()

	midiEvents, stopMIDI := startMIDI(cfg)
	defer stopMIDI()

	shots, err := screenshot.NewWriter(cfg.Screenshot.Dir, cfg.Screenshot.Workers, cfg.Screenshot.QueueSize)
	if err != nil {
		slog.Error("failed to start screenshot writer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shots.Close(); err != nil {
			slog.Error("closing screenshot writer", "error", err)
		}
		written, failed, dropped := shots.Stats()
		slog.Info("screenshots", "written", written, "failed", failed, "dropped", dropped)
	}()

	opts := game.Options{
		Config:      cfg,
		Seed:        rngSeed,
		Beats:       beats,
		MIDI:        midiEvents,
		Screenshots: shots,
		Presets:     preset.NewStore(cfg.Presets.Dir),
		OutputDir:   *outputDir,
		LogStats:    *logStats,
	}

	if *headless {
		err = runHeadless(ctx, cfg, opts, *maxTicks)
	} else {
		err = runWindowed(ctx, cfg, opts, *maxTicks)
	}
	if err != nil {
		slog.Error("visualiser stopped", "error", err)
		os.Exit(1)
	}
}

// runHeadless drives the CPU pipeline without drawing.
func runHeadless(ctx context.Context, cfg *config.Config, opts game.Options, maxTicks int) error {
	w, h := cfg.Screen.Width, cfg.Screen.Height
	if w <= 0 || h <= 0 {
		w, h = headlessWidth, headlessHeight
	}
	tw, th := cfg.TrailSize(w, h)
	opts.Pipeline = pipeline.NewCPU(tw, th)
	opts.Window = game.NewImageWindow(0, 0)

	g, err := game.NewGame(opts)
	if err != nil {
		return err
	}
	defer g.Close()

	slog.Info("starting headless simulation",
		"seed", opts.Seed,
		"trail_w", tw,
		"trail_h", th,
		"max_ticks", maxTicks,
	)

	for ctx.Err() == nil {
		actions, err := g.Tick(nil)
		if err != nil {
			return err
		}
		if actions&input.ActionStop != 0 {
			return nil
		}
		if maxTicks > 0 && g.Frames() >= uint64(maxTicks) {
			slog.Info("max ticks reached", "tick", g.Frames())
			return nil
		}
	}
	return nil
}

// runWindowed opens a raylib window and drives the GPU pipeline.
func runWindowed(ctx context.Context, cfg *config.Config, opts game.Options, maxTicks int) error {
	rl.SetTraceLogLevel(rl.LogWarning)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Slime Mould")
	defer rl.CloseWindow()

	rl.SetExitKey(0) // Escape is a regular action
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))
	if cfg.Screen.Fullscreen && !rl.IsWindowFullscreen() {
		rl.ToggleFullscreen()
	}

	tw, th := cfg.TrailSize(rl.GetScreenWidth(), rl.GetScreenHeight())
	gpu, err := renderer.New(tw, th)
	if err != nil {
		if errors.Is(err, renderer.ErrShaderCompile) {
			slog.Error("shader pipeline unavailable", "error", err)
		}
		return err
	}
	opts.Pipeline = gpu
	opts.Window = rlWindow{}

	g, err := game.NewGame(opts)
	if err != nil {
		gpu.Close()
		return err
	}
	defer g.Close()

	slog.Info("starting visualiser",
		"seed", opts.Seed,
		"screen_w", rl.GetScreenWidth(),
		"screen_h", rl.GetScreenHeight(),
		"trail_w", tw,
		"trail_h", th,
	)

	var hud *ui.HUD
	if cfg.Screen.HUD {
		hud = ui.NewHUD()
	}

	for !rl.WindowShouldClose() && ctx.Err() == nil {
		keys := pollKeys()

		rl.BeginDrawing()
		actions, err := g.Tick(keys)
		if hud != nil && err == nil {
			hud.Draw(hudData(g, tw, th))
			hud.DrawPerf(g.Perf())
		}
		rl.EndDrawing()

		if err != nil {
			return err
		}
		if actions&input.ActionStop != 0 {
			return nil
		}
		if maxTicks > 0 && g.Frames() >= uint64(maxTicks) {
			slog.Info("max ticks reached", "tick", g.Frames())
			return nil
		}
	}
	return nil
}
