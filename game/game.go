// Package game runs the visualiser one tick at a time: collect beats and
// control input, draw the current trail map, advance the simulation, then
// apply whatever was requested during the tick.
package game

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/pthm-cable/mould/audio"
	"github.com/pthm-cable/mould/beatsync"
	"github.com/pthm-cable/mould/config"
	"github.com/pthm-cable/mould/input"
	"github.com/pthm-cable/mould/pipeline"
	"github.com/pthm-cable/mould/preset"
	"github.com/pthm-cable/mould/slime"
	"github.com/pthm-cable/mould/telemetry"
)

// Window is the surface the loop draws into.
type Window interface {
	// Target returns where Draw composites, or nil to skip drawing.
	Target() pipeline.Target
	// Capture returns the frame most recently drawn this tick.
	Capture() (*image.RGBA, error)
	ToggleFullscreen()
}

// ScreenshotSink accepts captured frames without blocking.
type ScreenshotSink interface {
	Submit(img image.Image) (bool, error)
}

// ErrNoCapture is returned by windows that cannot read frames back.
var ErrNoCapture = errors.New("window cannot capture frames")

// Options configures a new Game.
type Options struct {
	Config   *config.Config // nil uses config.Cfg()
	Pipeline pipeline.Pipeline
	Window   Window
	Seed     int64

	Beats       <-chan audio.Beat
	MIDI        <-chan input.MIDIEvent
	Screenshots ScreenshotSink
	Presets     slime.PresetSaver

	OutputDir string
	LogStats  bool
}

// Game holds the simulation and everything feeding it.
type Game struct {
	cfg    *config.Config
	rng    *rand.Rand
	pipe   pipeline.Pipeline
	engine *slime.Engine
	beat   *beatsync.Controller
	window Window

	beats <-chan audio.Beat
	midi  <-chan input.MIDIEvent
	shots ScreenshotSink

	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	bookmarks     *telemetry.BookmarkDetector
	outputManager *telemetry.OutputManager
	pending       []telemetry.Event
	logStats      bool

	lastBPM float64
	closed  bool
}

// NewGame builds the engine on opts.Pipeline and seeds it with the configured
// initial and beat presets.
func NewGame(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	if opts.Pipeline == nil {
		return nil, fmt.Errorf("game: no pipeline")
	}
	if opts.Window == nil {
		return nil, fmt.Errorf("game: no window")
	}

	rng := rand.New(rand.NewSource(opts.Seed))

	initial, err := ResolvePreset(cfg.Presets.Initial, rng)
	if err != nil {
		return nil, fmt.Errorf("initial preset: %w", err)
	}
	beatPreset, err := ResolvePreset(cfg.Beat.Preset, rng)
	if err != nil {
		return nil, fmt.Errorf("beat preset: %w", err)
	}
	layout, err := pipeline.ParseLayout(cfg.Simulation.Layout)
	if err != nil {
		return nil, err
	}

	engine, err := slime.New(opts.Pipeline, initial, slime.Options{
		AgentsWidth:  cfg.Simulation.AgentsWidth,
		AgentsHeight: cfg.Simulation.AgentsHeight,
		Layout:       layout,
		TimeStep:     cfg.Derived.TimeStep32,
		Rand:         rng,
		Saver:        opts.Presets,
	})
	if err != nil {
		return nil, err
	}

	beat := beatsync.New(beatPreset)
	beat.InDuration = cfg.Derived.BeatIn32
	beat.Hold = cfg.Derived.BeatHold32
	beat.OutDuration = cfg.Derived.BeatOut32

	g := &Game{
		cfg:           cfg,
		rng:           rng,
		pipe:          opts.Pipeline,
		engine:        engine,
		beat:          beat,
		window:        opts.Window,
		beats:         opts.Beats,
		midi:          opts.MIDI,
		shots:         opts.Screenshots,
		collector:     telemetry.NewCollector(cfg.Telemetry.WindowFrames),
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		bookmarks:     telemetry.NewBookmarkDetector(cfg.Telemetry.Bookmarks),
		logStats:      opts.LogStats,
	}

	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			engine.Close()
			return nil, fmt.Errorf("creating output manager: %w", err)
		}
		if err := om.WriteConfig(cfg); err != nil {
			slog.Error("failed to write config", "error", err)
		}
		g.outputManager = om
	}

	slog.Info("visualiser ready",
		"seed", opts.Seed,
		"agents", engine.Agents().Count(),
		"layout", layout.String(),
		"preset", initial.Name,
		"beat_preset", beatPreset.Name,
	)
	return g, nil
}

// ResolvePreset maps a configured preset reference to a Preset: empty picks
// a random catalog entry, a .yaml path loads a saved snapshot, anything else
// is a catalog name.
func ResolvePreset(ref string, rng *rand.Rand) (preset.Preset, error) {
	switch {
	case ref == "":
		return preset.Random(rng), nil
	case strings.HasSuffix(ref, ".yaml"):
		return preset.NewStore("").Load(ref)
	}
	p, ok := preset.Lookup(ref)
	if !ok {
		return preset.Preset{}, fmt.Errorf("unknown preset %q", ref)
	}
	return p, nil
}

// Tick runs one frame and returns the actions applied during it. The caller
// stops when the result has input.ActionStop.
//
// Order within a tick:
//
//  1. drain the beat queue and collect key and MIDI input
//  2. draw the current trail map
//  3. advance simulated time, then update the simulation
//  4. apply the collected input
//  5. beat sync, screenshot, fullscreen
func (g *Game) Tick(keys []input.Key) (input.Action, error) {
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseDrain)
	beats, last := audio.Drain(g.beats)
	frame := input.NewFrame()
	for _, k := range keys {
		input.ApplyKey(&frame, k)
	}
	g.drainMIDI(&frame)

	g.perfCollector.StartPhase(telemetry.PhaseDraw)
	if target := g.window.Target(); target != nil {
		if err := g.engine.Draw(target); err != nil {
			return 0, err
		}
		g.perfCollector.RecordFrame()
	}

	g.perfCollector.StartPhase(telemetry.PhaseUpdate)
	g.engine.Clock().Advance()
	if err := g.engine.Update(); err != nil {
		return 0, err
	}

	g.perfCollector.StartPhase(telemetry.PhaseInput)
	g.applyFrame(frame)

	g.perfCollector.StartPhase(telemetry.PhaseBeat)
	g.handleBeats(beats, last)
	if frame.Has(input.ActionScreenshot) {
		g.takeScreenshot()
	}
	if frame.Has(input.ActionToggleFullscreen) {
		g.window.ToggleFullscreen()
	}

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()

	g.perfCollector.EndTick()
	return frame.Actions, nil
}

func (g *Game) drainMIDI(f *input.Frame) {
	if g.midi == nil {
		return
	}
	for {
		select {
		case ev, ok := <-g.midi:
			if !ok {
				g.midi = nil
				return
			}
			input.ApplyMIDI(f, ev)
		default:
			return
		}
	}
}

func (g *Game) handleBeats(n int, last audio.Beat) {
	wasExcited := g.beat.State() == beatsync.Excited
	if n > 0 {
		if last.BPM > 0 {
			g.lastBPM = last.BPM
		}
		g.record(telemetry.NewBeatEvent(g.engine.Frames(), g.now(), n, g.lastBPM))
	}

	g.beat.OnTick(n > 0, g.now(), g.engine)

	switch excited := g.beat.State() == beatsync.Excited; {
	case excited && !wasExcited:
		g.record(telemetry.NewPresetEvent(telemetry.EventExcursionStart, g.engine.Frames(), g.now(), g.beat.BeatPreset().Name))
	case !excited && wasExcited:
		g.record(telemetry.NewPresetEvent(telemetry.EventExcursionEnd, g.engine.Frames(), g.now(), g.beat.RestPreset().Name))
	}
}

func (g *Game) takeScreenshot() {
	if g.shots == nil {
		slog.Warn("screenshot requested but no writer configured")
		return
	}
	img, err := g.window.Capture()
	if err != nil {
		slog.Error("screenshot capture failed", "error", err)
		return
	}
	queued, err := g.shots.Submit(img)
	if err != nil {
		slog.Error("screenshot submit failed", "error", err)
		return
	}
	if queued {
		slog.Info("taking screenshot", "frame", g.engine.Frames())
		g.record(telemetry.NewPresetEvent(telemetry.EventScreenshot, g.engine.Frames(), g.now(), ""))
	}
}

func (g *Game) now() float32 {
	return g.engine.Clock().Now()
}

func (g *Game) record(e telemetry.Event) {
	g.collector.Record(e)
	if g.outputManager != nil {
		g.pending = append(g.pending, e)
	}
}

// Engine returns the simulation.
func (g *Game) Engine() *slime.Engine {
	return g.engine
}

// Preset returns the preset the user chose: the rest preset while a beat
// excursion is running, otherwise the engine's nominal preset.
func (g *Game) Preset() preset.Preset {
	if g.beat.State() == beatsync.Excited {
		return g.beat.RestPreset()
	}
	return g.engine.Nominal()
}

// Beat returns the beat-sync controller.
func (g *Game) Beat() *beatsync.Controller {
	return g.beat
}

// BPM returns the tempo of the most recent beat that carried one.
func (g *Game) BPM() float64 {
	return g.lastBPM
}

// Perf returns timing statistics over the current perf window.
func (g *Game) Perf() telemetry.PerfStats {
	return g.perfCollector.Stats()
}

// Frames returns the number of completed ticks.
func (g *Game) Frames() uint64 {
	return g.engine.Frames()
}

// Close flushes telemetry and releases the pipeline. Further calls do nothing.
func (g *Game) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true

	var errs []error
	if g.outputManager != nil {
		if err := g.outputManager.WriteEvents(g.pending); err != nil {
			errs = append(errs, err)
		}
		g.pending = nil
		if err := g.outputManager.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := g.engine.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
