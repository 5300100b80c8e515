package game

import (
	"errors"
	"log/slog"

	"github.com/pthm-cable/mould/input"
	"github.com/pthm-cable/mould/preset"
	"github.com/pthm-cable/mould/slime"
	"github.com/pthm-cable/mould/telemetry"
)

// applyFrame carries out a tick's requests in a fixed order. Later steps see
// the effects of earlier ones: a preset load in the same tick as a randomize
// wins, and both hand simulated time back from a knob takeover.
func (g *Game) applyFrame(f input.Frame) {
	frame, now := g.engine.Frames(), g.now()

	if f.SetTime {
		g.engine.Clock().Takeover(f.TimeValue)
		now = g.now()
		slog.Debug("time takeover", "source", f.TimeSource, "value", f.TimeValue)
		g.record(telemetry.NewTakeoverEvent(frame, f.TimeValue))
	}

	if f.Has(input.ActionRandomizeBeat) {
		p := preset.Random(g.rng)
		g.beat.SetBeatPreset(p)
		slog.Info("beat preset randomized", "preset", p.Name)
		g.record(telemetry.NewPresetEvent(telemetry.EventBeatPreset, frame, now, p.Name))
	}

	if f.Has(input.ActionRandomize) {
		p := preset.Random(g.rng)
		g.loadPreset(p)
		slog.Info("preset randomized", "preset", p.Name)
		g.record(telemetry.NewPresetEvent(telemetry.EventRandomize, frame, now, p.Name))
	}

	if f.Has(input.ActionRegeneratePoints) {
		g.resetPoints()
		g.record(telemetry.NewPresetEvent(telemetry.EventRegenerate, frame, now, ""))
	}

	if f.Has(input.ActionClear) {
		if err := g.engine.Clear(); err != nil {
			slog.Error("clearing trails failed", "error", err)
		}
		g.record(telemetry.NewPresetEvent(telemetry.EventClear, frame, now, ""))
	}

	if f.LoadBeatPreset != input.NoPreset {
		p := preset.New(f.LoadBeatPreset)
		g.beat.SetBeatPreset(p)
		slog.Info("beat preset selected", "index", f.LoadBeatPreset, "preset", p.Name)
		g.record(telemetry.NewPresetEvent(telemetry.EventBeatPreset, frame, now, p.Name))
	}

	if f.LoadPreset != input.NoPreset {
		p := preset.New(f.LoadPreset)
		g.loadPreset(p)
		g.resetPoints()
		slog.Info("preset loaded", "index", f.LoadPreset, "preset", p.Name)
		g.record(telemetry.NewPresetEvent(telemetry.EventPresetLoad, frame, now, p.Name))
	}

	if f.Has(input.ActionSavePreset) {
		chosen := g.Preset()
		path, err := g.engine.SavePresetAs(chosen)
		switch {
		case errors.Is(err, slime.ErrNoSaver):
			slog.Warn("preset save requested but no preset store configured")
		case err != nil:
			slog.Error("saving preset failed", "error", err)
		default:
			slog.Info("preset saved", "path", path)
			g.record(telemetry.NewPresetEvent(telemetry.EventSavePreset, frame, now, chosen.Name))
		}
	}
}

// loadPreset blends to p over the configured duration. An explicit load
// abandons any beat excursion so the return leg cannot undo it.
func (g *Game) loadPreset(p preset.Preset) {
	g.engine.LoadPreset(p, g.cfg.Derived.PresetDuration32)
	g.beat.Reset()
}

func (g *Game) resetPoints() {
	if err := g.engine.ResetPoints(); err != nil {
		slog.Error("regenerating points failed", "error", err)
	}
}
