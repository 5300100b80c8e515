package main

import (
	"image"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/mould/beatsync"
	"github.com/pthm-cable/mould/game"
	"github.com/pthm-cable/mould/input"
	"github.com/pthm-cable/mould/pipeline"
	"github.com/pthm-cable/mould/renderer"
	"github.com/pthm-cable/mould/ui"
)

// rlWindow is the raylib window as a game.Window. Tick must run between
// rl.BeginDrawing and rl.EndDrawing so Capture sees the composited frame.
type rlWindow struct{}

func (rlWindow) Target() pipeline.Target {
	return renderer.Screen{}
}

func (rlWindow) Capture() (*image.RGBA, error) {
	return renderer.CaptureScreen(), nil
}

func (rlWindow) ToggleFullscreen() {
	rl.ToggleFullscreen()
}

// pollKeys drains raylib's key queue for this frame.
func pollKeys() []input.Key {
	var keys []input.Key
	for k := rl.GetKeyPressed(); k != 0; k = rl.GetKeyPressed() {
		if key := translateKey(k); key != input.KeyUnknown {
			keys = append(keys, key)
		}
	}
	return keys
}

func translateKey(k int32) input.Key {
	switch k {
	case rl.KeyEscape:
		return input.KeyEscape
	case rl.KeyEnter:
		return input.KeyEnter
	case rl.KeyBackspace:
		return input.KeyBackspace
	case rl.KeyR:
		return input.KeyR
	case rl.KeyP:
		return input.KeyP
	case rl.KeyC:
		return input.KeyC
	case rl.KeyS:
		return input.KeyS
	}
	if k >= rl.KeyZero && k <= rl.KeyNine {
		return input.DigitKey(int(k - rl.KeyZero))
	}
	return input.KeyUnknown
}

// hudData snapshots the overlay fields after a tick.
func hudData(g *game.Game, trailW, trailH int) ui.HUDData {
	e := g.Engine()
	now := e.Clock().Now()
	return ui.HUDData{
		Preset:     g.Preset().Name,
		Blending:   !e.Transition().Done(now),
		SimTime:    now,
		TimeMode:   e.Clock().Mode().String(),
		Excited:    g.Beat().State() == beatsync.Excited,
		Beats:      int(g.Beat().Beats()),
		BPM:        g.BPM(),
		FPS:        rl.GetFPS(),
		TrailW:     trailW,
		TrailH:     trailH,
		AgentCount: e.Agents().Count(),
	}
}
