// Package beatsync turns detected beats into short preset excursions.
package beatsync

import (
	"log/slog"

	"github.com/pthm-cable/mould/preset"
)

// State of a beat excursion.
type State int

const (
	Idle State = iota
	Excited
)

func (s State) String() string {
	if s == Excited {
		return "excited"
	}
	return "idle"
}

// Default timings in simulated time units.
const (
	DefaultInDuration  = 0.2
	DefaultHold        = 0.2
	DefaultOutDuration = 0.1
)

// Engine is the part of the simulation the controller arms transitions on.
// Preset is the effective blend; Nominal is the preset being blended toward.
type Engine interface {
	Preset() preset.Preset
	Nominal() preset.Preset
	TransitionPreset(from, to preset.Preset, now, duration float32)
}

// Controller alternates the engine between its resting preset and a beat
// preset. It only decides when a transition starts; blending is the engine's job.
type Controller struct {
	InDuration  float32
	Hold        float32
	OutDuration float32

	state      State
	beatStart  float32
	nonBeat    preset.Preset
	beatPreset preset.Preset
	beats      uint64
}

// New returns an idle controller with default timings.
func New(beat preset.Preset) *Controller {
	return &Controller{
		InDuration:  DefaultInDuration,
		Hold:        DefaultHold,
		OutDuration: DefaultOutDuration,
		beatPreset:  beat,
	}
}

// State reports whether an excursion is in progress.
func (c *Controller) State() State {
	return c.state
}

// SetBeatPreset changes the excursion target. An excursion already in
// progress keeps blending toward the old target until the next beat.
func (c *Controller) SetBeatPreset(p preset.Preset) {
	c.beatPreset = p
}

// BeatPreset returns the excursion target.
func (c *Controller) BeatPreset() preset.Preset {
	return c.beatPreset
}

// RestPreset returns the preset an excursion returns to. Only meaningful while Excited.
func (c *Controller) RestPreset() preset.Preset {
	return c.nonBeat
}

// BeatStart returns the simulated time of the most recent beat.
func (c *Controller) BeatStart() float32 {
	return c.beatStart
}

// Beats returns how many ticks carried a beat.
func (c *Controller) Beats() uint64 {
	return c.beats
}

// Reset abandons any excursion without arming a transition.
func (c *Controller) Reset() {
	c.state = Idle
}

// OnTick is called once per frame after other input has been applied.
// beat is true when at least one beat arrived since the previous tick.
func (c *Controller) OnTick(beat bool, now float32, e Engine) {
	if beat {
		c.beats++
		current := e.Preset()
		if c.state == Idle {
			// Rest on the destination of any blend in flight, so an
			// unfinished load still completes on the way back.
			c.nonBeat = e.Nominal()
			c.state = Excited
			slog.Debug("beat excursion started", "now", now, "beat_preset", c.beatPreset.Name)
		}
		c.beatStart = now
		e.TransitionPreset(current, c.beatPreset, now, c.InDuration)
		return
	}

	if c.state == Excited && now-c.beatStart > c.Hold {
		e.TransitionPreset(e.Preset(), c.nonBeat, now, c.OutDuration)
		c.state = Idle
		slog.Debug("beat excursion ended", "now", now, "rest_preset", c.nonBeat.Name)
	}
}
