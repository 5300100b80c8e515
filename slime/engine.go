// Package slime owns the agent population and the double-buffered trail map,
// drives the pipeline passes each frame and blends between presets.
package slime

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/pthm-cable/mould/pipeline"
	"github.com/pthm-cable/mould/preset"
	"github.com/pthm-cable/mould/trail"
)

// PresetSaver persists a preset snapshot and returns where it went.
type PresetSaver interface {
	Save(p preset.Preset) (string, error)
}

// ErrNoSaver is returned by SavePreset when no persistence is configured.
var ErrNoSaver = errors.New("no preset saver configured")

// Options configures a new Engine.
type Options struct {
	AgentsWidth  int
	AgentsHeight int
	Layout       pipeline.Layout
	TimeStep     float32
	Rand         *rand.Rand
	Saver        PresetSaver
}

// Engine is the slime mould simulation. It is not safe for concurrent use:
// the render loop is its only caller.
type Engine struct {
	pipe   pipeline.Pipeline
	trails *trail.Pair[pipeline.Buffer]
	agents pipeline.Agents
	layout pipeline.Layout
	rng    *rand.Rand
	saver  PresetSaver

	clock      *Clock
	transition preset.Transition

	frames uint64
}

// New allocates trail buffers and agents on pipe and seeds the population.
func New(pipe pipeline.Pipeline, initial preset.Preset, opts Options) (*Engine, error) {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	a, err := pipe.NewTrailBuffer()
	if err != nil {
		return nil, fmt.Errorf("allocating trail buffer A: %w", err)
	}
	b, err := pipe.NewTrailBuffer()
	if err != nil {
		return nil, fmt.Errorf("allocating trail buffer B: %w", err)
	}
	agents, err := pipe.NewAgents(opts.AgentsWidth, opts.AgentsHeight)
	if err != nil {
		return nil, fmt.Errorf("allocating agents: %w", err)
	}

	e := &Engine{
		pipe:       pipe,
		trails:     trail.NewPair(a, b),
		agents:     agents,
		layout:     opts.Layout,
		rng:        rng,
		saver:      opts.Saver,
		clock:      NewClock(opts.TimeStep),
		transition: preset.Hold(initial),
	}
	if err := e.Clear(); err != nil {
		return nil, err
	}
	if err := e.ResetPoints(); err != nil {
		return nil, err
	}
	return e, nil
}

// Update advances the simulation by one frame:
//
//  1. simulate: agents sense read, deposit into write; swap
//  2. diffuse/decay: blur read into write; swap
//
// After the second swap the fully diffused frame is the read buffer, which is
// what Draw and the next Update sample.
func (e *Engine) Update() error {
	p := e.Preset()

	if err := e.pipe.RunSimulationPass(e.agents, e.trails.Read(), e.trails.Write(), p); err != nil {
		return fmt.Errorf("simulation pass: %w", err)
	}
	e.trails.Swap()

	if err := e.pipe.RunDiffuseDecayPass(e.trails.Read(), e.trails.Write(), p); err != nil {
		return fmt.Errorf("diffuse/decay pass: %w", err)
	}
	e.trails.Swap()

	if e.transition.Done(e.clock.Now()) {
		e.transition = preset.Hold(e.transition.To)
	}
	e.frames++
	return nil
}

// Draw composites the current trail map onto target. Simulation state is not touched.
func (e *Engine) Draw(target pipeline.Target) error {
	if err := e.pipe.Composite(e.trails.Read(), target, e.Preset(), e.clock.Now()); err != nil {
		return fmt.Errorf("composite pass: %w", err)
	}
	return nil
}

// ResetPoints redistributes the agents. Trail history is kept.
func (e *Engine) ResetPoints() error {
	if err := e.pipe.ResetAgents(e.agents, e.layout, e.rng); err != nil {
		return fmt.Errorf("resetting agents: %w", err)
	}
	return nil
}

// Clear zeroes both trail buffers.
func (e *Engine) Clear() error {
	for _, b := range e.trails.Both() {
		if err := e.pipe.ClearBuffer(b); err != nil {
			return fmt.Errorf("clearing trail buffer: %w", err)
		}
	}
	return nil
}

// TransitionPreset installs a blend from one preset to another starting at now.
func (e *Engine) TransitionPreset(from, to preset.Preset, now, duration float32) {
	e.transition = preset.Transition{From: from, To: to, Start: now, Duration: duration}
}

// LoadPreset blends from the current effective parameters to p and hands
// simulated time back to automatic advancement.
func (e *Engine) LoadPreset(p preset.Preset, duration float32) {
	e.TransitionPreset(e.Preset(), p, e.clock.Now(), duration)
	e.clock.Resume()
}

// Preset returns the effective, possibly mid-blend, parameters at the current time.
func (e *Engine) Preset() preset.Preset {
	return e.transition.Effective(e.clock.Now())
}

// Nominal returns the preset the engine is heading to or resting at.
func (e *Engine) Nominal() preset.Preset {
	return e.transition.To
}

// Transition returns the active blend.
func (e *Engine) Transition() preset.Transition {
	return e.transition
}

// SavePreset persists the nominal preset, never a blend.
func (e *Engine) SavePreset() (string, error) {
	return e.SavePresetAs(e.Nominal())
}

// SavePresetAs persists p through the configured saver.
func (e *Engine) SavePresetAs(p preset.Preset) (string, error) {
	if e.saver == nil {
		return "", ErrNoSaver
	}
	path, err := e.saver.Save(p)
	if err != nil {
		return "", fmt.Errorf("saving preset: %w", err)
	}
	return path, nil
}

// Clock returns the simulated time source.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// Trails exposes the buffer pair for inspection.
func (e *Engine) Trails() *trail.Pair[pipeline.Buffer] {
	return e.trails
}

// Agents returns the population handle.
func (e *Engine) Agents() pipeline.Agents {
	return e.agents
}

// Frames returns how many updates have completed.
func (e *Engine) Frames() uint64 {
	return e.frames
}

// Close releases pipeline resources.
func (e *Engine) Close() error {
	return e.pipe.Close()
}
