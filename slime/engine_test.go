package slime

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/pthm-cable/mould/pipeline"
	"github.com/pthm-cable/mould/preset"
)

// recordingPipeline notes which buffers every pass touched.
type recordingPipeline struct {
	*pipeline.CPU
	passes []passRecord
}

type passRecord struct {
	name        string
	read, write pipeline.Buffer
}

func (r *recordingPipeline) RunSimulationPass(a pipeline.Agents, read, write pipeline.Buffer, p preset.Preset) error {
	r.passes = append(r.passes, passRecord{"simulate", read, write})
	return r.CPU.RunSimulationPass(a, read, write, p)
}

func (r *recordingPipeline) RunDiffuseDecayPass(read, write pipeline.Buffer, p preset.Preset) error {
	r.passes = append(r.passes, passRecord{"diffuse", read, write})
	return r.CPU.RunDiffuseDecayPass(read, write, p)
}

type memorySaver struct {
	saved []preset.Preset
	err   error
}

func (m *memorySaver) Save(p preset.Preset) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.saved = append(m.saved, p)
	return "mem", nil
}

func newTestEngine(t *testing.T, pipe pipeline.Pipeline, saver PresetSaver) *Engine {
	t.Helper()
	e, err := New(pipe, preset.New(0), Options{
		AgentsWidth:  8,
		AgentsHeight: 8,
		Layout:       pipeline.LayoutRadial,
		TimeStep:     0.02,
		Rand:         rand.New(rand.NewSource(42)),
		Saver:        saver,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestBufferRolesPerFrame(t *testing.T) {
	rec := &recordingPipeline{CPU: pipeline.NewCPU(32, 32)}
	e := newTestEngine(t, rec, nil)

	const frames = 12
	for i := 0; i < frames; i++ {
		e.Clock().Advance()
		if err := e.Update(); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}

	if len(rec.passes) != 2*frames {
		t.Fatalf("recorded %d passes, want %d", len(rec.passes), 2*frames)
	}
	for i, p := range rec.passes {
		if p.read == p.write {
			t.Fatalf("pass %d (%s) reads and writes the same buffer", i, p.name)
		}
		if i > 0 && p.read != rec.passes[i-1].write {
			t.Errorf("pass %d (%s) does not read the previous pass's output", i, p.name)
		}
	}
	if e.Trails().Swaps() != 2*frames {
		t.Errorf("swaps = %d, want %d", e.Trails().Swaps(), 2*frames)
	}
	if e.Frames() != frames {
		t.Errorf("Frames() = %d, want %d", e.Frames(), frames)
	}
}

func TestUpdateProducesTrails(t *testing.T) {
	e := newTestEngine(t, pipeline.NewCPU(32, 32), nil)
	for i := 0; i < 5; i++ {
		if err := e.Update(); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	if sum := e.Trails().Read().(*pipeline.Field).Sum(); sum <= 0 {
		t.Errorf("expected deposits after five frames, total density %f", sum)
	}
}

func TestClearZeroesBothBuffers(t *testing.T) {
	e := newTestEngine(t, pipeline.NewCPU(16, 16), nil)
	for i := 0; i < 3; i++ {
		if err := e.Update(); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	if err := e.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	for i, b := range e.Trails().Both() {
		if sum := b.(*pipeline.Field).Sum(); sum != 0 {
			t.Errorf("buffer %d not cleared: %f", i, sum)
		}
	}
}

func TestResetPointsKeepsTrails(t *testing.T) {
	e := newTestEngine(t, pipeline.NewCPU(16, 16), nil)
	for i := 0; i < 3; i++ {
		if err := e.Update(); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	before := e.Trails().Read().(*pipeline.Field).Sum()
	agents := e.Agents().(*pipeline.AgentSet)
	x0 := agents.X[0]

	if err := e.ResetPoints(); err != nil {
		t.Fatalf("ResetPoints: %v", err)
	}
	if after := e.Trails().Read().(*pipeline.Field).Sum(); after != before {
		t.Errorf("trail density changed on reset: %f -> %f", before, after)
	}
	if agents.X[0] == x0 {
		t.Errorf("agent 0 did not move on reset")
	}
}

func TestTransitionRetiresToDestination(t *testing.T) {
	e := newTestEngine(t, pipeline.NewCPU(8, 8), nil)
	dst := preset.New(4)
	e.TransitionPreset(e.Preset(), dst, e.Clock().Now(), 0.1)

	if e.Nominal() != dst {
		t.Errorf("nominal should be the destination immediately")
	}
	for i := 0; i < 10; i++ {
		e.Clock().Advance()
		if err := e.Update(); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	if got := e.Preset(); got != dst {
		t.Errorf("effective after duration = %s, want %s", got.Name, dst.Name)
	}

	// Winding time back after retirement must not resurrect the old blend.
	e.Clock().Takeover(0)
	if got := e.Preset(); got != dst {
		t.Errorf("effective after time rewind = %+v, want destination", got)
	}
}

func TestManualTimeTakeover(t *testing.T) {
	e := newTestEngine(t, pipeline.NewCPU(8, 8), nil)
	for i := 0; i < 5; i++ {
		e.Clock().Advance()
	}

	e.Clock().Takeover(64.0 / 127.0)
	for i := 0; i < 20; i++ {
		e.Clock().Advance()
		if err := e.Update(); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	if got := e.Clock().Now(); got != 64.0/127.0 {
		t.Fatalf("time advanced during takeover: %f", got)
	}
	if e.Clock().Mode() != TimeManual {
		t.Fatalf("mode = %s, want manual", e.Clock().Mode())
	}

	e.LoadPreset(preset.New(2), 1)
	if e.Clock().Mode() != TimeAuto {
		t.Fatalf("preset load should resume automatic time")
	}
	e.Clock().Advance()
	if got := e.Clock().Now(); got <= 64.0/127.0 {
		t.Errorf("time did not resume advancing: %f", got)
	}
}

func TestSavePresetUsesNominal(t *testing.T) {
	saver := &memorySaver{}
	e := newTestEngine(t, pipeline.NewCPU(8, 8), saver)
	dst := preset.New(6)
	e.TransitionPreset(e.Preset(), dst, e.Clock().Now(), 10)
	e.Clock().Takeover(5) // halfway through the blend

	if e.Preset() == dst {
		t.Fatalf("test setup: expected a mid-blend preset")
	}
	if _, err := e.SavePreset(); err != nil {
		t.Fatalf("SavePreset: %v", err)
	}
	if len(saver.saved) != 1 || saver.saved[0] != dst {
		t.Errorf("saved %+v, want nominal %s", saver.saved, dst.Name)
	}
}

func TestSavePresetErrors(t *testing.T) {
	e := newTestEngine(t, pipeline.NewCPU(8, 8), nil)
	if _, err := e.SavePreset(); !errors.Is(err, ErrNoSaver) {
		t.Errorf("expected ErrNoSaver, got %v", err)
	}

	boom := errors.New("disk full")
	e = newTestEngine(t, pipeline.NewCPU(8, 8), &memorySaver{err: boom})
	if _, err := e.SavePreset(); !errors.Is(err, boom) {
		t.Errorf("expected wrapped saver error, got %v", err)
	}
}

func TestSavePresetAs(t *testing.T) {
	saver := &memorySaver{}
	e := newTestEngine(t, pipeline.NewCPU(8, 8), saver)
	want := preset.New(4)
	if _, err := e.SavePresetAs(want); err != nil {
		t.Fatalf("SavePresetAs: %v", err)
	}
	if len(saver.saved) != 1 || saver.saved[0] != want {
		t.Errorf("saved %+v, want %s", saver.saved, want.Name)
	}
}
