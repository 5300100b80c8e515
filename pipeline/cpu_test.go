package pipeline

import (
	"errors"
	"image"
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/mould/preset"
)

func newTestPipeline(t *testing.T, w, h int) (*CPU, *Field, *Field, *AgentSet) {
	t.Helper()
	c := NewCPU(w, h)
	a, err := c.NewTrailBuffer()
	if err != nil {
		t.Fatalf("NewTrailBuffer: %v", err)
	}
	b, err := c.NewTrailBuffer()
	if err != nil {
		t.Fatalf("NewTrailBuffer: %v", err)
	}
	agents, err := c.NewAgents(16, 16)
	if err != nil {
		t.Fatalf("NewAgents: %v", err)
	}
	return c, a.(*Field), b.(*Field), agents.(*AgentSet)
}

func TestSteerTieBreak(t *testing.T) {
	const h, turn = 1.0, 0.25
	tests := []struct {
		name                string
		center, left, right float32
		want                float32
	}{
		{"center strongest", 3, 1, 2, h},
		{"all equal keeps heading", 1, 1, 1, h},
		{"center ties left", 2, 2, 1, h},
		{"left strongest", 0, 3, 1, h + turn},
		{"right strongest", 0, 1, 3, h - turn},
		{"sides tie, left wins", 0, 2, 2, h + turn},
	}
	for _, tc := range tests {
		if got := Steer(h, tc.center, tc.left, tc.right, turn); got != tc.want {
			t.Errorf("%s: Steer = %f, want %f", tc.name, got, tc.want)
		}
	}
}

func TestWrapRange(t *testing.T) {
	const size = 64
	inputs := []float32{0, 1, 63.999, 64, 65, -0.0000001, -1, -64, -65, 1e6, -1e6, 127.5}
	for _, v := range inputs {
		got := Wrap(v, size)
		if got < 0 || got >= size {
			t.Errorf("Wrap(%g) = %g outside [0, %d)", v, got, size)
		}
	}
}

func TestPositionsStayInDomain(t *testing.T) {
	c, a, b, agents := newTestPipeline(t, 37, 23)
	rng := rand.New(rand.NewSource(3))
	if err := c.ResetAgents(agents, LayoutUniform, rng); err != nil {
		t.Fatalf("ResetAgents: %v", err)
	}

	p := preset.New(7) // large step size
	p.StepSize = 11.3
	read, write := Buffer(a), Buffer(b)
	for frame := 0; frame < 200; frame++ {
		if err := c.RunSimulationPass(agents, read, write, p); err != nil {
			t.Fatalf("frame %d: %v", frame, err)
		}
		read, write = write, read
		for i := range agents.X {
			if agents.X[i] < 0 || agents.X[i] >= 37 || agents.Y[i] < 0 || agents.Y[i] >= 23 {
				t.Fatalf("frame %d agent %d at (%f, %f) outside domain", frame, i, agents.X[i], agents.Y[i])
			}
		}
	}
}

func TestDepositsAccumulate(t *testing.T) {
	c, a, b, _ := newTestPipeline(t, 8, 8)
	agents := &AgentSet{
		X:       []float32{2.5, 2.5, 2.5},
		Y:       []float32{4.5, 4.5, 4.5},
		Heading: []float32{0, 0, 0},
	}
	p := preset.New(0)
	p.StepSize = 1
	p.DepositAmount = 0.25

	a.Data[0] = 1 // pre-existing trail carried into write
	if err := c.RunSimulationPass(agents, a, b, p); err != nil {
		t.Fatalf("RunSimulationPass: %v", err)
	}
	if got := b.At(3, 4); math.Abs(float64(got-0.75)) > 1e-6 {
		t.Errorf("cell (3,4) = %f, want 0.75 from three deposits", got)
	}
	if b.Data[0] != 1 {
		t.Errorf("existing trail not carried into write buffer: %f", b.Data[0])
	}
	if a.At(3, 4) != 0 {
		t.Errorf("read buffer was modified by the pass")
	}
}

func TestDiffuseDecayNonNegative(t *testing.T) {
	c, a, b, _ := newTestPipeline(t, 16, 16)
	rng := rand.New(rand.NewSource(11))
	for i := range a.Data {
		a.Data[i] = rng.Float32()*2 - 0.5 // some negative drift
	}

	read, write := Buffer(a), Buffer(b)
	for _, p := range preset.Catalog {
		for i := 0; i < 25; i++ {
			if err := c.RunDiffuseDecayPass(read, write, p); err != nil {
				t.Fatalf("%s: %v", p.Name, err)
			}
			read, write = write, read
			for j, v := range read.(*Field).Data {
				if v < 0 {
					t.Fatalf("%s pass %d: cell %d negative: %f", p.Name, i, j, v)
				}
			}
		}
	}
}

func TestDiffuseConservesMassWithoutDecay(t *testing.T) {
	c, a, b, _ := newTestPipeline(t, 10, 10)
	a.Data[55] = 9
	p := preset.New(0)
	p.DiffusionWeight = 1
	p.DecayRate = 1

	if err := c.RunDiffuseDecayPass(a, b, p); err != nil {
		t.Fatalf("RunDiffuseDecayPass: %v", err)
	}
	if sum := b.Sum(); math.Abs(float64(sum-9)) > 1e-4 {
		t.Errorf("total mass = %f, want 9", sum)
	}
	if got := b.At(4, 4); math.Abs(float64(got-1)) > 1e-6 {
		t.Errorf("neighbour got %f, want 1", got)
	}
}

func TestDecayScales(t *testing.T) {
	c, a, b, _ := newTestPipeline(t, 4, 4)
	for i := range a.Data {
		a.Data[i] = 1
	}
	p := preset.New(0)
	p.DecayRate = 0.5
	if err := c.RunDiffuseDecayPass(a, b, p); err != nil {
		t.Fatalf("RunDiffuseDecayPass: %v", err)
	}
	for i, v := range b.Data {
		if math.Abs(float64(v-0.5)) > 1e-6 {
			t.Fatalf("cell %d = %f, want 0.5", i, v)
		}
	}
}

func TestPassRejectsAliasing(t *testing.T) {
	c, a, b, agents := newTestPipeline(t, 4, 4)
	p := preset.New(0)
	if err := c.RunSimulationPass(agents, a, a, p); !errors.Is(err, ErrAliasedBuffers) {
		t.Errorf("simulation pass: expected ErrAliasedBuffers, got %v", err)
	}
	if err := c.RunDiffuseDecayPass(b, b, p); !errors.Is(err, ErrAliasedBuffers) {
		t.Errorf("diffuse pass: expected ErrAliasedBuffers, got %v", err)
	}
	other := NewField(5, 4)
	if err := c.RunDiffuseDecayPass(a, other, p); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("expected ErrSizeMismatch, got %v", err)
	}
}

func TestLayouts(t *testing.T) {
	c, _, _, agents := newTestPipeline(t, 100, 60)
	for _, layout := range []Layout{LayoutUniform, LayoutRadial, LayoutRing} {
		rng := rand.New(rand.NewSource(5))
		if err := c.ResetAgents(agents, layout, rng); err != nil {
			t.Fatalf("%s: %v", layout, err)
		}
		for i := range agents.X {
			if agents.X[i] < 0 || agents.X[i] >= 100 || agents.Y[i] < 0 || agents.Y[i] >= 60 {
				t.Fatalf("%s: agent %d outside domain", layout, i)
			}
		}
		if layout == LayoutRing {
			dx, dy := agents.X[0]-50, agents.Y[0]-30
			r := math.Hypot(float64(dx), float64(dy))
			if math.Abs(r-24) > 1e-3 {
				t.Errorf("ring radius = %f, want 24", r)
			}
		}
	}
}

func TestParseLayout(t *testing.T) {
	for _, l := range []Layout{LayoutUniform, LayoutRadial, LayoutRing} {
		got, err := ParseLayout(l.String())
		if err != nil || got != l {
			t.Errorf("ParseLayout(%q) = %v, %v", l.String(), got, err)
		}
	}
	if _, err := ParseLayout("spiral"); err == nil {
		t.Errorf("expected error for unknown layout")
	}
}

func TestCompositeDrawsDensity(t *testing.T) {
	c, a, _, _ := newTestPipeline(t, 4, 4)
	a.Data[0] = 1
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	p := preset.New(4)

	if err := c.Composite(a, img, p, 0); err != nil {
		t.Fatalf("Composite: %v", err)
	}
	lit := img.RGBAAt(0, 0)
	dark := img.RGBAAt(7, 7)
	if lit.R == 0 && lit.G == 0 && lit.B == 0 {
		t.Errorf("dense cell rendered black")
	}
	if dark.R != 0 || dark.G != 0 || dark.B != 0 {
		t.Errorf("empty cell rendered %v, want black", dark)
	}
	if err := c.Composite(a, struct{ Target }{img}, p, 0); err == nil {
		t.Errorf("expected error for non-RGBA target")
	}
}
