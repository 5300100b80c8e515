package pipeline

import (
	"fmt"
	"image"
	"math"
	"math/rand"
	"slices"

	"gonum.org/v1/gonum/blas/blas32"

	"github.com/pthm-cable/mould/preset"
)

// Field is a CPU trail map: one float32 density per cell, row-major.
type Field struct {
	W, H int
	Data []float32
}

// NewField allocates a zeroed field.
func NewField(w, h int) *Field {
	return &Field{W: w, H: h, Data: make([]float32, w*h)}
}

// Size implements Buffer.
func (f *Field) Size() (int, int) {
	return f.W, f.H
}

// At returns the density at a cell, wrapping coordinates toroidally.
func (f *Field) At(x, y int) float32 {
	return f.Data[wrapIndex(y, f.H)*f.W+wrapIndex(x, f.W)]
}

// Sample returns the density under a continuous position.
func (f *Field) Sample(x, y float32) float32 {
	return f.At(int(math.Floor(float64(x))), int(math.Floor(float64(y))))
}

// Sum returns the total density.
func (f *Field) Sum() float32 {
	return blas32.Asum(f.vector())
}

func (f *Field) vector() blas32.Vector {
	return blas32.Vector{N: len(f.Data), Inc: 1, Data: f.Data}
}

// AgentSet is the CPU agent population as parallel slices.
type AgentSet struct {
	X, Y, Heading []float32
}

// Count implements Agents.
func (a *AgentSet) Count() int {
	return len(a.X)
}

// CPU runs the passes on the host. It is the headless backend and the
// reference the GPU shaders are checked against.
type CPU struct {
	w, h int
}

// NewCPU creates a CPU pipeline with a w x h trail resolution.
func NewCPU(w, h int) *CPU {
	return &CPU{w: w, h: h}
}

// Size implements Pipeline.
func (c *CPU) Size() (int, int) {
	return c.w, c.h
}

// NewTrailBuffer implements Pipeline.
func (c *CPU) NewTrailBuffer() (Buffer, error) {
	if c.w <= 0 || c.h <= 0 {
		return nil, fmt.Errorf("invalid trail size %dx%d", c.w, c.h)
	}
	return NewField(c.w, c.h), nil
}

// NewAgents implements Pipeline. The population is w*h agents.
func (c *CPU) NewAgents(w, h int) (Agents, error) {
	n := w * h
	if n <= 0 {
		return nil, fmt.Errorf("invalid agent grid %dx%d", w, h)
	}
	return &AgentSet{
		X:       make([]float32, n),
		Y:       make([]float32, n),
		Heading: make([]float32, n),
	}, nil
}

func (c *CPU) agents(a Agents) (*AgentSet, error) {
	set, ok := a.(*AgentSet)
	if !ok {
		return nil, fmt.Errorf("agents %T: %w", a, ErrForeignBuffer)
	}
	return set, nil
}

func (c *CPU) field(b Buffer) (*Field, error) {
	f, ok := b.(*Field)
	if !ok {
		return nil, fmt.Errorf("buffer %T: %w", b, ErrForeignBuffer)
	}
	return f, nil
}

func (c *CPU) pair(read, write Buffer) (*Field, *Field, error) {
	if err := CheckPass(read, write); err != nil {
		return nil, nil, err
	}
	r, err := c.field(read)
	if err != nil {
		return nil, nil, err
	}
	w, err := c.field(write)
	if err != nil {
		return nil, nil, err
	}
	return r, w, nil
}

// ResetAgents implements Pipeline.
func (c *CPU) ResetAgents(a Agents, layout Layout, rng *rand.Rand) error {
	set, err := c.agents(a)
	if err != nil {
		return err
	}
	w, h := float32(c.w), float32(c.h)
	for i := range set.X {
		set.X[i], set.Y[i], set.Heading[i] = PlaceAgent(layout, w, h, rng)
	}
	return nil
}

// RunSimulationPass implements Pipeline. write starts as a copy of read and
// receives every agent's deposit additively.
func (c *CPU) RunSimulationPass(a Agents, read, write Buffer, p preset.Preset) error {
	set, err := c.agents(a)
	if err != nil {
		return err
	}
	r, w, err := c.pair(read, write)
	if err != nil {
		return err
	}

	copy(w.Data, r.Data)

	width, height := float32(r.W), float32(r.H)
	for i := range set.X {
		x, y, heading := set.X[i], set.Y[i], set.Heading[i]

		center := sense(r, x, y, heading, p.SensorDistance)
		left := sense(r, x, y, heading+p.SensorAngle, p.SensorDistance)
		right := sense(r, x, y, heading-p.SensorAngle, p.SensorDistance)

		heading = Wrap(Steer(heading, center, left, right, p.TurnRate), 2*math.Pi)
		x = Wrap(x+float32(math.Cos(float64(heading)))*p.StepSize, width)
		y = Wrap(y+float32(math.Sin(float64(heading)))*p.StepSize, height)

		w.Data[int(y)*w.W+int(x)] += p.DepositAmount

		set.X[i], set.Y[i], set.Heading[i] = x, y, heading
	}
	return nil
}

func sense(f *Field, x, y, angle, dist float32) float32 {
	sx := x + float32(math.Cos(float64(angle)))*dist
	sy := y + float32(math.Sin(float64(angle)))*dist
	return f.Sample(sx, sy)
}

// RunDiffuseDecayPass implements Pipeline.
func (c *CPU) RunDiffuseDecayPass(read, write Buffer, p preset.Preset) error {
	r, w, err := c.pair(read, write)
	if err != nil {
		return err
	}

	weight := p.DiffusionWeight
	for y := 0; y < r.H; y++ {
		up := wrapIndex(y-1, r.H) * r.W
		row := y * r.W
		down := wrapIndex(y+1, r.H) * r.W
		for x := 0; x < r.W; x++ {
			left := wrapIndex(x-1, r.W)
			right := wrapIndex(x+1, r.W)
			sum := r.Data[up+left] + r.Data[up+x] + r.Data[up+right] +
				r.Data[row+left] + r.Data[row+x] + r.Data[row+right] +
				r.Data[down+left] + r.Data[down+x] + r.Data[down+right]
			self := r.Data[row+x]
			w.Data[row+x] = self + (sum/9-self)*weight
		}
	}

	blas32.Scal(p.DecayRate, w.vector())
	for i, v := range w.Data {
		if v < 0 || math.IsNaN(float64(v)) {
			w.Data[i] = 0
		}
	}
	return nil
}

// Composite implements Pipeline. target must be an *image.RGBA.
func (c *CPU) Composite(trail Buffer, target Target, p preset.Preset, time float32) error {
	f, err := c.field(trail)
	if err != nil {
		return err
	}
	img, ok := target.(*image.RGBA)
	if !ok {
		return fmt.Errorf("cpu composite needs *image.RGBA, got %T", target)
	}

	b := img.Bounds()
	tw, th := b.Dx(), b.Dy()
	if tw == 0 || th == 0 {
		return nil
	}
	for y := 0; y < th; y++ {
		fy := y * f.H / th
		for x := 0; x < tw; x++ {
			fx := x * f.W / tw
			img.SetRGBA(b.Min.X+x, b.Min.Y+y, Palette(f.Data[fy*f.W+fx], p, time))
		}
	}
	return nil
}

// ClearBuffer implements Pipeline.
func (c *CPU) ClearBuffer(b Buffer) error {
	f, err := c.field(b)
	if err != nil {
		return err
	}
	clear(f.Data)
	return nil
}

// ReadBuffer implements Reader.
func (c *CPU) ReadBuffer(b Buffer) ([]float32, error) {
	f, err := c.field(b)
	if err != nil {
		return nil, err
	}
	return slices.Clone(f.Data), nil
}

// Close implements Pipeline.
func (c *CPU) Close() error {
	return nil
}
