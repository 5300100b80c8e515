// Package pipeline defines the ordered per-frame passes of the slime mould
// simulation and provides a CPU backend that runs them without a GPU.
//
// A frame is three passes:
//
//	simulate:       agents sense the read trail, turn, move, deposit into write
//	diffuse/decay:  3x3 blur mixed by diffusion weight, scaled by decay, floored at 0
//	composite:      trail density mapped through the preset palette onto a target
//
// The GPU backend lives in package renderer and follows the same contract.
package pipeline

import (
	"errors"
	"fmt"
	"image"
	"math/rand"
	"strings"

	"github.com/pthm-cable/mould/preset"
)

var (
	// ErrAliasedBuffers is returned when a pass is asked to read and write the same buffer.
	ErrAliasedBuffers = errors.New("pass reads and writes the same buffer")
	// ErrSizeMismatch is returned when buffers of different dimensions meet in a pass.
	ErrSizeMismatch = errors.New("buffer dimensions differ")
	// ErrForeignBuffer is returned when a buffer from another backend is passed in.
	ErrForeignBuffer = errors.New("buffer belongs to a different pipeline")
)

// Buffer is a trail map owned by a pipeline. Dimensions are fixed at allocation.
type Buffer interface {
	Size() (w, h int)
}

// Agents is the whole agent population. It is only ever handled as one unit.
type Agents interface {
	Count() int
}

// Target is a surface the composite pass draws onto.
type Target interface {
	Bounds() image.Rectangle
}

// Pipeline runs the simulation passes against buffers it allocated.
type Pipeline interface {
	// Size returns the trail resolution shared by every buffer.
	Size() (w, h int)

	NewTrailBuffer() (Buffer, error)
	NewAgents(w, h int) (Agents, error)

	// ResetAgents redistributes positions and headings. Trails are untouched.
	ResetAgents(a Agents, layout Layout, rng *rand.Rand) error

	RunSimulationPass(a Agents, read, write Buffer, p preset.Preset) error
	RunDiffuseDecayPass(read, write Buffer, p preset.Preset) error
	Composite(trail Buffer, target Target, p preset.Preset, time float32) error

	// ClearBuffer zeroes a trail buffer.
	ClearBuffer(b Buffer) error

	Close() error
}

// Reader is implemented by pipelines that can copy a trail buffer back to
// host memory, row-major, one density per cell.
type Reader interface {
	ReadBuffer(b Buffer) ([]float32, error)
}

// CheckPass validates the buffer pair handed to a pass.
func CheckPass(read, write Buffer) error {
	if read == nil || write == nil {
		return fmt.Errorf("nil buffer: %w", ErrForeignBuffer)
	}
	if read == write {
		return ErrAliasedBuffers
	}
	rw, rh := read.Size()
	ww, wh := write.Size()
	if rw != ww || rh != wh {
		return fmt.Errorf("read %dx%d, write %dx%d: %w", rw, rh, ww, wh, ErrSizeMismatch)
	}
	return nil
}

// Layout selects how ResetAgents places the population.
type Layout int

const (
	// LayoutUniform scatters agents over the whole domain with random headings.
	LayoutUniform Layout = iota
	// LayoutRadial fills a disc around the centre, headings pointing outward.
	LayoutRadial
	// LayoutRing places agents on a circle, headings pointing inward.
	LayoutRing
)

func (l Layout) String() string {
	switch l {
	case LayoutUniform:
		return "uniform"
	case LayoutRadial:
		return "radial"
	case LayoutRing:
		return "ring"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// ParseLayout converts a config string to a Layout.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "uniform":
		return LayoutUniform, nil
	case "radial":
		return LayoutRadial, nil
	case "ring":
		return LayoutRing, nil
	}
	return 0, fmt.Errorf("unknown agent layout %q", s)
}
