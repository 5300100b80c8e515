// Package input maps keyboard and MIDI events onto per-frame actions.
//
// Events from every source within one tick are folded into a single Frame;
// the game applies the Frame once, so repeated presses collapse.
package input

import "strings"

// Action is a set of one-shot requests raised during a tick.
type Action uint16

const (
	ActionStop Action = 1 << iota
	ActionToggleFullscreen
	ActionRandomize
	ActionRandomizeBeat
	ActionRegeneratePoints
	ActionClear
	ActionSavePreset
	ActionScreenshot
)

var actionNames = []string{
	"stop",
	"toggle_fullscreen",
	"randomize",
	"randomize_beat",
	"regenerate_points",
	"clear",
	"save_preset",
	"screenshot",
}

func (a Action) String() string {
	if a == 0 {
		return "none"
	}
	var parts []string
	for i, name := range actionNames {
		if a&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

// NoPreset marks an unset preset selection in a Frame.
const NoPreset = -1

// Frame accumulates everything requested during one tick.
type Frame struct {
	Actions Action

	LoadPreset     int // catalog index or NoPreset
	LoadBeatPreset int // catalog index or NoPreset

	SetTime    bool
	TimeValue  float32
	TimeSource string
}

// NewFrame returns a Frame with nothing requested.
func NewFrame() Frame {
	return Frame{LoadPreset: NoPreset, LoadBeatPreset: NoPreset}
}

// Has reports whether every bit in a is set.
func (f Frame) Has(a Action) bool {
	return f.Actions&a == a
}

// Raise sets a.
func (f *Frame) Raise(a Action) {
	f.Actions |= a
}

// Empty reports whether the frame requests nothing.
func (f Frame) Empty() bool {
	return f.Actions == 0 && f.LoadPreset == NoPreset && f.LoadBeatPreset == NoPreset && !f.SetTime
}
