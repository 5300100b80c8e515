package input

// MIDIEvent is a decoded controller event: PadPressed or KnobChanged.
type MIDIEvent interface {
	midiEvent()
}

// PadPressed is a drum pad hit. Pad is zero-based.
type PadPressed struct {
	Pad      int
	Velocity uint8
}

// KnobChanged is a rotary control moving to Value (0-127).
type KnobChanged struct {
	Knob  int
	Value uint8
}

func (PadPressed) midiEvent()  {}
func (KnobChanged) midiEvent() {}

// Pad layout of the controller.
const (
	PadPresetFirst     = 0
	PadPresetLast      = 9
	PadClear           = 10
	PadRegenerate      = 11
	PadRandomize       = 12
	PadRandomizeBeat   = 13
	PadBeatPresetFirst = 16
	PadBeatPresetLast  = 25

	KnobTime = 0
)

// ApplyMIDI folds a controller event into f. Pads and knobs outside the
// layout are ignored.
func ApplyMIDI(f *Frame, ev MIDIEvent) {
	switch ev := ev.(type) {
	case PadPressed:
		applyPad(f, ev.Pad)
	case KnobChanged:
		if ev.Knob == KnobTime {
			f.SetTime = true
			f.TimeValue = float32(ev.Value) / 127
			f.TimeSource = "midi"
		}
	}
}

func applyPad(f *Frame, pad int) {
	switch {
	case pad >= PadPresetFirst && pad <= PadPresetLast:
		f.LoadPreset = pad - PadPresetFirst
	case pad >= PadBeatPresetFirst && pad <= PadBeatPresetLast:
		f.LoadBeatPreset = pad - PadBeatPresetFirst
	case pad == PadClear:
		f.Raise(ActionClear)
	case pad == PadRegenerate:
		f.Raise(ActionRegeneratePoints)
	case pad == PadRandomize:
		f.Raise(ActionRandomize)
	case pad == PadRandomizeBeat:
		f.Raise(ActionRandomizeBeat)
	}
}
