package midi

import (
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/pthm-cable/mould/input"
)

func TestDecode(t *testing.T) {
	m := DefaultMapping()
	tests := []struct {
		name string
		msg  gomidi.Message
		want input.MIDIEvent
		ok   bool
	}{
		{"first pad", gomidi.NoteOn(9, 36, 100), input.PadPressed{Pad: 0, Velocity: 100}, true},
		{"beat pad", gomidi.NoteOn(9, 52, 64), input.PadPressed{Pad: 16, Velocity: 64}, true},
		{"below pad range", gomidi.NoteOn(9, 35, 64), nil, false},
		{"note on zero velocity", gomidi.NoteOn(9, 40, 0), nil, false},
		{"note off", gomidi.NoteOff(9, 40), nil, false},
		{"time knob", gomidi.ControlChange(0, 3, 127), input.KnobChanged{Knob: 0, Value: 127}, true},
		{"second knob", gomidi.ControlChange(0, 9, 5), input.KnobChanged{Knob: 1, Value: 5}, true},
		{"unmapped cc", gomidi.ControlChange(0, 1, 5), nil, false},
		{"program change", gomidi.ProgramChange(0, 4), nil, false},
	}
	for _, tc := range tests {
		got, ok := Decode(tc.msg, m)
		if ok != tc.ok || got != tc.want {
			t.Errorf("%s: Decode = %v, %v; want %v, %v", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestHandleDropsWhenFull(t *testing.T) {
	out := make(chan input.MIDIEvent, 1)
	l := &Listener{mapping: DefaultMapping(), out: out}

	l.handle(gomidi.NoteOn(9, 36, 90), 0)
	l.handle(gomidi.NoteOn(9, 37, 90), 0)
	l.handle(gomidi.ProgramChange(0, 1), 0)

	received, dropped := l.Stats()
	if received != 2 || dropped != 1 {
		t.Errorf("Stats = %d, %d; want 2 received, 1 dropped", received, dropped)
	}
	if ev := <-out; ev != (input.PadPressed{Pad: 0, Velocity: 90}) {
		t.Errorf("delivered %v", ev)
	}
}

func TestDecodedEventsDriveFrame(t *testing.T) {
	f := input.NewFrame()
	for _, msg := range []gomidi.Message{
		gomidi.NoteOn(9, 36+3, 100),  // preset 3
		gomidi.NoteOn(9, 36+20, 100), // beat preset 4
		gomidi.ControlChange(0, 3, 0),
	} {
		if ev, ok := Decode(msg, DefaultMapping()); ok {
			input.ApplyMIDI(&f, ev)
		}
	}
	if f.LoadPreset != 3 || f.LoadBeatPreset != 4 || !f.SetTime || f.TimeValue != 0 {
		t.Errorf("frame = %+v", f)
	}
}
