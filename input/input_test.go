package input

import "testing"

func TestApplyKey(t *testing.T) {
	tests := []struct {
		key    Key
		action Action
	}{
		{KeyEscape, ActionStop},
		{KeyEnter, ActionToggleFullscreen},
		{KeyR, ActionRandomize},
		{KeyP, ActionRegeneratePoints},
		{KeyC, ActionClear},
		{KeyS, ActionSavePreset},
		{KeyBackspace, ActionScreenshot},
	}
	for _, tc := range tests {
		f := NewFrame()
		ApplyKey(&f, tc.key)
		if f.Actions != tc.action {
			t.Errorf("key %s: actions = %s, want %s", tc.key, f.Actions, tc.action)
		}
		if f.LoadPreset != NoPreset {
			t.Errorf("key %s selected preset %d", tc.key, f.LoadPreset)
		}
	}
}

func TestDigitKeysSelectPreset(t *testing.T) {
	for d := 0; d <= 9; d++ {
		f := NewFrame()
		ApplyKey(&f, DigitKey(d))
		if f.LoadPreset != d {
			t.Errorf("digit %d: LoadPreset = %d", d, f.LoadPreset)
		}
		if f.Actions != 0 {
			t.Errorf("digit %d raised %s", d, f.Actions)
		}
	}
	if DigitKey(10) != KeyUnknown || DigitKey(-1) != KeyUnknown {
		t.Errorf("out of range digits should map to KeyUnknown")
	}
}

func TestUnknownInputIgnored(t *testing.T) {
	f := NewFrame()
	ApplyKey(&f, KeyUnknown)
	ApplyKey(&f, Key(999))
	ApplyMIDI(&f, PadPressed{Pad: 14, Velocity: 100})
	ApplyMIDI(&f, PadPressed{Pad: 26})
	ApplyMIDI(&f, PadPressed{Pad: -1})
	ApplyMIDI(&f, KnobChanged{Knob: 3, Value: 64})
	ApplyMIDI(&f, nil)
	if !f.Empty() {
		t.Errorf("unknown input changed the frame: %+v", f)
	}
}

func TestApplyMIDIPads(t *testing.T) {
	tests := []struct {
		pad        int
		preset     int
		beatPreset int
		action     Action
	}{
		{0, 0, NoPreset, 0},
		{9, 9, NoPreset, 0},
		{16, NoPreset, 0, 0},
		{25, NoPreset, 9, 0},
		{10, NoPreset, NoPreset, ActionClear},
		{11, NoPreset, NoPreset, ActionRegeneratePoints},
		{12, NoPreset, NoPreset, ActionRandomize},
		{13, NoPreset, NoPreset, ActionRandomizeBeat},
	}
	for _, tc := range tests {
		f := NewFrame()
		ApplyMIDI(&f, PadPressed{Pad: tc.pad, Velocity: 90})
		if f.LoadPreset != tc.preset || f.LoadBeatPreset != tc.beatPreset || f.Actions != tc.action {
			t.Errorf("pad %d: got preset=%d beat=%d actions=%s", tc.pad, f.LoadPreset, f.LoadBeatPreset, f.Actions)
		}
	}
}

func TestKnobSetsTime(t *testing.T) {
	f := NewFrame()
	ApplyMIDI(&f, KnobChanged{Knob: KnobTime, Value: 127})
	if !f.SetTime || f.TimeValue != 1 {
		t.Errorf("knob 127: SetTime=%v value=%f", f.SetTime, f.TimeValue)
	}
	ApplyMIDI(&f, KnobChanged{Knob: KnobTime, Value: 0})
	if f.TimeValue != 0 {
		t.Errorf("last knob value should win, got %f", f.TimeValue)
	}
}

func TestFrameCollapsesRepeats(t *testing.T) {
	f := NewFrame()
	ApplyKey(&f, KeyC)
	ApplyMIDI(&f, PadPressed{Pad: PadClear})
	ApplyKey(&f, KeyR)
	if f.Actions != ActionClear|ActionRandomize {
		t.Errorf("actions = %s", f.Actions)
	}
	if got := f.Actions.String(); got != "randomize|clear" {
		t.Errorf("String() = %q", got)
	}
}
