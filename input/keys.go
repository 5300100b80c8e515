package input

// Key is a backend-neutral key identity. The window driver translates its own
// key codes into these; anything it cannot translate becomes KeyUnknown.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyEnter
	KeyBackspace
	KeyR
	KeyP
	KeyC
	KeyS
	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
)

var keyNames = map[Key]string{
	KeyEscape:    "escape",
	KeyEnter:     "enter",
	KeyBackspace: "backspace",
	KeyR:         "r",
	KeyP:         "p",
	KeyC:         "c",
	KeyS:         "s",
}

func (k Key) String() string {
	if d, ok := k.Digit(); ok {
		return string(rune('0' + d))
	}
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "unknown"
}

// Digit returns the number on a digit-row key.
func (k Key) Digit() (int, bool) {
	if k >= Key0 && k <= Key9 {
		return int(k - Key0), true
	}
	return 0, false
}

// DigitKey returns the key for digit d (0-9), or KeyUnknown.
func DigitKey(d int) Key {
	if d < 0 || d > 9 {
		return KeyUnknown
	}
	return Key0 + Key(d)
}

// ApplyKey folds a key press into f. Unrecognised keys are ignored.
func ApplyKey(f *Frame, k Key) {
	switch k {
	case KeyEscape:
		f.Raise(ActionStop)
	case KeyEnter:
		f.Raise(ActionToggleFullscreen)
	case KeyR:
		f.Raise(ActionRandomize)
	case KeyP:
		f.Raise(ActionRegeneratePoints)
	case KeyC:
		f.Raise(ActionClear)
	case KeyS:
		f.Raise(ActionSavePreset)
	case KeyBackspace:
		f.Raise(ActionScreenshot)
	default:
		if d, ok := k.Digit(); ok {
			f.LoadPreset = d
		}
	}
}
