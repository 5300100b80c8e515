package preset

// Transition is a time-bounded linear blend between two presets.
// All times are in simulated time units (u_time), never wall-clock.
type Transition struct {
	From     Preset
	To       Preset
	Start    float32
	Duration float32
}

// Hold returns a transition that is already complete: it always yields p.
func Hold(p Preset) Transition {
	return Transition{From: p, To: p}
}

// Progress returns the blend fraction at now, clamped to [0, 1].
// A non-positive duration completes immediately.
func (t Transition) Progress(now float32) float32 {
	if t.Duration <= 0 {
		return 1
	}
	f := (now - t.Start) / t.Duration
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Done reports whether the blend has reached its destination.
func (t Transition) Done(now float32) bool {
	return t.Progress(now) >= 1
}

// Effective returns the interpolated preset at now.
func (t Transition) Effective(now float32) Preset {
	return Lerp(t.From, t.To, t.Progress(now))
}
