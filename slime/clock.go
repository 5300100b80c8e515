package slime

// TimeMode says who drives simulated time.
type TimeMode int

const (
	// TimeAuto advances by Step every frame.
	TimeAuto TimeMode = iota
	// TimeManual holds the value set by an external control (a MIDI knob)
	// until a preset load resumes automatic advancement.
	TimeManual
)

func (m TimeMode) String() string {
	if m == TimeManual {
		return "manual"
	}
	return "auto"
}

// Clock is the simulated time (u_time) every transition and beat decision is
// measured in.
type Clock struct {
	now  float32
	step float32
	mode TimeMode
}

// NewClock returns an automatic clock starting at zero.
func NewClock(step float32) *Clock {
	return &Clock{step: step}
}

// Now returns the current simulated time.
func (c *Clock) Now() float32 {
	return c.now
}

// Mode returns the current driving mode.
func (c *Clock) Mode() TimeMode {
	return c.mode
}

// Advance moves time forward by one frame step unless a manual control owns it.
func (c *Clock) Advance() {
	if c.mode == TimeAuto {
		c.now += c.step
	}
}

// Takeover sets time directly and suspends automatic advancement.
func (c *Clock) Takeover(t float32) {
	c.now = t
	c.mode = TimeManual
}

// Resume hands time back to automatic advancement from its current value.
func (c *Clock) Resume() {
	c.mode = TimeAuto
}
