package audio

import (
	"context"
	"time"
)

// Metronome emits beats at a fixed tempo. It stands in for the detector when
// no audio input is configured.
type Metronome struct {
	BPM float64

	now  func() time.Time
	last time.Time
	sent uint64
}

// NewMetronome returns a metronome at bpm.
func NewMetronome(bpm float64) *Metronome {
	return &Metronome{BPM: bpm, now: time.Now}
}

// Tick reports whether a beat is due and, if so, marks it sent. The first
// call always fires.
func (m *Metronome) Tick() (Beat, bool) {
	if m.BPM <= 0 {
		return Beat{}, false
	}
	now := m.now()
	period := time.Duration(float64(time.Minute) / m.BPM)
	if !m.last.IsZero() && now.Sub(m.last) < period {
		return Beat{}, false
	}
	m.last = now
	m.sent++
	return Beat{At: now, BPM: m.BPM}, true
}

// Sent returns how many beats the metronome has produced.
func (m *Metronome) Sent() uint64 {
	return m.sent
}

// Run polls Tick every resolution until ctx is cancelled, offering each beat to out.
func (m *Metronome) Run(ctx context.Context, resolution time.Duration, out chan<- Beat) {
	ticker := time.NewTicker(resolution)
	defer ticker.Stop()
	for {
		if b, ok := m.Tick(); ok {
			Offer(out, b)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
