package telemetry

import (
	"testing"
	"time"
)

// fakeClock advances only when told to.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestPerf(window int) (*PerfCollector, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	pc := NewPerfCollector(window)
	pc.now = clock.now
	return pc, clock
}

func TestPerfPhaseBreakdown(t *testing.T) {
	pc, clock := newTestPerf(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseDraw)
		clock.advance(1 * time.Millisecond)
		pc.StartPhase(PhaseUpdate)
		clock.advance(3 * time.Millisecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.AvgTick != 4*time.Millisecond {
		t.Errorf("avg tick = %v, want 4ms", stats.AvgTick)
	}
	if len(stats.Phases) != 2 || stats.Phases[0].Phase != PhaseDraw || stats.Phases[1].Phase != PhaseUpdate {
		t.Fatalf("phases = %+v, want draw then update", stats.Phases)
	}
	if got := stats.Pct(PhaseDraw); got != 25 {
		t.Errorf("draw pct = %v, want 25", got)
	}
	if got := stats.Pct(PhaseUpdate); got != 75 {
		t.Errorf("update pct = %v, want 75", got)
	}
	if got := stats.Pct(PhaseBeat); got != 0 {
		t.Errorf("beat pct = %v, want 0", got)
	}
	if stats.TicksPerSecond != 250 {
		t.Errorf("ticks/s = %v, want 250", stats.TicksPerSecond)
	}

	row := stats.Row(42)
	if row.WindowEnd != 42 || row.DrawPct != 25 || row.UpdatePct != 75 || row.AvgTickUS != 4000 {
		t.Errorf("Row = %+v", row)
	}
}

func TestPerfRollingWindow(t *testing.T) {
	pc, clock := newTestPerf(5)

	for i := 1; i <= 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseUpdate)
		clock.advance(time.Duration(i) * time.Millisecond)
		pc.EndTick()
	}

	// Only the last five ticks (6..10ms) remain.
	stats := pc.Stats()
	if stats.MinTick != 6*time.Millisecond || stats.MaxTick != 10*time.Millisecond {
		t.Errorf("min/max = %v/%v, want 6ms/10ms", stats.MinTick, stats.MaxTick)
	}
	if stats.AvgTick != 8*time.Millisecond {
		t.Errorf("avg = %v, want 8ms", stats.AvgTick)
	}
	if stats.P95Tick != 10*time.Millisecond {
		t.Errorf("p95 = %v, want 10ms", stats.P95Tick)
	}
}

func TestPerfEmpty(t *testing.T) {
	stats := NewPerfCollector(10).Stats()
	if stats.AvgTick != 0 || len(stats.Phases) != 0 {
		t.Errorf("empty collector = %+v", stats)
	}
}

func TestPerfFrameTiming(t *testing.T) {
	pc, clock := newTestPerf(10)

	pc.RecordFrame()
	clock.advance(20 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameDuration != 20*time.Millisecond {
		t.Errorf("frame duration = %v, want 20ms", stats.FrameDuration)
	}
	if stats.FPS != 50 {
		t.Errorf("FPS = %v, want 50", stats.FPS)
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseTelemetry.String() != "telemetry" || Phase(99).String() != "unknown" {
		t.Errorf("got %q, %q", PhaseTelemetry, Phase(99))
	}
}
