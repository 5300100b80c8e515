package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase is one timed section of a render loop tick.
type Phase int

// Phases in tick order.
const (
	PhaseDrain Phase = iota
	PhaseDraw
	PhaseUpdate
	PhaseInput
	PhaseBeat
	PhaseTelemetry
	numPhases
)

var phaseNames = [numPhases]string{"drain", "draw", "update", "input", "beat", "telemetry"}

func (p Phase) String() string {
	if p < 0 || p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// phaseTimes is the per-phase time of one tick.
type phaseTimes [numPhases]time.Duration

// PerfCollector keeps a ring of recent tick timings.
type PerfCollector struct {
	ticks  []time.Duration
	phases []phaseTimes
	next   int
	filled int

	cur        phaseTimes
	tickStart  time.Time
	phaseStart time.Time
	active     Phase // -1 between ticks

	lastFrame time.Time
	frame     time.Duration

	now func() time.Time
}

// NewPerfCollector averages over the last window ticks (60 when window < 1).
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{
		ticks:  make([]time.Duration, window),
		phases: make([]phaseTimes, window),
		active: -1,
		now:    time.Now,
	}
}

// StartTick begins timing a tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = p.now()
	p.cur = phaseTimes{}
	p.active = -1
}

// StartPhase closes the running phase, if any, and opens ph.
func (p *PerfCollector) StartPhase(ph Phase) {
	now := p.now()
	p.closePhase(now)
	p.phaseStart = now
	p.active = ph
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.active >= 0 && p.active < numPhases {
		p.cur[p.active] += now.Sub(p.phaseStart)
	}
}

// EndTick closes the running phase and stores the tick.
func (p *PerfCollector) EndTick() {
	now := p.now()
	p.closePhase(now)
	p.active = -1

	p.ticks[p.next] = now.Sub(p.tickStart)
	p.phases[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ticks)
	if p.filled < len(p.ticks) {
		p.filled++
	}
}

// RecordFrame marks a presented frame; the gap between two marks gives FPS.
func (p *PerfCollector) RecordFrame() {
	now := p.now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PhaseTiming is the average cost of one phase over the window.
type PhaseTiming struct {
	Phase Phase
	Avg   time.Duration
	Pct   float64 // share of the average tick, 0-100
}

// PerfStats aggregates the window.
type PerfStats struct {
	AvgTick time.Duration
	MinTick time.Duration
	MaxTick time.Duration
	P95Tick time.Duration

	// Phases holds every phase that took time, in tick order.
	Phases []PhaseTiming

	TicksPerSecond float64

	FrameDuration time.Duration
	FPS           float64
}

// Pct returns the share of ph, or 0 when it never ran.
func (s PerfStats) Pct(ph Phase) float64 {
	for _, t := range s.Phases {
		if t.Phase == ph {
			return t.Pct
		}
	}
	return 0
}

// Stats aggregates the ticks currently in the window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{FrameDuration: p.frame}
	if p.frame > 0 {
		s.FPS = float64(time.Second) / float64(p.frame)
	}
	n := p.filled
	if n == 0 {
		return s
	}

	sorted := make([]float64, n)
	var total time.Duration
	var sums phaseTimes
	for i := 0; i < n; i++ {
		d := p.ticks[i]
		total += d
		sorted[i] = float64(d)
		for ph, v := range p.phases[i] {
			sums[ph] += v
		}
	}
	sort.Float64s(sorted)

	s.AvgTick = total / time.Duration(n)
	s.MinTick = time.Duration(sorted[0])
	s.MaxTick = time.Duration(sorted[n-1])
	s.P95Tick = time.Duration(stat.Quantile(0.95, stat.Empirical, sorted, nil))
	if s.AvgTick > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTick)
	}

	for ph, sum := range sums {
		if sum == 0 {
			continue
		}
		t := PhaseTiming{Phase: Phase(ph), Avg: sum / time.Duration(n)}
		if s.AvgTick > 0 {
			t.Pct = float64(t.Avg) / float64(s.AvgTick) * 100
		}
		s.Phases = append(s.Phases, t)
	}
	return s
}

// LogStats writes the window at info level.
func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTick.Microseconds()),
		slog.Int64("p95_tick_us", s.P95Tick.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTick.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, t := range s.Phases {
		attrs = append(attrs, slog.Float64(t.Phase.String()+"_pct", t.Pct))
	}
	return slog.GroupValue(attrs...)
}

// PerfRow is one perf.csv record.
type PerfRow struct {
	WindowEnd    uint64  `csv:"window_end"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	P95TickUS    int64   `csv:"p95_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	FPS          float64 `csv:"fps"`
	DrainPct     float64 `csv:"drain_pct"`
	DrawPct      float64 `csv:"draw_pct"`
	UpdatePct    float64 `csv:"update_pct"`
	InputPct     float64 `csv:"input_pct"`
	BeatPct      float64 `csv:"beat_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// Row flattens s for CSV output.
func (s PerfStats) Row(windowEnd uint64) PerfRow {
	return PerfRow{
		WindowEnd:    windowEnd,
		AvgTickUS:    s.AvgTick.Microseconds(),
		MinTickUS:    s.MinTick.Microseconds(),
		P95TickUS:    s.P95Tick.Microseconds(),
		MaxTickUS:    s.MaxTick.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		FPS:          s.FPS,
		DrainPct:     s.Pct(PhaseDrain),
		DrawPct:      s.Pct(PhaseDraw),
		UpdatePct:    s.Pct(PhaseUpdate),
		InputPct:     s.Pct(PhaseInput),
		BeatPct:      s.Pct(PhaseBeat),
		TelemetryPct: s.Pct(PhaseTelemetry),
	}
}
