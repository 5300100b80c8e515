package telemetry

// Frame describes the engine state the collector samples at window end.
type Frame struct {
	Index    uint64
	SimTime  float32
	Preset   string
	TimeMode string
	Excited  bool
	Density  []float32 // trail map; nil when the backend cannot read it back
}

// Collector accumulates events within frame windows and produces WindowStats.
type Collector struct {
	windowFrames uint64

	windowStart uint64

	beats          int
	beatsCollapsed int
	bpm            float64
	presetLoads    int
	takeovers      int
	clears         int
	regenerations  int
	screenshots    int
}

// NewCollector creates a collector flushing every windowFrames frames.
func NewCollector(windowFrames int) *Collector {
	if windowFrames < 1 {
		windowFrames = 1
	}
	return &Collector{windowFrames: uint64(windowFrames)}
}

// Record counts an applied control event.
func (c *Collector) Record(e Event) {
	switch e.Type {
	case EventBeat:
		c.beats++
		if e.Count > 1 {
			c.beatsCollapsed += e.Count - 1
		}
		if e.Value > 0 {
			c.bpm = e.Value
		}
	case EventPresetLoad, EventRandomize:
		c.presetLoads++
	case EventTimeTakeover:
		c.takeovers++
	case EventClear:
		c.clears++
	case EventRegenerate:
		c.regenerations++
	case EventScreenshot:
		c.screenshots++
	}
}

// ShouldFlush returns true if enough frames have passed to flush the window.
func (c *Collector) ShouldFlush(frame uint64) bool {
	return frame-c.windowStart >= c.windowFrames
}

// Flush produces a WindowStats and resets counters for the next window.
// The tempo estimate carries over between windows.
func (c *Collector) Flush(f Frame) WindowStats {
	mean, std, p50, p90, peak, coverage := DensityStats(f.Density)

	stats := WindowStats{
		WindowStartFrame: c.windowStart,
		WindowEndFrame:   f.Index,
		SimTime:          f.SimTime,

		Preset:   f.Preset,
		TimeMode: f.TimeMode,
		Excited:  f.Excited,

		Beats:          c.beats,
		BeatsCollapsed: c.beatsCollapsed,
		BPM:            c.bpm,
		PresetLoads:    c.presetLoads,
		Takeovers:      c.takeovers,
		Clears:         c.clears,
		Regenerations:  c.regenerations,
		Screenshots:    c.screenshots,

		DensityMean: mean,
		DensityStd:  std,
		DensityP50:  p50,
		DensityP90:  p90,
		DensityMax:  peak,
		Coverage:    coverage,
	}

	c.windowStart = f.Index
	c.beats = 0
	c.beatsCollapsed = 0
	c.presetLoads = 0
	c.takeovers = 0
	c.clears = 0
	c.regenerations = 0
	c.screenshots = 0

	return stats
}

// WindowFrames returns the number of frames per window.
func (c *Collector) WindowFrames() uint64 {
	return c.windowFrames
}
