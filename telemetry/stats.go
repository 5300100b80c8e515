package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of frames.
type WindowStats struct {
	WindowStartFrame uint64  `csv:"-"`
	WindowEndFrame   uint64  `csv:"window_end"`
	SimTime          float32 `csv:"sim_time"`

	Preset   string `csv:"preset"`
	TimeMode string `csv:"time_mode"`
	Excited  bool   `csv:"excited"`

	// Events during window
	Beats          int     `csv:"beats"`
	BeatsCollapsed int     `csv:"beats_collapsed"`
	BPM            float64 `csv:"bpm"`
	PresetLoads    int     `csv:"preset_loads"`
	Takeovers      int     `csv:"takeovers"`
	Clears         int     `csv:"clears"`
	Regenerations  int     `csv:"regenerations"`
	Screenshots    int     `csv:"screenshots"`

	// Trail density at window end
	DensityMean float64 `csv:"density_mean"`
	DensityStd  float64 `csv:"density_std"`
	DensityP50  float64 `csv:"density_p50"`
	DensityP90  float64 `csv:"density_p90"`
	DensityMax  float64 `csv:"density_max"`
	Coverage    float64 `csv:"coverage"` // fraction of cells above CoverageThreshold
}

// CoverageThreshold is the density a cell needs to count as covered.
const CoverageThreshold = 0.05

// DensityStats summarises a trail map.
func DensityStats(values []float32) (mean, std, p50, p90, peak, coverage float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	sorted := make([]float64, n)
	covered := 0
	for i, v := range values {
		sorted[i] = float64(v)
		if v > CoverageThreshold {
			covered++
		}
	}
	sort.Float64s(sorted)

	mean, std = stat.PopMeanStdDev(sorted, nil)
	p50 = stat.Quantile(0.5, stat.LinInterp, sorted, nil)
	p90 = stat.Quantile(0.9, stat.LinInterp, sorted, nil)
	return mean, std, p50, p90, sorted[n-1], float64(covered) / float64(n)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("window_start", s.WindowStartFrame),
		slog.Uint64("window_end", s.WindowEndFrame),
		slog.Float64("sim_time", float64(s.SimTime)),
		slog.String("preset", s.Preset),
		slog.String("time_mode", s.TimeMode),
		slog.Bool("excited", s.Excited),
		slog.Int("beats", s.Beats),
		slog.Int("beats_collapsed", s.BeatsCollapsed),
		slog.Float64("bpm", s.BPM),
		slog.Int("preset_loads", s.PresetLoads),
		slog.Int("takeovers", s.Takeovers),
		slog.Int("clears", s.Clears),
		slog.Int("regenerations", s.Regenerations),
		slog.Int("screenshots", s.Screenshots),
		slog.Float64("density_mean", s.DensityMean),
		slog.Float64("density_std", s.DensityStd),
		slog.Float64("density_p50", s.DensityP50),
		slog.Float64("density_p90", s.DensityP90),
		slog.Float64("density_max", s.DensityMax),
		slog.Float64("coverage", s.Coverage),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
