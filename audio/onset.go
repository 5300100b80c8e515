package audio

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// energyFloor keeps silence and near-silence from registering as onsets.
const energyFloor = 1e-6

// tempoWindow is how many inter-onset intervals feed the BPM estimate.
const tempoWindow = 8

// OnsetDetector flags analysis windows whose energy jumps above the recent
// average. It is fed one window at a time and keeps no reference to samples.
type OnsetDetector struct {
	Threshold   float64       // energy ratio over the history mean
	MinInterval time.Duration // refractory period between onsets

	history []float64
	pos     int
	filled  int

	lastOnset time.Duration
	onsets    int
	intervals []float64 // seconds
}

// NewOnsetDetector returns a detector comparing each window against the mean
// of the previous historyLen windows.
func NewOnsetDetector(historyLen int, threshold float64, minInterval time.Duration) *OnsetDetector {
	if historyLen < 1 {
		historyLen = 1
	}
	return &OnsetDetector{
		Threshold:   threshold,
		MinInterval: minInterval,
		history:     make([]float64, historyLen),
	}
}

// Energy returns the mean squared amplitude of the mono mix of samples.
func Energy(samples [][2]float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		m := (s[0] + s[1]) / 2
		sum += m * m
	}
	return sum / float64(len(samples))
}

// Process analyses the window of samples that ends at stream position at and
// reports whether it starts a new onset.
func (d *OnsetDetector) Process(samples [][2]float64, at time.Duration) bool {
	e := Energy(samples)

	var mean float64
	if d.filled > 0 {
		mean = stat.Mean(d.history[:d.filled], nil)
	}

	onset := e > energyFloor && e > d.Threshold*mean
	if onset && d.onsets > 0 && at-d.lastOnset < d.MinInterval {
		onset = false
	}
	if onset {
		if d.onsets > 0 {
			d.addInterval((at - d.lastOnset).Seconds())
		}
		d.lastOnset = at
		d.onsets++
	}

	d.history[d.pos] = e
	d.pos = (d.pos + 1) % len(d.history)
	if d.filled < len(d.history) {
		d.filled++
	}
	return onset
}

func (d *OnsetDetector) addInterval(s float64) {
	if len(d.intervals) == tempoWindow {
		copy(d.intervals, d.intervals[1:])
		d.intervals = d.intervals[:tempoWindow-1]
	}
	d.intervals = append(d.intervals, s)
}

// BPM estimates the tempo from the median of recent inter-onset intervals.
// It returns 0 until two onsets have been seen.
func (d *OnsetDetector) BPM() float64 {
	if len(d.intervals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), d.intervals...)
	sort.Float64s(sorted)
	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	if median <= 0 {
		return 0
	}
	return 60 / median
}

// Onsets returns how many onsets have been detected.
func (d *OnsetDetector) Onsets() int {
	return d.onsets
}
