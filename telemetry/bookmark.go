package telemetry

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkTrailsFaded   BookmarkType = "trails_faded"
	BookmarkTrailsBloomed BookmarkType = "trails_bloomed"
	BookmarkTempoChange   BookmarkType = "tempo_change"
	BookmarkSilence       BookmarkType = "silence"
)

// Bookmark marks a visually or musically notable window.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Frame       uint64       `csv:"frame"`
	Preset      string       `csv:"preset"`
	Description string       `csv:"description"`
}

// LogBookmark logs b at info level.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark", "type", string(b.Type), "frame", b.Frame, "preset", b.Preset, "description", b.Description)
}

const (
	densityJump    = 4.0  // ratio to the rolling mean
	tempoTolerance = 0.10 // relative BPM drift ignored
	silenceWindows = 3
	minDensityHist = 3
)

// BookmarkDetector watches successive windows for density jumps, tempo
// changes and silence after music.
type BookmarkDetector struct {
	density []float64 // ring of past window means
	next    int
	seen    int

	lastBPM  float64
	quiet    int
	silenced bool
}

// NewBookmarkDetector compares each window against the previous size
// windows (at least 3).
func NewBookmarkDetector(size int) *BookmarkDetector {
	return &BookmarkDetector{density: make([]float64, max(size, minDensityHist))}
}

// Check returns the bookmarks raised by stats, then records it.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var out []Bookmark
	mark := func(typ BookmarkType, format string, args ...any) {
		out = append(out, Bookmark{
			Type:        typ,
			Frame:       stats.WindowEndFrame,
			Preset:      stats.Preset,
			Description: fmt.Sprintf(format, args...),
		})
	}

	if avg, ok := bd.densityMean(); ok && avg > 0 {
		switch d := stats.DensityMean; {
		case d < avg/densityJump:
			mark(BookmarkTrailsFaded, "Mean density %.3f fell below a quarter of average (%.3f)", d, avg)
		case d > avg*densityJump:
			mark(BookmarkTrailsBloomed, "Mean density %.3f is %.1fx average (%.3f)", d, d/avg, avg)
		}
	}

	if stats.BPM > 0 {
		prev := bd.lastBPM
		bd.lastBPM = stats.BPM
		if prev > 0 && math.Abs(stats.BPM-prev)/prev > tempoTolerance {
			mark(BookmarkTempoChange, "Tempo moved from %.1f to %.1f BPM", prev, stats.BPM)
		}
	}

	// Silence only counts once music has been heard, and fires once per gap.
	if stats.Beats > 0 {
		bd.quiet, bd.silenced = 0, false
	} else if bd.lastBPM > 0 && !bd.silenced {
		bd.quiet++
		if bd.quiet >= silenceWindows {
			bd.silenced = true
			mark(BookmarkSilence, "No beats for %d windows", bd.quiet)
		}
	}

	bd.density[bd.next] = stats.DensityMean
	bd.next = (bd.next + 1) % len(bd.density)
	bd.seen++
	return out
}

func (bd *BookmarkDetector) densityMean() (float64, bool) {
	n := min(bd.seen, len(bd.density))
	if n < minDensityHist {
		return 0, false
	}
	return stat.Mean(bd.density[:n], nil), true
}
