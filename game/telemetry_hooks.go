package game

import (
	"log/slog"

	"github.com/pthm-cable/mould/beatsync"
	"github.com/pthm-cable/mould/pipeline"
	"github.com/pthm-cable/mould/telemetry"
)

// flushTelemetry closes the stats window once it is full, then logs and
// records the window, its perf sample, queued events and any bookmarks.
func (g *Game) flushTelemetry() {
	frame := g.engine.Frames()
	if !g.collector.ShouldFlush(frame) {
		return
	}

	window := g.collector.Flush(telemetry.Frame{
		Index:    frame,
		SimTime:  g.now(),
		Preset:   g.Preset().Name,
		TimeMode: g.engine.Clock().Mode().String(),
		Excited:  g.beat.State() == beatsync.Excited,
		Density:  g.sampleDensity(),
	})
	perf := g.perfCollector.Stats()
	marks := g.bookmarks.Check(window)

	if g.logStats {
		window.LogStats()
		perf.LogStats()
		for _, bm := range marks {
			bm.LogBookmark()
		}
	}

	om := g.outputManager
	if om == nil {
		return
	}
	logOutputErr("telemetry", om.WriteTelemetry(window))
	logOutputErr("perf", om.WritePerf(perf, window.WindowEndFrame))
	logOutputErr("events", om.WriteEvents(g.pending))
	g.pending = g.pending[:0]
	for _, bm := range marks {
		logOutputErr("bookmark", om.WriteBookmark(bm))
	}
}

func logOutputErr(what string, err error) {
	if err != nil {
		slog.Error("telemetry output failed", "file", what, "error", err)
	}
}

// sampleDensity reads the trail map back when the pipeline supports it.
func (g *Game) sampleDensity() []float32 {
	r, ok := g.pipe.(pipeline.Reader)
	if !ok {
		return nil
	}
	data, err := r.ReadBuffer(g.engine.Trails().Read())
	if err != nil {
		slog.Warn("trail readback failed", "error", err)
		return nil
	}
	return data
}
