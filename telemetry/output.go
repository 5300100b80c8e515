package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// ConfigWriter is satisfied by the application config.
type ConfigWriter interface {
	WriteYAML(path string) error
}

// sink appends rows of one record type to a CSV file. The header goes out
// with the first batch.
type sink[T any] struct {
	name    string
	f       *os.File
	started bool
}

func openSink[T any](dir, name string) (*sink[T], error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &sink[T]{name: name, f: f}, nil
}

func (s *sink[T]) append(rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	var err error
	if s.started {
		err = gocsv.MarshalWithoutHeaders(rows, s.f)
	} else {
		err = gocsv.Marshal(rows, s.f)
		s.started = err == nil
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", s.name, err)
	}
	return nil
}

func (s *sink[T]) close() error {
	if s == nil {
		return nil
	}
	return s.f.Close()
}

// OutputManager owns the CSV files of one run directory. A nil
// OutputManager accepts every write and does nothing.
type OutputManager struct {
	dir       string
	windows   *sink[WindowStats]
	perf      *sink[PerfRow]
	events    *sink[Event]
	bookmarks *sink[Bookmark]
}

// NewOutputManager creates dir and its CSV files. An empty dir disables
// output and returns nil.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	var err error
	if om.windows, err = openSink[WindowStats](dir, "telemetry.csv"); err == nil {
		if om.perf, err = openSink[PerfRow](dir, "perf.csv"); err == nil {
			if om.events, err = openSink[Event](dir, "events.csv"); err == nil {
				om.bookmarks, err = openSink[Bookmark](dir, "bookmarks.csv")
			}
		}
	}
	if err != nil {
		om.Close()
		return nil, err
	}
	return om, nil
}

// WriteConfig saves cfg as config.yaml next to the CSVs.
func (om *OutputManager) WriteConfig(cfg ConfigWriter) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTelemetry appends one window to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return om.windows.append([]WindowStats{stats})
}

// WritePerf appends the perf window ending at windowEnd to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd uint64) error {
	if om == nil {
		return nil
	}
	return om.perf.append([]PerfRow{stats.Row(windowEnd)})
}

// WriteEvents appends control events to events.csv.
func (om *OutputManager) WriteEvents(events []Event) error {
	if om == nil {
		return nil
	}
	return om.events.append(events)
}

// WriteBookmark appends b to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	return om.bookmarks.append([]Bookmark{b})
}

// Dir is the run directory, or "" when output is disabled.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes every file that was opened.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	return errors.Join(om.windows.close(), om.perf.close(), om.events.close(), om.bookmarks.close())
}
