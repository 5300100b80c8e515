package audio

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"
)

// DetectorConfig tunes onset detection.
type DetectorConfig struct {
	Window      time.Duration // analysis window length
	History     int           // windows averaged for the baseline
	Threshold   float64       // energy ratio that counts as an onset
	MinInterval time.Duration // refractory period
}

// DefaultDetectorConfig suits typical 4/4 dance material.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		Window:      20 * time.Millisecond,
		History:     43,
		Threshold:   1.5,
		MinInterval: 150 * time.Millisecond,
	}
}

// Detector taps an audio stream and offers a Beat on every onset.
type Detector struct {
	cfg   DetectorConfig
	out   chan<- Beat
	now   func() time.Time
	onset *OnsetDetector

	window  int
	pending [][2]float64
	samples int
	format  beep.Format

	detected atomic.Uint64
	dropped  atomic.Uint64

	mu       sync.Mutex
	playing  bool
	streamer beep.StreamSeekCloser
}

// NewDetector returns a detector that delivers beats to out.
func NewDetector(cfg DetectorConfig, out chan<- Beat) *Detector {
	return &Detector{
		cfg:   cfg,
		out:   out,
		now:   time.Now,
		onset: NewOnsetDetector(cfg.History, cfg.Threshold, cfg.MinInterval),
	}
}

// Tap wraps s so every sample streamed through it is analysed. Samples pass
// through unchanged.
func (d *Detector) Tap(s beep.Streamer, format beep.Format) beep.Streamer {
	d.format = format
	d.window = format.SampleRate.N(d.cfg.Window)
	if d.window < 1 {
		d.window = 1
	}
	d.pending = make([][2]float64, 0, d.window)

	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		n, ok := s.Stream(samples)
		d.analyze(samples[:n])
		return n, ok
	})
}

func (d *Detector) analyze(samples [][2]float64) {
	for len(samples) > 0 {
		take := d.window - len(d.pending)
		if take > len(samples) {
			take = len(samples)
		}
		d.pending = append(d.pending, samples[:take]...)
		samples = samples[take:]
		d.samples += take

		if len(d.pending) < d.window {
			return
		}
		at := d.format.SampleRate.D(d.samples)
		if d.onset.Process(d.pending, at) {
			d.detected.Add(1)
			if !Offer(d.out, Beat{At: d.now(), BPM: d.onset.BPM()}) {
				d.dropped.Add(1)
			}
		}
		d.pending = d.pending[:0]
	}
}

// Listen decodes the WAV file at path and plays it through the speaker while
// detecting beats. It returns immediately; playback runs on the speaker's goroutine.
func (d *Detector) Listen(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening audio file: %w", err)
	}
	streamer, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("decoding %s: %w", path, err)
	}

	if err := speaker.Init(format.SampleRate, format.SampleRate.N(100*time.Millisecond)); err != nil {
		streamer.Close()
		return fmt.Errorf("initializing speaker: %w", err)
	}

	d.mu.Lock()
	d.streamer = streamer
	d.playing = true
	d.mu.Unlock()

	speaker.Play(beep.Seq(d.Tap(streamer, format), beep.Callback(func() {
		d.mu.Lock()
		d.playing = false
		d.mu.Unlock()
		slog.Info("audio finished", "path", path, "beats", d.detected.Load(), "onsets", d.onset.Onsets(), "bpm", d.onset.BPM())
	})))

	slog.Info("audio started", "path", path, "sample_rate", int(format.SampleRate), "channels", format.NumChannels)
	return nil
}

// Playing reports whether Listen's stream is still running.
func (d *Detector) Playing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playing
}

// Stats returns how many beats were detected and how many the queue dropped.
func (d *Detector) Stats() (detected, dropped uint64) {
	return d.detected.Load(), d.dropped.Load()
}

// Close stops playback and releases the decoded file.
func (d *Detector) Close() error {
	d.mu.Lock()
	s := d.streamer
	d.streamer = nil
	d.playing = false
	d.mu.Unlock()

	if s == nil {
		return nil
	}
	// The finish callback takes d.mu under the speaker lock, so Clear must
	// run without holding it.
	speaker.Clear()
	return s.Close()
}
