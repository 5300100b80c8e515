package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/pthm-cable/mould/audio"
	"github.com/pthm-cable/mould/config"
	"github.com/pthm-cable/mould/input"
	"github.com/pthm-cable/mould/midi"
)

// metronomeResolution is how often the metronome checks for a due beat.
const metronomeResolution = 5 * time.Millisecond

// startBeats starts the configured beat source. The returned channel is nil
// when beats are disabled; Drain treats that as an empty queue.
func startBeats(ctx context.Context, cfg *config.Config) (<-chan audio.Beat, func(), error) {
	if !cfg.Audio.Enabled {
		return nil, func() {}, nil
	}
	ch := audio.NewQueue(cfg.Beat.QueueSize)

	if cfg.Audio.File != "" {
		det := audio.NewDetector(audio.DetectorConfig{
			Window:      cfg.Derived.AudioWindow,
			History:     cfg.Audio.History,
			Threshold:   cfg.Audio.Threshold,
			MinInterval: cfg.Derived.AudioMinInterval,
		}, ch)
		if err := det.Listen(cfg.Audio.File); err != nil {
			return nil, nil, fmt.Errorf("starting beat detector: %w", err)
		}
		slog.Info("beat detector listening", "file", cfg.Audio.File)
		return ch, func() {
			detected, dropped := det.Stats()
			slog.Info("beat detector stopped", "detected", detected, "dropped", dropped, "finished", !det.Playing())
			if err := det.Close(); err != nil {
				slog.Error("closing beat detector", "error", err)
			}
		}, nil
	}

	if cfg.Audio.MetronomeBPM > 0 {
		m := audio.NewMetronome(cfg.Audio.MetronomeBPM)
		ctx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			m.Run(ctx, metronomeResolution, ch)
		}()
		slog.Info("metronome running", "bpm", cfg.Audio.MetronomeBPM)
		return ch, func() {
			cancel()
			<-done
			slog.Info("metronome stopped", "beats", m.Sent())
		}, nil
	}

	slog.Warn("audio enabled but neither a file nor a metronome tempo is set")
	return nil, func() {}, nil
}

// startMIDI opens the configured controller port. A missing port is logged
// and the visualiser runs without MIDI.
func startMIDI(cfg *config.Config) (<-chan input.MIDIEvent, func()) {
	if !cfg.MIDI.Enabled {
		return nil, func() {}
	}

	mapping := midi.Mapping{PadBaseNote: uint8(cfg.MIDI.PadBaseNote)}
	for _, cc := range cfg.MIDI.KnobCCs {
		mapping.KnobCCs = append(mapping.KnobCCs, uint8(cc))
	}

	ch := make(chan input.MIDIEvent, cfg.MIDI.QueueSize)
	l, err := midi.Listen(cfg.MIDI.Port, mapping, ch)
	if err != nil {
		slog.Warn("midi unavailable", "port", cfg.MIDI.Port, "available", midi.Ports(), "error", err)
		midi.CloseDriver()
		return nil, func() {}
	}
	return ch, func() {
		l.Close()
		received, dropped := l.Stats()
		slog.Info("midi stopped", "received", received, "dropped", dropped)
		midi.CloseDriver()
	}
}
