// Package config provides configuration loading and access for the visualiser.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Simulation SimulationConfig `yaml:"simulation"`
	Transition TransitionConfig `yaml:"transition"`
	Beat       BeatConfig       `yaml:"beat"`
	Audio      AudioConfig      `yaml:"audio"`
	MIDI       MIDIConfig       `yaml:"midi"`
	Screenshot ScreenshotConfig `yaml:"screenshot"`
	Presets    PresetsConfig    `yaml:"presets"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Log        LogConfig        `yaml:"log"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings. A zero width or height means the
// monitor resolution.
type ScreenConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	TargetFPS  int  `yaml:"target_fps"`
	Fullscreen bool `yaml:"fullscreen"`
	HUD        bool `yaml:"hud"` // status and perf overlay, never captured
}

// SimulationConfig sizes the agent population and trail map.
type SimulationConfig struct {
	AgentsWidth  int     `yaml:"agents_width"`  // agent state texture width
	AgentsHeight int     `yaml:"agents_height"` // agent state texture height
	TimeStep     float64 `yaml:"time_step"`     // simulated time per frame
	TrailScale   float64 `yaml:"trail_scale"`   // trail map size relative to the screen
	Layout       string  `yaml:"layout"`        // uniform, radial or ring
	Seed         int64   `yaml:"seed"`          // 0 seeds from the clock
}

// TransitionConfig holds preset blend durations in simulated time.
type TransitionConfig struct {
	PresetDuration float64 `yaml:"preset_duration"`
}

// BeatConfig holds the beat excursion envelope.
type BeatConfig struct {
	InDuration  float64 `yaml:"in_duration"`
	Hold        float64 `yaml:"hold"`
	OutDuration float64 `yaml:"out_duration"`
	QueueSize   int     `yaml:"queue_size"`
	Preset      string  `yaml:"preset"` // catalog name, or empty for random
}

// AudioConfig selects the beat source.
type AudioConfig struct {
	Enabled       bool    `yaml:"enabled"`
	File          string  `yaml:"file"` // WAV played and analysed
	WindowMS      int     `yaml:"window_ms"`
	History       int     `yaml:"history"`
	Threshold     float64 `yaml:"threshold"`
	MinIntervalMS int     `yaml:"min_interval_ms"`
	MetronomeBPM  float64 `yaml:"metronome_bpm"` // used when no file is set; 0 disables
}

// MIDIConfig selects the pad controller.
type MIDIConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Port        string `yaml:"port"` // port number or name prefix
	PadBaseNote int    `yaml:"pad_base_note"`
	KnobCCs     []int  `yaml:"knob_ccs"`
	QueueSize   int    `yaml:"queue_size"`
}

// ScreenshotConfig holds the async PNG writer settings.
type ScreenshotConfig struct {
	Dir       string `yaml:"dir"`
	Workers   int    `yaml:"workers"`
	QueueSize int    `yaml:"queue_size"`
}

// PresetsConfig holds preset persistence settings.
type PresetsConfig struct {
	Dir     string `yaml:"dir"`
	Initial string `yaml:"initial"` // catalog name, or empty for random
}

// TelemetryConfig holds telemetry settings.
type TelemetryConfig struct {
	WindowFrames int    `yaml:"window_frames"`
	OutputDir    string `yaml:"output_dir"` // empty disables CSV output
	Bookmarks    int    `yaml:"bookmark_history"`
	PerfWindow   int    `yaml:"perf_window"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	TimeStep32       float32
	PresetDuration32 float32
	BeatIn32         float32
	BeatHold32       float32
	BeatOut32        float32
	AudioWindow      time.Duration
	AudioMinInterval time.Duration
	LogLevel         slog.Level
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived calculates values derived from loaded config and rejects
// values nothing downstream can work with.
func (c *Config) computeDerived() error {
	if c.Simulation.AgentsWidth < 1 || c.Simulation.AgentsHeight < 1 {
		return fmt.Errorf("simulation: agent grid %dx%d must be positive", c.Simulation.AgentsWidth, c.Simulation.AgentsHeight)
	}
	if c.Simulation.TrailScale <= 0 || c.Simulation.TrailScale > 1 {
		return fmt.Errorf("simulation: trail_scale %v outside (0, 1]", c.Simulation.TrailScale)
	}
	if c.Beat.QueueSize < 1 {
		c.Beat.QueueSize = 64
	}
	if c.MIDI.QueueSize < 1 {
		c.MIDI.QueueSize = 64
	}
	for _, cc := range c.MIDI.KnobCCs {
		if cc < 0 || cc > 127 {
			return fmt.Errorf("midi: knob cc %d outside 0-127", cc)
		}
	}
	if c.MIDI.PadBaseNote < 0 || c.MIDI.PadBaseNote > 127 {
		return fmt.Errorf("midi: pad_base_note %d outside 0-127", c.MIDI.PadBaseNote)
	}

	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return err
	}

	c.Derived = DerivedConfig{
		TimeStep32:       float32(c.Simulation.TimeStep),
		PresetDuration32: float32(c.Transition.PresetDuration),
		BeatIn32:         float32(c.Beat.InDuration),
		BeatHold32:       float32(c.Beat.Hold),
		BeatOut32:        float32(c.Beat.OutDuration),
		AudioWindow:      time.Duration(c.Audio.WindowMS) * time.Millisecond,
		AudioMinInterval: time.Duration(c.Audio.MinIntervalMS) * time.Millisecond,
		LogLevel:         level,
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log: unknown level %q", s)
}

// TrailSize returns the trail map resolution for a display of w x h.
func (c *Config) TrailSize(w, h int) (int, int) {
	tw := int(float64(w) * c.Simulation.TrailScale)
	th := int(float64(h) * c.Simulation.TrailScale)
	return max(tw, 1), max(th, 1)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
