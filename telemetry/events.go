// Package telemetry records frame statistics, control events and notable
// moments of a running visualisation, with optional CSV output.
package telemetry

// EventType identifies a control event.
type EventType string

const (
	EventBeat           EventType = "beat"
	EventPresetLoad     EventType = "preset_load"
	EventBeatPreset     EventType = "beat_preset"
	EventRandomize      EventType = "randomize"
	EventTimeTakeover   EventType = "time_takeover"
	EventRegenerate     EventType = "regenerate"
	EventClear          EventType = "clear"
	EventSavePreset     EventType = "save_preset"
	EventScreenshot     EventType = "screenshot"
	EventExcursionStart EventType = "excursion_start"
	EventExcursionEnd   EventType = "excursion_end"
)

// Event is one control event as it was applied by the render loop.
type Event struct {
	Type    EventType `csv:"type"`
	Frame   uint64    `csv:"frame"`
	SimTime float32   `csv:"sim_time"`
	Preset  string    `csv:"preset"`
	Count   int       `csv:"count"` // beats collapsed into this tick
	Value   float64   `csv:"value"` // BPM for beats, knob time for takeovers
}

// NewBeatEvent records a tick that carried count beats with the latest tempo estimate.
func NewBeatEvent(frame uint64, simTime float32, count int, bpm float64) Event {
	return Event{Type: EventBeat, Frame: frame, SimTime: simTime, Count: count, Value: bpm}
}

// NewPresetEvent records a preset-related event.
func NewPresetEvent(t EventType, frame uint64, simTime float32, preset string) Event {
	return Event{Type: t, Frame: frame, SimTime: simTime, Preset: preset, Count: 1}
}

// NewTakeoverEvent records simulated time being set by an external control.
func NewTakeoverEvent(frame uint64, value float32) Event {
	return Event{Type: EventTimeTakeover, Frame: frame, SimTime: value, Count: 1, Value: float64(value)}
}
