// Package midi decodes a pad/knob controller into input events.
//
// A driver must be registered by importing it for side effects, e.g.
// gitlab.com/gomidi/midi/v2/drivers/rtmididrv, in the main package.
package midi

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/pthm-cable/mould/input"
)

// ErrNoPort is returned when the requested input port does not exist.
var ErrNoPort = errors.New("midi input port not found")

// Mapping describes how a controller's notes and CCs reach pads and knobs.
type Mapping struct {
	PadBaseNote uint8   // note number of pad 0
	KnobCCs     []uint8 // KnobCCs[i] drives knob i
}

// DefaultMapping matches the factory layout of an Akai MPD218.
func DefaultMapping() Mapping {
	return Mapping{
		PadBaseNote: 36,
		KnobCCs:     []uint8{3, 9, 12, 13, 14, 15, 16, 17},
	}
}

// Decode converts a raw message into a controller event. Messages that are
// neither a pad press nor a mapped knob return false.
func Decode(msg gomidi.Message, m Mapping) (input.MIDIEvent, bool) {
	var ch, key, vel, cc, val uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		if key < m.PadBaseNote {
			return nil, false
		}
		return input.PadPressed{Pad: int(key - m.PadBaseNote), Velocity: vel}, true
	case msg.GetControlChange(&ch, &cc, &val):
		for i, knob := range m.KnobCCs {
			if knob == cc {
				return input.KnobChanged{Knob: i, Value: val}, true
			}
		}
	}
	return nil, false
}

// Listener forwards decoded events from one input port.
type Listener struct {
	mapping Mapping
	out     chan<- input.MIDIEvent
	stop    func()

	received atomic.Uint64
	dropped  atomic.Uint64
}

// Listen opens port, either a port number or a name prefix, and forwards
// decoded events to out without blocking. Events are dropped when out is full.
func Listen(port string, m Mapping, out chan<- input.MIDIEvent) (*Listener, error) {
	in, err := findPort(port)
	if err != nil {
		return nil, err
	}

	l := &Listener{mapping: m, out: out}
	stop, err := gomidi.ListenTo(in, l.handle)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", in, err)
	}
	l.stop = stop
	slog.Info("midi listening", "port", in.String())
	return l, nil
}

func findPort(port string) (drivers.In, error) {
	if n, err := strconv.Atoi(port); err == nil {
		in, err := gomidi.InPort(n)
		if err != nil {
			return nil, fmt.Errorf("%w: %d: %v", ErrNoPort, n, err)
		}
		return in, nil
	}
	in, err := gomidi.FindInPort(port)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrNoPort, port, err)
	}
	return in, nil
}

func (l *Listener) handle(msg gomidi.Message, _ int32) {
	ev, ok := Decode(msg, l.mapping)
	if !ok {
		return
	}
	l.received.Add(1)
	select {
	case l.out <- ev:
	default:
		l.dropped.Add(1)
	}
}

// Stats returns how many events were decoded and how many were dropped.
func (l *Listener) Stats() (received, dropped uint64) {
	return l.received.Load(), l.dropped.Load()
}

// Close stops listening.
func (l *Listener) Close() {
	if l.stop != nil {
		l.stop()
		l.stop = nil
	}
}

// Ports lists the available input ports.
func Ports() []string {
	var names []string
	for _, p := range gomidi.GetInPorts() {
		names = append(names, p.String())
	}
	return names
}

// CloseDriver releases the registered driver. Call once at shutdown.
func CloseDriver() {
	gomidi.CloseDriver()
}
