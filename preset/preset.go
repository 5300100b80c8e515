// Package preset defines the simulation parameter bundles the engine blends
// between and the linear transitions that move from one to another.
package preset

import "math/rand"

// Preset holds every tunable constant of the simulation and its color map.
// Presets are values: a transition produces a new Preset, it never edits one.
type Preset struct {
	Name string `yaml:"name" csv:"name"`

	// Agent sensing and motion
	SensorAngle    float32 `yaml:"sensor_angle" csv:"sensor_angle"`       // radians either side of heading
	SensorDistance float32 `yaml:"sensor_distance" csv:"sensor_distance"` // pixels ahead of the agent
	TurnRate       float32 `yaml:"turn_rate" csv:"turn_rate"`             // radians per step
	StepSize       float32 `yaml:"step_size" csv:"step_size"`             // pixels per step
	DepositAmount  float32 `yaml:"deposit_amount" csv:"deposit_amount"`

	// Trail field
	DecayRate       float32 `yaml:"decay_rate" csv:"decay_rate"`             // multiplier per frame, (0,1]
	DiffusionWeight float32 `yaml:"diffusion_weight" csv:"diffusion_weight"` // 0 = no blur, 1 = full 3x3 mean

	// Color map
	HueBase    float32 `yaml:"hue_base" csv:"hue_base"`     // turns, [0,1)
	HueSpread  float32 `yaml:"hue_spread" csv:"hue_spread"` // hue shift per unit density
	HueSpeed   float32 `yaml:"hue_speed" csv:"hue_speed"`   // hue shift per unit of u_time
	Saturation float32 `yaml:"saturation" csv:"saturation"`
	Brightness float32 `yaml:"brightness" csv:"brightness"` // density gain before clamping
}

// Catalog is the fixed set of presets addressable by number (keypad, MIDI pads).
var Catalog = [...]Preset{
	{
		Name:        "veins",
		SensorAngle: 0.40, SensorDistance: 9, TurnRate: 0.30, StepSize: 1.0, DepositAmount: 0.05,
		DecayRate: 0.96, DiffusionWeight: 0.50,
		HueBase: 0.95, HueSpread: 0.15, HueSpeed: 0.02, Saturation: 0.80, Brightness: 1.4,
	},
	{
		Name:        "spiders",
		SensorAngle: 0.80, SensorDistance: 20, TurnRate: 0.60, StepSize: 1.6, DepositAmount: 0.04,
		DecayRate: 0.90, DiffusionWeight: 0.30,
		HueBase: 0.55, HueSpread: 0.25, HueSpeed: 0.05, Saturation: 0.65, Brightness: 1.8,
	},
	{
		Name:        "coral",
		SensorAngle: 1.10, SensorDistance: 6, TurnRate: 0.90, StepSize: 0.8, DepositAmount: 0.08,
		DecayRate: 0.98, DiffusionWeight: 0.80,
		HueBase: 0.02, HueSpread: 0.10, HueSpeed: 0.00, Saturation: 0.90, Brightness: 1.0,
	},
	{
		Name:        "nebula",
		SensorAngle: 0.25, SensorDistance: 30, TurnRate: 0.15, StepSize: 2.2, DepositAmount: 0.03,
		DecayRate: 0.99, DiffusionWeight: 0.95,
		HueBase: 0.70, HueSpread: 0.40, HueSpeed: 0.10, Saturation: 0.55, Brightness: 2.2,
	},
	{
		Name:        "lace",
		SensorAngle: 0.60, SensorDistance: 12, TurnRate: 0.45, StepSize: 1.2, DepositAmount: 0.06,
		DecayRate: 0.93, DiffusionWeight: 0.20,
		HueBase: 0.12, HueSpread: 0.05, HueSpeed: 0.01, Saturation: 0.20, Brightness: 1.6,
	},
	{
		Name:        "tendrils",
		SensorAngle: 0.35, SensorDistance: 16, TurnRate: 0.20, StepSize: 1.4, DepositAmount: 0.05,
		DecayRate: 0.97, DiffusionWeight: 0.60,
		HueBase: 0.33, HueSpread: 0.20, HueSpeed: 0.03, Saturation: 0.75, Brightness: 1.5,
	},
	{
		Name:        "cells",
		SensorAngle: 1.50, SensorDistance: 4, TurnRate: 1.20, StepSize: 0.6, DepositAmount: 0.10,
		DecayRate: 0.85, DiffusionWeight: 0.40,
		HueBase: 0.80, HueSpread: 0.30, HueSpeed: 0.08, Saturation: 0.85, Brightness: 1.2,
	},
	{
		Name:        "waves",
		SensorAngle: 0.20, SensorDistance: 40, TurnRate: 0.10, StepSize: 3.0, DepositAmount: 0.02,
		DecayRate: 0.995, DiffusionWeight: 0.70,
		HueBase: 0.50, HueSpread: 0.50, HueSpeed: 0.15, Saturation: 0.70, Brightness: 2.5,
	},
	{
		Name:        "frost",
		SensorAngle: 0.70, SensorDistance: 8, TurnRate: 0.70, StepSize: 1.0, DepositAmount: 0.07,
		DecayRate: 0.94, DiffusionWeight: 0.10,
		HueBase: 0.58, HueSpread: 0.02, HueSpeed: 0.00, Saturation: 0.30, Brightness: 1.3,
	},
	{
		Name:        "embers",
		SensorAngle: 0.50, SensorDistance: 14, TurnRate: 0.35, StepSize: 1.8, DepositAmount: 0.06,
		DecayRate: 0.92, DiffusionWeight: 0.50,
		HueBase: 0.05, HueSpread: 0.12, HueSpeed: 0.04, Saturation: 0.95, Brightness: 1.7,
	},
}

// Size is the number of catalog entries.
const Size = len(Catalog)

// New returns the catalog entry for index. Indices outside [0, Size) wrap
// modulo Size, negative ones included, so every integer addresses a preset.
func New(index int) Preset {
	return Catalog[Index(index)]
}

// Index reduces an arbitrary integer to a catalog position.
func Index(index int) int {
	i := index % Size
	if i < 0 {
		i += Size
	}
	return i
}

// Random returns a uniformly chosen catalog entry.
func Random(rng *rand.Rand) Preset {
	return Catalog[rng.Intn(Size)]
}

// Lookup finds a catalog entry by name.
func Lookup(name string) (Preset, bool) {
	for _, p := range Catalog {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// Lerp blends a toward b field by field. t is clamped to [0, 1]; the end
// points return a and b unchanged so a finished blend is exact.
func Lerp(a, b Preset, t float32) Preset {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	mix := func(x, y float32) float32 { return x + (y-x)*t }
	return Preset{
		Name:            b.Name,
		SensorAngle:     mix(a.SensorAngle, b.SensorAngle),
		SensorDistance:  mix(a.SensorDistance, b.SensorDistance),
		TurnRate:        mix(a.TurnRate, b.TurnRate),
		StepSize:        mix(a.StepSize, b.StepSize),
		DepositAmount:   mix(a.DepositAmount, b.DepositAmount),
		DecayRate:       mix(a.DecayRate, b.DecayRate),
		DiffusionWeight: mix(a.DiffusionWeight, b.DiffusionWeight),
		HueBase:         mix(a.HueBase, b.HueBase),
		HueSpread:       mix(a.HueSpread, b.HueSpread),
		HueSpeed:        mix(a.HueSpeed, b.HueSpeed),
		Saturation:      mix(a.Saturation, b.Saturation),
		Brightness:      mix(a.Brightness, b.Brightness),
	}
}

// Fields returns the numeric parameters in declaration order.
// Used by tests and by the preview tool to iterate sliders.
func (p Preset) Fields() []float32 {
	return []float32{
		p.SensorAngle, p.SensorDistance, p.TurnRate, p.StepSize, p.DepositAmount,
		p.DecayRate, p.DiffusionWeight,
		p.HueBase, p.HueSpread, p.HueSpeed, p.Saturation, p.Brightness,
	}
}

// FieldPtrs returns pointers to the numeric parameters, in the same order as Fields.
func (p *Preset) FieldPtrs() []*float32 {
	return []*float32{
		&p.SensorAngle, &p.SensorDistance, &p.TurnRate, &p.StepSize, &p.DepositAmount,
		&p.DecayRate, &p.DiffusionWeight,
		&p.HueBase, &p.HueSpread, &p.HueSpeed, &p.Saturation, &p.Brightness,
	}
}

// FieldNames labels the values returned by Fields.
var FieldNames = []string{
	"sensor_angle", "sensor_distance", "turn_rate", "step_size", "deposit_amount",
	"decay_rate", "diffusion_weight",
	"hue_base", "hue_spread", "hue_speed", "saturation", "brightness",
}
