package main

import (
	"github.com/pthm-cable/mould/preset"
)

// ParamSpec bounds one tunable preset field.
type ParamSpec struct {
	Name string // one of preset.FieldNames
	Min  float64
	Max  float64
}

func (s ParamSpec) span() float64 { return s.Max - s.Min }

// ParamVector maps between preset fields and the unit cube CMA-ES searches.
// Only motion and trail fields are tuned; colours never change the trail map.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector returns the tunable fields in preset.FieldNames order.
func NewParamVector() *ParamVector {
	return &ParamVector{Specs: []ParamSpec{
		{"sensor_angle", 0.1, 1.6},
		{"sensor_distance", 2, 45},
		{"turn_rate", 0.05, 1.5},
		{"step_size", 0.3, 4},
		{"deposit_amount", 0.01, 0.15},
		{"decay_rate", 0.8, 0.999},
		{"diffusion_weight", 0, 1},
	}}
}

// Dim is the search dimension.
func (pv *ParamVector) Dim() int { return len(pv.Specs) }

func (pv *ParamVector) mapEach(in []float64, f func(ParamSpec, float64) float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, s := range pv.Specs {
		out[i] = f(s, in[i])
	}
	return out
}

// Normalize maps field values into [0,1].
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	return pv.mapEach(raw, func(s ParamSpec, v float64) float64 { return (v - s.Min) / s.span() })
}

// Denormalize maps unit values back to field values.
func (pv *ParamVector) Denormalize(unit []float64) []float64 {
	return pv.mapEach(unit, func(s ParamSpec, v float64) float64 { return s.Min + v*s.span() })
}

// Clamp pulls every value inside its bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	return pv.mapEach(v, func(s ParamSpec, v float64) float64 { return min(max(v, s.Min), s.Max) })
}

// ApplyToPreset returns base with the clamped values written into its
// leading fields.
func (pv *ParamVector) ApplyToPreset(base preset.Preset, values []float64) preset.Preset {
	out := base
	ptrs := out.FieldPtrs()
	for i, v := range pv.Clamp(values) {
		*ptrs[i] = float32(v)
	}
	return out
}

// ExtractFromPreset reads the tuned fields of p, clamped to their bounds.
func (pv *ParamVector) ExtractFromPreset(p preset.Preset) []float64 {
	fields := p.Fields()
	raw := make([]float64, pv.Dim())
	for i := range raw {
		raw[i] = float64(fields[i])
	}
	return pv.Clamp(raw)
}
