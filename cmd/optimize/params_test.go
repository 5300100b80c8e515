package main

import (
	"math"
	"testing"
	"time"

	"github.com/pthm-cable/mould/preset"
)

func TestParamSpecsFollowPresetFields(t *testing.T) {
	pv := NewParamVector()
	for i, spec := range pv.Specs {
		if preset.FieldNames[i] != spec.Name {
			t.Errorf("spec %d = %q, preset field is %q", i, spec.Name, preset.FieldNames[i])
		}
	}
}

func TestApplyExtractRoundTrip(t *testing.T) {
	pv := NewParamVector()
	base := preset.New(0)

	raw := pv.ExtractFromPreset(base)
	got := pv.ApplyToPreset(base, raw)
	if got != base {
		t.Errorf("apply(extract(p)) = %+v, want %+v", got, base)
	}

	norm := pv.Normalize(raw)
	back := pv.Denormalize(norm)
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-9 {
			t.Errorf("param %d: %v -> %v", i, raw[i], back[i])
		}
	}
}

func TestApplyClampsAndKeepsColors(t *testing.T) {
	pv := NewParamVector()
	base := preset.New(2)

	values := make([]float64, pv.Dim())
	for i := range values {
		values[i] = 1e6
	}
	got := pv.ApplyToPreset(base, values)
	if got.SensorAngle != float32(pv.Specs[0].Max) {
		t.Errorf("sensor angle = %v, want clamped to %v", got.SensorAngle, pv.Specs[0].Max)
	}
	if got.HueBase != base.HueBase || got.Brightness != base.Brightness || got.Name != base.Name {
		t.Error("color parameters should be untouched")
	}
}

func TestClockTime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{45 * time.Second, "0m45s"},
		{2*time.Minute + 3*time.Second, "2m03s"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1h02m03s"},
	}
	for _, tt := range tests {
		if got := clockTime(tt.d); got != tt.want {
			t.Errorf("clockTime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
