package ui

import (
	"strings"
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func TestHUDLines(t *testing.T) {
	lines := HUDData{
		Preset:   "coral",
		Blending: true,
		SimTime:  1.5,
		TimeMode: "auto",
		Excited:  true,
		Beats:    4,
		BPM:      120,
		TrailW:   640,
		TrailH:   360,
	}.Lines()

	if len(lines) != 4 {
		t.Fatalf("got %d lines", len(lines))
	}
	if !strings.Contains(lines[0], "coral (blending)") {
		t.Errorf("preset line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "1.50 (auto)") {
		t.Errorf("time line = %q", lines[1])
	}
	if !strings.Contains(lines[2], "excited") || !strings.Contains(lines[2], "bpm: 120") {
		t.Errorf("beat line = %q", lines[2])
	}
}

func TestPhaseColor(t *testing.T) {
	theme := DefaultTheme()
	tests := []struct {
		pct  float64
		want rl.Color
	}{
		{10, theme.Text},
		{25, theme.Text},
		{30, theme.Warn},
		{75, theme.Hot},
	}
	for _, tt := range tests {
		if got := theme.phaseColor(tt.pct); got != tt.want {
			t.Errorf("phaseColor(%v) = %v, want %v", tt.pct, got, tt.want)
		}
	}
}
