// Package ui draws the optional on-screen overlays of the windowed visualiser.
// Overlays are drawn after the frame is composited, so screenshots never
// contain them.
package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/mould/telemetry"
)

// Theme holds overlay styling.
type Theme struct {
	PanelBg     rl.Color
	PanelBorder rl.Color
	Header      rl.Color
	Text        rl.Color
	Warn        rl.Color
	Hot         rl.Color
	Padding     int32
	LineHeight  int32
	FontSize    int32
}

// DefaultTheme returns the default overlay theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:     rl.Color{R: 20, G: 25, B: 30, A: 200},
		PanelBorder: rl.Color{R: 60, G: 70, B: 80, A: 255},
		Header:      rl.Yellow,
		Text:        rl.LightGray,
		Warn:        rl.Orange,
		Hot:         rl.Red,
		Padding:     8,
		LineHeight:  16,
		FontSize:    14,
	}
}

// HUDData holds everything the status panel shows.
type HUDData struct {
	Preset     string
	Blending   bool
	SimTime    float32
	TimeMode   string
	Excited    bool
	Beats      int
	BPM        float64
	FPS        int32
	TrailW     int
	TrailH     int
	AgentCount int
}

// Lines formats d one row per line.
func (d HUDData) Lines() []string {
	preset := d.Preset
	if d.Blending {
		preset += " (blending)"
	}
	beat := "idle"
	if d.Excited {
		beat = "excited"
	}
	return []string{
		fmt.Sprintf("Preset: %s", preset),
		fmt.Sprintf("Time: %.2f (%s)", d.SimTime, d.TimeMode),
		fmt.Sprintf("Beat: %s | beats: %d | bpm: %.0f", beat, d.Beats, d.BPM),
		fmt.Sprintf("Trail: %dx%d | agents: %d | FPS: %d", d.TrailW, d.TrailH, d.AgentCount, d.FPS),
	}
}

// HUD renders the status and perf panels.
type HUD struct {
	Theme Theme
}

// NewHUD creates a HUD with the default theme.
func NewHUD() *HUD {
	return &HUD{Theme: DefaultTheme()}
}

// Draw renders the status panel in the top left corner.
func (h *HUD) Draw(data HUDData) {
	lines := data.Lines()
	t := h.Theme
	height := t.Padding*2 + t.LineHeight*int32(len(lines))
	h.panel(10, 10, 360, height)

	y := 10 + t.Padding
	for _, line := range lines {
		rl.DrawText(line, 10+t.Padding, y, t.FontSize, t.Text)
		y += t.LineHeight
	}
}

// phaseColor picks the row colour for a phase taking pct of the tick.
func (t Theme) phaseColor(pct float64) rl.Color {
	switch {
	case pct > 50:
		return t.Hot
	case pct > 25:
		return t.Warn
	default:
		return t.Text
	}
}

// DrawPerf renders the tick timing panel below the status panel.
func (h *HUD) DrawPerf(s telemetry.PerfStats) {
	t := h.Theme
	x, y := int32(10), int32(90)
	h.panel(x, y, 360, t.Padding*2+t.LineHeight*int32(len(s.Phases)+1))

	y += t.Padding
	header := fmt.Sprintf("Tick: %s p95 %s (%.0f/s)",
		s.AvgTick.Round(time.Microsecond), s.P95Tick.Round(time.Microsecond), s.TicksPerSecond)
	rl.DrawText(header, x+t.Padding, y, t.FontSize, t.Header)

	for _, ph := range s.Phases {
		y += t.LineHeight
		row := fmt.Sprintf("%-10s %8s %5.1f%%", ph.Phase, ph.Avg.Round(time.Microsecond), ph.Pct)
		rl.DrawText(row, x+t.Padding, y, t.FontSize-2, t.phaseColor(ph.Pct))
	}
}

func (h *HUD) panel(x, y, w, ht int32) {
	rl.DrawRectangle(x, y, w, ht, h.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, w, ht, h.Theme.PanelBorder)
}
