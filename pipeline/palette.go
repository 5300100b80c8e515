package pipeline

import (
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/pthm-cable/mould/preset"
)

// Palette maps a trail density to a display color. The composite shader
// implements the same mapping on the GPU.
func Palette(density float32, p preset.Preset, time float32) color.RGBA {
	hue := p.HueBase + p.HueSpread*density + p.HueSpeed*time
	hue -= float32(math.Floor(float64(hue)))

	c := colorful.Hsv(
		float64(hue)*360,
		float64(clamp01(p.Saturation)),
		float64(clamp01(density*p.Brightness)),
	)
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
