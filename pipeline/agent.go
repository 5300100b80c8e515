package pipeline

import (
	"math"
	"math/rand"
)

// Steer picks the new heading from the three sensor readings.
//
// If the centre reading is at least as strong as both sides the heading is
// kept. Otherwise the agent turns by turnRate toward the stronger side, and
// left (heading + sensor angle) wins when both sides read the same. The rule
// is deterministic so a given seed always reproduces the same image.
func Steer(heading, center, left, right, turnRate float32) float32 {
	if center >= left && center >= right {
		return heading
	}
	if left >= right {
		return heading + turnRate
	}
	return heading - turnRate
}

// Wrap maps v into [0, size) on a torus.
func Wrap(v, size float32) float32 {
	v -= size * float32(math.Floor(float64(v/size)))
	// Rounding can land exactly on size for tiny negative inputs.
	if v >= size {
		v -= size
	}
	if v < 0 {
		v = 0
	}
	return v
}

// wrapIndex maps an integer coordinate into [0, n).
func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// PlaceAgent computes a starting position and heading for the given layout.
func PlaceAgent(layout Layout, w, h float32, rng *rand.Rand) (x, y, heading float32) {
	cx, cy := w/2, h/2
	radius := min(w, h) * 0.4
	switch layout {
	case LayoutRadial:
		angle := rng.Float32() * 2 * math.Pi
		r := radius * float32(math.Sqrt(rng.Float64()))
		x = cx + r*float32(math.Cos(float64(angle)))
		y = cy + r*float32(math.Sin(float64(angle)))
		heading = angle
	case LayoutRing:
		angle := rng.Float32() * 2 * math.Pi
		x = cx + radius*float32(math.Cos(float64(angle)))
		y = cy + radius*float32(math.Sin(float64(angle)))
		heading = angle + math.Pi
	default:
		x = rng.Float32() * w
		y = rng.Float32() * h
		heading = rng.Float32() * 2 * math.Pi
	}
	return Wrap(x, w), Wrap(y, h), heading
}
