package game

import (
	"image"

	"github.com/pthm-cable/mould/pipeline"
)

// ImageWindow is a headless Window that composites into host memory. A zero
// size disables drawing entirely, which is the fastest way to run the
// simulation without a display.
type ImageWindow struct {
	img        *image.RGBA
	fullscreen bool
}

// NewImageWindow returns a w x h in-memory window.
func NewImageWindow(w, h int) *ImageWindow {
	if w <= 0 || h <= 0 {
		return &ImageWindow{}
	}
	return &ImageWindow{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

// Target implements Window.
func (w *ImageWindow) Target() pipeline.Target {
	if w.img == nil {
		return nil
	}
	return w.img
}

// Capture implements Window. The returned image is a copy.
func (w *ImageWindow) Capture() (*image.RGBA, error) {
	if w.img == nil {
		return nil, ErrNoCapture
	}
	out := image.NewRGBA(w.img.Rect)
	copy(out.Pix, w.img.Pix)
	return out, nil
}

// ToggleFullscreen implements Window. Headless, it only tracks the state.
func (w *ImageWindow) ToggleFullscreen() {
	w.fullscreen = !w.fullscreen
}

// Fullscreen reports the tracked fullscreen state.
func (w *ImageWindow) Fullscreen() bool {
	return w.fullscreen
}

// Image returns the live frame.
func (w *ImageWindow) Image() *image.RGBA {
	return w.img
}
