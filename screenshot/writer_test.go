package screenshot

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.SetRGBA(1, 2, color.RGBA{R: 200, G: 10, B: 30, A: 255})
	return img
}

func TestName(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 30, 5, 123456000, time.UTC)
	if got, want := Name(at), "slime_mould-2024-03-01_123005.123456.png"; got != want {
		t.Errorf("Name = %q, want %q", got, want)
	}
}

func TestWriterWritesPNG(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, 2, 4)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	at := time.Date(2024, 3, 1, 12, 30, 5, 0, time.UTC)
	w.now = func() time.Time { return at }

	ok, err := w.Submit(testImage())
	if err != nil || !ok {
		t.Fatalf("Submit = %v, %v", ok, err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	path := filepath.Join(dir, Name(at))
	if w.Last() != path {
		t.Errorf("Last() = %q, want %q", w.Last(), path)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r, _, _, _ := img.At(1, 2).RGBA(); r>>8 != 200 {
		t.Errorf("pixel red = %d, want 200", r>>8)
	}
	if written, failed, dropped := w.Stats(); written != 1 || failed != 0 || dropped != 0 {
		t.Errorf("Stats = %d, %d, %d", written, failed, dropped)
	}
}

func TestSubmitNeverBlocks(t *testing.T) {
	w, err := NewWriter(t.TempDir(), 1, 1)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	w.encode = func(out io.Writer, img image.Image) error {
		started <- struct{}{}
		<-release
		return png.Encode(out, img)
	}

	if ok, _ := w.Submit(testImage()); !ok {
		t.Fatalf("first submit rejected")
	}
	<-started // worker is now busy
	if ok, _ := w.Submit(testImage()); !ok {
		t.Fatalf("second submit should fill the queue")
	}

	done := make(chan bool)
	go func() {
		ok, _ := w.Submit(testImage())
		done <- ok
	}()
	select {
	case ok := <-done:
		if ok {
			t.Errorf("submit into a full queue should drop")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Submit blocked")
	}

	close(release)
	w.Close()
	if written, _, dropped := w.Stats(); written != 2 || dropped != 1 {
		t.Errorf("written=%d dropped=%d, want 2 and 1", written, dropped)
	}
}

func TestEncodeFailureIsCounted(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, 1, 1)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	w.encode = func(io.Writer, image.Image) error { return errors.New("boom") }
	w.Submit(testImage())
	w.Close()

	if _, failed, _ := w.Stats(); failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("partial file left behind: %v", entries)
	}
}

func TestSubmitAfterClose(t *testing.T) {
	w, err := NewWriter(t.TempDir(), 1, 1)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	w.Close()
	if _, err := w.Submit(testImage()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
