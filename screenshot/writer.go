// Package screenshot encodes captured frames to PNG files off the render thread.
package screenshot

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("screenshot writer closed")

// NameFormat is the time layout used for file names.
const NameFormat = "2006-01-02_150405.000000"

// Name returns the file name for a frame captured at t.
func Name(t time.Time) string {
	return "slime_mould-" + t.Format(NameFormat) + ".png"
}

// EncodeFunc writes img to w.
type EncodeFunc func(w io.Writer, img image.Image) error

type job struct {
	img image.Image
	at  time.Time
}

// Writer owns a fixed pool of encoder goroutines fed by a bounded queue.
type Writer struct {
	dir    string
	encode EncodeFunc
	now    func() time.Time

	jobs chan job
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool

	written atomic.Uint64
	failed  atomic.Uint64
	dropped atomic.Uint64
	last    atomic.Value // string
}

// NewWriter starts workers encoders writing into dir. queue bounds how many
// frames may wait for an encoder.
func NewWriter(dir string, workers, queue int) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating screenshot directory: %w", err)
	}
	if workers < 1 {
		workers = 1
	}
	if queue < 1 {
		queue = 1
	}
	w := &Writer{
		dir:    dir,
		encode: png.Encode,
		now:    time.Now,
		jobs:   make(chan job, queue),
	}
	for i := 0; i < workers; i++ {
		w.wg.Add(1)
		go w.worker()
	}
	return w, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Submit queues img for writing and returns immediately. It reports false
// when the queue is full and the frame was dropped.
func (w *Writer) Submit(img image.Image) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false, ErrClosed
	}
	select {
	case w.jobs <- job{img: img, at: w.now()}:
		return true, nil
	default:
		w.dropped.Add(1)
		slog.Warn("screenshot dropped, encoder busy")
		return false, nil
	}
}

func (w *Writer) worker() {
	defer w.wg.Done()
	for j := range w.jobs {
		path := filepath.Join(w.dir, Name(j.at))
		if err := w.write(path, j.img); err != nil {
			w.failed.Add(1)
			slog.Error("screenshot failed", "path", path, "error", err)
			continue
		}
		w.written.Add(1)
		w.last.Store(path)
		slog.Info("screenshot saved", "path", path)
	}
}

func (w *Writer) write(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := w.encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("encoding: %w", err)
	}
	return f.Close()
}

// Stats returns counts of written, failed and dropped frames.
func (w *Writer) Stats() (written, failed, dropped uint64) {
	return w.written.Load(), w.failed.Load(), w.dropped.Load()
}

// Last returns the path of the most recently written file, if any.
func (w *Writer) Last() string {
	s, _ := w.last.Load().(string)
	return s
}

// Close stops accepting frames and waits for queued ones to be written.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.jobs)
	w.mu.Unlock()

	w.wg.Wait()
	return nil
}
