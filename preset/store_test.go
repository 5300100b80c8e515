package preset

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestStoreSaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "presets")
	s := NewStore(dir)
	s.now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC) }

	p := New(3)
	p.Brightness = 3.25

	path, err := s.Save(p)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "nebula_20240301-123000") {
		t.Errorf("unexpected file name %s", filepath.Base(path))
	}

	loaded, err := s.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded != p {
		t.Errorf("loaded preset differs:\n got %+v\nwant %+v", loaded, p)
	}

	paths, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(paths) != 1 || paths[0] != path {
		t.Errorf("List = %v, want [%s]", paths, path)
	}
}

func TestStoreLoadMissing(t *testing.T) {
	s := NewStore(t.TempDir())
	_, err := s.Load(filepath.Join(s.Dir(), "nope.yaml"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
