package preset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SnapshotVersion is bumped when the snapshot layout changes.
const SnapshotVersion = 1

// ErrNotFound is returned when a snapshot file does not exist.
var ErrNotFound = errors.New("preset snapshot not found")

// Snapshot is the on-disk form of a saved preset.
type Snapshot struct {
	Version int       `yaml:"version"`
	SavedAt time.Time `yaml:"saved_at"`
	Preset  Preset    `yaml:"preset"`
}

// Store persists preset snapshots as YAML files in a directory.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore returns a store rooted at dir. The directory is created on first save.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Dir returns the snapshot directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes p to a new file and returns its path.
func (s *Store) Save(p Preset) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("create preset dir: %w", err)
	}

	at := s.now()
	name := p.Name
	if name == "" {
		name = "preset"
	}
	name = strings.ReplaceAll(name, " ", "_")
	path := filepath.Join(s.dir, fmt.Sprintf("%s_%s.yaml", name, at.Format("20060102-150405.000")))

	data, err := yaml.Marshal(Snapshot{Version: SnapshotVersion, SavedAt: at, Preset: p})
	if err != nil {
		return "", fmt.Errorf("marshal preset: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write preset: %w", err)
	}
	return path, nil
}

// Load reads a snapshot file.
func (s *Store) Load(path string) (Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Preset{}, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return Preset{}, fmt.Errorf("read preset: %w", err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return Preset{}, fmt.Errorf("parse preset %s: %w", path, err)
	}
	if snap.Version > SnapshotVersion {
		return Preset{}, fmt.Errorf("preset %s: unsupported version %d", path, snap.Version)
	}
	return snap.Preset, nil
}

// List returns the snapshot paths in the store sorted by file name.
func (s *Store) List() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}
