package preset

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// WriteCSV writes presets as CSV with a header row.
func WriteCSV(w io.Writer, presets []Preset) error {
	if err := gocsv.Marshal(presets, w); err != nil {
		return fmt.Errorf("writing presets csv: %w", err)
	}
	return nil
}

// ReadCSV parses presets written by WriteCSV.
func ReadCSV(r io.Reader) ([]Preset, error) {
	var presets []Preset
	if err := gocsv.Unmarshal(r, &presets); err != nil {
		return nil, fmt.Errorf("reading presets csv: %w", err)
	}
	return presets, nil
}

// WriteCatalogCSV exports the built-in catalog.
func WriteCatalogCSV(w io.Writer) error {
	return WriteCSV(w, Catalog[:])
}
