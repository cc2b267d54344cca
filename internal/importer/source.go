// Package importer turns raw tabular files into stored transactions.
//
// A file is read through a RowReader chosen from the source registry,
// its header is checked for the required columns, and each remaining row
// is validated and written through the store one at a time. A bad row is
// recorded and skipped; only a missing header fails the whole session.
package importer

import (
	"fmt"
	"path/filepath"
	"strings"
)

// RowReader streams the rows of a tabular file, header first.
type RowReader interface {
	// Next returns the next row and its 1-based physical row number.
	// It returns io.EOF after the last row.
	Next() ([]string, int, error)
	Close() error
}

// Opener creates a RowReader for a file path.
type Opener func(path string) (RowReader, error)

// openers is the registry of available source formats.
var openers = map[string]Opener{}

// RegisterOpener registers a source format under the given name.
func RegisterOpener(name string, o Opener) {
	openers[name] = o
}

// GetOpener returns the opener for the given source format.
func GetOpener(format string) (Opener, error) {
	o, ok := openers[format]
	if !ok {
		return nil, fmt.Errorf("unknown source format: %s (available: %v)", format, AvailableFormats())
	}
	return o, nil
}

// DetectFormat maps a file extension to a registered source format.
func DetectFormat(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if _, ok := openers[ext]; !ok {
		return "", fmt.Errorf("unsupported file extension %q (available: %v)", ext, AvailableFormats())
	}
	return ext, nil
}

// AvailableFormats returns the registered source format names.
func AvailableFormats() []string {
	var formats []string
	for name := range openers {
		formats = append(formats, name)
	}
	return formats
}

func init() {
	RegisterOpener("csv", OpenCSV)
	RegisterOpener("xlsx", OpenXLSX)
}
