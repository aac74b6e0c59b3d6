// Package store persists calculation records to tabular storage.
//
// Two backends are provided: CSVStore writes a header-first CSV file with the
// columns in calculation.Columns, and SQLiteStore keeps the same columns in a
// single SQLite table. Both treat a missing store as an empty history.
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/calcstorm/internal/calculation"
)

// Supported history formats.
const (
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
)

// Errors returned by stores.
var (
	// ErrUnknownFormat indicates an unsupported history format.
	ErrUnknownFormat = errors.New("unknown history format")

	// ErrMalformed indicates stored data does not have the expected shape.
	ErrMalformed = errors.New("malformed history data")
)

// Store loads and saves calculation records.
type Store interface {
	// Save replaces the stored records.
	Save(records []calculation.Record) error
	// Load returns the stored records in order. A missing store yields
	// no records and no error.
	Load() ([]calculation.Record, error)
	// Path returns the backing file path.
	Path() string
}

// Open returns the store for format at path.
func Open(format, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV, "":
		return NewCSVStore(path), nil
	case FormatSQLite:
		return NewSQLiteStore(path), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// PersistenceError reports a failed store operation.
type PersistenceError struct {
	Op   string // "save" or "load"
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s history %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
