package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/calcstorm/internal/calculation"
)

// CSVStore keeps records in a CSV file with a header row.
type CSVStore struct {
	path string
}

// NewCSVStore creates a CSV store at path.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Path returns the CSV file path.
func (s *CSVStore) Path() string {
	return s.path
}

// Save writes records to a temporary file in the same directory and renames
// it over the target, so a failed save leaves the previous file intact.
func (s *CSVStore) Save(records []calculation.Record) error {
	if err := s.save(records); err != nil {
		return &PersistenceError{Op: "save", Path: s.path, Err: err}
	}
	return nil
}

func (s *CSVStore) save(records []calculation.Record) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		// No-op once the rename has succeeded.
		_ = os.Remove(tmpPath)
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(calculation.Columns); err != nil {
		_ = tmp.Close()
		return err
	}
	for _, rec := range records {
		if err := w.Write(rec.Values()); err != nil {
			_ = tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, s.path)
}

// Load reads records from the CSV file. Columns are matched by header name
// and extra columns are ignored. A missing or empty file yields no records.
func (s *CSVStore) Load() ([]calculation.Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &PersistenceError{Op: "load", Path: s.path, Err: err}
	}
	defer f.Close()

	records, err := readCSV(f)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Path: s.path, Err: err}
	}
	return records, nil
}

func readCSV(r io.Reader) ([]calculation.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var records []calculation.Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if isBlank(row) {
			continue
		}

		field := func(name string) (string, error) {
			i := index[name]
			if i >= len(row) {
				return "", fmt.Errorf("%w: line %d: missing %s", ErrMalformed, line, name)
			}
			return row[i], nil
		}

		var rec calculation.Record
		targets := []*string{&rec.Operation, &rec.Operand1, &rec.Operand2, &rec.Result, &rec.Timestamp}
		for i, name := range calculation.Columns {
			v, err := field(name)
			if err != nil {
				return nil, err
			}
			*targets[i] = v
		}
		records = append(records, rec)
	}

	return records, nil
}

// columnIndex maps each required column to its position in header.
func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(calculation.Columns))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}

	var missing []string
	for _, name := range calculation.Columns {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrMalformed, strings.Join(missing, ", "))
	}
	return index, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
