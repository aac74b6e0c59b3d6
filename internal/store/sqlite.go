package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/dshills/calcstorm/internal/calculation"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS calculations (
	seq       INTEGER PRIMARY KEY,
	operation TEXT NOT NULL,
	operand1  TEXT NOT NULL,
	operand2  TEXT NOT NULL,
	result    TEXT NOT NULL,
	timestamp TEXT NOT NULL
)`

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// SQLiteStore keeps records in a single SQLite table. The database is
// opened for each Save or Load and closed again.
type SQLiteStore struct {
	path string
}

// NewSQLiteStore creates a SQLite store at path.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Save replaces all stored rows with records in one transaction.
func (s *SQLiteStore) Save(records []calculation.Record) error {
	if err := s.save(records); err != nil {
		return &PersistenceError{Op: "save", Path: s.path, Err: err}
	}
	return nil
}

func (s *SQLiteStore) save(records []calculation.Record) (err error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.Exec(`DELETE FROM calculations`); err != nil {
		return fmt.Errorf("delete rows: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO calculations (seq, operation, operand1, operand2, result, timestamp) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		if _, err = stmt.Exec(i+1, rec.Operation, rec.Operand1, rec.Operand2, rec.Result, rec.Timestamp); err != nil {
			return fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load returns the stored rows ordered by insertion. A missing or empty
// database file yields no records, as does a database without the table.
func (s *SQLiteStore) Load() ([]calculation.Record, error) {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &PersistenceError{Op: "load", Path: s.path, Err: err}
	}

	records, err := s.load()
	if err != nil {
		return nil, &PersistenceError{Op: "load", Path: s.path, Err: err}
	}
	return records, nil
}

func (s *SQLiteStore) load() ([]calculation.Record, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var count int
	if err := db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'calculations'`).Scan(&count); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if count == 0 {
		return nil, nil
	}

	rows, err := db.Query(`SELECT operation, operand1, operand2, result, timestamp FROM calculations ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	var records []calculation.Record
	for rows.Next() {
		var rec calculation.Record
		if err := rows.Scan(&rec.Operation, &rec.Operand1, &rec.Operand2, &rec.Result, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return records, nil
}

func (s *SQLiteStore) open() (*sql.DB, error) {
	db, err := openDB("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
