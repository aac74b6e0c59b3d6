package history

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/dshills/calcstorm/internal/calculation"
	"github.com/dshills/calcstorm/internal/logging"
)

// Memento is an immutable snapshot of a calculation history.
type Memento struct {
	calculations []calculation.Calculation
	timestamp    time.Time
}

// MementoOption configures a Memento.
type MementoOption func(*Memento)

// WithTimestamp overrides the snapshot time (defaults to now).
func WithTimestamp(t time.Time) MementoOption {
	return func(m *Memento) {
		m.timestamp = t
	}
}

// NewMemento snapshots calcs. The slice is copied; the caller may keep
// mutating its own.
func NewMemento(calcs []calculation.Calculation, opts ...MementoOption) *Memento {
	m := &Memento{
		calculations: slices.Clone(calcs),
		timestamp:    time.Now(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Calculations returns a copy of the snapshot.
func (m *Memento) Calculations() []calculation.Calculation {
	return slices.Clone(m.calculations)
}

// Len returns the number of calculations in the snapshot.
func (m *Memento) Len() int {
	return len(m.calculations)
}

// Timestamp returns when the snapshot was taken.
func (m *Memento) Timestamp() time.Time {
	return m.timestamp
}

// MementoRecord is the flat form of a Memento.
type MementoRecord struct {
	History   []calculation.Record `json:"history"`
	Timestamp string               `json:"timestamp"`
}

// ToRecord converts the snapshot to its flat form.
func (m *Memento) ToRecord() MementoRecord {
	records := make([]calculation.Record, len(m.calculations))
	for i := range m.calculations {
		records[i] = m.calculations[i].ToRecord()
	}
	return MementoRecord{
		History:   records,
		Timestamp: calculation.FormatTimestamp(m.timestamp),
	}
}

// MementoFromRecord rebuilds a snapshot. Each calculation is decoded with
// calculation.FromRecord, so stored results are recomputed and mismatches
// are logged to log.
func MementoFromRecord(rec MementoRecord, log *logging.Logger) (*Memento, error) {
	ts, err := calculation.ParseTimestamp(rec.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("%w: timestamp %q: %w", ErrInvalidMemento, rec.Timestamp, err)
	}

	calcs := make([]calculation.Calculation, 0, len(rec.History))
	for i, r := range rec.History {
		calc, err := calculation.FromRecord(r, log)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrInvalidMemento, i, err)
		}
		calcs = append(calcs, *calc)
	}

	return &Memento{calculations: calcs, timestamp: ts}, nil
}

// MarshalJSON encodes the snapshot as its MementoRecord.
func (m *Memento) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.ToRecord())
}

// UnmarshalMemento decodes a snapshot written by MarshalJSON.
func UnmarshalMemento(data []byte, log *logging.Logger) (*Memento, error) {
	var rec MementoRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMemento, err)
	}
	return MementoFromRecord(rec, log)
}
