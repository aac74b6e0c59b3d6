package history

import (
	"slices"

	"github.com/dshills/calcstorm/internal/calculation"
	"github.com/dshills/calcstorm/internal/logging"
)

// DefaultMaxSize is used when NewEngine is given a non-positive size.
const DefaultMaxSize = 1000

// Engine manages the calculation history and its undo/redo state.
type Engine struct {
	history   []calculation.Calculation
	undoStack []*Memento
	redoStack []*Memento
	observers []Observer

	// Configuration
	maxSize   int
	undoLimit int // 0 means unbounded
	log       *logging.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for engine events and record decoding.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithObservers registers observers at construction.
func WithObservers(observers ...Observer) Option {
	return func(e *Engine) {
		e.observers = append(e.observers, observers...)
	}
}

// WithUndoLimit bounds the number of undo snapshots kept.
// Oldest snapshots are dropped first. Zero keeps all of them.
func WithUndoLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.undoLimit = n
		}
	}
}

// NewEngine creates an engine that keeps at most maxSize calculations.
func NewEngine(maxSize int, opts ...Option) *Engine {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	e := &Engine{maxSize: maxSize}
	for _, opt := range opts {
		opt(e)
	}
	e.log = logging.OrNop(e.log).WithComponent("history")
	return e
}

// Append records calc.
// The current history is pushed to the undo stack, the oldest entries are
// evicted past MaxSize and the redo stack is cleared. Observers are then
// notified in registration order; the first failure is returned as a
// *NotifyError and later observers are skipped. The append itself stands.
func (e *Engine) Append(calc *calculation.Calculation) error {
	if calc == nil {
		return ErrNilCalculation
	}

	e.pushUndo(NewMemento(e.history))
	e.history = append(e.history, *calc)
	e.enforceMaxSize()
	e.redoStack = nil

	e.log.Debug("calculation appended", "calculation", calc.String(), "size", len(e.history))
	return e.notify(calc)
}

// Undo restores the history as it was before the last append or redo.
// Returns false if there is nothing to undo.
func (e *Engine) Undo() bool {
	if len(e.undoStack) == 0 {
		return false
	}

	e.redoStack = append(e.redoStack, NewMemento(e.history))
	m := e.undoStack[len(e.undoStack)-1]
	e.undoStack = e.undoStack[:len(e.undoStack)-1]
	e.history = m.Calculations()
	return true
}

// Redo restores the history as it was before the last undo.
// Returns false if there is nothing to redo.
func (e *Engine) Redo() bool {
	if len(e.redoStack) == 0 {
		return false
	}

	e.pushUndo(NewMemento(e.history))
	m := e.redoStack[len(e.redoStack)-1]
	e.redoStack = e.redoStack[:len(e.redoStack)-1]
	e.history = m.Calculations()
	return true
}

// Clear empties the history and both stacks.
// Returns false, changing nothing, if the history is already empty.
func (e *Engine) Clear() bool {
	if len(e.history) == 0 {
		return false
	}

	e.history = nil
	e.undoStack = nil
	e.redoStack = nil
	e.log.Info("history cleared")
	return true
}

// AddObserver registers o for notification after each append.
func (e *Engine) AddObserver(o Observer) {
	e.observers = append(e.observers, o)
}

// RemoveObserver unregisters o. Removing an unknown observer does nothing.
func (e *Engine) RemoveObserver(o Observer) {
	if i := slices.Index(e.observers, o); i >= 0 {
		e.observers = slices.Delete(e.observers, i, i+1)
	}
}

// Observers returns the registered observers in registration order.
func (e *Engine) Observers() []Observer {
	return slices.Clone(e.observers)
}

// History returns a copy of the current history, oldest first.
func (e *Engine) History() []calculation.Calculation {
	return slices.Clone(e.history)
}

// Last returns the most recent calculation.
func (e *Engine) Last() (calculation.Calculation, bool) {
	if len(e.history) == 0 {
		return calculation.Calculation{}, false
	}
	return e.history[len(e.history)-1], true
}

// Len returns the number of calculations in the history.
func (e *Engine) Len() int {
	return len(e.history)
}

// SnapshotAsText renders one line per calculation, oldest first.
func (e *Engine) SnapshotAsText() []string {
	lines := make([]string, len(e.history))
	for i := range e.history {
		lines[i] = e.history[i].String()
	}
	return lines
}

// ExportRecords converts the history to flat records, oldest first.
func (e *Engine) ExportRecords() []calculation.Record {
	records := make([]calculation.Record, len(e.history))
	for i := range e.history {
		records[i] = e.history[i].ToRecord()
	}
	return records
}

// ImportRecords replaces the history with the decoded records.
// Every record is decoded before anything changes; on failure the engine is
// left untouched and an *ImportError is returned. An empty record set yields
// an empty history. A successful import clears the redo stack and leaves
// the undo stack as it was, so the import itself is not an undo step.
func (e *Engine) ImportRecords(records []calculation.Record) error {
	decoded := make([]calculation.Calculation, 0, len(records))
	for i, rec := range records {
		calc, err := calculation.FromRecord(rec, e.log)
		if err != nil {
			return &ImportError{Index: i, Err: err}
		}
		decoded = append(decoded, *calc)
	}

	e.replace(decoded)
	e.log.Info("history imported", "records", len(records), "size", len(e.history))
	return nil
}

// Restore replaces the history with the calculations in m, with the same
// stack handling as ImportRecords.
func (e *Engine) Restore(m *Memento) {
	e.replace(m.Calculations())
	e.log.Info("history restored", "snapshot", calculation.FormatTimestamp(m.Timestamp()), "size", len(e.history))
}

func (e *Engine) replace(calcs []calculation.Calculation) {
	e.history = calcs
	e.enforceMaxSize()
	e.redoStack = nil
}

// CanUndo returns true if undo is available.
func (e *Engine) CanUndo() bool {
	return len(e.undoStack) > 0
}

// CanRedo returns true if redo is available.
func (e *Engine) CanRedo() bool {
	return len(e.redoStack) > 0
}

// UndoCount returns the number of undo snapshots available.
func (e *Engine) UndoCount() int {
	return len(e.undoStack)
}

// RedoCount returns the number of redo snapshots available.
func (e *Engine) RedoCount() int {
	return len(e.redoStack)
}

// SetMaxSize changes the maximum history size.
// If the current history is larger, oldest entries are removed.
func (e *Engine) SetMaxSize(max int) {
	if max <= 0 {
		max = DefaultMaxSize
	}
	e.maxSize = max
	e.enforceMaxSize()
}

// MaxSize returns the maximum history size.
func (e *Engine) MaxSize() int {
	return e.maxSize
}

func (e *Engine) pushUndo(m *Memento) {
	e.undoStack = append(e.undoStack, m)
	if e.undoLimit > 0 && len(e.undoStack) > e.undoLimit {
		excess := len(e.undoStack) - e.undoLimit
		e.undoStack = slices.Delete(e.undoStack, 0, excess)
	}
}

// enforceMaxSize evicts the oldest entries past maxSize.
func (e *Engine) enforceMaxSize() {
	if excess := len(e.history) - e.maxSize; excess > 0 {
		e.history = slices.Delete(e.history, 0, excess)
	}
}

func (e *Engine) notify(calc *calculation.Calculation) error {
	// Observers may unregister themselves while being notified.
	for i, o := range slices.Clone(e.observers) {
		if err := o.Notify(calc); err != nil {
			e.log.Error("observer notification failed", "observer", i, "error", err)
			return &NotifyError{Index: i, Observer: o, Err: err}
		}
	}
	return nil
}
