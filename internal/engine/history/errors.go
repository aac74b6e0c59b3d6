package history

import (
	"errors"
	"fmt"
)

// Common errors for history operations.
var (
	// ErrNilCalculation is returned when a nil calculation is appended or
	// passed to an observer.
	ErrNilCalculation = errors.New("calculation cannot be nil")

	// ErrInvalidTarget is returned when an auto-save observer is built
	// without a usable target.
	ErrInvalidTarget = errors.New("auto-save target must report its auto-save setting and save history")

	// ErrInvalidMemento indicates a memento record could not be decoded.
	ErrInvalidMemento = errors.New("invalid memento")
)

// NotifyError reports an observer failure during Append.
type NotifyError struct {
	Index    int      // Position of the observer in registration order
	Observer Observer // The failing observer
	Err      error
}

func (e *NotifyError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("notify observer %d (%T): %v", e.Index, e.Observer, e.Err)
}

func (e *NotifyError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ImportError reports the first record that failed to import.
type ImportError struct {
	Index int // Zero-based record position
	Err   error
}

func (e *ImportError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("import record %d: %v", e.Index, e.Err)
}

func (e *ImportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
