package history

import (
	"fmt"

	"github.com/dshills/calcstorm/internal/calculation"
	"github.com/dshills/calcstorm/internal/logging"
)

// Observer is notified of every calculation appended to an Engine.
// Implementations must be comparable (typically pointers) so they can be
// removed again. Notify must reject a nil calculation with ErrNilCalculation.
type Observer interface {
	Notify(calc *calculation.Calculation) error
}

// LoggingObserver writes one structured entry per calculation.
type LoggingObserver struct {
	log *logging.Logger
}

// NewLoggingObserver creates a LoggingObserver writing to log.
func NewLoggingObserver(log *logging.Logger) *LoggingObserver {
	return &LoggingObserver{log: logging.OrNop(log).WithComponent("observer")}
}

// Notify logs calc.
func (o *LoggingObserver) Notify(calc *calculation.Calculation) error {
	if calc == nil {
		return ErrNilCalculation
	}
	o.log.Info("calculation performed",
		"operation", calc.Operation().String(),
		"operand1", calc.Operand1().String(),
		"operand2", calc.Operand2().String(),
		"result", calc.Result().String(),
	)
	return nil
}

// AutoSaveTarget is what an AutoSaveObserver saves. The auto-save setting is
// owned by the target and read on every notification.
type AutoSaveTarget interface {
	AutoSaveEnabled() bool
	SaveHistory() error
}

// AutoSaveObserver persists the history after each calculation when its
// target has auto-save enabled.
type AutoSaveObserver struct {
	target AutoSaveTarget
	log    *logging.Logger
}

// NewAutoSaveObserver creates an AutoSaveObserver for target.
func NewAutoSaveObserver(target AutoSaveTarget, log *logging.Logger) (*AutoSaveObserver, error) {
	if target == nil {
		return nil, ErrInvalidTarget
	}
	return &AutoSaveObserver{
		target: target,
		log:    logging.OrNop(log).WithComponent("observer"),
	}, nil
}

// Notify saves the history if auto-save is enabled. Save failures are
// returned.
func (o *AutoSaveObserver) Notify(calc *calculation.Calculation) error {
	if calc == nil {
		return ErrNilCalculation
	}
	if !o.target.AutoSaveEnabled() {
		return nil
	}
	if err := o.target.SaveHistory(); err != nil {
		return fmt.Errorf("auto-save: %w", err)
	}
	o.log.Info("history auto-saved")
	return nil
}
