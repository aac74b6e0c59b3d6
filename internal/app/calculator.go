package app

import (
	"errors"

	"github.com/google/uuid"

	"github.com/dshills/calcstorm/internal/calculation"
	"github.com/dshills/calcstorm/internal/config"
	"github.com/dshills/calcstorm/internal/engine/history"
	"github.com/dshills/calcstorm/internal/logging"
	"github.com/dshills/calcstorm/internal/store"
)

// Calculator is one calculator session. It owns a history engine, the
// store the history is persisted to, and the session logger.
//
// Calculator is not safe for concurrent use.
type Calculator struct {
	cfg     *config.Config
	log     *logging.Logger
	rootLog *logging.Logger
	ownsLog bool
	store   store.Store
	history *history.Engine
	session string
	metrics *Metrics
	closed  bool

	extraObservers []history.Observer
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithLogger uses l instead of opening the configured log file. The
// configured log level is applied to l.
func WithLogger(l *logging.Logger) Option {
	return func(c *Calculator) {
		c.rootLog = l
	}
}

// WithStore persists history to s instead of the configured file.
func WithStore(s store.Store) Option {
	return func(c *Calculator) {
		c.store = s
	}
}

// WithObservers registers additional observers after the built-in ones.
func WithObservers(observers ...history.Observer) Option {
	return func(c *Calculator) {
		c.extraObservers = append(c.extraObservers, observers...)
	}
}

// New starts a session from cfg. It creates the configured directories,
// opens the log, registers the logging and auto-save observers and loads
// any existing history. A history file that cannot be read is logged and
// the session starts empty.
func New(cfg *config.Config, opts ...Option) (*Calculator, error) {
	if cfg == nil {
		return nil, &InitError{Component: "config", Err: errors.New("configuration is required")}
	}

	c := &Calculator{
		cfg:     cfg,
		session: uuid.NewString(),
		metrics: NewMetrics(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := cfg.EnsureDirs(); err != nil {
		return nil, &InitError{Component: "directories", Err: err}
	}

	if c.rootLog == nil {
		l, err := logging.New(logging.Config{
			Level:  logging.ParseLevel(cfg.LogLevel),
			File:   cfg.LogFile,
			Format: "json",
			Name:   "calculator",
		})
		if err != nil {
			return nil, &InitError{Component: "logger", Err: err}
		}
		c.rootLog = l
		c.ownsLog = true
	} else {
		c.rootLog.SetLevel(logging.ParseLevel(cfg.LogLevel))
	}
	c.log = c.rootLog.WithFields(map[string]any{
		"session":        c.session,
		"history_format": cfg.HistoryFormat,
	})

	if c.store == nil {
		s, err := store.Open(cfg.HistoryFormat, cfg.HistoryFile)
		if err != nil {
			c.closeLog()
			return nil, &InitError{Component: "store", Err: err}
		}
		c.store = s
	}

	c.history = history.NewEngine(cfg.MaxHistorySize, history.WithLogger(c.log))

	autoSave, err := history.NewAutoSaveObserver(c, c.log)
	if err != nil {
		c.closeLog()
		return nil, &InitError{Component: "observers", Err: err}
	}
	c.history.AddObserver(history.NewLoggingObserver(c.log))
	c.history.AddObserver(autoSave)
	for _, o := range c.extraObservers {
		c.history.AddObserver(o)
	}

	if err := c.LoadHistory(); err != nil {
		c.log.Warn("could not load existing history, starting empty",
			"path", c.store.Path(),
			"error", err,
		)
	}

	c.log.Info("calculator initialized",
		"log_file", cfg.LogFile,
		"history_file", c.store.Path(),
		"max_history_size", cfg.MaxHistorySize,
		"auto_save", cfg.AutoSave,
	)
	return c, nil
}

// Session returns the session identifier attached to every log entry.
func (c *Calculator) Session() string {
	return c.session
}

// Metrics returns the session counters.
func (c *Calculator) Metrics() *Metrics {
	return c.metrics
}

// Config returns the session configuration.
func (c *Calculator) Config() *config.Config {
	return c.cfg
}

// Logger returns the session logger.
func (c *Calculator) Logger() *logging.Logger {
	return c.log
}

// Perform validates both operands, evaluates op and records the result.
//
// Validation and evaluation failures leave the history untouched. If the
// calculation was recorded but an observer failed (for example auto-save
// could not write the file), the calculation is returned along with the
// error.
func (c *Calculator) Perform(op calculation.Operation, a, b string) (*calculation.Calculation, error) {
	if c.closed {
		return nil, ErrClosed
	}

	x, err := ParseOperand(a, c.cfg.MaxInputValue)
	if err != nil {
		c.metrics.RecordFailure()
		return nil, err
	}
	y, err := ParseOperand(b, c.cfg.MaxInputValue)
	if err != nil {
		c.metrics.RecordFailure()
		return nil, err
	}

	timer := StartTimer()
	calc, err := calculation.New(op, x, y)
	if err != nil {
		c.metrics.RecordFailure()
		c.log.Debug("calculation failed", "operation", op.String(), "error", err)
		return nil, err
	}
	c.metrics.RecordCalculation(timer.Elapsed())

	if err := c.history.Append(calc); err != nil {
		c.log.Error("observer failed after calculation", "operation", op.String(), "error", err)
		return calc, err
	}
	return calc, nil
}

// FormatResult renders a result at the configured precision.
func (c *Calculator) FormatResult(calc *calculation.Calculation) string {
	return calc.FormatResult(c.cfg.Precision)
}

// Undo reverts the last history change. It reports false when there is
// nothing to undo.
func (c *Calculator) Undo() bool {
	if !c.history.Undo() {
		return false
	}
	c.metrics.RecordUndo()
	return true
}

// Redo reapplies the last undone change. It reports false when there is
// nothing to redo.
func (c *Calculator) Redo() bool {
	if !c.history.Redo() {
		return false
	}
	c.metrics.RecordRedo()
	return true
}

// ClearHistory empties the history along with the undo and redo stacks.
// It reports false when the history was already empty.
func (c *Calculator) ClearHistory() bool {
	return c.history.Clear()
}

// History returns the recorded calculations, oldest first.
func (c *Calculator) History() []calculation.Calculation {
	return c.history.History()
}

// ShowHistory returns one line per calculation, oldest first.
func (c *Calculator) ShowHistory() []string {
	return c.history.SnapshotAsText()
}

// Engine exposes the underlying history engine.
func (c *Calculator) Engine() *history.Engine {
	return c.history
}

// AutoSaveEnabled reports whether history is saved after every calculation.
func (c *Calculator) AutoSaveEnabled() bool {
	return c.cfg.AutoSave
}

// SaveHistory writes the full history to the store.
func (c *Calculator) SaveHistory() error {
	err := c.store.Save(c.history.ExportRecords())
	c.metrics.RecordSave(err)
	if err != nil {
		return NewOperationError("save history", c.store.Path(), err).WithContext(c.cfg.HistoryFormat)
	}
	c.log.Info("history saved", "path", c.store.Path(), "count", c.history.Len())
	return nil
}

// LoadHistory replaces the history with the stored records. A missing
// store yields an empty history. On failure the current history is kept.
func (c *Calculator) LoadHistory() error {
	records, err := c.store.Load()
	if err != nil {
		return NewOperationError("load history", c.store.Path(), err).WithContext(c.cfg.HistoryFormat)
	}
	if err := c.history.ImportRecords(records); err != nil {
		return NewOperationError("load history", c.store.Path(), err).WithContext(c.cfg.HistoryFormat)
	}
	c.metrics.RecordLoad()
	c.log.Info("history loaded", "path", c.store.Path(), "count", c.history.Len())
	return nil
}

// ImportSnapshot replaces the history with a JSON snapshot as written by
// history.Memento.MarshalJSON. The snapshot is decoded completely before
// anything changes. The history is not saved; call SaveHistory to persist it.
func (c *Calculator) ImportSnapshot(data []byte) error {
	if c.closed {
		return ErrClosed
	}
	m, err := history.UnmarshalMemento(data, c.log)
	if err != nil {
		return NewOperationError("import snapshot", "", err)
	}
	c.history.Restore(m)
	return nil
}

// Close ends the session and releases the log file when the session opened
// it. Close does not save history; callers decide whether to save first.
func (c *Calculator) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	s := c.metrics.Snapshot()
	c.log.Info("calculator closed",
		"count", c.history.Len(),
		"uptime", s.Uptime,
		"calculations", s.Calculations,
		"failures", s.Failures,
		"saves", s.Saves,
		"save_failures", s.SaveFailures,
	)

	errs := NewErrorList()
	if c.ownsLog {
		errs.Add(c.rootLog.Close())
	}
	return errs.AsError()
}

func (c *Calculator) closeLog() {
	if c.ownsLog {
		_ = c.rootLog.Close()
	}
}
