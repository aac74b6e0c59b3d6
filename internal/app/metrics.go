package app

import (
	"sync/atomic"
	"time"
)

// Metrics counts what happened during a session.
type Metrics struct {
	calculations atomic.Uint64
	failures     atomic.Uint64
	evalTotalNs  atomic.Int64
	undos        atomic.Uint64
	redos        atomic.Uint64
	saves        atomic.Uint64
	saveFailures atomic.Uint64
	loads        atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordCalculation records a successful evaluation and its duration.
func (m *Metrics) RecordCalculation(duration time.Duration) {
	m.calculations.Add(1)
	m.evalTotalNs.Add(duration.Nanoseconds())
}

// RecordFailure records a rejected operand or failed evaluation.
func (m *Metrics) RecordFailure() {
	m.failures.Add(1)
}

// RecordUndo records a successful undo.
func (m *Metrics) RecordUndo() {
	m.undos.Add(1)
}

// RecordRedo records a successful redo.
func (m *Metrics) RecordRedo() {
	m.redos.Add(1)
}

// RecordSave records a save attempt.
func (m *Metrics) RecordSave(err error) {
	if err != nil {
		m.saveFailures.Add(1)
		return
	}
	m.saves.Add(1)
}

// RecordLoad records a successful load.
func (m *Metrics) RecordLoad() {
	m.loads.Add(1)
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	count := m.calculations.Load()

	var avgEvalNs int64
	if count > 0 {
		avgEvalNs = m.evalTotalNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		Uptime:       time.Since(m.startTime),
		Calculations: count,
		Failures:     m.failures.Load(),
		AvgEvalNs:    avgEvalNs,
		Undos:        m.undos.Load(),
		Redos:        m.redos.Load(),
		Saves:        m.saves.Load(),
		SaveFailures: m.saveFailures.Load(),
		Loads:        m.loads.Load(),
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.calculations.Store(0)
	m.failures.Store(0)
	m.evalTotalNs.Store(0)
	m.undos.Store(0)
	m.redos.Store(0)
	m.saves.Store(0)
	m.saveFailures.Store(0)
	m.loads.Store(0)
	m.startTime = time.Now()
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime       time.Duration
	Calculations uint64
	Failures     uint64
	AvgEvalNs    int64
	Undos        uint64
	Redos        uint64
	Saves        uint64
	SaveFailures uint64
	Loads        uint64
}

// FailureRate returns the percentage of attempts that failed.
func (s MetricsSnapshot) FailureRate() float64 {
	total := s.Calculations + s.Failures
	if total == 0 {
		return 0
	}
	return float64(s.Failures) / float64(total) * 100
}

// Timer provides a simple way to measure elapsed time.
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer.
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the elapsed time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
