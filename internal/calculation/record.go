package calculation

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dshills/calcstorm/internal/logging"
)

// Columns lists the record fields in storage order.
var Columns = []string{"operation", "operand1", "operand2", "result", "timestamp"}

// Record is the flat text form of a Calculation.
type Record struct {
	Operation string `json:"operation"`
	Operand1  string `json:"operand1"`
	Operand2  string `json:"operand2"`
	Result    string `json:"result"`
	Timestamp string `json:"timestamp"`
}

// Values returns the record fields in Columns order.
func (r Record) Values() []string {
	return []string{r.Operation, r.Operand1, r.Operand2, r.Result, r.Timestamp}
}

// timestampLayouts are tried in order when decoding. Zone-less layouts
// accept ISO-8601 text written by tools that omit the offset.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// FormatTimestamp renders t the way records store it.
func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// ParseTimestamp parses a record timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// ToRecord converts c to its flat form.
func (c *Calculation) ToRecord() Record {
	return Record{
		Operation: c.op.String(),
		Operand1:  c.operand1.String(),
		Operand2:  c.operand2.String(),
		Result:    c.result.String(),
		Timestamp: FormatTimestamp(c.timestamp),
	}
}

// FromRecord decodes rec and recomputes its result. A stored result that
// differs from the recomputed one is logged to log as a warning; the
// recomputed value is kept. Decoding failures match ErrInvalidData.
func FromRecord(rec Record, log *logging.Logger) (*Calculation, error) {
	op, err := ParseOperation(rec.Operation)
	if err != nil {
		return nil, &DataError{Field: "operation", Value: rec.Operation, Err: err}
	}

	a, err := parseDecimal("operand1", rec.Operand1)
	if err != nil {
		return nil, err
	}
	b, err := parseDecimal("operand2", rec.Operand2)
	if err != nil {
		return nil, err
	}
	stored, err := parseDecimal("result", rec.Result)
	if err != nil {
		return nil, err
	}

	ts, err := ParseTimestamp(rec.Timestamp)
	if err != nil {
		return nil, &DataError{Field: "timestamp", Value: rec.Timestamp, Err: err}
	}

	calc, err := NewAt(op, a, b, ts)
	if err != nil {
		return nil, &DataError{Err: err}
	}

	if !calc.result.Equal(stored) {
		logging.OrNop(log).Warn("loaded calculation result differs from computed result",
			"operation", op.String(),
			"operand1", a.String(),
			"operand2", b.String(),
			"stored", stored.String(),
			"computed", calc.result.String(),
		)
	}

	return calc, nil
}

func parseDecimal(field, text string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return decimal.Decimal{}, &DataError{Field: field, Value: text, Err: errors.New("empty value")}
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Decimal{}, &DataError{Field: field, Value: text, Err: err}
	}
	return d, nil
}
