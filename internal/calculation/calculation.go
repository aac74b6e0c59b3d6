package calculation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Calculation is an evaluated operation. It is immutable once created.
type Calculation struct {
	op        Operation
	operand1  decimal.Decimal
	operand2  decimal.Decimal
	result    decimal.Decimal
	timestamp time.Time
}

// New evaluates op on a and b, timestamped now.
// On failure no Calculation is returned.
func New(op Operation, a, b decimal.Decimal) (*Calculation, error) {
	return NewAt(op, a, b, time.Now())
}

// NewAt is New with an explicit timestamp.
func NewAt(op Operation, a, b decimal.Decimal, ts time.Time) (*Calculation, error) {
	result, err := Evaluate(op, a, b)
	if err != nil {
		return nil, err
	}
	return &Calculation{
		op:        op,
		operand1:  a,
		operand2:  b,
		result:    result,
		timestamp: ts,
	}, nil
}

// Operation returns the operation kind.
func (c *Calculation) Operation() Operation { return c.op }

// Operand1 returns the first operand.
func (c *Calculation) Operand1() decimal.Decimal { return c.operand1 }

// Operand2 returns the second operand.
func (c *Calculation) Operand2() decimal.Decimal { return c.operand2 }

// Result returns the computed result.
func (c *Calculation) Result() decimal.Decimal { return c.result }

// Timestamp returns when the calculation was created.
func (c *Calculation) Timestamp() time.Time { return c.timestamp }

// Equal reports whether c and other have the same operation and operands.
// Results and timestamps are not compared.
func (c *Calculation) Equal(other *Calculation) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.op == other.op &&
		c.operand1.Equal(other.operand1) &&
		c.operand2.Equal(other.operand2)
}

// FormatResult renders the result rounded to precision fractional digits.
// Trailing zeros are dropped, so whole numbers render without a point.
func (c *Calculation) FormatResult(precision int) string {
	if precision < 0 {
		precision = 0
	}
	return c.result.Round(int32(precision)).String()
}

// String returns e.g. "Addition(2, 3) = 5".
func (c *Calculation) String() string {
	return fmt.Sprintf("%s(%s, %s) = %s", c.op, c.operand1, c.operand2, c.result)
}

// GoString supports %#v.
func (c *Calculation) GoString() string {
	return fmt.Sprintf("Calculation(operation=%q, operand1=%s, operand2=%s, result=%s, timestamp=%s)",
		c.op.String(), c.operand1, c.operand2, c.result, c.timestamp.Format(time.RFC3339Nano))
}
