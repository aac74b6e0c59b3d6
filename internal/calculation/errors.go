package calculation

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errors returned when an operation is not defined for its operands.
var (
	// ErrDivisionByZero is returned by Divide, Modulus, IntegerDivision and
	// Percentage when the second operand is zero.
	ErrDivisionByZero = errors.New("division by zero is not allowed")

	// ErrNegativeExponent is returned by Power for a negative exponent.
	ErrNegativeExponent = errors.New("negative exponents are not supported")

	// ErrZeroRoot is returned by Root when the degree is zero.
	ErrZeroRoot = errors.New("zero root is undefined")

	// ErrNegativeRoot is returned by Root for a negative radicand.
	ErrNegativeRoot = errors.New("cannot calculate root of negative number")

	// ErrUnknownOperation indicates an operation outside the supported set.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrUndefinedResult indicates the decimal library could not represent
	// the result (for example 0^0).
	ErrUndefinedResult = errors.New("result is undefined")

	// ErrOverflow indicates the result would be too large to compute.
	ErrOverflow = errors.New("result too large")

	// ErrInvalidData indicates a flat record could not be decoded.
	ErrInvalidData = errors.New("invalid calculation data")
)

// OperationError reports a failed evaluation.
type OperationError struct {
	Op       Operation
	Operand1 decimal.Decimal
	Operand2 decimal.Decimal
	Err      error
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s(%s, %s): %v", e.Op, e.Operand1, e.Operand2, e.Err)
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// DataError reports a record field that could not be decoded. It matches
// ErrInvalidData with errors.Is in addition to its cause.
type DataError struct {
	Field string // Record field, empty when the record as a whole is invalid
	Value string // Offending text
	Err   error
}

func (e *DataError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return fmt.Sprintf("%v: %v", ErrInvalidData, e.Err)
	}
	return fmt.Sprintf("%v: %s %q: %v", ErrInvalidData, e.Field, e.Value, e.Err)
}

func (e *DataError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is implements errors.Is for DataError.
func (e *DataError) Is(target error) bool {
	return target == ErrInvalidData
}
