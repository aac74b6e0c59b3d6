// Package calculation provides the immutable arithmetic facts recorded by the
// calculator history.
//
// A Calculation binds an Operation to two decimal operands and the result
// computed when it was created. Results are exact for addition, subtraction,
// multiplication and integer powers; non-terminating quotients and roots are
// rounded to DivisionPrecision fractional digits.
//
// # Operations
//
//	Add                a + b
//	Subtract           a - b
//	Multiply           a * b
//	Divide             a / b          (b = 0 fails)
//	Power              a ^ b          (b < 0 fails)
//	Root               b-th root of a (b = 0 or a < 0 fails)
//	Modulus            a mod b        (b = 0 fails, sign follows a)
//	IntegerDivision    floor(a / b)   (b = 0 fails)
//	Percentage         (a / b) * 100  (b = 0 fails)
//	AbsoluteDifference |a - b|
//
// # Records
//
// Record is the flat, all-text form used by the history stores:
//
//	rec := calc.ToRecord()
//	back, err := calculation.FromRecord(rec, logger)
//
// FromRecord always recomputes the result. A stored result that disagrees
// is logged as a warning and replaced by the recomputed value.
package calculation
