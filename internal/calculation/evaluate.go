package calculation

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	// DivisionPrecision is the number of fractional digits kept for
	// quotients, roots and fractional powers that do not terminate.
	DivisionPrecision = 28

	// rootWorkPrecision is the working precision of the Newton iteration;
	// the extra digits are dropped by the final rounding.
	rootWorkPrecision = 40

	maxRootIterations = 200

	// Integer roots above this degree go through PowWithPrecision.
	maxNewtonDegree = 64

	// Exponents above this, and root degrees whose reciprocal is above
	// it, are refused.
	maxExponent = 100000
)

var (
	one         = decimal.NewFromInt(1)
	hundred     = decimal.NewFromInt(100)
	exponentCap = decimal.NewFromInt(maxExponent)
)

// Evaluate applies op to a and b.
// Failures are returned as *OperationError wrapping one of the package
// sentinels.
func Evaluate(op Operation, a, b decimal.Decimal) (decimal.Decimal, error) {
	result, err := evaluate(op, a, b)
	if err != nil {
		return decimal.Decimal{}, &OperationError{Op: op, Operand1: a, Operand2: b, Err: err}
	}
	return result, nil
}

func evaluate(op Operation, a, b decimal.Decimal) (decimal.Decimal, error) {
	switch op {
	case Add:
		return a.Add(b), nil
	case Subtract:
		return a.Sub(b), nil
	case Multiply:
		return a.Mul(b), nil
	case Divide:
		if b.IsZero() {
			return decimal.Decimal{}, ErrDivisionByZero
		}
		return a.DivRound(b, DivisionPrecision), nil
	case Power:
		return power(a, b)
	case Root:
		return root(a, b)
	case Modulus:
		if b.IsZero() {
			return decimal.Decimal{}, ErrDivisionByZero
		}
		return a.Mod(b), nil
	case IntegerDivision:
		if b.IsZero() {
			return decimal.Decimal{}, ErrDivisionByZero
		}
		return floorDiv(a, b), nil
	case Percentage:
		if b.IsZero() {
			return decimal.Decimal{}, ErrDivisionByZero
		}
		return a.Mul(hundred).DivRound(b, DivisionPrecision), nil
	case AbsoluteDifference:
		return a.Sub(b).Abs(), nil
	default:
		return decimal.Decimal{}, ErrUnknownOperation
	}
}

// floorDiv rounds the quotient toward negative infinity.
func floorDiv(a, b decimal.Decimal) decimal.Decimal {
	q, r := a.QuoRem(b, 0)
	if !r.IsZero() && r.Sign() != b.Sign() {
		q = q.Sub(one)
	}
	return q
}

func power(a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsNegative() {
		return decimal.Decimal{}, ErrNegativeExponent
	}

	if b.GreaterThan(exponentCap) {
		return decimal.Decimal{}, ErrOverflow
	}

	if b.IsInteger() {
		result, err := a.PowInt32(int32(b.IntPart()))
		if err != nil {
			return decimal.Decimal{}, ErrUndefinedResult
		}
		return result, nil
	}

	result, err := a.PowWithPrecision(b, DivisionPrecision)
	if err != nil {
		return decimal.Decimal{}, ErrUndefinedResult
	}
	return result, nil
}

func root(a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Decimal{}, ErrZeroRoot
	}
	if a.IsNegative() {
		return decimal.Decimal{}, ErrNegativeRoot
	}
	if a.IsZero() {
		if b.IsNegative() {
			return decimal.Decimal{}, ErrDivisionByZero
		}
		return decimal.Zero, nil
	}
	if b.Abs().Mul(exponentCap).LessThan(one) {
		return decimal.Decimal{}, ErrOverflow
	}

	if b.IsInteger() {
		degree := b.Abs()
		var r decimal.Decimal
		if degree.LessThanOrEqual(decimal.NewFromInt(maxNewtonDegree)) {
			r = nthRoot(a, degree.IntPart())
		} else {
			var err error
			r, err = a.PowWithPrecision(one.DivRound(degree, rootWorkPrecision), DivisionPrecision)
			if err != nil {
				return decimal.Decimal{}, ErrUndefinedResult
			}
		}
		if b.IsNegative() {
			return one.DivRound(r, DivisionPrecision), nil
		}
		return r, nil
	}

	result, err := a.PowWithPrecision(one.DivRound(b, rootWorkPrecision), DivisionPrecision)
	if err != nil {
		return decimal.Decimal{}, ErrUndefinedResult
	}
	return result, nil
}

// nthRoot computes the positive n-th root of a > 0 by Newton iteration,
// seeded from the float64 estimate.
func nthRoot(a decimal.Decimal, n int64) decimal.Decimal {
	if n == 1 {
		return a
	}

	// Out of float64 range, seed with the right order of magnitude instead.
	magnitude := int64(a.NumDigits()) + int64(a.Exponent())
	x := decimal.New(1, int32(magnitude/n))
	if guess := math.Pow(a.InexactFloat64(), 1/float64(n)); guess > 0 && !math.IsInf(guess, 0) && !math.IsNaN(guess) {
		x = decimal.NewFromFloat(guess)
	}

	degree := decimal.NewFromInt(n)
	prev := decimal.NewFromInt(n - 1)
	tolerance := decimal.New(1, -rootWorkPrecision)

	for i := 0; i < maxRootIterations; i++ {
		p, err := x.PowInt32(int32(n - 1))
		if err != nil || p.IsZero() {
			break
		}
		p = p.Round(rootWorkPrecision)

		next := prev.Mul(x).Add(a.DivRound(p, rootWorkPrecision)).DivRound(degree, rootWorkPrecision)
		done := next.Sub(x).Abs().LessThanOrEqual(tolerance)
		x = next
		if done {
			break
		}
	}

	return x.Round(DivisionPrecision)
}
