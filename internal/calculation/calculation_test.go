package calculation

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustNew(t *testing.T, op Operation, a, b string) *Calculation {
	t.Helper()
	calc, err := New(op, dec(a), dec(b))
	require.NoError(t, err)
	return calc
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		a, b string
		want string
	}{
		{"addition", Add, "2", "3", "5"},
		{"addition negative", Add, "-2.5", "1.25", "-1.25"},
		{"subtraction", Subtract, "5", "3", "2"},
		{"subtraction below zero", Subtract, "3", "5", "-2"},
		{"multiplication", Multiply, "4", "2", "8"},
		{"multiplication by zero", Multiply, "4", "0", "0"},
		{"division", Divide, "8", "2", "4"},
		{"division repeating", Divide, "1", "3", "0.3333333333333333333333333333"},
		{"division zero dividend", Divide, "0", "5", "0"},
		{"power", Power, "2", "3", "8"},
		{"power zero exponent", Power, "5", "0", "1"},
		{"power fractional base", Power, "1.5", "2", "2.25"},
		{"root square", Root, "16", "2", "4"},
		{"root cube", Root, "27", "3", "3"},
		{"root of zero", Root, "0", "3", "0"},
		{"root of one", Root, "1", "7", "1"},
		{"root degree one", Root, "42", "1", "42"},
		{"modulus", Modulus, "10", "3", "1"},
		{"modulus negative dividend", Modulus, "-10", "3", "-1"},
		{"modulus decimal", Modulus, "5.5", "2", "1.5"},
		{"integer division", IntegerDivision, "10", "3", "3"},
		{"integer division floors negative", IntegerDivision, "-7", "2", "-4"},
		{"integer division negative divisor", IntegerDivision, "7", "-2", "-4"},
		{"integer division both negative", IntegerDivision, "-7", "-2", "3"},
		{"integer division exact", IntegerDivision, "9", "3", "3"},
		{"percentage", Percentage, "50", "200", "25"},
		{"percentage over hundred", Percentage, "3", "2", "150"},
		{"absolute difference", AbsoluteDifference, "5", "10", "5"},
		{"absolute difference reversed", AbsoluteDifference, "10", "5", "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.op, dec(tt.a), dec(tt.b))
			require.NoError(t, err)
			assert.True(t, got.Equal(dec(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		a, b string
		want error
	}{
		{"divide by zero", Divide, "8", "0", ErrDivisionByZero},
		{"modulus by zero", Modulus, "10", "0", ErrDivisionByZero},
		{"integer division by zero", IntegerDivision, "10", "0", ErrDivisionByZero},
		{"percentage of zero", Percentage, "50", "0", ErrDivisionByZero},
		{"negative exponent", Power, "2", "-3", ErrNegativeExponent},
		{"negative root", Root, "-16", "2", ErrNegativeRoot},
		{"zero root", Root, "16", "0", ErrZeroRoot},
		{"zero root checked first", Root, "-16", "0", ErrZeroRoot},
		{"zero to the zero", Power, "0", "0", ErrUndefinedResult},
		{"huge exponent", Power, "2", "1000001", ErrOverflow},
		{"huge fractional exponent", Power, "2", "100000000.5", ErrOverflow},
		{"exponent just above limit", Power, "2", "100000.5", ErrOverflow},
		{"tiny root degree", Root, "2", "0.00000001", ErrOverflow},
		{"tiny negative root degree", Root, "2", "-0.000001", ErrOverflow},
		{"unknown operation", Operation(99), "5", "3", ErrUnknownOperation},
		{"zero value operation", Operation(0), "5", "3", ErrUnknownOperation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.op, dec(tt.a), dec(tt.b))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var opErr *OperationError
			require.True(t, errors.As(err, &opErr))
			assert.Equal(t, tt.op, opErr.Op)
		})
	}
}

func TestEvaluate_Roots(t *testing.T) {
	got, err := Evaluate(Root, dec("2"), dec("2"))
	require.NoError(t, err)
	assert.Equal(t, "1.4142135623730950488016887242", got.String())

	got, err = Evaluate(Root, dec("16"), dec("-2"))
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("0.25")), "got %s", got)

	got, err = Evaluate(Root, dec("1e100"), dec("2"))
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("1e50")), "got %s", got)

	got, err = Evaluate(Root, dec("16"), dec("0.5"))
	require.NoError(t, err)
	assert.True(t, got.Sub(dec("256")).Abs().LessThan(dec("1e-20")), "got %s", got)
}

func TestNew(t *testing.T) {
	before := time.Now()
	calc := mustNew(t, Add, "2", "3")

	assert.Equal(t, Add, calc.Operation())
	assert.True(t, calc.Operand1().Equal(dec("2")))
	assert.True(t, calc.Operand2().Equal(dec("3")))
	assert.True(t, calc.Result().Equal(dec("5")))
	assert.False(t, calc.Timestamp().Before(before))
}

func TestNew_FailureReturnsNil(t *testing.T) {
	calc, err := New(Divide, dec("8"), dec("0"))
	assert.Nil(t, calc)
	assert.ErrorIs(t, err, ErrDivisionByZero)
	assert.Contains(t, err.Error(), "Division(8, 0): division by zero is not allowed")
}

func TestCalculation_FormatResult(t *testing.T) {
	third := mustNew(t, Divide, "1", "3")
	assert.Equal(t, "0.33", third.FormatResult(2))
	assert.Equal(t, "0.3333333333", third.FormatResult(10))
	assert.Equal(t, "0", third.FormatResult(0))
	assert.Equal(t, "0", third.FormatResult(-1))

	twoThirds := mustNew(t, Divide, "2", "3")
	assert.Equal(t, "0.67", twoThirds.FormatResult(2))

	whole := mustNew(t, Add, "2", "3")
	assert.Equal(t, "5", whole.FormatResult(2))
	assert.Equal(t, "5", whole.FormatResult(100))

	quotient := mustNew(t, Divide, "8", "2")
	assert.Equal(t, "4", quotient.FormatResult(10))
}

func TestCalculation_Equal(t *testing.T) {
	calc1 := mustNew(t, Add, "2", "3")
	calc2 := mustNew(t, Add, "2.0", "3")
	calc3 := mustNew(t, Subtract, "5", "3")
	calc4 := mustNew(t, Add, "3", "2")

	assert.True(t, calc1.Equal(calc2))
	assert.False(t, calc1.Equal(calc3))
	assert.False(t, calc1.Equal(calc4))
	assert.False(t, calc1.Equal(nil))

	later, err := NewAt(Add, dec("2"), dec("3"), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, calc1.Equal(later))
}

func TestCalculation_String(t *testing.T) {
	calc := mustNew(t, Add, "2", "3")
	assert.Equal(t, "Addition(2, 3) = 5", calc.String())

	repr := calc.GoString()
	assert.Contains(t, repr, `Calculation(operation="Addition"`)
	assert.Contains(t, repr, "operand1=2")
	assert.Contains(t, repr, "operand2=3")
	assert.Contains(t, repr, "result=5")
	assert.Contains(t, repr, "timestamp=")
}

func TestOperation_Names(t *testing.T) {
	names := map[Operation][2]string{
		Add:                {"Addition", "add"},
		Subtract:           {"Subtraction", "subtract"},
		Multiply:           {"Multiplication", "multiply"},
		Divide:             {"Division", "divide"},
		Power:              {"Power", "power"},
		Root:               {"Root", "root"},
		Modulus:            {"Modulus", "modulus"},
		IntegerDivision:    {"IntegerDivision", "intdiv"},
		Percentage:         {"Percentage", "percentage"},
		AbsoluteDifference: {"AbsoluteDifference", "absdiff"},
	}
	require.Len(t, Operations(), len(names))

	for _, op := range Operations() {
		want := names[op]
		assert.Equal(t, want[0], op.String())
		assert.Equal(t, want[1], op.Command())
		assert.True(t, op.Valid())

		parsed, err := ParseOperation(want[0])
		require.NoError(t, err)
		assert.Equal(t, op, parsed)

		looked, ok := LookupCommand(want[1])
		require.True(t, ok)
		assert.Equal(t, op, looked)
	}

	assert.Equal(t, "Operation(42)", Operation(42).String())
	assert.False(t, Operation(0).Valid())
}

func TestParseOperation(t *testing.T) {
	op, err := ParseOperation(" addition ")
	require.NoError(t, err)
	assert.Equal(t, Add, op)

	_, err = ParseOperation("Unknown")
	assert.ErrorIs(t, err, ErrUnknownOperation)

	_, ok := LookupCommand("sqrt")
	assert.False(t, ok)
}
