package app

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseOperand converts user input to a decimal. Surrounding whitespace is
// ignored; the magnitude must not exceed max.
func ParseOperand(input string, max decimal.Decimal) (decimal.Decimal, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return decimal.Zero, &ValidationError{Input: input, Reason: fmt.Sprintf("Invalid number format: %q", input)}
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, &ValidationError{Input: input, Reason: fmt.Sprintf("Invalid number format: %s", text)}
	}

	if d.Abs().GreaterThan(max) {
		return decimal.Zero, &ValidationError{Input: input, Reason: "Value exceeds maximum allowed: " + formatLimit(max)}
	}
	return d, nil
}

// formatLimit prints large limits in exponent form so 1e999 does not
// expand to a thousand digits.
func formatLimit(d decimal.Decimal) string {
	if int(d.Exponent())+d.NumDigits() <= 21 {
		return d.String()
	}
	return fmt.Sprintf("%se%d", d.Coefficient(), d.Exponent())
}
