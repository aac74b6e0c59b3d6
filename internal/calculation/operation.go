package calculation

import (
	"fmt"
	"strings"
)

// Operation identifies a binary arithmetic operation.
// The zero value is not a valid operation.
type Operation int

// Supported operations.
const (
	Add Operation = iota + 1
	Subtract
	Multiply
	Divide
	Power
	Root
	Modulus
	IntegerDivision
	Percentage
	AbsoluteDifference
)

type operationInfo struct {
	name    string // display and record name
	command string // REPL command word
}

var operationTable = map[Operation]operationInfo{
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

// Operations returns every supported operation in declaration order.
func Operations() []Operation {
	return []Operation{
		Add, Subtract, Multiply, Divide, Power,
		Root, Modulus, IntegerDivision, Percentage, AbsoluteDifference,
	}
}

// String returns the display name, e.g. "Addition".
func (op Operation) String() string {
	if info, ok := operationTable[op]; ok {
		return info.name
	}
	return fmt.Sprintf("Operation(%d)", int(op))
}

// Command returns the REPL command word, e.g. "intdiv".
func (op Operation) Command() string {
	return operationTable[op].command
}

// Valid reports whether op is a supported operation.
func (op Operation) Valid() bool {
	_, ok := operationTable[op]
	return ok
}

// ParseOperation parses a display name such as "IntegerDivision".
// Matching is case-insensitive.
func ParseOperation(name string) (Operation, error) {
	name = strings.TrimSpace(name)
	for op, info := range operationTable {
		if strings.EqualFold(info.name, name) {
			return op, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
}

// LookupCommand resolves a REPL command word such as "absdiff".
func LookupCommand(word string) (Operation, bool) {
	word = strings.ToLower(strings.TrimSpace(word))
	for op, info := range operationTable {
		if info.command == word {
			return op, true
		}
	}
	return 0, false
}
