// Package repl implements the interactive calculator prompt.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/dshills/calcstorm/internal/app"
	"github.com/dshills/calcstorm/internal/calculation"
	"github.com/dshills/calcstorm/internal/logging"
)

const (
	commandPrompt = "Enter command: "
	rule          = "============================================================"
)

// Session is the subset of the calculator session the prompt drives.
type Session interface {
	Perform(op calculation.Operation, a, b string) (*calculation.Calculation, error)
	FormatResult(calc *calculation.Calculation) string
	Undo() bool
	Redo() bool
	ClearHistory() bool
	ShowHistory() []string
	SaveHistory() error
	LoadHistory() error
}

var _ Session = (*app.Calculator)(nil)

// REPL reads commands, runs them against a session and prints results.
type REPL struct {
	session Session
	in      LineReader
	out     io.Writer
	log     *logging.Logger

	result *color.Color
	errc   *color.Color
	warn   *color.Color
	header *color.Color
}

// Option configures a REPL.
type Option func(*REPL)

// WithLogger logs unexpected failures to l.
func WithLogger(l *logging.Logger) Option {
	return func(r *REPL) {
		r.log = l
	}
}

// WithColor forces colored output on or off. By default color follows
// whether standard output is a terminal.
func WithColor(enabled bool) Option {
	return func(r *REPL) {
		for _, c := range []*color.Color{r.result, r.errc, r.warn, r.header} {
			if enabled {
				c.EnableColor()
			} else {
				c.DisableColor()
			}
		}
	}
}

// New creates a REPL reading from in and writing to out.
func New(session Session, in LineReader, out io.Writer, opts ...Option) *REPL {
	r := &REPL{
		session: session,
		in:      in,
		out:     out,
		result:  color.New(color.FgGreen, color.Bold),
		errc:    color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
		header:  color.New(color.FgCyan, color.Bold),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = logging.OrNop(r.log).WithComponent("repl")
	return r
}

// Run processes commands until exit, end of input or ctx is cancelled.
// Exit saves the history first; end of input does not. An interrupted
// read cancels the current command and the loop continues.
func (r *REPL) Run(ctx context.Context) error {
	r.println("Calculator started. Type 'help' for commands.")

	for {
		if err := ctx.Err(); err != nil {
			r.println("\nInterrupted. Exiting...")
			return nil
		}

		line, err := r.in.ReadLine(commandPrompt)
		if errors.Is(err, ErrInterrupted) {
			r.println("Operation cancelled")
			continue
		}
		if errors.Is(err, io.EOF) {
			r.println("\nInput terminated. Exiting...")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read command: %w", err)
		}

		command := strings.ToLower(strings.TrimSpace(line))
		if command == "" {
			continue
		}
		if done := r.dispatch(command); done {
			return nil
		}
	}
}

// dispatch runs one command and reports whether the session should end.
func (r *REPL) dispatch(command string) bool {
	switch command {
	case "help":
		r.showHelp()
	case "exit":
		if err := r.session.SaveHistory(); err != nil {
			r.warn.Fprintf(r.out, "Warning: Could not save history: %v\n", err)
		} else {
			r.println("History saved successfully.")
		}
		r.println("Goodbye!")
		return true
	case "history":
		r.showHistory()
	case "clear":
		r.report(r.session.ClearHistory(), "History cleared", "No history to clear")
	case "undo":
		r.report(r.session.Undo(), "Operation undone", "Nothing to undo")
	case "redo":
		r.report(r.session.Redo(), "Operation redone", "Nothing to redo")
	case "save":
		if err := r.session.SaveHistory(); err != nil {
			r.errc.Fprintf(r.out, "Error saving history: %v\n", err)
		} else {
			r.println("History saved successfully")
		}
	case "load":
		if err := r.session.LoadHistory(); err != nil {
			r.errc.Fprintf(r.out, "Error loading history: %v\n", err)
		} else {
			r.println("History loaded successfully")
		}
	default:
		op, ok := calculation.LookupCommand(command)
		if !ok {
			r.printf("Unknown command: '%s'. Type 'help' for available commands.\n", command)
			return false
		}
		r.calculate(op)
	}
	return false
}

func (r *REPL) calculate(op calculation.Operation) {
	r.println("\nEnter numbers (or 'cancel' to abort):")

	a, ok := r.operand("First number: ")
	if !ok {
		return
	}
	b, ok := r.operand("Second number: ")
	if !ok {
		return
	}

	calc, err := r.session.Perform(op, a, b)
	if calc != nil {
		r.result.Fprintf(r.out, "\nResult: %s\n", r.session.FormatResult(calc))
	}

	var (
		verr *app.ValidationError
		oerr *calculation.OperationError
	)
	switch {
	case err == nil:
	case calc != nil:
		r.warn.Fprintf(r.out, "Warning: %v\n", err)
	case errors.As(err, &verr), errors.As(err, &oerr):
		r.errc.Fprintf(r.out, "Error: %v\n", err)
		r.println("Tip: Type 'cancel' during input to abort, or 'help' for commands")
	default:
		r.errc.Fprintf(r.out, "Unexpected error: %v\n", err)
		r.log.Error("unexpected error", "operation", op.String(), "error", err)
	}
}

// operand prompts for one number. It reports false when the user cancels
// or input ends.
func (r *REPL) operand(prompt string) (string, bool) {
	value, err := r.in.ReadLine(prompt)
	if errors.Is(err, ErrInterrupted) {
		r.println("Operation cancelled")
		return "", false
	}
	if err != nil {
		r.println("\nOperation cancelled")
		return "", false
	}
	if strings.EqualFold(strings.TrimSpace(value), "cancel") {
		r.println("Operation cancelled")
		return "", false
	}
	return value, true
}

func (r *REPL) showHistory() {
	entries := r.session.ShowHistory()
	if len(entries) == 0 {
		r.println("No calculations in history")
		return
	}
	r.header.Fprintln(r.out, "\nCalculation History:")
	for i, entry := range entries {
		r.printf("%d. %s\n", i+1, entry)
	}
}

func (r *REPL) showHelp() {
	r.println(rule)
	r.header.Fprintln(r.out, "\nAvailable commands:")
	r.println("\nOperations:")
	for _, op := range calculation.Operations() {
		r.printf("  %-12s %s\n", op.Command(), op)
	}
	r.println(rule)
	r.println("\nSession management:")
	r.println("  history      Show calculation history")
	r.println("  clear        Clear calculation history")
	r.println("  undo         Undo the last calculation")
	r.println("  redo         Redo the last undone calculation")
	r.println("  save         Save calculation history to file")
	r.println("  load         Load calculation history from file")
	r.println("  help         Show this help")
	r.println("  exit         Save history and exit the calculator")
	r.println(rule)
}

func (r *REPL) report(ok bool, done, nothing string) {
	if ok {
		r.println(done)
		return
	}
	r.println(nothing)
}

func (r *REPL) println(s string) {
	fmt.Fprintln(r.out, s)
}

func (r *REPL) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}
