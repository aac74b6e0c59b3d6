package repl

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dshills/calcstorm/internal/app"
	"github.com/dshills/calcstorm/internal/calculation"
	"github.com/dshills/calcstorm/internal/config"
	"github.com/dshills/calcstorm/internal/logging"
)

func newSession(t *testing.T, autoSave bool) (*app.Calculator, *config.Config) {
	t.Helper()
	cfg := config.Default(t.TempDir())
	cfg.AutoSave = autoSave
	require.NoError(t, cfg.Resolve())

	calc, err := app.New(cfg, app.WithLogger(logging.Nop()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = calc.Close() })
	return calc, cfg
}

func run(t *testing.T, session Session, input string, opts ...Option) string {
	t.Helper()
	var out bytes.Buffer
	in := NewScannerReader(strings.NewReader(input), &out)
	r := New(session, in, &out, append([]Option{WithColor(false)}, opts...)...)
	require.NoError(t, r.Run(context.Background()))
	return out.String()
}

func TestREPL_Addition(t *testing.T) {
	calc, _ := newSession(t, false)

	out := run(t, calc, "add\n2\n3\nexit\n")
	assert.Contains(t, out, "Calculator started. Type 'help' for commands.")
	assert.Contains(t, out, "Enter numbers (or 'cancel' to abort):")
	assert.Contains(t, out, "First number: ")
	assert.Contains(t, out, "Second number: ")
	assert.Contains(t, out, "\nResult: 5\n")
	assert.Contains(t, out, "History saved successfully.")
	assert.True(t, strings.HasSuffix(out, "Goodbye!\n"))
}

func TestREPL_ExitSavesHistory(t *testing.T) {
	calc, cfg := newSession(t, false)

	run(t, calc, "multiply\n4\n2.5\nexit\n")

	data, err := os.ReadFile(cfg.HistoryFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Multiplication,4,2.5,10")
}

func TestREPL_EOFDoesNotSave(t *testing.T) {
	calc, cfg := newSession(t, false)

	out := run(t, calc, "add\n1\n1\n")
	assert.Contains(t, out, "Input terminated. Exiting...")

	_, err := os.Stat(cfg.HistoryFile)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestREPL_History(t *testing.T) {
	calc, _ := newSession(t, false)

	out := run(t, calc, "history\nadd\n2\n3\nsubtract\n10\n4\nHISTORY\n")
	assert.Contains(t, out, "No calculations in history")
	assert.Contains(t, out, "Calculation History:\n1. Addition(2, 3) = 5\n2. Subtraction(10, 4) = 6\n")
}

func TestREPL_UndoRedoClear(t *testing.T) {
	calc, _ := newSession(t, false)

	out := run(t, calc, "undo\nredo\nclear\nadd\n1\n2\nundo\nredo\nredo\nclear\n")
	assert.Equal(t, 1, strings.Count(out, "Nothing to undo"))
	assert.Equal(t, 2, strings.Count(out, "Nothing to redo"))
	assert.Contains(t, out, "No history to clear")
	assert.Contains(t, out, "Operation undone")
	assert.Contains(t, out, "Operation redone")
	assert.Contains(t, out, "History cleared")
	assert.Empty(t, calc.History())
}

func TestREPL_Cancel(t *testing.T) {
	calc, _ := newSession(t, false)

	out := run(t, calc, "add\ncancel\ndivide\n4\nCANCEL\n")
	assert.Equal(t, 2, strings.Count(out, "Operation cancelled"))
	assert.Empty(t, calc.History())
}

func TestREPL_Errors(t *testing.T) {
	calc, _ := newSession(t, false)

	out := run(t, calc, "divide\n8\n0\nadd\nabc\n1\nfrobnicate\n")
	assert.Contains(t, out, "Error: Division(8, 0): division by zero is not allowed")
	assert.Contains(t, out, "Error: Invalid number format: abc")
	assert.Equal(t, 2, strings.Count(out, "Tip: Type 'cancel' during input to abort, or 'help' for commands"))
	assert.Contains(t, out, "Unknown command: 'frobnicate'. Type 'help' for available commands.")
	assert.Empty(t, calc.History())
}

func TestREPL_AllOperations(t *testing.T) {
	calc, _ := newSession(t, false)

	tests := []struct {
		command string
		a, b    string
		want    string
	}{
		{"add", "2", "3", "5"},
		{"subtract", "5", "8", "-3"},
		{"multiply", "1.5", "4", "6"},
		{"divide", "1", "4", "0.25"},
		{"power", "2", "10", "1024"},
		{"root", "27", "3", "3"},
		{"modulus", "10", "3", "1"},
		{"intdiv", "7", "2", "3"},
		{"percentage", "50", "200", "25"},
		{"absdiff", "3", "10", "7"},
	}

	var script strings.Builder
	for _, tt := range tests {
		script.WriteString(tt.command + "\n" + tt.a + "\n" + tt.b + "\n")
	}
	out := run(t, calc, script.String())

	for _, tt := range tests {
		assert.Contains(t, out, "Result: "+tt.want+"\n", tt.command)
	}
	assert.Len(t, calc.History(), len(tests))
}

func TestREPL_SaveLoad(t *testing.T) {
	calc, _ := newSession(t, false)

	out := run(t, calc, "add\n2\n2\nsave\nclear\nload\nhistory\n")
	assert.Contains(t, out, "History saved successfully\n")
	assert.Contains(t, out, "History loaded successfully")
	assert.Contains(t, out, "1. Addition(2, 2) = 4")
}

func TestREPL_Help(t *testing.T) {
	calc, _ := newSession(t, false)

	out := run(t, calc, "help\n")
	assert.Contains(t, out, "Available commands:")
	for _, op := range calculation.Operations() {
		assert.Contains(t, out, op.Command())
	}
	for _, cmd := range []string{"history", "clear", "undo", "redo", "save", "load", "exit"} {
		assert.Contains(t, out, "  "+cmd)
	}
}

type stubSession struct {
	Session
	performErr error
	saveErr    error
	loadErr    error
}

func (s *stubSession) Perform(calculation.Operation, string, string) (*calculation.Calculation, error) {
	return nil, s.performErr
}

func (s *stubSession) SaveHistory() error { return s.saveErr }
func (s *stubSession) LoadHistory() error { return s.loadErr }

func TestREPL_FailureMessages(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s := &stubSession{
		performErr: errors.New("boom"),
		saveErr:    errors.New("disk full"),
		loadErr:    errors.New("unreadable"),
	}

	out := run(t, s, "add\n1\n2\nsave\nload\nexit\n", WithLogger(logging.FromZap(zap.New(core))))
	assert.Contains(t, out, "Unexpected error: boom")
	assert.Contains(t, out, "Error saving history: disk full")
	assert.Contains(t, out, "Error loading history: unreadable")
	assert.Contains(t, out, "Warning: Could not save history: disk full")
	assert.Contains(t, out, "Goodbye!")
	assert.Equal(t, 1, logs.FilterMessage("unexpected error").Len())
}

func TestREPL_AutoSaveWarning(t *testing.T) {
	calc, cfg := newSession(t, true)
	// Block the history file path with a directory so auto-save fails.
	require.NoError(t, os.MkdirAll(cfg.HistoryFile, 0o755))

	out := run(t, calc, "add\n2\n3\n")
	assert.Contains(t, out, "Result: 5")
	assert.Contains(t, out, "Warning: ")
	assert.Len(t, calc.History(), 1)
}

func TestREPL_ContextCancelled(t *testing.T) {
	calc, _ := newSession(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	r := New(calc, NewScannerReader(strings.NewReader("add\n1\n1\n"), &out), &out, WithColor(false))
	require.NoError(t, r.Run(ctx))
	assert.Contains(t, out.String(), "Interrupted. Exiting...")
	assert.Empty(t, calc.History())
}

type errReader struct{}

func (errReader) ReadLine(string) (string, error) { return "", io.ErrUnexpectedEOF }
func (errReader) Close() error                    { return nil }

func TestREPL_ReadError(t *testing.T) {
	calc, _ := newSession(t, false)
	r := New(calc, errReader{}, io.Discard)
	assert.ErrorIs(t, r.Run(context.Background()), io.ErrUnexpectedEOF)
}

func TestScannerReader(t *testing.T) {
	var out bytes.Buffer
	r := NewScannerReader(strings.NewReader("one\r\ntwo"), &out)

	line, err := r.ReadLine("> ")
	require.NoError(t, err)
	assert.Equal(t, "one", line)
	line, err = r.ReadLine("> ")
	require.NoError(t, err)
	assert.Equal(t, "two", line)
	_, err = r.ReadLine("> ")
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "> > > ", out.String())
	assert.NoError(t, r.Close())
}

func TestNewReader_NonTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "input")
	require.NoError(t, err)
	defer f.Close()

	reader, w := NewReader(f, io.Discard)
	assert.IsType(t, &ScannerReader{}, reader)
	assert.Equal(t, io.Discard, w)
}

func TestTerminalReader_CtrlCDiscardsLine(t *testing.T) {
	var out bytes.Buffer
	r := newTerminalReader(strings.NewReader("ab\x03add\r"), &out)

	_, err := r.ReadLine("> ")
	assert.ErrorIs(t, err, ErrInterrupted)

	line, err := r.ReadLine("> ")
	require.NoError(t, err)
	assert.Equal(t, "add", line)

	_, err = r.ReadLine("> ")
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, r.Close())
}

func TestREPL_CtrlCCancelsAndContinues(t *testing.T) {
	calc, cfg := newSession(t, false)

	var out bytes.Buffer
	in := newTerminalReader(strings.NewReader("\x03add\r1\r\x03history\rexit\r"), &out)
	r := New(calc, in, &out, WithColor(false))
	require.NoError(t, r.Run(context.Background()))

	got := out.String()
	assert.Equal(t, 2, strings.Count(got, "Operation cancelled"))
	assert.Contains(t, got, "No calculations in history")
	assert.Contains(t, got, "Goodbye!")
	assert.Empty(t, calc.History())
	assert.FileExists(t, cfg.HistoryFile)
}
