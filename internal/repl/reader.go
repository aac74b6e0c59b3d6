package repl

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrInterrupted is returned by ReadLine when the user presses Ctrl-C.
var ErrInterrupted = errors.New("interrupted")

// LineReader reads one line of input after showing a prompt. It returns
// io.EOF when input is exhausted.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// ScannerReader reads lines from any io.Reader, writing prompts to out.
type ScannerReader struct {
	sc  *bufio.Scanner
	out io.Writer
}

// NewScannerReader creates a line reader over in.
func NewScannerReader(in io.Reader, out io.Writer) *ScannerReader {
	return &ScannerReader{sc: bufio.NewScanner(in), out: out}
}

// ReadLine writes prompt and returns the next line without its newline.
func (r *ScannerReader) ReadLine(prompt string) (string, error) {
	if r.out != nil && prompt != "" {
		fmt.Fprint(r.out, prompt)
	}
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimRight(r.sc.Text(), "\r"), nil
}

// Close is a no-op.
func (r *ScannerReader) Close() error {
	return nil
}

// TerminalReader provides line editing and in-session history on an
// interactive terminal. The terminal is put into raw mode until Close.
// Ctrl-C discards the line being edited and ReadLine returns ErrInterrupted.
type TerminalReader struct {
	fd    int
	state *term.State
	in    *interruptReader
	term  *term.Terminal
}

// NewTerminalReader puts the terminal behind in into raw mode.
func NewTerminalReader(in *os.File, out io.Writer) (*TerminalReader, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("input is not a terminal")
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("enable raw mode: %w", err)
	}
	r := newTerminalReader(in, out)
	r.fd, r.state = fd, state
	if w, h, err := term.GetSize(fd); err == nil {
		_ = r.term.SetSize(w, h)
	}
	return r, nil
}

func newTerminalReader(in io.Reader, out io.Writer) *TerminalReader {
	ir := &interruptReader{r: in}
	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{ir, out}, "")
	return &TerminalReader{in: ir, term: t}
}

// Writer returns a writer that translates newlines for the raw terminal.
// All session output must go through it while the reader is open.
func (r *TerminalReader) Writer() io.Writer {
	return r.term
}

// ReadLine shows prompt and reads an edited line.
func (r *TerminalReader) ReadLine(prompt string) (string, error) {
	r.term.SetPrompt(prompt)
	r.in.interrupted = false
	line, err := r.term.ReadLine()
	if r.in.interrupted {
		r.in.interrupted = false
		return "", ErrInterrupted
	}
	return line, err
}

// Close restores the terminal state.
func (r *TerminalReader) Close() error {
	if r.state == nil {
		return nil
	}
	return term.Restore(r.fd, r.state)
}

const ctrlC = 0x03

// discardLine moves to the start of the line, erases it and submits the
// now empty line.
var discardLine = []byte{0x01, 0x0b, '\r'}

// interruptReader replaces each Ctrl-C with discardLine. term.Terminal
// treats Ctrl-C as end of input and keeps the partial line, so the key is
// rewritten before the terminal sees it.
type interruptReader struct {
	r           io.Reader
	in          []byte
	out         []byte
	interrupted bool
}

func (ir *interruptReader) Read(p []byte) (int, error) {
	if len(ir.out) == 0 {
		if len(ir.in) == 0 {
			buf := make([]byte, max(len(p), 1))
			n, err := ir.r.Read(buf)
			if n == 0 {
				return 0, err
			}
			ir.in = buf[:n]
		}
		if ir.in[0] == ctrlC {
			ir.interrupted = true
			ir.in = ir.in[1:]
			ir.out = append(ir.out, discardLine...)
		} else {
			i := bytes.IndexByte(ir.in, ctrlC)
			if i < 0 {
				i = len(ir.in)
			}
			ir.out = append(ir.out, ir.in[:i]...)
			ir.in = ir.in[i:]
		}
	}
	n := copy(p, ir.out)
	ir.out = ir.out[n:]
	return n, nil
}

// NewReader returns a TerminalReader when in is an interactive terminal and
// a ScannerReader otherwise, together with the writer output should use.
func NewReader(in *os.File, out io.Writer) (LineReader, io.Writer) {
	if term.IsTerminal(int(in.Fd())) {
		if tr, err := NewTerminalReader(in, out); err == nil {
			return tr, tr.Writer()
		}
	}
	return NewScannerReader(in, out), out
}
