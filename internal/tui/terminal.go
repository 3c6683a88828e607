package tui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/illarion/lockpass/internal/session"
)

const (
	enterAltScreen = "\x1b[?1049h\x1b[?25l"
	leaveAltScreen = "\x1b[?25h\x1b[?1049l"
	clearScreen    = "\x1b[H\x1b[2J"
)

// escTimeout is how long a lone ESC waits for the rest of a sequence
const escTimeout = 50 * time.Millisecond

var ErrNotTerminal = errors.New("input is not a terminal")

// chunk is one read from the terminal
type chunk struct {
	data []byte
	err  error
}

// Terminal is a raw-mode terminal session
type Terminal struct {
	in    *os.File
	out   io.Writer
	fd    int
	state *term.State

	chunks  chan chunk
	dec     decoder
	escAt   time.Time
	pending []session.Key
	err     error
}

// Open switches in to raw mode and starts reading keys from it
func Open(in *os.File, out io.Writer) (*Terminal, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to enter raw mode: %w", err)
	}

	t := &Terminal{
		in:     in,
		out:    out,
		fd:     fd,
		state:  state,
		chunks: make(chan chunk, 16),
	}
	fmt.Fprint(out, enterAltScreen)
	go t.read()
	return t, nil
}

// read runs until input fails. It is not stopped by Close because a
// blocked read cannot be interrupted; it exits with the process.
func (t *Terminal) read() {
	buf := make([]byte, 256)
	for {
		n, err := t.in.Read(buf)
		if n > 0 {
			t.chunks <- chunk{data: append([]byte(nil), buf[:n]...)}
		}
		if err != nil {
			t.chunks <- chunk{err: err}
			return
		}
	}
}

// Poll implements session.EventSource. Keys are decoded here, on the
// polling goroutine, so a pending ESC can be resolved by a timeout.
func (t *Terminal) Poll(timeout time.Duration) (session.Key, bool, error) {
	if k, ok := t.next(); ok {
		return k, true, nil
	}
	if t.err != nil {
		return session.Key{}, false, t.err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case c := <-t.chunks:
		t.receive(c)
	case <-timer.C:
		if t.dec.escPending() && time.Since(t.escAt) >= escTimeout {
			t.pending = t.dec.flush()
		}
	}

	if k, ok := t.next(); ok {
		return k, true, nil
	}
	return session.Key{}, false, t.err
}

func (t *Terminal) receive(c chunk) {
	if len(c.data) > 0 {
		keys, interrupt := t.dec.feed(c.data)
		t.pending = append(t.pending, keys...)
		if interrupt {
			// Ctrl-C and Ctrl-D end input
			t.err = io.EOF
			return
		}
		if t.dec.escPending() {
			t.escAt = time.Now()
		}
	}
	if c.err != nil {
		t.pending = append(t.pending, t.dec.flush()...)
		t.err = c.err
	}
}

func (t *Terminal) next() (session.Key, bool) {
	if len(t.pending) == 0 {
		return session.Key{}, false
	}
	k := t.pending[0]
	t.pending = t.pending[1:]
	return k, true
}

// Size returns the terminal size, with a fallback of 80x24
func (t *Terminal) Size() (width, height int) {
	w, h, err := term.GetSize(t.fd)
	if err != nil || w <= 0 || h <= 0 {
		return 80, 24
	}
	return w, h
}

// Render draws v over the whole screen
func (t *Terminal) Render(v session.View) error {
	w, h := t.Size()
	frame := Render(v, w, h)
	// Raw mode disables output newline translation
	frame = strings.ReplaceAll(frame, "\n", "\r\n")
	_, err := io.WriteString(t.out, clearScreen+frame)
	return err
}

// Close restores the terminal
func (t *Terminal) Close() error {
	fmt.Fprint(t.out, leaveAltScreen)
	return term.Restore(t.fd, t.state)
}
