package tui

import (
	"unicode/utf8"

	"github.com/illarion/lockpass/internal/session"
)

const (
	keyCtrlC     = 0x03
	keyCtrlD     = 0x04
	keyBackspace = 0x08
	keyEsc       = 0x1b
	keyDelete    = 0x7f
)

// decoder turns raw terminal bytes into key presses. Incomplete escape
// sequences and runes are kept until the next feed. A trailing ESC is kept
// too, since the rest of an arrow sequence may arrive in the next read;
// flush turns it into the Esc key once input has gone quiet.
type decoder struct {
	pending []byte
}

// feed decodes b and reports whether an interrupt key was seen. Keys after
// an interrupt are dropped.
func (d *decoder) feed(b []byte) (keys []session.Key, interrupt bool) {
	buf := append(d.pending, b...)
	d.pending = nil

	for len(buf) > 0 {
		c := buf[0]
		switch {
		case c == keyCtrlC || c == keyCtrlD:
			return keys, true

		case c == keyEsc:
			if len(buf) == 1 {
				d.pending = []byte{keyEsc}
				return keys, false
			}
			if buf[1] != '[' && buf[1] != 'O' {
				// Alt+key arrives as ESC then the key
				keys = append(keys, session.Key{Code: session.KeyEsc})
				buf = buf[1:]
				continue
			}
			n := csiLen(buf)
			if n == 0 {
				d.pending = append([]byte(nil), buf...)
				return keys, false
			}
			if k, ok := csiKey(buf[n-1]); ok {
				keys = append(keys, k)
			}
			buf = buf[n:]

		case c == '\r' || c == '\n':
			keys = append(keys, session.Key{Code: session.KeyEnter})
			buf = buf[1:]

		case c == keyDelete || c == keyBackspace:
			keys = append(keys, session.Key{Code: session.KeyBackspace})
			buf = buf[1:]

		case c < 0x20:
			buf = buf[1:]

		default:
			if !utf8.FullRune(buf) {
				d.pending = append([]byte(nil), buf...)
				return keys, false
			}
			r, size := utf8.DecodeRune(buf)
			if r != utf8.RuneError {
				keys = append(keys, session.Rune(r))
			}
			buf = buf[size:]
		}
	}
	return keys, false
}

// escPending reports whether the undecoded input starts with ESC
func (d *decoder) escPending() bool {
	return len(d.pending) > 0 && d.pending[0] == keyEsc
}

// flush gives up on pending input. A pending escape sequence becomes the
// Esc key; a partial rune is dropped.
func (d *decoder) flush() []session.Key {
	esc := d.escPending()
	d.pending = nil
	if esc {
		return []session.Key{{Code: session.KeyEsc}}
	}
	return nil
}

// csiLen returns the length of the escape sequence at the start of b,
// or 0 when it is incomplete
func csiLen(b []byte) int {
	for i := 2; i < len(b); i++ {
		if b[i] >= 0x40 && b[i] <= 0x7e {
			return i + 1
		}
	}
	return 0
}

func csiKey(final byte) (session.Key, bool) {
	switch final {
	case 'A':
		return session.Key{Code: session.KeyUp}, true
	case 'B':
		return session.Key{Code: session.KeyDown}, true
	case 'C':
		return session.Key{Code: session.KeyRight}, true
	case 'D':
		return session.Key{Code: session.KeyLeft}, true
	}
	return session.Key{}, false
}
