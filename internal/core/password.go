package core

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/illarion/lockpass/internal/crypto"
)

// PasswordAttempts bounds the confirmation loop of ReadPasswordConfirm
const PasswordAttempts = 3

// Prompter reads passwords and answers from a terminal, or line by line
// when input is not a terminal
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	// readPassword reads one password without echo; nil means line mode
	readPassword func() ([]byte, error)
}

// NewPrompter prompts on out and reads from in. Terminal input is read
// without echo.
func NewPrompter(in *os.File, out io.Writer) *Prompter {
	p := NewLinePrompter(in, out)
	if fd := int(in.Fd()); term.IsTerminal(fd) {
		p.readPassword = func() ([]byte, error) { return term.ReadPassword(fd) }
	}
	return p
}

// NewLinePrompter reads every answer as a line from in
func NewLinePrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Interactive reports whether input comes from a terminal
func (p *Prompter) Interactive() bool {
	return p.readPassword != nil
}

// ReadPassword reads a password. The caller should wrap or clear the result.
func (p *Prompter) ReadPassword(prompt string) ([]byte, error) {
	fmt.Fprint(p.out, prompt)

	if p.readPassword != nil {
		password, err := p.readPassword()
		fmt.Fprintln(p.out)
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		return password, nil
	}

	line, err := p.in.ReadBytes('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		crypto.ClearBytes(line)
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	n := len(line)
	for n > 0 && (line[n-1] == '\n' || line[n-1] == '\r') {
		n--
	}
	password := make([]byte, n)
	copy(password, line)
	crypto.ClearBytes(line)
	return password, nil
}

// ReadPasswordConfirm reads a new password twice, retrying up to
// PasswordAttempts times when the two do not match or are empty
func (p *Prompter) ReadPasswordConfirm() ([]byte, error) {
	for attempt := 1; attempt <= PasswordAttempts; attempt++ {
		password1, err := p.ReadPassword("Enter password: ")
		if err != nil {
			return nil, err
		}
		password2, err := p.ReadPassword("Confirm password: ")
		if err != nil {
			crypto.ClearBytes(password1)
			return nil, err
		}

		match := len(password1) > 0 && crypto.ConstantTimeCompare(password1, password2)
		crypto.ClearBytes(password2)
		if match {
			return password1, nil
		}
		crypto.ClearBytes(password1)

		if attempt < PasswordAttempts {
			fmt.Fprintln(p.out, "Passwords do not match or are empty, try again")
		}
	}
	return nil, ErrPasswordMismatch
}

// ReadLine reads one line of plain input
func (p *Prompter) ReadLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// GetPasswordFromEnv reads password from LOCKPASS_PASSWORD environment variable
func GetPasswordFromEnv() []byte {
	password := os.Getenv("LOCKPASS_PASSWORD")
	if password == "" {
		return nil
	}
	return []byte(password)
}
