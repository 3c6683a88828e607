package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"github.com/awnumar/memguard"
)

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	memguard.WipeBytes(b)
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom generates n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}

// Passphrase holds a vault password for the lifetime of a session.
// The bytes live encrypted inside a memguard enclave and are only
// decrypted into locked memory for the duration of Use.
type Passphrase struct {
	enclave *memguard.Enclave
}

// NewPassphrase takes ownership of password and wipes the caller's slice.
func NewPassphrase(password []byte) *Passphrase {
	p := &Passphrase{}
	if len(password) > 0 {
		// NewEnclave wipes the source buffer
		p.enclave = memguard.NewEnclave(password)
	}
	return p
}

// Use exposes the plaintext password to fn. The buffer is destroyed
// when fn returns and must not be retained.
func (p *Passphrase) Use(fn func(password []byte) error) error {
	if p == nil || p.enclave == nil {
		return fn(nil)
	}
	buf, err := p.enclave.Open()
	if err != nil {
		return fmt.Errorf("failed to open passphrase enclave: %w", err)
	}
	defer buf.Destroy()
	return fn(buf.Bytes())
}

// Equal reports whether other matches the held password in constant time.
func (p *Passphrase) Equal(other []byte) bool {
	var equal bool
	_ = p.Use(func(password []byte) error {
		equal = ConstantTimeCompare(password, other)
		return nil
	})
	return equal
}

// Clone returns an independent copy of the passphrase.
func (p *Passphrase) Clone() *Passphrase {
	var clone *Passphrase
	_ = p.Use(func(password []byte) error {
		cp := make([]byte, len(password))
		copy(cp, password)
		clone = NewPassphrase(cp)
		return nil
	})
	if clone == nil {
		clone = &Passphrase{}
	}
	return clone
}

// Destroy drops the enclave. Subsequent Use calls see an empty password.
func (p *Passphrase) Destroy() {
	if p != nil {
		p.enclave = nil
	}
}
