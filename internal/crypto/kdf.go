package crypto

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	SaltSize = 32 // Salt size in bytes
	KeySize  = 32 // XChaCha20-Poly1305 key size

	// Argon2id parameters. Changing any of them makes existing vaults unreadable.
	ArgonTime    = 8
	ArgonMemory  = 16 * 1024 // KiB
	ArgonThreads = 8
)

var ErrKeyDerivation = errors.New("key derivation failed")

// DeriveKey derives a 32-byte key from password and salt using Argon2id.
// The caller owns the returned key and must ClearBytes it.
func DeriveKey(password, salt []byte) ([]byte, error) {
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d", ErrKeyDerivation, SaltSize, len(salt))
	}
	return argon2.IDKey(password, salt, ArgonTime, ArgonMemory, ArgonThreads, KeySize), nil
}

// NewSalt returns a fresh random salt
func NewSalt() ([]byte, error) {
	salt, err := GenerateRandom(SaltSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}
