package crypto

import (
	"bufio"
	"bytes"
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	NonceSize  = 19                        // STREAM nonce prefix stored in the vault
	TagSize    = chacha20poly1305.Overhead // Poly1305 authentication tag size
	HeaderSize = SaltSize + NonceSize      // Unversioned header: salt then nonce

	streamSize = chacha20poly1305.NonceSizeX
)

// FormatVersion selects the on-disk frame written by Encrypt.
type FormatVersion uint8

const (
	// FormatV0 is the bare [salt][nonce][ciphertext] frame.
	FormatV0 FormatVersion = 0
	// FormatV1 prefixes the V0 frame with the magic "LKPV" and a version byte.
	FormatV1 FormatVersion = 1
)

var formatMagic = []byte("LKPV")

var (
	ErrInvalidHeader  = errors.New("invalid vault header")
	ErrAuthFailed     = errors.New("authentication failed")
	ErrInvalidVersion = errors.New("unsupported vault format version")
)

// Encryptor seals and opens the single chunk of a vault
type Encryptor struct {
	key  []byte
	aead cipher.AEAD
}

// NewEncryptor creates a new encryptor with the given key. The encryptor
// takes ownership of key and wipes it in Destroy.
func NewEncryptor(key []byte) (*Encryptor, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return &Encryptor{key: key, aead: aead}, nil
}

// Seal encrypts plaintext as the first chunk of a STREAM with the given
// 19-byte nonce prefix.
func (e *Encryptor) Seal(prefix, plaintext []byte) ([]byte, error) {
	nonce, err := streamNonce(prefix)
	if err != nil {
		return nil, err
	}
	defer ClearBytes(nonce)
	return e.aead.Seal(nil, nonce, plaintext, nil), nil
}

// Open authenticates and decrypts the first chunk of a STREAM.
// No plaintext is returned when authentication fails.
func (e *Encryptor) Open(prefix, ciphertext []byte) ([]byte, error) {
	nonce, err := streamNonce(prefix)
	if err != nil {
		return nil, err
	}
	defer ClearBytes(nonce)
	if len(ciphertext) < TagSize {
		return nil, ErrAuthFailed
	}
	plaintext, err := e.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

// Destroy clears the encryptor's key from memory
func (e *Encryptor) Destroy() {
	ClearBytes(e.key)
}

// streamNonce expands a nonce prefix into the nonce of the first,
// non-final STREAM chunk: prefix || BE32(counter=0) || last-block flag 0.
func streamNonce(prefix []byte) ([]byte, error) {
	if len(prefix) != NonceSize {
		return nil, fmt.Errorf("%w: nonce must be %d bytes, got %d", ErrInvalidHeader, NonceSize, len(prefix))
	}
	nonce := make([]byte, streamSize)
	copy(nonce, prefix)
	binary.BigEndian.PutUint32(nonce[NonceSize:], 0)
	nonce[streamSize-1] = 0
	return nonce, nil
}

// Encrypt writes plaintext to w as a complete vault frame, using a fresh
// salt and nonce and a key derived from pass.
func Encrypt(w io.Writer, plaintext []byte, pass *Passphrase, version FormatVersion) error {
	if version != FormatV0 && version != FormatV1 {
		return fmt.Errorf("%w: %d", ErrInvalidVersion, version)
	}

	salt, err := NewSalt()
	if err != nil {
		return err
	}
	defer ClearBytes(salt)

	nonce, err := GenerateRandom(NonceSize)
	if err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	defer ClearBytes(nonce)

	enc, err := newPassphraseEncryptor(pass, salt)
	if err != nil {
		return err
	}
	defer enc.Destroy()

	ciphertext, err := enc.Seal(nonce, plaintext)
	if err != nil {
		return fmt.Errorf("failed to encrypt vault: %w", err)
	}

	if version == FormatV1 {
		if _, err := w.Write(append(append([]byte(nil), formatMagic...), byte(FormatV1))); err != nil {
			return fmt.Errorf("failed to write version header: %w", err)
		}
	}
	if _, err := w.Write(salt); err != nil {
		return fmt.Errorf("failed to write salt: %w", err)
	}
	if _, err := w.Write(nonce); err != nil {
		return fmt.Errorf("failed to write nonce: %w", err)
	}
	if _, err := w.Write(ciphertext); err != nil {
		return fmt.Errorf("failed to write ciphertext: %w", err)
	}
	return nil
}

// Decrypt reads a vault frame from r and returns the authenticated plaintext.
// The caller owns the plaintext and should ClearBytes it after use.
func Decrypt(r io.Reader, pass *Passphrase) ([]byte, FormatVersion, error) {
	br := bufio.NewReader(r)

	version := FormatV0
	if hdr, err := br.Peek(len(formatMagic) + 1); err == nil && bytes.Equal(hdr[:len(formatMagic)], formatMagic) {
		if FormatVersion(hdr[len(formatMagic)]) != FormatV1 {
			return nil, 0, fmt.Errorf("%w: %d", ErrInvalidVersion, hdr[len(formatMagic)])
		}
		version = FormatV1
		if _, err := br.Discard(len(formatMagic) + 1); err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
		}
	}

	salt := make([]byte, SaltSize)
	defer ClearBytes(salt)
	if _, err := io.ReadFull(br, salt); err != nil {
		return nil, 0, fmt.Errorf("%w: salt is truncated: %v", ErrInvalidHeader, err)
	}

	nonce := make([]byte, NonceSize)
	defer ClearBytes(nonce)
	if _, err := io.ReadFull(br, nonce); err != nil {
		return nil, 0, fmt.Errorf("%w: nonce is truncated: %v", ErrInvalidHeader, err)
	}

	ciphertext, err := io.ReadAll(br)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read ciphertext: %w", err)
	}

	enc, err := newPassphraseEncryptor(pass, salt)
	if err != nil {
		return nil, 0, err
	}
	defer enc.Destroy()

	plaintext, err := enc.Open(nonce, ciphertext)
	if err != nil {
		return nil, 0, err
	}
	return plaintext, version, nil
}

func newPassphraseEncryptor(pass *Passphrase, salt []byte) (*Encryptor, error) {
	var key []byte
	err := pass.Use(func(password []byte) error {
		var err error
		key, err = DeriveKey(password, salt)
		return err
	})
	if err != nil {
		return nil, err
	}

	enc, err := NewEncryptor(key)
	if err != nil {
		ClearBytes(key)
		return nil, fmt.Errorf("%w: %v", ErrKeyDerivation, err)
	}
	return enc, nil
}
