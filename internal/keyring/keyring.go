// Package keyring stores vault passphrases in the OS keyring, keyed by the
// vault id kept in the registry.
package keyring

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const serviceName = "lockpass"

// ErrNotFound is returned when no passphrase is stored for a vault
var ErrNotFound = keyring.ErrNotFound

// SavePassword stores a password in the OS keyring
func SavePassword(vaultID string, password []byte) error {
	return keyring.Set(serviceName, vaultID, string(password))
}

// GetPassword retrieves a password from the OS keyring
func GetPassword(vaultID string) ([]byte, error) {
	s, err := keyring.Get(serviceName, vaultID)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// DeletePassword removes a password from the OS keyring
func DeletePassword(vaultID string) error {
	err := keyring.Delete(serviceName, vaultID)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// HasPassword checks if a password is stored in the keyring
func HasPassword(vaultID string) bool {
	_, err := keyring.Get(serviceName, vaultID)
	return err == nil
}
