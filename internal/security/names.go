package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// VaultExt is appended to vault names to form file names
const VaultExt = ".vault"

var ErrInvalidName = errors.New("invalid vault name")

// ValidateVaultName checks that name can be used as a single file name in
// the vault directory
func ValidateVaultName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: %q starts with a dot", ErrInvalidName, name)
	case !filepath.IsLocal(name):
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%w: %q contains control characters", ErrInvalidName, name)
		}
	}
	return nil
}

// VaultFileName returns the file name of the vault called name
func VaultFileName(name string) string {
	if strings.HasSuffix(name, VaultExt) {
		return name
	}
	return name + VaultExt
}

// ResolveVaultPath returns the path of the vault called name inside dir.
// An empty dir means the working directory.
func ResolveVaultPath(dir, name string) (string, error) {
	if err := ValidateVaultName(name); err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	root, err := OpenRoot(dir)
	if err != nil {
		return "", err
	}
	defer root.Close()
	return root.Join(VaultFileName(name))
}
