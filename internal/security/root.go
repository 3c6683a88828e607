package security

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrPathEscapes  = errors.New("path escapes directory")
	ErrAbsolutePath = errors.New("absolute paths are not allowed")
	ErrEmptyPath    = errors.New("empty path not allowed")
)

// Root confines file operations to one directory using os.Root.
// lockpass uses it to resolve vault names under the vault directory and to
// write extracted attachments, whose names come from vault contents.
type Root struct {
	root *os.Root
	dir  string
}

// OpenRoot opens dir, creating it with mode 0700 when missing
func OpenRoot(dir string) (*Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	if err := os.MkdirAll(abs, 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory: %w", err)
	}
	return &Root{root: root, dir: abs}, nil
}

// Close releases the directory handle
func (r *Root) Close() error {
	if r.root != nil {
		return r.root.Close()
	}
	return nil
}

// Dir returns the absolute directory path
func (r *Root) Dir() string {
	return r.dir
}

// Clean validates a relative path and returns it in slash form.
// Empty, absolute and escaping paths are rejected.
func (r *Root) Clean(p string) (string, error) {
	if p == "" {
		return "", ErrEmptyPath
	}
	if !filepath.IsLocal(p) {
		if filepath.IsAbs(p) {
			return "", fmt.Errorf("%w: %s", ErrAbsolutePath, p)
		}
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, p)
	}

	rel, err := filepath.Rel(r.dir, filepath.Join(r.dir, filepath.Clean(p)))
	if err != nil {
		return "", fmt.Errorf("failed to compute relative path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, p)
	}
	return filepath.ToSlash(rel), nil
}

// Join validates p and returns its absolute path inside the root
func (r *Root) Join(p string) (string, error) {
	clean, err := r.Clean(filepath.FromSlash(p))
	if err != nil {
		return "", err
	}
	return filepath.Join(r.dir, filepath.FromSlash(clean)), nil
}

// WriteFile writes data to p inside the root, creating parent directories
func (r *Root) WriteFile(p string, data []byte, perm os.FileMode) error {
	clean, err := r.Clean(filepath.FromSlash(p))
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	local := filepath.FromSlash(clean)
	if err := r.mkdirAll(filepath.Dir(local)); err != nil {
		return err
	}

	f, err := r.root.OpenFile(local, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// mkdirAll creates dir and its parents one component at a time so every
// step is resolved inside the root
func (r *Root) mkdirAll(dir string) error {
	if dir == "." {
		return nil
	}
	current := ""
	for _, part := range strings.Split(dir, string(filepath.Separator)) {
		current = filepath.Join(current, part)
		if err := r.root.Mkdir(current, 0700); err != nil && !errors.Is(err, os.ErrExist) {
			return err
		}
	}
	return nil
}

// ReadFile reads p inside the root
func (r *Root) ReadFile(p string) ([]byte, error) {
	clean, err := r.Clean(filepath.FromSlash(p))
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	f, err := r.root.Open(filepath.FromSlash(clean))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Stat stats p inside the root
func (r *Root) Stat(p string) (os.FileInfo, error) {
	clean, err := r.Clean(filepath.FromSlash(p))
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	return r.root.Stat(filepath.FromSlash(clean))
}
