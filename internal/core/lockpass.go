package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/illarion/lockpass/internal/crypto"
	"github.com/illarion/lockpass/internal/logging"
	"github.com/illarion/lockpass/internal/storage"
	"github.com/illarion/lockpass/internal/vault"
)

const (
	DirPermSecure  = 0700 // Directory: owner rwx only
	FilePermSecure = 0600 // File: owner rw only
)

var (
	ErrNotFound         = errors.New("vault not found")
	ErrAlreadyExists    = errors.New("vault already exists")
	ErrWrongPassword    = errors.New("wrong password")
	ErrCorruptVault     = errors.New("vault file is corrupt")
	ErrPasswordRequired = errors.New("password required")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// Registry records vaults as they are created and opened
type Registry interface {
	RecordOpen(path string, entries int) (*storage.VaultInfo, error)
}

// Option configures a LockPass
type Option func(*LockPass)

// WithFormat sets the frame version written on save
func WithFormat(v crypto.FormatVersion) Option {
	return func(l *LockPass) { l.format = v }
}

// WithLogger sets the logger
func WithLogger(log logging.Logger) Option {
	return func(l *LockPass) { l.log = log }
}

// WithRegistry records every successful create and open in r
func WithRegistry(r Registry) Option {
	return func(l *LockPass) { l.registry = r }
}

// LockPass manages one vault file
type LockPass struct {
	path     string
	format   crypto.FormatVersion
	log      logging.Logger
	registry Registry
}

// New creates a LockPass for the vault at path
func New(path string, opts ...Option) *LockPass {
	l := &LockPass{
		path:   path,
		format: crypto.FormatV0,
		log:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.With("vault", path)
	return l
}

// Path returns the vault file path
func (l *LockPass) Path() string {
	return l.path
}

// Exists reports whether the vault file is present
func (l *LockPass) Exists() bool {
	_, err := os.Stat(l.path)
	return err == nil
}

// Create writes a new empty vault. On success the returned database owns pass.
func (l *LockPass) Create(ctx context.Context, pass *crypto.Passphrase, author, comment string) (*vault.DatabaseFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if pass == nil {
		return nil, ErrPasswordRequired
	}
	if l.Exists() {
		return nil, ErrAlreadyExists
	}
	if err := os.MkdirAll(filepath.Dir(l.path), DirPermSecure); err != nil {
		return nil, fmt.Errorf("failed to create vault directory: %w", err)
	}

	db := vault.New(author, comment, pass)
	if err := l.Save(ctx, db); err != nil {
		db.SetPassword(nil)
		return nil, err
	}

	l.log.Info(ctx, "vault created", "format", int(l.format))
	l.record(ctx, db)
	return db, nil
}

// Open decrypts the vault with pass. On success the returned database owns
// pass and its last access time is refreshed; on failure nothing is written
// and pass is left to the caller.
func (l *LockPass) Open(ctx context.Context, pass *crypto.Passphrase) (*vault.DatabaseFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if pass == nil {
		return nil, ErrPasswordRequired
	}

	db, version, err := l.read(pass)
	if err != nil {
		l.log.Warn(ctx, "vault open failed", "error", err)
		return nil, err
	}

	// Never downgrade a versioned vault on save
	if version > l.format {
		l.format = version
	}

	db.Touch()
	db.SetPassword(pass)

	l.log.Info(ctx, "vault opened", "entries", db.Len(), "format", int(version))
	l.record(ctx, db)
	return db, nil
}

// VerifyPassword checks pass against the vault without keeping the contents
func (l *LockPass) VerifyPassword(ctx context.Context, pass *crypto.Passphrase) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db, _, err := l.read(pass)
	if err != nil {
		return err
	}
	db.Wipe()
	return nil
}

func (l *LockPass) read(pass *crypto.Passphrase) (*vault.DatabaseFile, crypto.FormatVersion, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, l.path)
		}
		return nil, 0, fmt.Errorf("failed to open vault: %w", err)
	}
	defer f.Close()

	plaintext, version, err := crypto.Decrypt(f, pass)
	if err != nil {
		switch {
		case errors.Is(err, crypto.ErrAuthFailed):
			return nil, 0, ErrWrongPassword
		case errors.Is(err, crypto.ErrInvalidHeader), errors.Is(err, crypto.ErrInvalidVersion):
			return nil, 0, fmt.Errorf("%w: %v", ErrCorruptVault, err)
		}
		return nil, 0, err
	}
	defer crypto.ClearBytes(plaintext)

	db, err := vault.Decode(plaintext)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrCorruptVault, err)
	}
	return db, version, nil
}

// Save encrypts db with its passphrase and atomically replaces the vault file
func (l *LockPass) Save(ctx context.Context, db *vault.DatabaseFile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pass := db.Password()
	if pass == nil {
		return ErrPasswordRequired
	}

	plaintext, err := db.Encode()
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(plaintext)

	if err := l.atomicWrite(func(f *os.File) error {
		return crypto.Encrypt(f, plaintext, pass, l.format)
	}); err != nil {
		l.log.Error(ctx, "vault save failed", "error", err)
		return err
	}

	l.log.Debug(ctx, "vault saved", "entries", db.Len())
	return nil
}

// atomicWrite writes through a temp file in the vault's directory and
// renames it into place
func (l *LockPass) atomicWrite(write func(*os.File) error) error {
	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(l.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := write(tmp); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync vault: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close vault: %w", err)
	}
	if err := os.Chmod(tmpPath, FilePermSecure); err != nil {
		return fmt.Errorf("failed to set vault permissions: %w", err)
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		return fmt.Errorf("failed to replace vault: %w", err)
	}
	committed = true
	return nil
}

func (l *LockPass) record(ctx context.Context, db *vault.DatabaseFile) {
	if l.registry == nil {
		return
	}
	if _, err := l.registry.RecordOpen(l.path, db.Len()); err != nil {
		l.log.Warn(ctx, "failed to update registry", "error", err)
	}
}
