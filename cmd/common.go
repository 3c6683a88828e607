package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/illarion/lockpass/internal/config"
	"github.com/illarion/lockpass/internal/core"
	"github.com/illarion/lockpass/internal/crypto"
	"github.com/illarion/lockpass/internal/keyring"
	"github.com/illarion/lockpass/internal/logging"
	"github.com/illarion/lockpass/internal/security"
	"github.com/illarion/lockpass/internal/storage"
	"github.com/illarion/lockpass/internal/tui"
	"github.com/illarion/lockpass/internal/vault"
)

// Env carries the loaded configuration and logger shared by all commands
type Env struct {
	Config *config.Config
	Log    logging.Logger

	// Prompter is shared by every prompt so piped input is read by one buffer
	Prompter *core.Prompter

	logCloser io.Closer
}

// Setup loads the configuration and opens the log. It exits on error.
func Setup() *Env {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		HandleError(err)
	}
	log, closer, err := logging.Open(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		HandleError(err)
	}
	return &Env{
		Config:    cfg,
		Log:       log,
		Prompter:  core.NewPrompter(os.Stdin, os.Stderr),
		logCloser: closer,
	}
}

// Close flushes and closes the log
func (e *Env) Close() {
	if e.logCloser != nil {
		e.logCloser.Close()
	}
}

// VaultPath resolves the -p and -d flags to a vault file path
func (e *Env) VaultPath(path, name string) string {
	switch {
	case path != "" && name != "":
		HandleError(errors.New("use either -p or -d, not both"))
	case path != "":
		return path
	case name != "":
		p, err := security.ResolveVaultPath(e.Config.VaultDir, name)
		if err != nil {
			HandleError(err)
		}
		return p
	}
	HandleError(errors.New("no vault given, use -p <path> or -d <name>"))
	return ""
}

// LockPass returns the vault manager for path, recording opens in the registry
func (e *Env) LockPass(path string) *core.LockPass {
	return core.New(path,
		core.WithFormat(crypto.FormatVersion(e.Config.FormatVersion)),
		core.WithLogger(e.Log),
		core.WithRegistry(registryAt(e.Config.RegistryPath)),
	)
}

// registryAt opens the registry for each record so no command holds its
// lock for longer than one transaction
type registryAt string

func (r registryAt) open() (*storage.Registry, error) {
	return storage.Open(string(r))
}

func (r registryAt) RecordOpen(path string, entries int) (*storage.VaultInfo, error) {
	reg, err := r.open()
	if err != nil {
		return nil, err
	}
	defer reg.Close()
	return reg.RecordOpen(path, entries)
}

func (r registryAt) vaultID(path string, create bool) (string, error) {
	reg, err := r.open()
	if err != nil {
		return "", err
	}
	defer reg.Close()
	if create {
		return reg.GetOrCreateVaultID(path)
	}
	info, err := reg.Get(path)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// GetPassword retrieves password from environment or prompts user.
// The caller is responsible for calling crypto.ClearBytes on the returned password.
func (e *Env) GetPassword(prompt string) ([]byte, error) {
	if password := core.GetPasswordFromEnv(); password != nil {
		return password, nil
	}
	return e.Prompter.ReadPassword(prompt)
}

// GetPasswordForNew checks the environment first, then prompts with confirmation
func (e *Env) GetPasswordForNew() ([]byte, error) {
	if password := core.GetPasswordFromEnv(); password != nil {
		return password, nil
	}
	return e.Prompter.ReadPasswordConfirm()
}

// Unlock opens the vault, trying the OS keyring before asking for the password
func (e *Env) Unlock(ctx context.Context, lp *core.LockPass) *vault.DatabaseFile {
	if !lp.Exists() {
		HandleError(fmt.Errorf("%w: %s", core.ErrNotFound, lp.Path()))
	}

	if db := e.unlockFromKeyring(ctx, lp); db != nil {
		return db
	}

	fromEnv := os.Getenv("LOCKPASS_PASSWORD") != ""
	for attempt := 1; ; attempt++ {
		password, err := e.GetPassword("Enter password: ")
		if err != nil {
			HandleError(err)
		}
		pass := crypto.NewPassphrase(password)

		db, err := lp.Open(ctx, pass)
		if err == nil {
			return db
		}
		pass.Destroy()
		if !errors.Is(err, core.ErrWrongPassword) || fromEnv || attempt >= core.PasswordAttempts {
			HandleError(err)
		}
		fmt.Fprintln(os.Stderr, "Wrong password, try again")
	}
}

func (e *Env) unlockFromKeyring(ctx context.Context, lp *core.LockPass) *vault.DatabaseFile {
	if !e.Config.Keyring {
		return nil
	}
	id, err := registryAt(e.Config.RegistryPath).vaultID(lp.Path(), false)
	if err != nil {
		return nil
	}
	password, err := keyring.GetPassword(id)
	if err != nil {
		return nil
	}
	pass := crypto.NewPassphrase(password)
	db, err := lp.Open(ctx, pass)
	if err != nil {
		pass.Destroy()
		e.Log.Warn(ctx, "keyring password rejected, falling back to prompt", "error", err)
		fmt.Fprintln(os.Stderr, "Warning: password in keyring does not open this vault")
		return nil
	}
	return db
}

// Save writes db back, exiting on error
func Save(ctx context.Context, lp *core.LockPass, db *vault.DatabaseFile) {
	if err := lp.Save(ctx, db); err != nil {
		HandleError(err)
	}
}

// HandleError prints a user-facing message for err and exits
func HandleError(err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Run 'lockpass new' first\n")
	case errors.Is(err, core.ErrAlreadyExists):
		fmt.Fprintf(os.Stderr, "Error: vault already exists\n")
		fmt.Fprintf(os.Stderr, "Use 'lockpass open' to edit it\n")
	case errors.Is(err, core.ErrWrongPassword):
		fmt.Fprintf(os.Stderr, "Error: wrong password\n")
	case errors.Is(err, core.ErrCorruptVault):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "The file is damaged or is not a lockpass vault\n")
	case errors.Is(err, core.ErrPasswordMismatch):
		fmt.Fprintf(os.Stderr, "Error: passwords do not match\n")
	case errors.Is(err, security.ErrInvalidName):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Vault names are plain file names without path separators\n")
	case errors.Is(err, tui.ErrNotTerminal):
		fmt.Fprintf(os.Stderr, "Error: 'lockpass open' needs an interactive terminal\n")
	case errors.Is(err, vault.ErrEntryNotFound):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Entry ids are listed by 'lockpass entries'\n")
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	os.Exit(1)
}

func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.1f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}

// ResolveVault treats arg as a file path when it exists and as a vault
// name otherwise
func (e *Env) ResolveVault(arg string) string {
	if _, err := os.Stat(arg); err == nil {
		return arg
	}
	return e.VaultPath("", arg)
}
