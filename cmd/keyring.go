package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/lockpass/internal/crypto"
	"github.com/illarion/lockpass/internal/keyring"
)

// KeyringSave saves the vault password to the OS keyring
func (e *Env) KeyringSave(ctx context.Context, path string) {
	lp := e.LockPass(path)
	if !lp.Exists() {
		HandleError(fmt.Errorf("vault not found: %s", path))
	}

	password, err := e.GetPassword("Enter password: ")
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(password)

	// Verify password is correct
	pass := crypto.NewPassphrase(append([]byte(nil), password...))
	err = lp.VerifyPassword(ctx, pass)
	pass.Destroy()
	if err != nil {
		HandleError(err)
	}

	vaultID, err := registryAt(e.Config.RegistryPath).vaultID(lp.Path(), true)
	if err != nil {
		HandleError(err)
	}

	if err := keyring.SavePassword(vaultID, password); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to save to keyring: %s\n", err)
		os.Exit(1)
	}
	e.Log.Info(ctx, "password saved to keyring", "vault", path)

	fmt.Println("Password saved to keyring")
}

// KeyringDelete removes the vault password from the OS keyring
func (e *Env) KeyringDelete(ctx context.Context, path string) {
	vaultID, err := registryAt(e.Config.RegistryPath).vaultID(path, false)
	if err != nil {
		fmt.Println("No password stored in keyring")
		return
	}

	if err := keyring.DeletePassword(vaultID); err != nil {
		fmt.Println("No password stored in keyring")
		return
	}
	e.Log.Info(ctx, "password removed from keyring", "vault", path)

	fmt.Println("Password removed from keyring")
}

// KeyringStatus reports whether a password is stored for the vault
func (e *Env) KeyringStatus(path string) {
	vaultID, err := registryAt(e.Config.RegistryPath).vaultID(path, false)
	if err != nil {
		fmt.Println("Password: not stored")
		return
	}

	if keyring.HasPassword(vaultID) {
		fmt.Println("Password: stored in keyring")
	} else {
		fmt.Println("Password: not stored")
	}
	if !e.Config.Keyring {
		fmt.Println("Keyring lookups are disabled in the configuration")
	}
}
