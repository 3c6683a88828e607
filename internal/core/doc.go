// Package core provides the main lockpass vault operations.
//
// Core operations include:
//   - Create: write a new, empty vault protected by a passphrase
//   - Open: decrypt a vault file into a vault.DatabaseFile
//   - Save: re-encrypt with a fresh salt and nonce and atomically replace the file
//   - Diff: compare the entries of two vaults without revealing values
//
// Saving writes a temporary file in the vault's directory, syncs it and
// renames it over the vault, so a failed save leaves the previous vault intact.
// The vault file is not locked; two processes saving the same vault race and
// the last rename wins.
package core
