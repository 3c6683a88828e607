// Package storage provides the BBolt registry of known lockpass vaults.
//
// The registry holds no secrets. It uses two buckets:
//   - config: registry format version and creation time
//   - vaults: one JSON record per vault, keyed by absolute vault path
//
// Each record carries a stable random vault id used as the OS keyring
// account, so keyring entries survive a vault being rewritten in place.
// BBolt's file lock serializes concurrent lockpass processes; Open waits
// at most LockTimeout for it.
package storage
