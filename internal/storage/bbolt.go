package storage

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	ConfigBucket = []byte("config") // registry version, creation time
	VaultsBucket = []byte("vaults") // path -> VaultInfo JSON
)

// Config keys
var (
	ConfigVersion = []byte("version")
	ConfigCreated = []byte("created")
)

// LockTimeout bounds how long Open waits for another process holding the registry
const LockTimeout = time.Second

var ErrVaultNotRegistered = errors.New("vault not registered")

// VaultInfo describes a vault known to the registry
type VaultInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Created    time.Time `json:"created"`
	LastOpened time.Time `json:"last_opened"`
	Entries    int       `json:"entries"`
}

// Registry provides BBolt-based storage of vault records
type Registry struct {
	db *bolt.DB
}

func boltOptions() *bolt.Options {
	return &bolt.Options{Timeout: LockTimeout}
}

// Open opens or creates the registry at path and makes sure its buckets exist
func Open(path string) (*Registry, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create registry directory: %w", err)
	}
	db, err := bolt.Open(path, 0600, boltOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}

	r := &Registry{db: db}
	if err := r.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// Close closes the registry
func (r *Registry) Close() error {
	return r.db.Close()
}

// Path returns the registry file location
func (r *Registry) Path() string {
	return r.db.Path()
}

func (r *Registry) initialize() error {
	return r.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{ConfigBucket, VaultsBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		config := tx.Bucket(ConfigBucket)
		if config.Get(ConfigVersion) != nil {
			return nil
		}
		if err := config.Put(ConfigVersion, []byte("1")); err != nil {
			return err
		}
		created, _ := time.Now().MarshalBinary()
		return config.Put(ConfigCreated, created)
	})
}

// Created returns when the registry was first initialized
func (r *Registry) Created() (time.Time, error) {
	var created time.Time
	err := r.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(ConfigBucket).Get(ConfigCreated)
		if data == nil {
			return fmt.Errorf("created time not found")
		}
		return created.UnmarshalBinary(data)
	})
	return created, err
}

func vaultKey(path string) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve vault path: %w", err)
	}
	return []byte(abs), nil
}

func newVaultID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate vault ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func getInfo(b *bolt.Bucket, key []byte) (*VaultInfo, error) {
	data := b.Get(key)
	if data == nil {
		return nil, nil
	}
	info := &VaultInfo{}
	if err := json.Unmarshal(data, info); err != nil {
		return nil, fmt.Errorf("corrupt registry record for %s: %w", key, err)
	}
	return info, nil
}

func putInfo(b *bolt.Bucket, info *VaultInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return b.Put([]byte(info.Path), data)
}

// Get returns the record for the vault at path
func (r *Registry) Get(path string) (*VaultInfo, error) {
	key, err := vaultKey(path)
	if err != nil {
		return nil, err
	}
	var info *VaultInfo
	err = r.db.View(func(tx *bolt.Tx) error {
		info, err = getInfo(tx.Bucket(VaultsBucket), key)
		return err
	})
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("%w: %s", ErrVaultNotRegistered, key)
	}
	return info, nil
}

// GetOrCreateVaultID returns the vault id recorded for path, registering
// the vault with a fresh id if it is unknown
func (r *Registry) GetOrCreateVaultID(path string) (string, error) {
	key, err := vaultKey(path)
	if err != nil {
		return "", err
	}
	var id string
	err = r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(VaultsBucket)
		info, err := getInfo(b, key)
		if err != nil {
			return err
		}
		if info != nil {
			id = info.ID
			return nil
		}
		id, err = newVaultID()
		if err != nil {
			return err
		}
		return putInfo(b, &VaultInfo{
			ID:      id,
			Name:    vaultName(string(key)),
			Path:    string(key),
			Created: time.Now(),
		})
	})
	return id, err
}

// RecordOpen updates the last-opened time and entry count of the vault at
// path, registering it if needed, and returns the stored record
func (r *Registry) RecordOpen(path string, entries int) (*VaultInfo, error) {
	key, err := vaultKey(path)
	if err != nil {
		return nil, err
	}
	var info *VaultInfo
	err = r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(VaultsBucket)
		info, err = getInfo(b, key)
		if err != nil {
			return err
		}
		now := time.Now()
		if info == nil {
			id, err := newVaultID()
			if err != nil {
				return err
			}
			info = &VaultInfo{ID: id, Name: vaultName(string(key)), Path: string(key), Created: now}
		}
		info.LastOpened = now
		info.Entries = entries
		return putInfo(b, info)
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// List returns every registered vault ordered by name, then path
func (r *Registry) List() ([]VaultInfo, error) {
	var vaults []VaultInfo
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(VaultsBucket).ForEach(func(k, v []byte) error {
			var info VaultInfo
			if err := json.Unmarshal(v, &info); err != nil {
				return fmt.Errorf("corrupt registry record for %s: %w", k, err)
			}
			vaults = append(vaults, info)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(vaults, func(i, j int) bool {
		if vaults[i].Name != vaults[j].Name {
			return vaults[i].Name < vaults[j].Name
		}
		return vaults[i].Path < vaults[j].Path
	})
	return vaults, nil
}

// Remove forgets the vault at path. Removing an unknown vault is not an error.
func (r *Registry) Remove(path string) error {
	key, err := vaultKey(path)
	if err != nil {
		return err
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(VaultsBucket).Delete(key)
	})
}

// Prune removes records whose vault file no longer exists and returns them
func (r *Registry) Prune() ([]VaultInfo, error) {
	vaults, err := r.List()
	if err != nil {
		return nil, err
	}
	var removed []VaultInfo
	for _, v := range vaults {
		if _, err := os.Stat(v.Path); !os.IsNotExist(err) {
			continue
		}
		if err := r.Remove(v.Path); err != nil {
			return removed, err
		}
		removed = append(removed, v)
	}
	return removed, nil
}

func vaultName(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

// Compact creates a compacted copy of the registry, removing unused space.
func (r *Registry) Compact() error {
	srcPath := r.db.Path()
	tmpPath := srcPath + ".compact"

	dst, err := bolt.Open(tmpPath, 0600, boltOptions())
	if err != nil {
		return fmt.Errorf("failed to create compact registry: %w", err)
	}

	err = r.db.View(func(srcTx *bolt.Tx) error {
		return dst.Update(func(dstTx *bolt.Tx) error {
			return srcTx.ForEach(func(name []byte, srcBucket *bolt.Bucket) error {
				dstBucket, err := dstTx.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				return srcBucket.ForEach(func(k, v []byte) error {
					return dstBucket.Put(k, v)
				})
			})
		})
	})

	if err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy registry: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close compact registry: %w", err)
	}

	if err := r.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close source registry: %w", err)
	}

	backupPath := srcPath + ".backup"
	if err := os.Rename(srcPath, backupPath); err != nil {
		return fmt.Errorf("failed to backup original: %w", err)
	}
	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Rename(backupPath, srcPath) // rollback
		return fmt.Errorf("failed to replace registry: %w", err)
	}
	os.Remove(backupPath)

	r.db, err = bolt.Open(srcPath, 0600, boltOptions())
	if err != nil {
		return fmt.Errorf("failed to reopen registry: %w", err)
	}
	return nil
}
