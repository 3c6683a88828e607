package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/illarion/lockpass/internal/crypto"
)

var (
	ErrEntryNotFound = errors.New("entry not found")
	ErrFileNotFound  = errors.New("attachment not found")
	ErrInvalidField  = errors.New("invalid entry field")
	ErrMalformed     = errors.New("malformed vault contents")
)

// DatabaseFile is the decrypted vault
type DatabaseFile struct {
	entries    []PasswordEntry
	config     Config
	lastAccess time.Time

	password *crypto.Passphrase
	now      func() time.Time
}

// wireDatabase is the serialized form. The password is deliberately absent.
type wireDatabase struct {
	Entries    []PasswordEntry `json:"entries"`
	Config     Config          `json:"config"`
	LastAccess time.Time       `json:"last_access"`
}

// New creates an empty vault owned by password
func New(author, comment string, password *crypto.Passphrase) *DatabaseFile {
	d := &DatabaseFile{
		entries:  make([]PasswordEntry, 0),
		config:   Config{Author: author, Comment: comment},
		password: password,
		now:      time.Now,
	}
	d.lastAccess = d.clock()
	return d
}

// Decode parses the plaintext of a vault
func Decode(data []byte) (*DatabaseFile, error) {
	var w wireDatabase
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if w.Entries == nil {
		w.Entries = make([]PasswordEntry, 0)
	}
	for i := range w.Entries {
		if w.Entries[i].ID == "" {
			return nil, fmt.Errorf("%w: entry %d has no id", ErrMalformed, i)
		}
	}
	return &DatabaseFile{
		entries:    w.Entries,
		config:     w.Config,
		lastAccess: w.LastAccess,
		now:        time.Now,
	}, nil
}

// Encode serializes the vault for encryption. The caller should
// crypto.ClearBytes the result once it has been sealed.
func (d *DatabaseFile) Encode() ([]byte, error) {
	w := wireDatabase{
		Entries:    d.entries,
		Config:     d.config,
		LastAccess: d.lastAccess,
	}
	for i := range w.Entries {
		if w.Entries[i].Files == nil {
			w.Entries[i].Files = make([]CustomFile, 0)
		}
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal vault: %w", err)
	}
	return data, nil
}

// SetClock replaces the time source used for timestamps
func (d *DatabaseFile) SetClock(now func() time.Time) {
	d.now = now
}

func (d *DatabaseFile) clock() time.Time {
	if d.now == nil {
		d.now = time.Now
	}
	// Strip the monotonic reading so comparisons match what gets serialized
	return d.now().Round(0)
}

// SetPassword attaches the passphrase used to encrypt this vault on save
func (d *DatabaseFile) SetPassword(p *crypto.Passphrase) {
	d.password = p
}

// Password returns the passphrase held for this session
func (d *DatabaseFile) Password() *crypto.Passphrase {
	return d.password
}

// Config returns the vault metadata
func (d *DatabaseFile) Config() Config {
	return d.config
}

// LastAccess returns when the vault was last opened
func (d *DatabaseFile) LastAccess() time.Time {
	return d.lastAccess
}

// Touch records a successful open
func (d *DatabaseFile) Touch() {
	d.lastAccess = d.clock()
}

// Len returns the number of entries
func (d *DatabaseFile) Len() int {
	return len(d.entries)
}

// Entries returns a snapshot of all entries in display order.
// Entry values share their buffers with the vault and are only valid
// until the next mutation.
func (d *DatabaseFile) Entries() []PasswordEntry {
	out := make([]PasswordEntry, len(d.entries))
	copy(out, d.entries)
	return out
}

// IDAt returns the id of the entry at display position i
func (d *DatabaseFile) IDAt(i int) (string, bool) {
	if i < 0 || i >= len(d.entries) {
		return "", false
	}
	return d.entries[i].ID, true
}

// IndexOf returns the display position of id, or -1
func (d *DatabaseFile) IndexOf(id string) int {
	for i := range d.entries {
		if d.entries[i].ID == id {
			return i
		}
	}
	return -1
}

func (d *DatabaseFile) find(id string) *PasswordEntry {
	if i := d.IndexOf(id); i >= 0 {
		return &d.entries[i]
	}
	return nil
}

// stamp refreshes last_modified, keeping it strictly increasing
func (d *DatabaseFile) stamp(e *PasswordEntry) {
	now := d.clock()
	if !now.After(e.LastModified) {
		now = e.LastModified.Add(time.Nanosecond)
	}
	e.LastModified = now
}

// AddEmptyEntry appends an empty ClassicPassword entry and returns its id
func (d *DatabaseFile) AddEmptyEntry() string {
	id := uuid.NewString()
	d.entries = append(d.entries, PasswordEntry{
		ID:           id,
		EntryType:    ClassicPassword,
		LastModified: d.clock(),
		Files:        make([]CustomFile, 0),
	})
	return id
}

// RemoveEntryByID removes every entry with the given id and reports
// whether anything was removed
func (d *DatabaseFile) RemoveEntryByID(id string) bool {
	kept := d.entries[:0]
	removed := false
	for i := range d.entries {
		if d.entries[i].ID == id {
			d.entries[i].Value.Wipe()
			removed = true
			continue
		}
		kept = append(kept, d.entries[i])
	}
	// Clear the tail so removed entries are not reachable from the backing array
	for i := len(kept); i < len(d.entries); i++ {
		d.entries[i] = PasswordEntry{}
	}
	d.entries = kept
	return removed
}

// EntryByID returns a read-only copy of the entry with the given id
func (d *DatabaseFile) EntryByID(id string) (PasswordEntry, bool) {
	e := d.find(id)
	if e == nil {
		return PasswordEntry{}, false
	}
	return *e, true
}

// FieldValue returns the value of field f on the entry with the given id
func (d *DatabaseFile) FieldValue(f Field, id string) (string, error) {
	e := d.find(id)
	if e == nil {
		return "", fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	return f.Get(e)
}

// UpdateEntry sets field f on the entry with the given id to the last
// element of history. An empty history leaves the entry untouched.
func (d *DatabaseFile) UpdateEntry(f Field, id string, history []string) error {
	e := d.find(id)
	if e == nil {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	if !f.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidField, int(f))
	}
	if len(history) == 0 {
		return nil
	}
	if err := f.set(e, history[len(history)-1]); err != nil {
		return err
	}
	d.stamp(e)
	return nil
}

// ToggleEntryType switches an entry between ClassicPassword and
// EnvironmentVariable and returns the new type
func (d *DatabaseFile) ToggleEntryType(id string) (EntryType, error) {
	e := d.find(id)
	if e == nil {
		return 0, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	if e.EntryType == EnvironmentVariable {
		e.EntryType = ClassicPassword
	} else {
		e.EntryType = EnvironmentVariable
	}
	d.stamp(e)
	return e.EntryType, nil
}

// AttachFile appends an attachment to the entry with the given id
func (d *DatabaseFile) AttachFile(id, name, comment string, content []byte) error {
	e := d.find(id)
	if e == nil {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	e.Files = append(e.Files, NewCustomFile(name, comment, content))
	d.stamp(e)
	return nil
}

// RemoveFile drops the attachment at index from the entry with the given id
func (d *DatabaseFile) RemoveFile(id string, index int) error {
	e := d.find(id)
	if e == nil {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	if index < 0 || index >= len(e.Files) {
		return fmt.Errorf("%w: %d", ErrFileNotFound, index)
	}
	e.Files = append(e.Files[:index], e.Files[index+1:]...)
	d.stamp(e)
	return nil
}

// FileContent decodes the attachment at index on the entry with the given id
func (d *DatabaseFile) FileContent(id string, index int) (CustomFile, []byte, error) {
	e := d.find(id)
	if e == nil {
		return CustomFile{}, nil, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	if index < 0 || index >= len(e.Files) {
		return CustomFile{}, nil, fmt.Errorf("%w: %d", ErrFileNotFound, index)
	}
	data, err := e.Files[index].Data()
	if err != nil {
		return CustomFile{}, nil, err
	}
	return e.Files[index], data, nil
}

// Wipe zeroes every entry value, drops all entries and forgets the password
func (d *DatabaseFile) Wipe() {
	for i := range d.entries {
		d.entries[i].Value.Wipe()
		d.entries[i] = PasswordEntry{}
	}
	d.entries = nil
	if d.password != nil {
		d.password.Destroy()
		d.password = nil
	}
}
