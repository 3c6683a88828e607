package vault

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/illarion/lockpass/internal/crypto"
)

// EntryType classifies an entry
type EntryType int

const (
	ClassicPassword EntryType = iota
	EnvironmentVariable
)

func (t EntryType) String() string {
	switch t {
	case ClassicPassword:
		return "ClassicPassword"
	case EnvironmentVariable:
		return "EnvironmentVariable"
	default:
		return fmt.Sprintf("EntryType(%d)", int(t))
	}
}

func (t EntryType) MarshalText() ([]byte, error) {
	switch t {
	case ClassicPassword, EnvironmentVariable:
		return []byte(t.String()), nil
	default:
		return nil, fmt.Errorf("unknown entry type %d", int(t))
	}
}

func (t *EntryType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "ClassicPassword":
		*t = ClassicPassword
	case "EnvironmentVariable":
		*t = EnvironmentVariable
	default:
		return fmt.Errorf("unknown entry type %q", text)
	}
	return nil
}

// Secret is a string value kept in a wipeable byte buffer.
// Copies of a Secret share the same buffer.
type Secret struct {
	b []byte
}

// NewSecret returns a Secret holding s
func NewSecret(s string) Secret {
	return Secret{b: []byte(s)}
}

func (s Secret) String() string {
	return string(s.b)
}

// Len returns the length of the secret in bytes
func (s Secret) Len() int {
	return len(s.b)
}

// WriteTo writes the raw secret to w without an intermediate string
func (s Secret) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(s.b)
	return int64(n), err
}

// set wipes the previous contents and stores v
func (s *Secret) set(v string) {
	s.Wipe()
	s.b = []byte(v)
}

// Wipe zeroes the buffer and empties the secret
func (s *Secret) Wipe() {
	crypto.ClearBytes(s.b)
	s.b = nil
}

func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s.b))
}

func (s *Secret) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	s.b = []byte(v)
	return nil
}

// CustomFile is a file attached to an entry
type CustomFile struct {
	Content string `json:"content"` // base64 (standard encoding)
	Comment string `json:"comment"`
	Name    string `json:"name"`
}

// NewCustomFile encodes data into an attachment
func NewCustomFile(name, comment string, data []byte) CustomFile {
	return CustomFile{
		Content: base64.StdEncoding.EncodeToString(data),
		Comment: comment,
		Name:    name,
	}
}

// Data decodes the attachment content
func (f CustomFile) Data() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(f.Content)
	if err != nil {
		return nil, fmt.Errorf("attachment %q: %w", f.Name, err)
	}
	return data, nil
}

// PasswordEntry is one credential record
type PasswordEntry struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Name         string       `json:"name"` // username or variable name
	Value        Secret       `json:"value"`
	URL          string       `json:"url"`
	Comment      string       `json:"comment"`
	EntryType    EntryType    `json:"entry_type"`
	LastModified time.Time    `json:"last_modified"`
	Files        []CustomFile `json:"files"`
}

// Config is vault-level metadata
type Config struct {
	Author  string `json:"author"`
	Comment string `json:"comment"`
}
