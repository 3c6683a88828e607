package vault

import "fmt"

// Field names one of the editable text fields of an entry
type Field int

const (
	FieldTitle Field = iota
	FieldName
	FieldValue
	FieldURL
	FieldComment
)

// NumFields is the number of editable fields
const NumFields = 5

type fieldAccessor struct {
	label string
	get   func(e *PasswordEntry) string
	set   func(e *PasswordEntry, v string)
}

// fieldTable is the single dispatch table for reads and writes
var fieldTable = [NumFields]fieldAccessor{
	FieldTitle: {
		label: "Title",
		get:   func(e *PasswordEntry) string { return e.Title },
		set:   func(e *PasswordEntry, v string) { e.Title = v },
	},
	FieldName: {
		label: "Name",
		get:   func(e *PasswordEntry) string { return e.Name },
		set:   func(e *PasswordEntry, v string) { e.Name = v },
	},
	FieldValue: {
		label: "Value",
		get:   func(e *PasswordEntry) string { return e.Value.String() },
		set:   func(e *PasswordEntry, v string) { e.Value.set(v) },
	},
	FieldURL: {
		label: "URL",
		get:   func(e *PasswordEntry) string { return e.URL },
		set:   func(e *PasswordEntry, v string) { e.URL = v },
	},
	FieldComment: {
		label: "Comment",
		get:   func(e *PasswordEntry) string { return e.Comment },
		set:   func(e *PasswordEntry, v string) { e.Comment = v },
	},
}

// Fields lists every editable field in display order
func Fields() []Field {
	return []Field{FieldTitle, FieldName, FieldValue, FieldURL, FieldComment}
}

// Valid reports whether f is one of the editable fields
func (f Field) Valid() bool {
	return f >= 0 && f < NumFields
}

func (f Field) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldTable[f].label
}

// Get returns the field's value on e
func (f Field) Get(e *PasswordEntry) (string, error) {
	if !f.Valid() {
		return "", fmt.Errorf("%w: %d", ErrInvalidField, int(f))
	}
	return fieldTable[f].get(e), nil
}

func (f Field) set(e *PasswordEntry, v string) error {
	if !f.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidField, int(f))
	}
	fieldTable[f].set(e, v)
	return nil
}
