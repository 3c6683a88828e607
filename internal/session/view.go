package session

import (
	"strings"
	"time"

	"github.com/illarion/lockpass/internal/vault"
)

// Mask replaces hidden values in views
const Mask = "********"

// View is a read-only snapshot of the session for rendering
type View struct {
	Menu    MenuItem
	Mode    InputMode
	Author  string
	Comment string

	Entries  []EntryRow
	Selected int // index into Entries, -1 when empty

	Detail *Detail // set on SelectedEntry
	Field  vault.Field
	Reveal bool

	Input  string // text being edited
	Cursor int    // cursor position in runes

	Status string
}

// EntryRow is one line of the entry list
type EntryRow struct {
	ID    string
	Label string
	Type  vault.EntryType
}

// Detail describes the selected entry
type Detail struct {
	ID           string
	Type         vault.EntryType
	Fields       []FieldRow
	Files        []string
	LastModified time.Time
}

// FieldRow is one field of the selected entry
type FieldRow struct {
	Field  vault.Field
	Label  string
	Value  string
	Masked bool
}

// Snapshot builds the current View. The entry value is masked unless
// reveal is on for the selected entry.
func (s *Session) Snapshot() View {
	cfg := s.db.Config()
	v := View{
		Menu:     s.menu,
		Mode:     s.mode,
		Author:   cfg.Author,
		Comment:  cfg.Comment,
		Selected: -1,
		Field:    s.fieldSel,
		Reveal:   s.reveal,
		Status:   s.status,
	}

	entries := s.db.Entries()
	v.Entries = make([]EntryRow, len(entries))
	for i, e := range entries {
		v.Entries[i] = EntryRow{ID: e.ID, Label: label(e), Type: e.EntryType}
	}
	if s.selectionValid() {
		v.Selected = s.entrySel
	}

	if s.menu == SelectedEntry && s.selectionValid() {
		e := entries[s.entrySel]
		d := &Detail{ID: e.ID, Type: e.EntryType, LastModified: e.LastModified}
		for _, f := range vault.Fields() {
			row := FieldRow{Field: f, Label: f.String()}
			if f == vault.FieldValue && !s.reveal {
				row.Masked = true
				if e.Value.Len() > 0 {
					row.Value = Mask
				}
			} else {
				row.Value, _ = f.Get(&e)
			}
			d.Fields = append(d.Fields, row)
		}
		for _, file := range e.Files {
			d.Files = append(d.Files, file.Name)
		}
		v.Detail = d
	}

	if s.mode == Editing {
		if s.fieldSel == vault.FieldValue && !s.reveal {
			v.Input = strings.Repeat("*", len(s.input))
		} else {
			v.Input = string(s.input)
		}
		v.Cursor = s.cursor
	}
	return v
}

func label(e vault.PasswordEntry) string {
	switch {
	case e.Title != "":
		return e.Title
	case e.Name != "":
		return e.Name
	default:
		return "(untitled)"
	}
}
