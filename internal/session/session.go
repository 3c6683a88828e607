package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/illarion/lockpass/internal/logging"
	"github.com/illarion/lockpass/internal/vault"
)

// ErrInputClosed is returned by Run when the event channel closes before quit
var ErrInputClosed = errors.New("input closed")

// Clipboard receives copied field values
type Clipboard interface {
	WriteAll(text string) error
}

// Option configures a Session
type Option func(*Session)

// WithClipboard sets the clipboard used by the copy key
func WithClipboard(c Clipboard) Option {
	return func(s *Session) { s.clipboard = c }
}

// WithLogger sets the logger
func WithLogger(log logging.Logger) Option {
	return func(s *Session) { s.log = log }
}

// Session is the single writer of an open vault
type Session struct {
	db *vault.DatabaseFile

	menu     MenuItem
	mode     InputMode
	entrySel int
	fieldSel vault.Field
	reveal   bool

	// Editing state; editID pins the entry being edited
	input  []rune
	cursor int
	editID string

	status    string
	dirty     bool
	clipboard Clipboard
	log       logging.Logger
}

// New creates a session that owns db until Run returns
func New(db *vault.DatabaseFile, opts ...Option) *Session {
	s := &Session{
		db:  db,
		log: logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Menu returns the active screen
func (s *Session) Menu() MenuItem { return s.menu }

// Mode returns the input mode
func (s *Session) Mode() InputMode { return s.mode }

// Dirty reports whether the vault was modified during the session
func (s *Session) Dirty() bool { return s.dirty }

// Run renders the initial view, then handles events in order until quit,
// the channel closes or ctx is cancelled. The caller saves afterwards.
func (s *Session) Run(ctx context.Context, events <-chan Event, render func(View) error) error {
	if err := render(s.Snapshot()); err != nil {
		return fmt.Errorf("failed to render: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return ErrInputClosed
			}
			if s.Handle(ctx, ev) {
				s.log.Info(ctx, "session ended", "entries", s.db.Len(), "modified", s.dirty)
				return nil
			}
			if err := render(s.Snapshot()); err != nil {
				return fmt.Errorf("failed to render: %w", err)
			}
		}
	}
}

// Handle applies one event and reports whether the session should end
func (s *Session) Handle(ctx context.Context, ev Event) bool {
	if ev.Kind != EventInput {
		return false
	}
	if s.mode == Editing {
		s.handleEditing(ctx, ev.Key)
		return false
	}
	return s.handleNavigation(ctx, ev.Key)
}

func (s *Session) handleNavigation(ctx context.Context, k Key) bool {
	switch k.Code {
	case KeyUp:
		s.moveSelection(-1)
		return false
	case KeyDown:
		s.moveSelection(1)
		return false
	case KeyRune:
	default:
		return false
	}

	s.status = ""
	switch k.Rune {
	case 'q':
		return true
	case 'h':
		s.menu = Home
		s.reveal = false
	case 'p':
		s.menu = PasswordEntries
		s.reveal = false
	case 'a':
		if s.menu == PasswordEntries {
			s.addEntry(ctx)
		}
	case 's':
		switch s.menu {
		case PasswordEntries:
			if s.selectionValid() {
				s.menu = SelectedEntry
			}
		case SelectedEntry:
			s.reveal = !s.reveal
		}
	case 'r':
		if s.menu == PasswordEntries && s.selectionValid() {
			s.removeSelected(ctx)
		}
	case 'e':
		if s.menu == SelectedEntry && s.selectionValid() {
			s.startEditing()
		}
	case 't':
		if s.menu == SelectedEntry && s.selectionValid() {
			s.toggleType(ctx)
		}
	case 'c':
		if s.menu == SelectedEntry && s.selectionValid() {
			s.copyField(ctx)
		}
	}
	return false
}

func (s *Session) selectionValid() bool {
	return s.entrySel >= 0 && s.entrySel < s.db.Len()
}

func (s *Session) selectedID() (string, bool) {
	return s.db.IDAt(s.entrySel)
}

func wrap(i, delta, n int) int {
	return ((i+delta)%n + n) % n
}

func (s *Session) moveSelection(delta int) {
	switch s.menu {
	case PasswordEntries:
		if n := s.db.Len(); n > 0 {
			s.entrySel = wrap(s.entrySel, delta, n)
		}
	case SelectedEntry:
		s.fieldSel = vault.Field(wrap(int(s.fieldSel), delta, vault.NumFields))
	}
}

func (s *Session) addEntry(ctx context.Context) {
	id := s.db.AddEmptyEntry()
	s.entrySel = s.db.Len() - 1
	s.menu = SelectedEntry
	s.dirty = true
	s.log.Debug(ctx, "entry added", "id", id)
}

func (s *Session) removeSelected(ctx context.Context) {
	id, _ := s.selectedID()
	if s.db.RemoveEntryByID(id) {
		s.dirty = true
		s.log.Debug(ctx, "entry removed", "id", id)
	}
	if s.entrySel >= s.db.Len() {
		s.entrySel = max(s.db.Len()-1, 0)
	}
}

func (s *Session) startEditing() {
	id, _ := s.selectedID()
	value, err := s.db.FieldValue(s.fieldSel, id)
	if err != nil {
		s.status = err.Error()
		return
	}
	s.editID = id
	s.input = []rune(value)
	s.cursor = len(s.input)
	s.mode = Editing
}

func (s *Session) toggleType(ctx context.Context) {
	id, _ := s.selectedID()
	typ, err := s.db.ToggleEntryType(id)
	if err != nil {
		s.status = err.Error()
		return
	}
	s.dirty = true
	s.status = "Type: " + typ.String()
	s.log.Debug(ctx, "entry type changed", "id", id, "type", typ.String())
}

func (s *Session) copyField(ctx context.Context) {
	if s.clipboard == nil {
		s.status = "Clipboard unavailable"
		return
	}
	id, _ := s.selectedID()
	value, err := s.db.FieldValue(s.fieldSel, id)
	if err != nil {
		s.status = err.Error()
		return
	}
	if err := s.clipboard.WriteAll(value); err != nil {
		s.status = "Copy failed"
		s.log.Warn(ctx, "clipboard write failed", "error", err)
		return
	}
	s.status = "Copied " + s.fieldSel.String()
}

func (s *Session) handleEditing(ctx context.Context, k Key) {
	switch k.Code {
	case KeyRune:
		s.input = append(s.input, 0)
		copy(s.input[s.cursor+1:], s.input[s.cursor:])
		s.input[s.cursor] = k.Rune
		s.cursor++
	case KeyBackspace:
		if s.cursor > 0 {
			s.input = append(s.input[:s.cursor-1], s.input[s.cursor:]...)
			s.cursor--
		}
	case KeyLeft:
		if s.cursor > 0 {
			s.cursor--
		}
	case KeyRight:
		if s.cursor < len(s.input) {
			s.cursor++
		}
	case KeyEnter:
		s.commit(ctx)
	case KeyEsc:
		s.stopEditing()
	}
}

func (s *Session) commit(ctx context.Context) {
	history := []string{string(s.input)}
	if err := s.db.UpdateEntry(s.fieldSel, s.editID, history); err != nil {
		s.status = err.Error()
		s.log.Warn(ctx, "entry update failed", "id", s.editID, "field", s.fieldSel.String(), "error", err)
	} else {
		s.dirty = true
		s.log.Debug(ctx, "entry updated", "id", s.editID, "field", s.fieldSel.String())
	}
	s.stopEditing()
}

func (s *Session) stopEditing() {
	for i := range s.input {
		s.input[i] = 0
	}
	s.input = nil
	s.cursor = 0
	s.editID = ""
	s.mode = Navigation
}
