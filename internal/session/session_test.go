package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illarion/lockpass/internal/vault"
)

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) WriteAll(text string) error {
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

func newTestSession(t *testing.T, opts ...Option) (*Session, *vault.DatabaseFile) {
	t.Helper()
	db := vault.New("alice", "test", nil)
	return New(db, opts...), db
}

func press(t *testing.T, s *Session, keys ...Key) {
	t.Helper()
	for _, k := range keys {
		require.False(t, s.Handle(context.Background(), Input(k)), "unexpected quit on %+v", k)
	}
}

func typeText(t *testing.T, s *Session, text string) {
	t.Helper()
	for _, r := range text {
		press(t, s, Rune(r))
	}
}

var (
	up        = Key{Code: KeyUp}
	down      = Key{Code: KeyDown}
	left      = Key{Code: KeyLeft}
	right     = Key{Code: KeyRight}
	enter     = Key{Code: KeyEnter}
	esc       = Key{Code: KeyEsc}
	backspace = Key{Code: KeyBackspace}
)

func TestMenuNavigation(t *testing.T) {
	s, _ := newTestSession(t)
	assert.Equal(t, Home, s.Menu())

	press(t, s, Rune('p'))
	assert.Equal(t, PasswordEntries, s.Menu())

	press(t, s, Rune('h'))
	assert.Equal(t, Home, s.Menu())

	assert.True(t, s.Handle(context.Background(), Input(Rune('q'))))
}

func TestTickIsIgnored(t *testing.T) {
	s, _ := newTestSession(t)
	before := s.Snapshot()
	assert.False(t, s.Handle(context.Background(), Tick()))
	assert.Equal(t, before, s.Snapshot())
}

func TestAddOnlyFromEntryList(t *testing.T) {
	s, db := newTestSession(t)

	press(t, s, Rune('a'))
	assert.Equal(t, 0, db.Len())
	assert.Equal(t, Home, s.Menu())

	press(t, s, Rune('p'), Rune('a'))
	assert.Equal(t, 1, db.Len())
	assert.Equal(t, SelectedEntry, s.Menu())
	assert.True(t, s.Dirty())
}

func TestAddSelectsNewEntry(t *testing.T) {
	s, db := newTestSession(t)
	press(t, s, Rune('p'), Rune('a'), Rune('p'), Rune('a'), Rune('p'), Rune('a'))
	require.Equal(t, 3, db.Len())

	v := s.Snapshot()
	assert.Equal(t, 2, v.Selected)
	require.NotNil(t, v.Detail)
	last, _ := db.IDAt(2)
	assert.Equal(t, last, v.Detail.ID)
}

func TestEmptyListGuards(t *testing.T) {
	s, db := newTestSession(t)
	press(t, s, Rune('p'))

	press(t, s, up, down, Rune('s'), Rune('r'), Rune('e'), Rune('c'), Rune('t'))
	assert.Equal(t, PasswordEntries, s.Menu())
	assert.Equal(t, Navigation, s.Mode())
	assert.Equal(t, 0, db.Len())

	v := s.Snapshot()
	assert.Equal(t, -1, v.Selected)
	assert.Nil(t, v.Detail)
}

func TestEntryListWrapsAround(t *testing.T) {
	s, db := newTestSession(t)
	for i := 0; i < 3; i++ {
		press(t, s, Rune('p'), Rune('a'))
	}
	require.Equal(t, 3, db.Len())
	press(t, s, Rune('p'))
	assert.Equal(t, 2, s.Snapshot().Selected)

	press(t, s, down)
	assert.Equal(t, 0, s.Snapshot().Selected)
	press(t, s, up)
	assert.Equal(t, 2, s.Snapshot().Selected)
	press(t, s, up)
	assert.Equal(t, 1, s.Snapshot().Selected)
}

func TestFieldSelectionWrapsAround(t *testing.T) {
	s, _ := newTestSession(t)
	press(t, s, Rune('p'), Rune('a'))

	assert.Equal(t, vault.FieldTitle, s.Snapshot().Field)
	press(t, s, up)
	assert.Equal(t, vault.FieldComment, s.Snapshot().Field)
	press(t, s, down)
	assert.Equal(t, vault.FieldTitle, s.Snapshot().Field)
	press(t, s, down, down)
	assert.Equal(t, vault.FieldValue, s.Snapshot().Field)
}

func TestSelectAndRemove(t *testing.T) {
	s, db := newTestSession(t)
	press(t, s, Rune('p'), Rune('a'), Rune('p'), Rune('a'))
	first, _ := db.IDAt(0)
	second, _ := db.IDAt(1)

	press(t, s, Rune('p'), down)
	assert.Equal(t, 0, s.Snapshot().Selected)

	press(t, s, Rune('s'))
	assert.Equal(t, SelectedEntry, s.Menu())
	assert.Equal(t, first, s.Snapshot().Detail.ID)

	// r does nothing outside the entry list
	press(t, s, Rune('r'))
	assert.Equal(t, 2, db.Len())

	press(t, s, Rune('p'), Rune('r'))
	assert.Equal(t, 1, db.Len())
	_, ok := db.EntryByID(first)
	assert.False(t, ok)
	_, ok = db.EntryByID(second)
	assert.True(t, ok)
	assert.Equal(t, 0, s.Snapshot().Selected)
}

func TestRemoveLastClampsSelection(t *testing.T) {
	s, db := newTestSession(t)
	press(t, s, Rune('p'), Rune('a'), Rune('p'), Rune('a'), Rune('p'))
	assert.Equal(t, 1, s.Snapshot().Selected)

	press(t, s, Rune('r'))
	assert.Equal(t, 0, s.Snapshot().Selected)
	press(t, s, Rune('r'))
	assert.Equal(t, 0, db.Len())
	assert.Equal(t, -1, s.Snapshot().Selected)

	press(t, s, Rune('r'), Rune('s'))
	assert.Equal(t, PasswordEntries, s.Menu())
}

func TestEditCommit(t *testing.T) {
	s, db := newTestSession(t)
	press(t, s, Rune('p'), Rune('a'))
	id, _ := db.IDAt(0)

	press(t, s, Rune('e'))
	assert.Equal(t, Editing, s.Mode())
	typeText(t, s, "mail")
	press(t, s, enter)

	assert.Equal(t, Navigation, s.Mode())
	e, _ := db.EntryByID(id)
	assert.Equal(t, "mail", e.Title)
}

func TestEditSeedsCurrentValue(t *testing.T) {
	s, db := newTestSession(t)
	press(t, s, Rune('p'), Rune('a'))
	id, _ := db.IDAt(0)
	require.NoError(t, db.UpdateEntry(vault.FieldURL, id, []string{"example.org"}))

	press(t, s, down, down, down, Rune('e'))
	v := s.Snapshot()
	assert.Equal(t, "example.org", v.Input)
	assert.Equal(t, len("example.org"), v.Cursor)

	typeText(t, s, "/x")
	press(t, s, enter)
	e, _ := db.EntryByID(id)
	assert.Equal(t, "example.org/x", e.URL)
}

func TestEditCursorOperations(t *testing.T) {
	s, db := newTestSession(t)
	press(t, s, Rune('p'), Rune('a'), Rune('e'))
	id, _ := db.IDAt(0)

	typeText(t, s, "ac")
	press(t, s, left)
	typeText(t, s, "b")
	assert.Equal(t, "abc", s.Snapshot().Input)
	assert.Equal(t, 2, s.Snapshot().Cursor)

	press(t, s, left, left, left, left)
	assert.Equal(t, 0, s.Snapshot().Cursor)
	press(t, s, backspace)
	assert.Equal(t, "abc", s.Snapshot().Input)

	press(t, s, right, backspace)
	assert.Equal(t, "bc", s.Snapshot().Input)
	assert.Equal(t, 0, s.Snapshot().Cursor)

	press(t, s, right, right, right, right)
	assert.Equal(t, 2, s.Snapshot().Cursor)
	typeText(t, s, "ü")
	press(t, s, enter)

	e, _ := db.EntryByID(id)
	assert.Equal(t, "bcü", e.Title)
}

func TestEditEscDiscards(t *testing.T) {
	s, db := newTestSession(t)
	press(t, s, Rune('p'), Rune('a'))
	id, _ := db.IDAt(0)
	before, _ := db.EntryByID(id)

	press(t, s, Rune('e'))
	typeText(t, s, "discarded")
	press(t, s, esc)

	assert.Equal(t, Navigation, s.Mode())
	after, _ := db.EntryByID(id)
	assert.Empty(t, after.Title)
	assert.Equal(t, before.LastModified, after.LastModified)
}

func TestEditingKeysAreText(t *testing.T) {
	s, db := newTestSession(t)
	press(t, s, Rune('p'), Rune('a'), Rune('e'))
	typeText(t, s, "qhp")
	assert.Equal(t, Editing, s.Mode())
	assert.Equal(t, SelectedEntry, s.Menu())
	press(t, s, up, down, enter)

	id, _ := db.IDAt(0)
	e, _ := db.EntryByID(id)
	assert.Equal(t, "qhp", e.Title)
}

func TestRevealToggle(t *testing.T) {
	s, db := newTestSession(t)
	press(t, s, Rune('p'), Rune('a'))
	id, _ := db.IDAt(0)
	require.NoError(t, db.UpdateEntry(vault.FieldValue, id, []string{"hunter2"}))

	value := func() FieldRow { return s.Snapshot().Detail.Fields[vault.FieldValue] }
	assert.Equal(t, Mask, value().Value)
	assert.True(t, value().Masked)

	press(t, s, Rune('s'))
	assert.Equal(t, "hunter2", value().Value)
	assert.False(t, value().Masked)

	press(t, s, Rune('s'))
	assert.Equal(t, Mask, value().Value)

	// leaving the entry hides the value again
	press(t, s, Rune('s'), Rune('p'), Rune('s'))
	assert.Equal(t, Mask, value().Value)
}

func TestEditingValueIsMasked(t *testing.T) {
	s, db := newTestSession(t)
	press(t, s, Rune('p'), Rune('a'), down, down, Rune('e'))
	typeText(t, s, "hunter2")
	assert.Equal(t, "*******", s.Snapshot().Input)
	press(t, s, enter)

	id, _ := db.IDAt(0)
	e, _ := db.EntryByID(id)
	assert.Equal(t, "hunter2", e.Value.String())
}

func TestCopyField(t *testing.T) {
	clip := &fakeClipboard{}
	s, db := newTestSession(t, WithClipboard(clip))
	press(t, s, Rune('p'), Rune('a'))
	id, _ := db.IDAt(0)
	require.NoError(t, db.UpdateEntry(vault.FieldValue, id, []string{"hunter2"}))

	press(t, s, down, down, Rune('c'))
	assert.Equal(t, "hunter2", clip.text)
	assert.Equal(t, "Copied Value", s.Snapshot().Status)

	clip.err = errors.New("no display")
	press(t, s, Rune('c'))
	assert.Equal(t, "Copy failed", s.Snapshot().Status)
}

func TestCopyWithoutClipboard(t *testing.T) {
	s, _ := newTestSession(t)
	press(t, s, Rune('p'), Rune('a'), Rune('c'))
	assert.Equal(t, "Clipboard unavailable", s.Snapshot().Status)
}

func TestToggleType(t *testing.T) {
	s, db := newTestSession(t)
	press(t, s, Rune('p'), Rune('a'), Rune('t'))
	id, _ := db.IDAt(0)

	e, _ := db.EntryByID(id)
	assert.Equal(t, vault.EnvironmentVariable, e.EntryType)
	assert.Equal(t, vault.EnvironmentVariable, s.Snapshot().Detail.Type)

	press(t, s, Rune('p'), Rune('t'))
	e, _ = db.EntryByID(id)
	assert.Equal(t, vault.EnvironmentVariable, e.EntryType)
}

func TestScenarioAddEditSecret(t *testing.T) {
	s, db := newTestSession(t)
	press(t, s, Rune('p'), Rune('a'), Rune('e'))
	typeText(t, s, "v1")
	press(t, s, enter, down, down, Rune('e'))
	typeText(t, s, "hunter2")
	press(t, s, enter)

	require.Equal(t, 1, db.Len())
	id, _ := db.IDAt(0)
	e, _ := db.EntryByID(id)
	assert.Equal(t, "v1", e.Title)
	assert.Equal(t, "hunter2", e.Value.String())

	v := s.Snapshot()
	assert.Equal(t, "v1", v.Entries[0].Label)
	assert.NotContains(t, v.Detail.Fields[vault.FieldValue].Value, "hunter2")
}

func TestRunProcessesEventsInOrder(t *testing.T) {
	s, db := newTestSession(t)
	events := make(chan Event, 16)
	for _, r := range "pae" {
		events <- Input(Rune(r))
	}
	events <- Tick()
	for _, r := range "ok" {
		events <- Input(Rune(r))
	}
	events <- Input(enter)
	events <- Input(Rune('q'))

	var renders []View
	err := s.Run(context.Background(), events, func(v View) error {
		renders = append(renders, v)
		return nil
	})
	require.NoError(t, err)

	// initial render plus one per event before quit
	assert.Len(t, renders, 8)
	assert.Equal(t, Home, renders[0].Menu)
	assert.Equal(t, "ok", renders[6].Input)

	id, _ := db.IDAt(0)
	e, _ := db.EntryByID(id)
	assert.Equal(t, "ok", e.Title)
}

func TestRunStopsOnCancel(t *testing.T) {
	s, _ := newTestSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx, make(chan Event), func(View) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunStopsWhenInputCloses(t *testing.T) {
	s, _ := newTestSession(t)
	events := make(chan Event)
	close(events)

	err := s.Run(context.Background(), events, func(View) error { return nil })
	assert.ErrorIs(t, err, ErrInputClosed)
}

func TestRunRenderError(t *testing.T) {
	s, _ := newTestSession(t)
	boom := errors.New("boom")
	err := s.Run(context.Background(), make(chan Event), func(View) error { return boom })
	assert.ErrorIs(t, err, boom)
}
