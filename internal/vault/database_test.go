package vault

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illarion/lockpass/internal/crypto"
)

func newTestDB(t *testing.T) *DatabaseFile {
	t.Helper()
	return New("alice", "test vault", crypto.NewPassphrase([]byte("pw")))
}

// frozenClock always returns the same instant
func frozenClock() func() time.Time {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestAddEmptyEntry(t *testing.T) {
	db := newTestDB(t)

	id := db.AddEmptyEntry()
	require.NotEmpty(t, id)
	require.Equal(t, 1, db.Len())

	e, ok := db.EntryByID(id)
	require.True(t, ok)
	assert.Equal(t, id, e.ID)
	assert.Equal(t, ClassicPassword, e.EntryType)
	assert.Empty(t, e.Title)
	assert.Empty(t, e.Name)
	assert.Zero(t, e.Value.Len())
	assert.Empty(t, e.URL)
	assert.Empty(t, e.Comment)
	assert.False(t, e.LastModified.IsZero())
	assert.NotNil(t, e.Files)

	other := db.AddEmptyEntry()
	assert.NotEqual(t, id, other)
}

func TestIdentityStableAcrossUpdates(t *testing.T) {
	db := newTestDB(t)
	db.AddEmptyEntry()
	id := db.AddEmptyEntry()
	db.AddEmptyEntry()

	for _, f := range Fields() {
		require.NoError(t, db.UpdateEntry(f, id, []string{"first", f.String()}))
	}
	_, err := db.ToggleEntryType(id)
	require.NoError(t, err)
	require.True(t, db.RemoveEntryByID(mustID(t, db, 0)))

	e, ok := db.EntryByID(id)
	require.True(t, ok)
	assert.Equal(t, id, e.ID)
	assert.Equal(t, "Title", e.Title)
	assert.Equal(t, "Value", e.Value.String())
}

func mustID(t *testing.T, db *DatabaseFile, i int) string {
	t.Helper()
	id, ok := db.IDAt(i)
	require.True(t, ok)
	return id
}

func TestRemoveEntryByID(t *testing.T) {
	db := newTestDB(t)
	a := db.AddEmptyEntry()
	b := db.AddEmptyEntry()
	c := db.AddEmptyEntry()

	assert.True(t, db.RemoveEntryByID(b))
	assert.Equal(t, 2, db.Len())
	_, ok := db.EntryByID(b)
	assert.False(t, ok)
	assert.Equal(t, 0, db.IndexOf(a))
	assert.Equal(t, 1, db.IndexOf(c))

	assert.False(t, db.RemoveEntryByID(b))
	assert.Equal(t, 2, db.Len())
}

func TestRemoveEntryByIDEmptyStore(t *testing.T) {
	db := newTestDB(t)
	assert.False(t, db.RemoveEntryByID("missing"))
	assert.Zero(t, db.Len())
}

func TestRemoveEntryByIDRemovesDuplicates(t *testing.T) {
	data := []byte(`{"entries":[
		{"id":"x","title":"one","name":"","value":"a","url":"","comment":"","entry_type":"ClassicPassword","last_modified":"2024-01-01T00:00:00Z","files":[]},
		{"id":"y","title":"two","name":"","value":"b","url":"","comment":"","entry_type":"ClassicPassword","last_modified":"2024-01-01T00:00:00Z","files":[]},
		{"id":"x","title":"three","name":"","value":"c","url":"","comment":"","entry_type":"ClassicPassword","last_modified":"2024-01-01T00:00:00Z","files":[]}
	],"config":{"author":"","comment":""},"last_access":"2024-01-01T00:00:00Z"}`)

	db, err := Decode(data)
	require.NoError(t, err)

	assert.True(t, db.RemoveEntryByID("x"))
	require.Equal(t, 1, db.Len())
	e, ok := db.EntryByID("y")
	require.True(t, ok)
	assert.Equal(t, "b", e.Value.String())
}

func TestFieldMapping(t *testing.T) {
	db := newTestDB(t)
	id := db.AddEmptyEntry()

	for _, f := range Fields() {
		before, _ := db.EntryByID(id)
		want := "new " + f.String()

		require.NoError(t, db.UpdateEntry(f, id, []string{"ignored", want}))

		got, err := db.FieldValue(f, id)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		after, _ := db.EntryByID(id)
		assert.True(t, after.LastModified.After(before.LastModified), "field %s", f)
	}

	e, _ := db.EntryByID(id)
	assert.Equal(t, "new Title", e.Title)
	assert.Equal(t, "new Name", e.Name)
	assert.Equal(t, "new Value", e.Value.String())
	assert.Equal(t, "new URL", e.URL)
	assert.Equal(t, "new Comment", e.Comment)
}

func TestLastModifiedStrictlyIncreasesWithFrozenClock(t *testing.T) {
	db := newTestDB(t)
	db.SetClock(frozenClock())
	id := db.AddEmptyEntry()

	prev, _ := db.EntryByID(id)
	for i := 0; i < 3; i++ {
		require.NoError(t, db.UpdateEntry(FieldTitle, id, []string{"t"}))
		cur, _ := db.EntryByID(id)
		assert.True(t, cur.LastModified.After(prev.LastModified))
		prev = cur
	}
}

func TestInvalidFieldAndUnknownID(t *testing.T) {
	db := newTestDB(t)
	id := db.AddEmptyEntry()
	before, _ := db.EntryByID(id)

	_, err := db.FieldValue(Field(5), id)
	assert.ErrorIs(t, err, ErrInvalidField)
	_, err = db.FieldValue(Field(-1), id)
	assert.ErrorIs(t, err, ErrInvalidField)

	err = db.UpdateEntry(Field(9), id, []string{"x"})
	assert.ErrorIs(t, err, ErrInvalidField)
	after, _ := db.EntryByID(id)
	assert.Equal(t, before.LastModified, after.LastModified)

	_, err = db.FieldValue(FieldTitle, "missing")
	assert.ErrorIs(t, err, ErrEntryNotFound)
	assert.ErrorIs(t, db.UpdateEntry(FieldTitle, "missing", []string{"x"}), ErrEntryNotFound)
}

func TestUpdateEntryEmptyHistory(t *testing.T) {
	db := newTestDB(t)
	id := db.AddEmptyEntry()
	require.NoError(t, db.UpdateEntry(FieldTitle, id, []string{"kept"}))
	before, _ := db.EntryByID(id)

	require.NoError(t, db.UpdateEntry(FieldTitle, id, nil))

	after, _ := db.EntryByID(id)
	assert.Equal(t, "kept", after.Title)
	assert.Equal(t, before.LastModified, after.LastModified)
}

func TestToggleEntryType(t *testing.T) {
	db := newTestDB(t)
	id := db.AddEmptyEntry()

	typ, err := db.ToggleEntryType(id)
	require.NoError(t, err)
	assert.Equal(t, EnvironmentVariable, typ)

	typ, err = db.ToggleEntryType(id)
	require.NoError(t, err)
	assert.Equal(t, ClassicPassword, typ)

	_, err = db.ToggleEntryType("missing")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestAttachments(t *testing.T) {
	db := newTestDB(t)
	id := db.AddEmptyEntry()

	require.NoError(t, db.AttachFile(id, "id_rsa", "deploy key", []byte("-----BEGIN-----")))
	require.NoError(t, db.AttachFile(id, "notes.txt", "", []byte("hello")))

	f, data, err := db.FileContent(id, 1)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", f.Name)
	assert.Equal(t, []byte("hello"), data)

	require.NoError(t, db.RemoveFile(id, 0))
	e, _ := db.EntryByID(id)
	require.Len(t, e.Files, 1)
	assert.Equal(t, "notes.txt", e.Files[0].Name)

	assert.ErrorIs(t, db.RemoveFile(id, 3), ErrFileNotFound)
	_, _, err = db.FileContent(id, -1)
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.ErrorIs(t, db.AttachFile("missing", "a", "", nil), ErrEntryNotFound)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	db := newTestDB(t)
	id := db.AddEmptyEntry()
	require.NoError(t, db.UpdateEntry(FieldValue, id, []string{"hunter2"}))
	require.NoError(t, db.UpdateEntry(FieldName, id, []string{"AWS_KEY"}))
	_, err := db.ToggleEntryType(id)
	require.NoError(t, err)
	require.NoError(t, db.AttachFile(id, "cert.pem", "tls", []byte{0, 1, 2}))

	data, err := db.Encode()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "password")

	got, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, db.Config(), got.Config())
	assert.True(t, db.LastAccess().Equal(got.LastAccess()))
	require.Equal(t, 1, got.Len())

	want, _ := db.EntryByID(id)
	e, ok := got.EntryByID(id)
	require.True(t, ok)
	assert.Equal(t, want.Title, e.Title)
	assert.Equal(t, "hunter2", e.Value.String())
	assert.Equal(t, EnvironmentVariable, e.EntryType)
	assert.True(t, want.LastModified.Equal(e.LastModified))
	assert.Equal(t, want.Files, e.Files)
	assert.Nil(t, got.Password())
}

func TestEncodeWireFormat(t *testing.T) {
	db := New("bob", "desc", nil)
	db.AddEmptyEntry()

	data, err := db.Encode()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.ElementsMatch(t, []string{"entries", "config", "last_access"}, keys(raw))

	entries := raw["entries"].([]any)
	entry := entries[0].(map[string]any)
	assert.ElementsMatch(t,
		[]string{"id", "title", "name", "value", "url", "comment", "entry_type", "last_modified", "files"},
		keys(entry))
	assert.Equal(t, "ClassicPassword", entry["entry_type"])
	assert.Equal(t, []any{}, entry["files"])
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "\x00\x01garbage"},
		{"wrong shape", `{"entries": "nope"}`},
		{"unknown entry type", `{"entries":[{"id":"a","entry_type":"Card"}]}`},
		{"missing id", `{"entries":[{"title":"x","entry_type":"ClassicPassword"}]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.data))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecodeIgnoresSerializedPassword(t *testing.T) {
	data := []byte(`{"entries":[],"config":{"author":"a","comment":"b"},"last_access":"2024-01-01T00:00:00+01:00","password":"leaked"}`)

	db, err := Decode(data)
	require.NoError(t, err)
	assert.Nil(t, db.Password())
	assert.Equal(t, 0, db.Len())

	out, err := db.Encode()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "leaked")
}

func TestWipe(t *testing.T) {
	db := newTestDB(t)
	id := db.AddEmptyEntry()
	require.NoError(t, db.UpdateEntry(FieldValue, id, []string{"hunter2"}))
	snapshot := db.Entries()

	db.Wipe()

	assert.Zero(t, db.Len())
	assert.Nil(t, db.Password())
	assert.NotEqual(t, "hunter2", snapshot[0].Value.String())
}
