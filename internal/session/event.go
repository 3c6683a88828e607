package session

// MenuItem is the screen the session is showing
type MenuItem int

const (
	Home MenuItem = iota
	PasswordEntries
	SelectedEntry
)

func (m MenuItem) String() string {
	switch m {
	case Home:
		return "Home"
	case PasswordEntries:
		return "Password-Entries"
	case SelectedEntry:
		return "Selected-Entry"
	default:
		return "Unknown"
	}
}

// InputMode tells whether keys navigate or edit text
type InputMode int

const (
	Navigation InputMode = iota
	Editing
)

func (m InputMode) String() string {
	if m == Editing {
		return "Editing"
	}
	return "Navigation"
}

// KeyCode identifies a key
type KeyCode int

const (
	KeyRune KeyCode = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeyEsc
	KeyBackspace
)

// Key is one key press. Rune is set for KeyRune only.
type Key struct {
	Code KeyCode
	Rune rune
}

// Rune returns the key press for r
func Rune(r rune) Key {
	return Key{Code: KeyRune, Rune: r}
}

// EventKind distinguishes key input from clock ticks
type EventKind int

const (
	EventInput EventKind = iota
	EventTick
)

// Event is one item of the session's event queue
type Event struct {
	Kind EventKind
	Key  Key
}

// Input wraps a key press
func Input(k Key) Event {
	return Event{Kind: EventInput, Key: k}
}

// Tick is the periodic timer event
func Tick() Event {
	return Event{Kind: EventTick}
}
