// Package session implements the interactive vault session.
//
// A Session is the only writer of its vault.DatabaseFile. Run receives
// events one at a time from a single ordered channel, applies each through
// Handle and renders a read-only View after every change. A Poller feeds
// that channel from a terminal EventSource, adding a Tick every TickRate.
//
// Navigation keys:
//
//	h        home
//	p        entry list
//	a        add an entry and open it (entry list)
//	s        open the selected entry (entry list), toggle value reveal (entry)
//	r        remove the selected entry (entry list)
//	e        edit the selected field (entry)
//	t        toggle the entry type (entry)
//	c        copy the selected field to the clipboard (entry)
//	up/down  move the selection, wrapping around
//	q        quit
//
// While editing, typed characters are inserted at the cursor, Backspace
// deletes before it, Left and Right move it, Enter commits and Esc discards.
package session
