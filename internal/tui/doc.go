// Package tui connects a session to a real terminal.
//
// Terminal puts the terminal in raw mode and implements
// session.EventSource by decoding key presses from its input. Render draws
// a session.View with lipgloss. Ctrl-C and Ctrl-D end input the same way as
// closing stdin, so the caller still gets to save.
package tui
