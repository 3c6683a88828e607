package tui

import (
	"github.com/atotto/clipboard"

	"github.com/illarion/lockpass/internal/session"
)

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// Clipboard returns the system clipboard, or nil when no clipboard tool
// is available
func Clipboard() session.Clipboard {
	if clipboard.Unsupported {
		return nil
	}
	return systemClipboard{}
}
