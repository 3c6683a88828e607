package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/illarion/lockpass/internal/session"
	"github.com/illarion/lockpass/internal/tui"
)

// Open runs the interactive editor on the vault at path and saves it when
// the editor exits
func (e *Env) Open(ctx context.Context, path string) {
	lp := e.LockPass(path)
	db := e.Unlock(ctx, lp)

	term, err := tui.Open(os.Stdin, os.Stdout)
	if err != nil {
		db.Wipe()
		HandleError(err)
	}

	s := session.New(db,
		session.WithClipboard(tui.Clipboard()),
		session.WithLogger(e.Log),
	)

	pollCtx, cancel := context.WithCancel(ctx)
	events := session.NewPoller(term, session.TickRate, e.Log).Start(pollCtx)
	runErr := s.Run(ctx, events, term.Render)
	cancel()
	if err := term.Close(); err != nil {
		e.Log.Warn(ctx, "failed to restore terminal", "error", err)
	}

	// The vault is written even when input ended early or ctx was cancelled
	saveErr := lp.Save(context.WithoutCancel(ctx), db)
	dirty := s.Dirty()
	db.Wipe()

	if saveErr != nil {
		HandleError(saveErr)
	}
	switch {
	case runErr == nil, errors.Is(runErr, session.ErrInputClosed), errors.Is(runErr, context.Canceled):
	default:
		HandleError(runErr)
	}
	if dirty {
		fmt.Printf("Saved %s\n", path)
	}
}
