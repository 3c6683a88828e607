package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/illarion/lockpass/internal/core"
)

// Diff compares two vaults without printing any secret values. The
// password of the first vault is tried on the second before prompting.
func (e *Env) Diff(ctx context.Context, pathA, pathB string) {
	lpA := e.LockPass(pathA)
	a := e.Unlock(ctx, lpA)
	defer a.Wipe()

	lpB := e.LockPass(pathB)
	if !lpB.Exists() {
		HandleError(fmt.Errorf("%w: %s", core.ErrNotFound, pathB))
	}
	pass := a.Password().Clone()
	b, err := lpB.Open(ctx, pass)
	if err != nil {
		pass.Destroy()
		if !errors.Is(err, core.ErrWrongPassword) {
			HandleError(err)
		}
		fmt.Fprintf(os.Stderr, "Password for %s:\n", pathB)
		b = e.Unlock(ctx, lpB)
	}
	defer b.Wipe()

	lines, err := core.Diff(a, b)
	if err != nil {
		HandleError(err)
	}
	if !core.Changed(lines) {
		fmt.Println("No differences")
		return
	}
	fmt.Printf("--- %s\n+++ %s\n", pathA, pathB)
	fmt.Print(core.FormatDiff(lines))
}

