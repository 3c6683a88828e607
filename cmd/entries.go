package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/illarion/lockpass/internal/vault"
)

// Entries lists the entries of the vault at path without their values
func (e *Env) Entries(ctx context.Context, path string) {
	lp := e.LockPass(path)
	db := e.Unlock(ctx, lp)
	defer db.Wipe()

	if db.Len() == 0 {
		fmt.Println("No entries, add some with 'lockpass open'")
	} else if err := writeEntryTable(os.Stdout, db.Entries()); err != nil {
		HandleError(err)
	}
	Save(ctx, lp, db)
}

func writeEntryTable(out io.Writer, entries []vault.PasswordEntry) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tTITLE\tNAME\tFILES")
	for _, entry := range entries {
		files := "-"
		if len(entry.Files) > 0 {
			files = fmt.Sprint(len(entry.Files))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", entry.ID, entry.EntryType, entry.Title, entry.Name, files)
		for i, f := range entry.Files {
			fmt.Fprintf(w, "\t\t  [%d] %s\t%s\t\n", i, f.Name, f.Comment)
		}
	}
	return w.Flush()
}
