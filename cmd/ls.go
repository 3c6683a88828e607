package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/illarion/lockpass/internal/storage"
)

// Ls lists the vaults recorded in the registry. No password is required.
func (e *Env) Ls(ctx context.Context, namesOnly, prune bool) {
	reg, err := storage.Open(e.Config.RegistryPath)
	if err != nil {
		HandleError(err)
	}
	defer reg.Close()

	if prune {
		removed, err := reg.Prune()
		if err != nil {
			HandleError(err)
		}
		for _, info := range removed {
			e.Log.Info(ctx, "pruned missing vault", "path", info.Path)
			if !namesOnly {
				fmt.Printf("Forgot missing vault %s\n", info.Path)
			}
		}
	}

	vaults, err := reg.List()
	if err != nil {
		HandleError(err)
	}

	if namesOnly {
		for _, info := range vaults {
			fmt.Println(info.Name)
		}
		return
	}

	if len(vaults) == 0 {
		fmt.Println("No vaults yet, create one with 'lockpass new'")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tENTRIES\tSIZE\tLAST OPENED\tPATH")
	for _, info := range vaults {
		size := "missing"
		if fi, err := os.Stat(info.Path); err == nil {
			size = formatSize(fi.Size())
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			info.Name, info.Entries, size, formatTime(info.LastOpened), info.Path)
	}
	w.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}
