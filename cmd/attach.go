package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/illarion/lockpass/internal/crypto"
	"github.com/illarion/lockpass/internal/security"
	"github.com/illarion/lockpass/internal/vault"
)

// Attach stores the files in paths on the entry id
func (e *Env) Attach(ctx context.Context, path, id, comment string, paths []string) {
	lp := e.LockPass(path)
	db := e.Unlock(ctx, lp)
	defer db.Wipe()

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			HandleError(err)
		}
		err = db.AttachFile(id, filepath.Base(p), comment, data)
		crypto.ClearBytes(data)
		if err != nil {
			HandleError(err)
		}
		e.Log.Info(ctx, "attached file", "entry", id, "file", filepath.Base(p))
		fmt.Printf("Attached %s (%s)\n", filepath.Base(p), formatSize(int64(len(data))))
	}
	Save(ctx, lp, db)
}

// Extract writes attachments of the entry id into dir. A negative index
// extracts all of them.
func (e *Env) Extract(ctx context.Context, path, id string, index int, dir string) {
	lp := e.LockPass(path)
	db := e.Unlock(ctx, lp)
	defer db.Wipe()

	entry, ok := db.EntryByID(id)
	if !ok {
		HandleError(fmt.Errorf("%w: %s", vault.ErrEntryNotFound, id))
	}

	root, err := security.OpenRoot(dir)
	if err != nil {
		HandleError(err)
	}
	defer root.Close()

	indexes := []int{index}
	if index < 0 {
		indexes = indexes[:0]
		for i := range entry.Files {
			indexes = append(indexes, i)
		}
	}

	for _, i := range indexes {
		f, data, err := db.FileContent(id, i)
		if err != nil {
			HandleError(err)
		}
		err = root.WriteFile(f.Name, data, 0600)
		crypto.ClearBytes(data)
		if err != nil {
			HandleError(err)
		}
		out, _ := root.Join(f.Name)
		fmt.Printf("Extracted %s\n", out)
	}
	Save(ctx, lp, db)
}
