package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/illarion/lockpass/internal/vault"
)

var envNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Env prints the EnvironmentVariable entries of the vault at path as shell
// export statements
func (e *Env) Env(ctx context.Context, path string) {
	lp := e.LockPass(path)
	db := e.Unlock(ctx, lp)
	defer db.Wipe()

	skipped, err := WriteExports(os.Stdout, db.Entries())
	if err != nil {
		HandleError(err)
	}
	for _, entry := range skipped {
		fmt.Fprintf(os.Stderr, "Warning: skipping entry %s, %q is not a valid variable name\n", entry.ID, entry.Name)
	}
	Save(ctx, lp, db)
}

// WriteExports writes one export line per EnvironmentVariable entry and
// returns the entries whose names cannot be used as shell variables
func WriteExports(w io.Writer, entries []vault.PasswordEntry) ([]vault.PasswordEntry, error) {
	var skipped []vault.PasswordEntry
	for _, entry := range entries {
		if entry.EntryType != vault.EnvironmentVariable {
			continue
		}
		if !envNamePattern.MatchString(entry.Name) {
			skipped = append(skipped, entry)
			continue
		}
		if _, err := fmt.Fprintf(w, "export %s='", entry.Name); err != nil {
			return skipped, err
		}
		if _, err := entry.Value.WriteTo(singleQuoter{w}); err != nil {
			return skipped, err
		}
		if _, err := io.WriteString(w, "'\n"); err != nil {
			return skipped, err
		}
	}
	return skipped, nil
}

// singleQuoter escapes single quotes for use inside a single-quoted shell word
type singleQuoter struct {
	w io.Writer
}

func (q singleQuoter) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\'')
		if i < 0 {
			n, err := q.w.Write(p)
			return written + n, err
		}
		n, err := q.w.Write(p[:i])
		written += n
		if err != nil {
			return written, err
		}
		if _, err := io.WriteString(q.w, `'\''`); err != nil {
			return written, err
		}
		written++
		p = p[i+1:]
	}
	return written, nil
}
