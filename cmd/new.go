package cmd

import (
	"context"
	"fmt"
	"os"
	"os/user"

	"github.com/illarion/lockpass/internal/core"
	"github.com/illarion/lockpass/internal/crypto"
)

// New creates an empty vault at path
func (e *Env) New(ctx context.Context, path, author, comment string) {
	lp := e.LockPass(path)
	if lp.Exists() {
		HandleError(fmt.Errorf("%w: %s", core.ErrAlreadyExists, path))
	}

	if author == "" {
		author = defaultAuthor()
	}
	if comment == "" && e.Prompter.Interactive() {
		line, err := e.Prompter.ReadLine("Description (optional): ")
		if err != nil {
			HandleError(err)
		}
		comment = line
	}

	password, err := e.GetPasswordForNew()
	if err != nil {
		HandleError(err)
	}

	db, err := lp.Create(ctx, crypto.NewPassphrase(password), author, comment)
	if err != nil {
		HandleError(err)
	}
	defer db.Wipe()

	fmt.Printf("Created vault %s\n", path)
	fmt.Println("The password is not stored anywhere unless you run 'lockpass keyring save'")
}

func defaultAuthor() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "unknown"
}
