package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/lockpass/internal/storage"
)

// Compact compacts the vault registry to reclaim unused space
func (e *Env) Compact(ctx context.Context) {
	path := e.Config.RegistryPath

	info, err := os.Stat(path)
	if err != nil {
		HandleError(err)
	}
	sizeBefore := info.Size()

	reg, err := storage.Open(path)
	if err != nil {
		HandleError(err)
	}
	err = reg.Compact()
	reg.Close()
	if err != nil {
		HandleError(err)
	}

	info, err = os.Stat(path)
	if err != nil {
		HandleError(err)
	}
	sizeAfter := info.Size()
	e.Log.Debug(ctx, "registry compacted", "before", sizeBefore, "after", sizeAfter)

	fmt.Printf("Compacted: %s -> %s\n", formatSize(sizeBefore), formatSize(sizeAfter))
}
