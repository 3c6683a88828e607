package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/illarion/lockpass/internal/config"
)

// ConfigShow prints every setting with the layer it came from
func (e *Env) ConfigShow() {
	fmt.Printf("Config file: %s\n\n", e.Config.FilePath())
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SETTING\tVALUE\tSOURCE")
	for _, a := range e.Config.Attributes() {
		value := a.Value
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", a.Name, value, a.Source)
	}
	w.Flush()
}

// ConfigInit writes the effective settings to the config file
func (e *Env) ConfigInit(force bool) {
	path := e.Config.FilePath()
	if _, err := os.Stat(path); err == nil && !force {
		fmt.Fprintf(os.Stderr, "Error: %s already exists, use -force to overwrite\n", path)
		os.Exit(1)
	}
	if err := config.Save(e.Config, path); err != nil {
		HandleError(err)
	}
	fmt.Printf("Wrote %s\n", path)
}
