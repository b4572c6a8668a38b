// meloctl is the scriptable Melo client. It shares profiles with the melo
// TUI.
package main

import (
	"fmt"
	"os"

	"github.com/matheus3301/melo/internal/commands"
)

// Version information, set with -ldflags at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
