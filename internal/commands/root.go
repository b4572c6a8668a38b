// Package commands implements the meloctl CLI.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionInfo struct {
	version string
	commit  string
	date    string
}

// SetVersionInfo sets version information from main.
func SetVersionInfo(version, commit, date string) {
	versionInfo.version = version
	versionInfo.commit = commit
	versionInfo.date = date
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	profile string
	output  string
	debug   bool
	verbose bool
}

// NewRootCmd builds the meloctl command tree.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "meloctl",
		Short: "Scriptable client for the Melo companion",
		Long: `meloctl talks to the Melo backend from scripts and shells.

It shares the profile store with the melo TUI, so a login here signs the
TUI in too.

Environment variables:
  MELO_API_URL          - Backend base URL (default: http://localhost:5000/api)
  MELO_PROFILE          - Profile used when --profile is not given
  MELO_REQUEST_TIMEOUT  - Per-request timeout, e.g. 30s
  MELO_RETENTION_DAYS   - Age in days after which conversations are swept
  MELO_HOME             - State directory (default: ~/.melo)`,
		Version: versionInfo.version,
		// main prints the error.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return validateOutput(g.output)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetVersionTemplate(fmt.Sprintf("meloctl %s (%s, %s)\n", versionInfo.version, versionInfo.commit, versionInfo.date))

	pf := root.PersistentFlags()
	pf.StringVar(&g.profile, "profile", "", "Profile name (overrides config default)")
	pf.StringVarP(&g.output, "output", "o", outputText, "Output format: text, json or yaml")
	pf.BoolVar(&g.debug, "debug", false, "Log at debug level")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "Also write logs to stderr")

	root.AddCommand(
		newLoginCmd(g),
		newSignupCmd(g),
		newLogoutCmd(g),
		newWhoamiCmd(g),
		newSendCmd(g),
		newConversationsCmd(g),
		newHealthCmd(g),
		newThemeCmd(g),
	)
	return root
}

// Execute runs meloctl with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}
