package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matheus3301/melo/internal/domain"
)

type healthResult struct {
	APIURL string `json:"api_url" yaml:"api_url"`
	OK     bool   `json:"ok" yaml:"ok"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

func newHealthCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnv(cmd, g, envOptions{}, func(ctx context.Context, e *env) error {
				ctx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout.Duration)
				defer cancel()
				probeErr := e.api.Health(ctx)

				res := healthResult{APIURL: e.cfg.APIURL, OK: probeErr == nil}
				if probeErr != nil {
					res.Error = domain.Reason(probeErr)
				}
				if err := e.emit(res, func(w io.Writer) {
					if res.OK {
						fmt.Fprintf(w, "Backend at %s is up.\n", res.APIURL)
					}
				}); err != nil {
					return err
				}
				if probeErr != nil {
					return fmt.Errorf("backend unreachable at %s: %s", res.APIURL, res.Error)
				}
				return nil
			})
		},
	}
}

func newThemeCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "theme [dark|light]",
		Short: "Show or set the TUI colour theme for this profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var want domain.Theme
			if len(args) == 1 {
				switch v := strings.ToLower(args[0]); v {
				case string(domain.ThemeDark), string(domain.ThemeLight):
					want = domain.Theme(v)
				default:
					return fmt.Errorf("unknown theme %q (want dark or light)", args[0])
				}
			}
			return runEnv(cmd, g, envOptions{}, func(ctx context.Context, e *env) error {
				if want != "" {
					if err := e.db.SetTheme(ctx, want); err != nil {
						return err
					}
				}
				t := e.db.Theme(ctx)
				return e.emit(map[string]string{"theme": string(t)}, func(w io.Writer) {
					fmt.Fprintf(w, "Theme: %s\n", t)
				})
			})
		},
	}
}
