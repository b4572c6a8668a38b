package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matheus3301/melo/internal/auth"
	"github.com/matheus3301/melo/internal/chat"
	"github.com/matheus3301/melo/internal/domain"
)

type identityView struct {
	UserID   string `json:"user_id" yaml:"user_id"`
	Username string `json:"username" yaml:"username"`
	Profile  string `json:"profile" yaml:"profile"`
}

func (e *env) emitIdentity(id *domain.Identity, verb string) error {
	v := identityView{UserID: id.UserID, Username: id.Username, Profile: e.profile}
	return e.emit(v, func(w io.Writer) {
		fmt.Fprintf(w, "%s %s (user %s, profile %s)\n", verb, v.Username, v.UserID, v.Profile)
	})
}

func newLoginCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "login [username]",
		Short: "Sign in and remember the identity for this profile",
		Long: `Sign in to Melo. The password is read from the terminal without echo,
or as the first line of stdin when stdin is not a terminal.

Examples:
  meloctl login ana
  printf 'secret\n' | meloctl login ana`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnv(cmd, g, envOptions{}, func(ctx context.Context, e *env) error {
				username := ""
				if len(args) == 1 {
					username = args[0]
				} else {
					var err error
					if username, err = e.prompt.line("Username: "); err != nil {
						return err
					}
				}
				password, err := e.prompt.password("Password: ")
				if err != nil {
					return err
				}
				id, err := e.ctrl.Login(ctx, username, password)
				if err != nil {
					return authFailure(err)
				}
				return e.emitIdentity(id, "Signed in as")
			})
		},
	}
}

func newSignupCmd(g *globalFlags) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "signup [username]",
		Short: "Create an account and sign in",
		Long: `Create a Melo account. The password is asked twice; when stdin is not a
terminal the first two lines are the password and its confirmation.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnv(cmd, g, envOptions{}, func(ctx context.Context, e *env) error {
				form := auth.SignupForm{Email: email}
				var err error
				if len(args) == 1 {
					form.Username = args[0]
				} else if form.Username, err = e.prompt.line("Username: "); err != nil {
					return err
				}
				if form.Password, err = e.prompt.password("Password: "); err != nil {
					return err
				}
				if form.Confirm, err = e.prompt.password("Confirm password: "); err != nil {
					return err
				}
				id, err := e.ctrl.Signup(ctx, form)
				if err != nil {
					return authFailure(err)
				}
				return e.emitIdentity(id, "Account created, signed in as")
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address (optional)")
	return cmd
}

func newLogoutCmd(g *globalFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored identity for this profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnv(cmd, g, envOptions{assumeYes: yes}, func(ctx context.Context, e *env) error {
				if _, err := e.restore(ctx); err != nil {
					return err
				}
				err := e.ctrl.Logout(ctx)
				if errors.Is(err, chat.ErrCancelled) {
					fmt.Fprintln(e.errOut, "Cancelled.")
					return nil
				}
				if err != nil {
					return err
				}
				return e.emit(map[string]bool{"signed_out": true}, func(w io.Writer) {
					fmt.Fprintln(w, "Signed out.")
				})
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newWhoamiCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user for this profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnv(cmd, g, envOptions{}, func(ctx context.Context, e *env) error {
				id, err := e.restore(ctx)
				if err != nil {
					return err
				}
				return e.emitIdentity(id, "Signed in as")
			})
		},
	}
}

// authFailure keeps the server's wording for rejected credentials.
func authFailure(err error) error {
	if domain.IsAuth(err) || domain.IsValidation(err) {
		return errors.New(domain.Reason(err))
	}
	return err
}
