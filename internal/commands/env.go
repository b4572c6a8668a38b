package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/matheus3301/melo/internal/app"
	"github.com/matheus3301/melo/internal/auth"
	"github.com/matheus3301/melo/internal/chat"
	"github.com/matheus3301/melo/internal/client"
	"github.com/matheus3301/melo/internal/config"
	"github.com/matheus3301/melo/internal/domain"
	"github.com/matheus3301/melo/internal/profile"
	"github.com/matheus3301/melo/internal/store"
)

const lifecycleTimeout = 15 * time.Second

var errNotSignedIn = errors.New("not signed in (run 'meloctl login' first)")

// env is one command's view of the client: the fx graph started for the
// selected profile plus the command's I/O.
type env struct {
	profile string
	cfg     *config.Config
	format  string
	out     io.Writer
	errOut  io.Writer
	prompt  *prompter

	api     *client.Client
	db      *store.DB
	ctrl    *auth.Controller
	session *chat.Session
	list    *chat.ConversationList
	sweeper *chat.Sweeper
	logger  *zap.Logger

	escalated atomic.Bool
	fx        *fx.App
}

// envOptions tweak the graph for a single command.
type envOptions struct {
	assumeYes     bool
	retentionDays int
}

// openEnv resolves config and profile, then starts the client graph.
// Callers must close the env.
func openEnv(cmd *cobra.Command, g *globalFlags, opts envOptions) (*env, error) {
	cfg, err := config.Resolve(profile.ConfigPath())
	if err != nil {
		return nil, err
	}
	if opts.retentionDays > 0 {
		cfg.RetentionDays = opts.retentionDays
	}
	name := profile.Resolve(g.profile, cfg)
	if err := profile.ValidateName(name); err != nil {
		return nil, err
	}

	e := &env{
		profile: name,
		cfg:     cfg,
		format:  g.output,
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
		prompt:  newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr()),
	}
	e.fx = app.New(app.Params{
		Profile:      name,
		Config:       cfg,
		Owner:        "meloctl",
		Console:      g.verbose,
		Debug:        g.debug,
		Confirmer:    &confirmer{p: e.prompt, assumeYes: opts.assumeYes},
		OnEscalation: e.onEscalation,
	}, fx.Populate(&e.api, &e.db, &e.ctrl, &e.session, &e.list, &e.sweeper, &e.logger))

	ctx, cancel := context.WithTimeout(cmd.Context(), lifecycleTimeout)
	defer cancel()
	if err := e.fx.Start(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *env) close() {
	ctx, cancel := context.WithTimeout(context.Background(), lifecycleTimeout)
	defer cancel()
	if err := e.fx.Stop(ctx); err != nil {
		fmt.Fprintf(e.errOut, "warning: shutdown: %v\n", err)
	}
}

// restore signs in from the stored identity.
func (e *env) restore(ctx context.Context) (*domain.Identity, error) {
	if !e.ctrl.RestoreSession(ctx) {
		return nil, errNotSignedIn
	}
	return e.ctrl.Identity(), nil
}

func (e *env) onEscalation(chat.Escalation) {
	e.escalated.Store(true)
	fmt.Fprintln(e.errOut, "warning: Melo noticed you may be going through something serious. "+
		"If you are in danger, call your local emergency number or a crisis line (988 in the US).")
}

func (e *env) emit(v any, text func(io.Writer)) error {
	return emit(e.out, e.format, v, text)
}

// runEnv opens an env, runs fn and closes the env.
func runEnv(cmd *cobra.Command, g *globalFlags, opts envOptions, fn func(ctx context.Context, e *env) error) error {
	e, err := openEnv(cmd, g, opts)
	if err != nil {
		return err
	}
	defer e.close()
	return fn(cmd.Context(), e)
}
