// Package app wires the client components together with fx.
package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/matheus3301/melo/internal/auth"
	"github.com/matheus3301/melo/internal/bus"
	"github.com/matheus3301/melo/internal/chat"
	"github.com/matheus3301/melo/internal/client"
	"github.com/matheus3301/melo/internal/config"
	"github.com/matheus3301/melo/internal/lock"
	"github.com/matheus3301/melo/internal/logging"
	"github.com/matheus3301/melo/internal/profile"
	"github.com/matheus3301/melo/internal/screen"
	"github.com/matheus3301/melo/internal/store"
)

// Params holds the resolved profile and configuration passed to the fx module.
type Params struct {
	Profile string
	Config  *config.Config
	// Owner names the program in the lock file and logs.
	Owner string
	// Lock takes the exclusive profile lock (TUI only).
	Lock bool
	// Console tees logs to stderr.
	Console bool
	Debug   bool
	// Confirmer is consulted before logout and delete when
	// confirm_destructive is on.
	Confirmer    chat.Confirmer
	OnEscalation func(chat.Escalation)
}

// Module returns the fx module composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("melo",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideScreen,
			provideLock,
			provideStore,
			provideClient,
			provideSession,
			provideConversationList,
			provideSweeper,
			provideController,
		),
		fx.Invoke(registerLifecycle),
	)
}

// New builds an fx app for p. fx's own events go to the zap logger so they
// never write over a terminal UI.
func New(p Params, extra ...fx.Option) *fx.App {
	opts := []fx.Option{
		Module(p),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
	}
	return fx.New(append(opts, extra...)...)
}

func provideLogger(p Params) (*zap.Logger, error) {
	if err := profile.EnsureDir(p.Profile); err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{
		Path:    profile.LogPath(p.Profile),
		Profile: p.Profile,
		Console: p.Console,
		Debug:   p.Debug,
	})
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("program", p.Owner)), nil
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideScreen(b *bus.Bus) *screen.Machine {
	return screen.NewMachine(b)
}

// provideLock returns a nil lock when p.Lock is off; Release is nil-safe.
func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if !p.Lock {
		return nil, nil
	}
	logger.Info("acquiring profile lock")
	l, err := lock.Acquire(profile.Dir(p.Profile), p.Owner)
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired", zap.String("path", l.Path()))
	return l, nil
}

func provideStore(p Params, logger *zap.Logger) (*store.DB, error) {
	path := profile.StatePath(p.Profile)
	db, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Debug("migrations up to date", zap.Uint("version", result.Version))
	}
	return db, nil
}

func provideClient(p Params, logger *zap.Logger) *client.Client {
	return client.New(p.Config.APIURL, client.WithLogger(logger.Named("client")))
}

func confirmer(p Params) chat.Confirmer {
	if !p.Config.ConfirmDestructive || p.Confirmer == nil {
		return chat.AlwaysConfirm
	}
	return p.Confirmer
}

func provideSession(p Params, api *client.Client, b *bus.Bus, logger *zap.Logger) *chat.Session {
	return chat.NewSession(api, b, logger.Named("session"), chat.Options{
		RequestTimeout:  p.Config.RequestTimeout.Duration,
		MaxMessageChars: p.Config.MaxMessageChars,
		EmotionDwell:    p.Config.EmotionDwell.Duration,
		EndNotice:       p.Config.EndConversationNotice,
		OnEscalation:    p.OnEscalation,
	})
}

func provideConversationList(p Params, api *client.Client, session *chat.Session, b *bus.Bus, logger *zap.Logger) *chat.ConversationList {
	list := chat.NewConversationList(api, session, confirmer(p), b, logger.Named("conversations"))
	session.SetRefresher(list)
	return list
}

func provideSweeper(p Params, api *client.Client, list *chat.ConversationList, logger *zap.Logger) *chat.Sweeper {
	return chat.NewSweeper(api, list, p.Config.RetentionDays, p.Config.RequestTimeout.Duration, logger.Named("sweeper"))
}

func provideController(p Params, api *client.Client, db *store.DB, m *screen.Machine, session *chat.Session,
	list *chat.ConversationList, sweeper *chat.Sweeper, logger *zap.Logger) *auth.Controller {
	return auth.NewController(auth.Deps{
		API:       api,
		Store:     db,
		Screen:    m,
		Session:   session,
		List:      list,
		Sweeper:   sweeper,
		Confirmer: confirmer(p),
		Logger:    logger.Named("auth"),
	}, auth.Options{
		Strict:         p.Config.StrictValidation,
		RequestTimeout: p.Config.RequestTimeout.Duration,
	})
}

func registerLifecycle(lc fx.Lifecycle, p Params, lk *lock.Lock, db *store.DB, session *chat.Session, sweeper *chat.Sweeper, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			logger.Info("client started",
				zap.String("api_url", p.Config.APIURL),
				zap.Duration("request_timeout", p.Config.RequestTimeout.Duration),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			waitOrTimeout(ctx, func() {
				sweeper.Wait()
				session.Wait()
			})
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("client stopped")
			_ = logger.Sync()
			return nil
		},
	})
}

// waitOrTimeout runs wait until it returns or ctx expires.
func waitOrTimeout(ctx context.Context, wait func()) {
	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
