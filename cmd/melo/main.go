package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/matheus3301/melo/internal/app"
	"github.com/matheus3301/melo/internal/auth"
	"github.com/matheus3301/melo/internal/bus"
	"github.com/matheus3301/melo/internal/chat"
	"github.com/matheus3301/melo/internal/client"
	"github.com/matheus3301/melo/internal/config"
	"github.com/matheus3301/melo/internal/profile"
	"github.com/matheus3301/melo/internal/screen"
	"github.com/matheus3301/melo/internal/store"
	"github.com/matheus3301/melo/internal/tui"
)

const lifecycleTimeout = 15 * time.Second

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	debugFlag := flag.Bool("debug", false, "log at debug level")
	flag.Parse()

	cfg, err := config.Resolve(profile.ConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	name := profile.Resolve(*profileFlag, cfg)
	if err := profile.ValidateName(name); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var (
		ctrl    *auth.Controller
		session *chat.Session
		list    *chat.ConversationList
		machine *screen.Machine
		b       *bus.Bus
		db      *store.DB
		api     *client.Client
		logger  *zap.Logger
	)

	// The confirmer exists before the UI so the fx graph can hand it to
	// the chat components; the App attaches it to the screen later.
	confirmer := tui.NewModalConfirmer()
	fxApp := app.New(app.Params{
		Profile:   name,
		Config:    cfg,
		Owner:     "melo",
		Lock:      true,
		Debug:     *debugFlag,
		Confirmer: confirmer,
	}, fx.Populate(&ctrl, &session, &list, &machine, &b, &db, &api, &logger))

	startCtx, cancel := context.WithTimeout(context.Background(), lifecycleTimeout)
	err = fxApp.Start(startCtx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ui := tui.NewApp(tui.Deps{
		Profile:    name,
		Config:     cfg,
		Controller: ctrl,
		Session:    session,
		List:       list,
		Screen:     machine,
		Bus:        b,
		Prefs:      db,
		Health:     api,
		Confirmer:  confirmer,
		Logger:     logger,
	})
	runErr := ui.Run()
	ui.Wait()

	stopCtx, cancel := context.WithTimeout(context.Background(), lifecycleTimeout)
	defer cancel()
	if err := fxApp.Stop(stopCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}
