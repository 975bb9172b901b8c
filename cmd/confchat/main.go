package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/matheus3301/confchat/internal/app"
	"github.com/matheus3301/confchat/internal/config"
	"github.com/matheus3301/confchat/internal/lock"
	"github.com/matheus3301/confchat/internal/session"
	"github.com/matheus3301/confchat/internal/store"
	intsync "github.com/matheus3301/confchat/internal/sync"
	"github.com/matheus3301/confchat/internal/tui"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const startTimeout = 15 * time.Second

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	flag.Parse()

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	th := tui.NewHost()

	var (
		engine *intsync.Engine
		db     *store.DB
		cfg    *config.Config
		logger *zap.Logger
	)
	fxApp := fx.New(
		app.Module(app.Params{SessionName: sessionName, Binary: "confchat", Host: th}),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l}
		}),
		fx.Populate(&engine, &db, &cfg, &logger),
	)
	if err := fxApp.Err(); err != nil {
		fail(err)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		fail(err)
	}

	ui := tui.NewApp(tui.Options{
		Host:         th,
		Engine:       engine,
		Store:        db,
		Session:      sessionName,
		Service:      cfg.APIURL,
		PollInterval: cfg.PollInterval.Duration,
		Logger:       logger,
	})
	runErr := ui.Run()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), startTimeout)
	defer stopCancel()
	if err := fxApp.Stop(stopCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
	}
	if runErr != nil {
		fail(runErr)
	}
}

func fail(err error) {
	var held *lock.LockHeldError
	if errors.As(err, &held) {
		fmt.Fprintf(os.Stderr, "error: session is in use by %s (pid %d)\n", held.Holder.Command, held.Holder.PID)
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(1)
}
