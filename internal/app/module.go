// Package app wires the client components together with fx.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/matheus3301/confchat/internal/api"
	"github.com/matheus3301/confchat/internal/archive"
	"github.com/matheus3301/confchat/internal/bus"
	"github.com/matheus3301/confchat/internal/chatlist"
	"github.com/matheus3301/confchat/internal/config"
	"github.com/matheus3301/confchat/internal/host"
	"github.com/matheus3301/confchat/internal/lock"
	"github.com/matheus3301/confchat/internal/logging"
	"github.com/matheus3301/confchat/internal/session"
	"github.com/matheus3301/confchat/internal/status"
	"github.com/matheus3301/confchat/internal/store"
	intsync "github.com/matheus3301/confchat/internal/sync"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	// Binary names the log file and the lock holder.
	Binary string
	// Stderr mirrors logs on stderr; off for the TUI.
	Stderr bool
	// Host overrides the terminal host.
	Host host.Host
	// Config, when set, is used instead of reading config.toml.
	Config *config.Config
}

// Module returns the fx module of the client, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("confchat",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideStateMachine,
			provideHost,
			provideLock,
			provideStore,
			provideClient,
			provideChatList,
			provideEngine,
			provideRecorder,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	if p.Config != nil {
		return p.Config, p.Config.Validate()
	}
	if err := config.LoadDotEnv(session.EnvPaths()...); err != nil {
		return nil, err
	}
	cfg, err := config.LoadOrDefault(session.ConfigPath())
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func provideLogger(p Params, cfg *config.Config) (*zap.Logger, error) {
	binary := p.Binary
	if binary == "" {
		binary = "confchat"
	}
	return logging.New(logging.Options{
		Path:    session.LogPath(p.SessionName, binary),
		Session: p.SessionName,
		Level:   cfg.LogLevel,
		Stderr:  p.Stderr,
	})
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideHost(p Params) host.Host {
	if p.Host != nil {
		return p.Host
	}
	return host.NewTerminal()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName), p.Binary)
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

func provideStore(p Params, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.ArchivePath(p.SessionName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("archive migrated", zap.Uint("from", result.From), zap.Uint("version", result.Version))
	} else {
		logger.Debug("archive schema up to date", zap.Uint("version", result.Version))
	}
	logger.Info("archive initialized", zap.String("path", dbPath))
	return db, nil
}

func provideClient(cfg *config.Config, logger *zap.Logger) (*api.Client, error) {
	return api.New(api.Options{
		BaseURL:    cfg.APIURL,
		Token:      cfg.Token,
		AuthScheme: cfg.AuthScheme,
		Timeout:    cfg.RequestTimeout.Duration,
		Logger:     logger,
	})
}

func provideChatList(c *api.Client, b *bus.Bus, logger *zap.Logger) *chatlist.Manager {
	return chatlist.NewManager(c, b, logger)
}

func provideEngine(c *api.Client, cfg *config.Config, chats *chatlist.Manager, m *status.Machine, h host.Host, b *bus.Bus, logger *zap.Logger) *intsync.Engine {
	return intsync.NewEngine(c, intsync.Options{
		PollInterval: cfg.PollInterval.Duration,
		MessageLimit: cfg.MessageLimit,
		Logger:       logger,
		Bus:          b,
		Host:         h,
		Machine:      m,
		Chats:        chats,
	})
}

func provideRecorder(db *store.DB, b *bus.Bus, logger *zap.Logger) *archive.Recorder {
	return archive.NewRecorder(db, b, logger)
}

func registerLifecycle(lc fx.Lifecycle, engine *intsync.Engine, recorder *archive.Recorder, db *store.DB, lk *lock.Lock, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Archive everything the engine publishes.
			recorder.Start(context.Background())
			return nil
		},
		OnStop: func(_ context.Context) error {
			engine.Close()
			recorder.Stop()
			if err := db.Close(); err != nil {
				logger.Warn("error closing archive", zap.Error(err))
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
