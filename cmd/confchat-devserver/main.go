package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/matheus3301/confchat/internal/api"
	"github.com/matheus3301/confchat/internal/devserver"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var chatter = []string{
	"Are you coming to the keynote?",
	"The coffee line is huge",
	"Which room is the Go talk in?",
	"See you at the after party",
	"Great talk!",
}

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "listen address")
	token := flag.String("token", "", "require this token in the Authorization header")
	scheme := flag.String("auth-scheme", api.DefaultAuthScheme, "Authorization scheme")
	autoReply := flag.Bool("auto-reply", true, "partners answer every message")
	partners := flag.String("partners", "Alice:🦊,Bob:🐻,Carol:🐼", "comma separated name:emoji partners to seed")
	every := flag.Duration("chatter", 0, "deliver a random partner message at this interval (0 disables)")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger, err := newLogger(*level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	srv := devserver.New(devserver.Options{
		Token:      *token,
		AuthScheme: *scheme,
		AutoReply:  *autoReply,
		Logger:     logger,
	})
	ids := seed(srv, *partners)
	logger.Info("partners seeded", zap.Int("count", len(ids)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *every > 0 && len(ids) > 0 {
		go deliverChatter(ctx, srv, ids, *every, logger)
	}

	httpSrv := &http.Server{
		Addr:              *addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info("dev server listening", zap.String("addr", *addr))
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("dev server stopped")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// seed registers partners from a "name:emoji,..." list with IDs 1..n and
// greets from each of them.
func seed(srv *devserver.Server, list string) []api.PartnerID {
	var ids []api.PartnerID
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, emoji, _ := strings.Cut(entry, ":")
		id := api.PartnerID(strconv.Itoa(len(ids) + 1))
		srv.AddPartner(api.Partner{ID: id, DisplayName: name, Emoji: emoji})
		_, _ = srv.Deliver(id, "Hi, I'm "+name)
		ids = append(ids, id)
	}
	return ids
}

func deliverChatter(ctx context.Context, srv *devserver.Server, ids []api.PartnerID, every time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			id := ids[rand.IntN(len(ids))]
			var err error
			if rand.IntN(5) == 0 {
				_, err = srv.DeliverSticker(id)
			} else {
				_, err = srv.Deliver(id, chatter[rand.IntN(len(chatter))])
			}
			if err != nil {
				logger.Debug("chatter skipped", zap.String("partner_id", id.String()), zap.Error(err))
			}
		}
	}
}
