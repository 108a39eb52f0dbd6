package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/veldt-labs/commandzone/internal/boardstate"
	appcfg "github.com/veldt-labs/commandzone/internal/config"
	"github.com/veldt-labs/commandzone/internal/coordinator"
	"github.com/veldt-labs/commandzone/internal/gamestate"
	"github.com/veldt-labs/commandzone/internal/gql"
	"github.com/veldt-labs/commandzone/internal/history"
	"github.com/veldt-labs/commandzone/internal/nav"
	"github.com/veldt-labs/commandzone/internal/notify"
	"github.com/veldt-labs/commandzone/internal/obslog"
	"github.com/veldt-labs/commandzone/internal/persist"
	"github.com/veldt-labs/commandzone/internal/session"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()

	notifier := notify.NewLog(logger)
	catalog, err := notify.NewCatalog()
	if err != nil {
		logger.Warn("message catalog unavailable", zap.Error(err))
	}

	// Identity persistence: Redis preferred, session file fallback.
	kvs := persist.Chain{}
	if cfg.RedisURL != "" {
		rkv, err := persist.NewRedisKV(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis init error: %v", err)
		}
		defer rkv.Close()
		kvs = append(kvs, rkv)
	}
	kvs = append(kvs, persist.NewFileKV(cfg.SessionFile))

	// The token header reads the session store, which is built after
	// the client; the closure resolves at request time.
	var sess *session.Store
	headers := func() map[string]string {
		h := map[string]string{}
		if sess != nil {
			if tok := sess.Token(); tok != "" {
				h["Authorization"] = "Bearer " + tok
			}
		}
		return h
	}

	client := gql.NewClient(cfg.APIBaseURL,
		gql.WithTimeout(time.Duration(cfg.RequestTimeoutSec)*time.Second),
		gql.WithHeaderProvider(headers),
	)
	ws := gql.NewSocket(cfg.APIWSURL, 5)
	ws.SetHeaderProvider(headers)
	ws.OnStateChange(func(state gql.SocketState) {
		logger.Info("socket state", zap.String("state", string(state)))
	})

	sess = session.NewStore(kvs, client, notifier, nav.Log{})
	ctx := context.Background()
	if err := sess.Hydrate(ctx); err != nil {
		log.Fatalf("session hydrate error: %v", err)
	}
	logger.Info("session ready", zap.String("user_id", sess.UserID()))

	var hist *history.Repository
	if cfg.DatabaseURL != "" {
		hist, err = history.NewRepository(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("history repo init error: %v", err)
		}
		defer hist.Close()
	}

	boards := boardstate.NewStore(notifier)
	games := gamestate.NewStore(client, notifier, nav.Log{}, hist)

	api := struct {
		*gql.Client
		*gql.Socket
	}{client, ws}
	coord := coordinator.New(api, boards, games, sess, notifier, catalog, hist)

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = ws.Connect(cctx)
	cancel()
	if err != nil {
		log.Fatalf("socket connect error: %v", err)
	}

	if cfg.GameID != "" {
		if err := coord.SubscribeGame(ctx, cfg.GameID); err != nil {
			logger.Error("game subscribe failed", zap.String("game_id", cfg.GameID), zap.Error(err))
		}
		if err := coord.EnterGame(ctx, cfg.GameID); err != nil {
			logger.Error("enter game failed", zap.String("game_id", cfg.GameID), zap.Error(err))
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	coord.LeaveGame()
	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	_ = ws.Close(closeCtx)
	closeCancel()
}
