// Command finboard runs the personal finance dashboard service. It polls an
// HG Brasil-compatible finance API for currency and stock quotes while a
// user session is active and serves the dashboard UI over HTTP.
//
// Usage:
//
//	finboard --config config.yaml
//	finboard setup   (interactive config wizard)
//	finboard         (uses CLI arguments)
//
// Environment variables:
//
//	FINBOARD_API_KEY     finance API key
//	FINBOARD_JWT_SECRET  session token signing secret
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/juliobfg/finboard/config"
	"github.com/juliobfg/finboard/internal/auth"
	"github.com/juliobfg/finboard/internal/engine"
	"github.com/juliobfg/finboard/internal/history"
	"github.com/juliobfg/finboard/internal/market"
	"github.com/juliobfg/finboard/internal/quote"
	"github.com/juliobfg/finboard/internal/setup"
	"github.com/juliobfg/finboard/internal/storage/users"
	"github.com/juliobfg/finboard/internal/web"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		return
	}

	// .env is optional; real deployments set env variables directly.
	_ = godotenv.Load()

	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	userStore, err := users.NewWALStore(cfg.UsersDir)
	if err != nil {
		logger.Fatal("failed to open user store", zap.Error(err))
	}
	defer userStore.Close()

	authSvc := auth.NewService(userStore, []byte(cfg.JWTSecret), cfg.SessionTTL, logger)

	cal := market.NewCalendar(cfg.MarketOpenHour, cfg.MarketCloseHour)
	store := history.NewStore(cal, cfg.MaxHistory, cfg.PollInterval, nil)
	fetcher := quote.NewFetcher(cfg.APIEndpoint, cfg.APIKey, logger)
	eng := engine.New(fetcher, store, cfg.MaxItems, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poller := eng.StartPolling(ctx, cfg.PollInterval, authSvc.HasActiveSession)
	defer poller.Stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return web.NewServer(cfg.ListenAddr, eng, authSvc, logger).Start(ctx)
	})

	logger.Info("finboard started",
		zap.String("addr", cfg.ListenAddr),
		zap.Duration("poll_interval", cfg.PollInterval))

	if err := g.Wait(); err != nil {
		logger.Error("finboard stopped with error", zap.Error(err))
	}
}
