package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/cheliosooo/bankineco-amm-interface/internal/bankineco"
	"github.com/cheliosooo/bankineco-amm-interface/internal/cache"
	"github.com/cheliosooo/bankineco-amm-interface/internal/config"
	"github.com/cheliosooo/bankineco-amm-interface/internal/rpc"
	"github.com/cheliosooo/bankineco-amm-interface/internal/server"
	"github.com/cheliosooo/bankineco-amm-interface/internal/storage"
	"github.com/cheliosooo/bankineco-amm-interface/internal/venue"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	cfg := config.Load()
	venueKeys, err := cfg.Validate()
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	logger.SetLevel(level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	market, err := bankineco.New(venueKeys.Vault, bankineco.Options{
		Oracle:              venueKeys.Oracle,
		Team:                venueKeys.Team,
		YieldingMintProgram: venueKeys.YieldingMintProgram,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create market")
	}
	if venueKeys.Oracle.IsZero() {
		logger.Warn("BANKINECO_ORACLE not set: quoting from the administered rate")
	}
	if venueKeys.Team.IsZero() {
		logger.Warn("BANKINECO_TEAM not set: swap account requests will fail")
	}

	rpcClient := rpc.NewClient(rpc.ClientConfig{
		BaseURL:      cfg.RPCUrl,
		Timeout:      cfg.HTTPTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       logger,
	})

	slotCtx, slotCancel := context.WithTimeout(ctx, 10*time.Second)
	slot, err := rpcClient.GetSlot(slotCtx)
	slotCancel()
	if err != nil {
		logger.WithError(err).Fatal("rpc node unreachable")
	}
	logger.WithFields(logrus.Fields{"rpc": cfg.RPCUrl, "slot": slot}).Info("connected to rpc node")

	trackerCfg := venue.TrackerConfig{
		Market:  market,
		Fetcher: rpcClient,
		Logger:  logger,
	}

	// Redis and ClickHouse are optional: the API serves quotes without them
	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	rclient, err := cache.NewRedisClient(pingCtx, cfg.RedisAddr)
	pingCancel()
	if err != nil {
		logger.WithError(err).Warn("redis unavailable: no warm start or market updates")
	} else {
		defer rclient.Close()
		store, err := cache.NewSnapshotStore(rclient, 3*cfg.RefreshInterval)
		if err != nil {
			logger.WithError(err).Fatal("failed to create snapshot store")
		}
		trackerCfg.Snapshots = store
		trackerCfg.Publisher = cache.NewPubSubManager(rclient, logger)
	}

	chCtx, chCancel := context.WithTimeout(ctx, 5*time.Second)
	journal, err := cache.NewQuoteJournal(chCtx, cache.ClickHouseConfig{
		Addr:     cfg.ClickHouseAddr,
		Database: cfg.ClickHouseDatabase,
		Username: cfg.ClickHouseUsername,
		Password: cfg.ClickHousePassword,
		Logger:   logger,
	})
	chCancel()
	if err != nil {
		logger.WithError(err).Warn("clickhouse unavailable: quotes will not be journaled")
	} else {
		defer journal.Close()
		trackerCfg.Journal = journal
	}

	tracker, err := venue.NewTracker(trackerCfg)
	if err != nil {
		logger.WithError(err).Fatal("failed to create tracker")
	}

	if err := tracker.Warm(ctx); err != nil && !errors.Is(err, storage.ErrNotFound) {
		logger.WithError(err).Warn("warm start failed")
	}

	go func() {
		if err := tracker.Run(ctx, cfg.RefreshInterval); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("tracker stopped")
		}
	}()

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: &server.Handlers{
			Tracker: tracker,
			DevMode: cfg.DevMode,
			Logger:  logger,

			MaxSnapshotAge: 3 * cfg.RefreshInterval,
		},
		Config: server.ServerConfig{
			Addr:           cfg.APIAddr,
			DevMode:        cfg.DevMode,
			APIKey:         cfg.APIKey,
			QuoteRateLimit: float64(cfg.QuoteRateLimit),
			QuoteBurst:     cfg.QuoteBurst,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
		_ = srv.Shutdown(context.Background())
	}()

	logger.WithFields(logrus.Fields{
		"addr":  cfg.APIAddr,
		"vault": market.Key(),
	}).Info("api server starting")
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("api server failed")
	}

	if err := srv.WaitClosed(context.Background()); err != nil {
		logger.WithError(err).Warn("shutdown incomplete")
	}
}
