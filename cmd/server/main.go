// ringbridge pairs wearable clients with Ring accounts and brokers the
// interactive Ring login on their behalf.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"

	"ringbridge/internal/application/service"
	"ringbridge/internal/config"
	"ringbridge/internal/infrastructure/cli"
	"ringbridge/internal/infrastructure/monitoring"
	"ringbridge/internal/infrastructure/persistence/mongo"
	"ringbridge/internal/interfaces/http/handlers"
	"ringbridge/internal/interfaces/http/router"
	"ringbridge/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ringbridge: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	ctx := context.Background()
	log.Info(ctx, "Starting ringbridge",
		logger.String("addr", cfg.Server.Addr()),
		logger.String("mongo_db", cfg.Mongo.Database))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)

	db, err := mongo.NewDB(&cfg.Mongo)
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Close(closeCtx)
	}()

	tokenRepo, err := mongo.NewRingTokenRepository(db, log)
	if err != nil {
		return fmt.Errorf("init token repository: %w", err)
	}

	tokenCache := service.NewTokenCache(tokenRepo, log)
	if err := tokenCache.WarmLoad(ctx); err != nil {
		// The service still works; credentials reload lazily as logins happen.
		log.Warn(ctx, "Token cache warm-load failed", logger.Err(err))
	}

	launcher := cli.NewShellLauncher(cfg.RingCLI.Command)
	broker := service.NewAuthBrokerService(launcher, tokenCache, cfg, metrics, log)
	sessions := service.NewDeviceSessionService(cfg, metrics, log)
	intercoms := service.NewIntercomService(broker, cfg, metrics, log)

	if spec := cfg.DeviceAuth.SweepSpec; spec != "" {
		sweeper := cron.New()
		if _, err := sweeper.AddFunc(spec, sessions.Sweep); err != nil {
			return fmt.Errorf("schedule session sweep: %w", err)
		}
		sweeper.Start()
		defer sweeper.Stop()
	}

	r := router.New(cfg, router.Handlers{
		Device: handlers.NewDeviceHandler(sessions),
		Auth:   handlers.NewAuthHandler(broker),
		Pair:   handlers.NewPairHandler(),
		Ring:   handlers.NewRingHandler(intercoms),
		Health: handlers.NewHealthHandler(db),
	}, registry, log)

	return r.Start()
}
