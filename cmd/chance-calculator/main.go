package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/fortuna/services/chance-calculator/internal/cache"
	"github.com/XavierBriggs/fortuna/services/chance-calculator/internal/calculator"
	"github.com/XavierBriggs/fortuna/services/chance-calculator/internal/config"
	"github.com/XavierBriggs/fortuna/services/chance-calculator/internal/consumer"
	"github.com/XavierBriggs/fortuna/services/chance-calculator/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/chance-calculator/internal/hub"
	"github.com/XavierBriggs/fortuna/services/chance-calculator/internal/logging"
	"github.com/XavierBriggs/fortuna/services/chance-calculator/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/chance-calculator/internal/publisher"
	"github.com/XavierBriggs/fortuna/services/chance-calculator/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := log.NewLogfmtLogger(os.Stderr)
		level.Error(fallback).Log("msg", "failed to load config", "err", err)
		os.Exit(1)
	}

	logger, err := logging.New(os.Stdout, cfg.LogLevel)
	if err != nil {
		level.Error(log.NewLogfmtLogger(os.Stderr)).Log("msg", "invalid log level", "err", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		level.Error(logger).Log("msg", "chance calculator stopped with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger log.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	h := hub.NewHub(logger, m)

	deps := handlers.Dependencies{
		Simulator: calculator.NewSimulator(
			cfg.Simulation.Workers,
			cfg.Simulation.DefaultTrials,
			cfg.Simulation.MaxTrials,
			cfg.Simulation.Tolerance,
		),
		Hub:            h,
		Metrics:        m,
		Logger:         logger,
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
	}

	// Simulation history
	if cfg.Postgres.Enabled {
		pg, err := store.NewPostgres(cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer pg.Close()

		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err = pg.Ping(pingCtx)
		if err == nil {
			err = pg.EnsureSchema(pingCtx)
		}
		pingCancel()
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}

		deps.Store = pg
		level.Info(logger).Log("msg", "connected to postgres")
	} else {
		deps.Store = store.NewMemory(store.MaxListLimit)
		level.Info(logger).Log("msg", "postgres disabled, keeping simulation history in memory")
	}

	// Conversion cache and simulation stream
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.URL,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			return fmt.Errorf("connect redis at %s: %w", cfg.Redis.URL, err)
		}

		pub := publisher.NewStreamPublisher(redisClient, cfg.Redis.Stream)
		deps.Cache = cache.NewRedisCache(redisClient, cfg.Redis.CacheTTL)
		deps.Publisher = pub

		sc := consumer.NewStreamConsumer(redisClient, h, pub.Stream(), cfg.Redis.ConsumerGroup, cfg.Redis.ConsumerID, logger)
		go func() {
			if err := sc.Start(ctx); err != nil {
				level.Error(logger).Log("msg", "stream consumer failed", "err", err)
			}
		}()
		level.Info(logger).Log("msg", "connected to redis", "addr", cfg.Redis.URL, "stream", pub.Stream())
	}

	go h.Run(ctx)

	handler := handlers.NewHandler(ctx, deps)
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handlers.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		level.Info(logger).Log("msg", "chance calculator started", "addr", cfg.Server.Addr,
			"workers", cfg.Simulation.Workers, "default_trials", cfg.Simulation.DefaultTrials,
			"tolerance", cfg.Simulation.Tolerance)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		level.Info(logger).Log("msg", "shutting down gracefully", "signal", sig.String())
	case err := <-serverErr:
		return err
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	level.Info(logger).Log("msg", "chance calculator stopped")
	return nil
}
