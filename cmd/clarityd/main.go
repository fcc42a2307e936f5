package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/claritycheck/claritycheck/internal/alert"
	"github.com/claritycheck/claritycheck/internal/analyzer"
	"github.com/claritycheck/claritycheck/internal/cache"
	"github.com/claritycheck/claritycheck/internal/config"
	"github.com/claritycheck/claritycheck/internal/pipeline"
	"github.com/claritycheck/claritycheck/internal/render"
	"github.com/claritycheck/claritycheck/internal/server"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load config")
	}

	var store cache.Cache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to Redis")
		}
		store = cache.NewRedis(client)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Using Redis cache")
	} else {
		store = cache.NewMemory()
		log.Info().Msg("Using in-memory cache")
	}
	keyed := cache.NewKeyed(store, time.Duration(cfg.Cache.TTLSeconds)*time.Second)

	a := analyzer.New(cfg.Detectors, cfg.Scoring, cfg.Analysis.UnitBudget)
	renderer := render.NewClient(cfg.Renderer)
	p := pipeline.New(renderer, a, keyed, pipeline.UnitsFrom(cfg.Analysis))

	alerts := alert.NewPublisher(cfg.Kafka, cfg.Alerts)
	if alerts == nil {
		log.Info().Msg("Alert publishing disabled")
	}

	srv := server.New(cfg.Server.Addr, p, a, alerts)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("Server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
	if err := alerts.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close alert publisher")
	}
	log.Info().Msg("Stopped")
}
