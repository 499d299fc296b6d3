// Command gallery-server serves the gallery over HTTP.
//
// Configuration comes from GALLERY_* environment variables, see
// serverConfig. Without GALLERY_REDIS_ADDR sessions live in process memory.
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

	goGallery "github.com/MrEthical07/goGallery"
	"github.com/MrEthical07/goGallery/images"
	"github.com/MrEthical07/goGallery/internal/logger"
	"github.com/MrEthical07/goGallery/internal/server"
	"github.com/MrEthical07/goGallery/metrics/export/prometheus"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Redact: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, closeRedis, err := openRedis(cfg, log)
	if err != nil {
		return err
	}
	defer closeRedis()

	repo, err := images.Open(ctx, cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			log.Warn().Err(err).Msg("close image store")
		}
	}()

	b := goGallery.New().
		WithConfig(cfg.galleryConfig()).
		WithImages(repo).
		WithLogger(log)
	if rdb != nil {
		b = b.WithRedis(rdb)
	}
	if cfg.AuditLog {
		b = b.WithAuditSink(goGallery.NewJSONWriterSink(os.Stderr))
	}
	g, err := b.Build()
	if err != nil {
		return fmt.Errorf("build gallery: %w", err)
	}
	defer g.Close()

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: server.New(g, server.Options{
			Metrics: prometheus.NewExporter(g).Handler(),
			Logger:  log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("identity", cfg.IdentityURL).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openRedis returns nil when sessions should stay in memory.
func openRedis(cfg serverConfig, log zerolog.Logger) (redis.UniversalClient, func(), error) {
	addr := cfg.RedisAddr
	if addr == "" && !cfg.UseMiniredis {
		log.Info().Msg("using in-memory sessions")
		return nil, func() {}, nil
	}

	var mr *miniredis.Miniredis
	if addr == "" {
		var err error
		mr, err = miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start miniredis: %w", err)
		}
		addr = mr.Addr()
		log.Info().Str("addr", addr).Msg("using miniredis sessions")
	} else {
		log.Info().Str("addr", addr).Msg("using redis sessions")
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	cleanup := func() {
		_ = client.Close()
		if mr != nil {
			mr.Close()
		}
	}
	return client, cleanup, nil
}
