// Package app wires configuration, storage and services together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/verte-zerg/typetrack/internal/auth"
	"github.com/verte-zerg/typetrack/internal/cache"
	"github.com/verte-zerg/typetrack/internal/config"
	"github.com/verte-zerg/typetrack/internal/generator"
	"github.com/verte-zerg/typetrack/internal/httpserver"
	"github.com/verte-zerg/typetrack/internal/observability"
	"github.com/verte-zerg/typetrack/internal/session"
	"github.com/verte-zerg/typetrack/internal/store"
	"github.com/verte-zerg/typetrack/internal/wordlist"
)

// Services are the in-process domain services shared by the HTTP server and
// the terminal commands.
type Services struct {
	Store    *store.Store
	Auth     *auth.Service
	Sessions *session.Service

	redis *cache.Redis
}

// OpenServices opens the store and the analysis cache and builds the
// services on top of them. A Redis URL selects the shared cache, otherwise
// an in-memory cache is used.
func OpenServices(ctx context.Context, cfg config.Config, logger *slog.Logger, recorder session.Recorder) (*Services, error) {
	st, err := store.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	authService, err := auth.NewService(st, auth.Config{
		Secret:     cfg.Auth.JWTSecret,
		TokenTTL:   cfg.Auth.TokenTTL,
		BcryptCost: cfg.Auth.BcryptCost,
		Issuer:     "typetrack",
	})
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("create auth service: %w", err)
	}

	svc := &Services{Store: st, Auth: authService}
	opts := []session.Option{session.WithLogger(logger)}
	if recorder != nil {
		opts = append(opts, session.WithRecorder(recorder))
	}
	if cfg.Cache.RedisURL != "" {
		rc, err := cache.DialRedis(ctx, cfg.Cache.RedisURL, cfg.Cache.TTL)
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		svc.redis = rc
		opts = append(opts, session.WithCache(rc))
		logger.Info("analysis cache", "backend", "redis")
	} else if cfg.Cache.Size > 0 {
		opts = append(opts, session.WithCache(cache.NewMemory(cfg.Cache.Size, cfg.Cache.TTL)))
		logger.Debug("analysis cache", "backend", "memory", "size", cfg.Cache.Size)
	}
	svc.Sessions = session.NewService(st, opts...)
	return svc, nil
}

// Ping checks the store and, when configured, the Redis cache.
func (s *Services) Ping(ctx context.Context) error {
	if err := s.Store.Ping(ctx); err != nil {
		return err
	}
	if s.redis != nil {
		if err := s.redis.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the store and cache connections.
func (s *Services) Close() error {
	var errs []error
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	errs = append(errs, s.Store.Close())
	return errors.Join(errs...)
}

type App struct {
	cfg      config.Config
	log      *slog.Logger
	services *Services
	server   *httpserver.Server
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(true); err != nil {
		return nil, err
	}
	metrics := observability.NewMetrics()
	services, err := OpenServices(ctx, cfg, logger, metrics)
	if err != nil {
		return nil, err
	}

	gen := generator.New()
	server := httpserver.New(cfg.Server, httpserver.Deps{
		Auth:     services.Auth,
		Sessions: services.Sessions,
		Health:   services,
		Metrics:  metrics,
		Logger:   logger,
		Passage: func() string {
			return gen.Sample(wordlist.Samples)
		},
	})

	return &App{
		cfg:      cfg,
		log:      logger,
		services: services,
		server:   server,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	defer func() {
		if err := a.services.Close(); err != nil {
			a.log.Warn("close services", "err", err)
		}
	}()

	errCh := make(chan error, 1)

	go func() {
		a.log.Info("http server starting", "addr", a.cfg.Server.Addr, "store", a.cfg.Store.Driver)
		errCh <- a.server.Start()
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server exited: %w", err)
	}
}
