package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/raysh454/nyxguard/internal/logging"
	"github.com/raysh454/nyxguard/internal/monitor"
	"github.com/raysh454/nyxguard/internal/reputation"
	"github.com/raysh454/nyxguard/internal/scanner"
	"github.com/raysh454/nyxguard/internal/server"
	"github.com/raysh454/nyxguard/internal/settings"
	"github.com/raysh454/nyxguard/internal/store"
	"github.com/raysh454/nyxguard/internal/trackers"
	"github.com/raysh454/nyxguard/internal/webclient"
)

const shutdownTimeout = 15 * time.Second

// Application is the global runtime state container. It owns the shared
// services and closes them in reverse order of construction.
type Application struct {
	Config *Config
	Logger logging.Logger

	Store      store.KV
	Settings   *settings.Service
	Reputation *reputation.Client
	Monitor    *monitor.Monitor
	Scanner    *scanner.Scanner
	Trackers   *trackers.Matcher

	closers []func() error
}

// New wires every component from cfg.
func New(ctx context.Context, cfg *Config, logger logging.Logger) (_ *Application, err error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	a := &Application{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	kv, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.Store = kv
	a.closers = append(a.closers, kv.Close)
	a.Settings = settings.NewService(kv, logger)

	// The reputation API needs request headers, so it always goes over
	// net/http whatever backend renders pages.
	apiCfg := cfg.WebClient
	apiCfg.Client = webclient.ClientNetHTTP
	apiClient, err := webclient.NewWebClient(apiCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("new api webclient: %w", err)
	}
	a.closers = append(a.closers, apiClient.Close)

	pageClient := apiClient
	if cfg.WebClient.Client != "" && cfg.WebClient.Client != webclient.ClientNetHTTP {
		pageClient, err = webclient.NewWebClient(cfg.WebClient, logger)
		if err != nil {
			return nil, fmt.Errorf("new page webclient: %w", err)
		}
		a.closers = append(a.closers, pageClient.Close)
	}

	var cache reputation.Cache
	if cfg.Reputation.RedisURL != "" {
		rc, err := reputation.NewRedisCache(ctx, cfg.Reputation.RedisURL, logger)
		if err != nil {
			return nil, fmt.Errorf("connect reputation cache: %w", err)
		}
		a.closers = append(a.closers, rc.Close)
		cache = rc
	}
	a.Reputation = reputation.NewClient(cfg.Reputation, apiClient, cache, logger)

	notifier := monitor.LogNotifier{Logger: logger.With(logging.Component("alerts"))}
	a.Monitor = monitor.New(cfg.Monitor, a.Settings, a.Reputation, notifier, kv, logger)
	a.closers = append(a.closers, a.Monitor.Close)

	a.Trackers = trackers.NewDefaultMatcher()
	a.Scanner = scanner.New(cfg.Scanner, pageClient, a.Monitor, a.Settings, a.Reputation, a.Trackers, logger)

	logger.Info("application initialized",
		logging.Field{Key: "store", Value: cfg.Store.Driver},
		logging.Field{Key: "webclient", Value: string(cfg.WebClient.Client)},
		logging.Field{Key: "redis", Value: cfg.Reputation.RedisURL != ""})
	return a, nil
}

// Server builds the HTTP API over the application's services.
func (a *Application) Server() *server.Server {
	return server.NewServer(a.Config.Server, server.Services{
		Monitor:    a.Monitor,
		Scanner:    a.Scanner,
		Settings:   a.Settings,
		Reputation: a.Reputation,
		Trackers:   a.Trackers,
	}, a.Logger)
}

// Serve runs the HTTP API until ctx is cancelled, then shuts it down
// gracefully.
func (a *Application) Serve(ctx context.Context) error {
	httpServer := a.Server().HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("listening", logging.Field{Key: "addr", Value: httpServer.Addr})
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	a.Logger.Info("shutdown initiated")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close releases every component. It is safe to call more than once.
func (a *Application) Close() error {
	if a == nil {
		return errors.New("application is nil")
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
