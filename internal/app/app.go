package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/calpoll/calpoll/internal/api"
	"github.com/calpoll/calpoll/internal/config"
	"github.com/calpoll/calpoll/internal/scheduler"
	"github.com/calpoll/calpoll/internal/security"
	"github.com/calpoll/calpoll/internal/store/sqlite"
)

type Application struct {
	cfg    config.Config
	svc    *scheduler.Service
	logger *slog.Logger
}

// New wires a service around cfg. A nil service builds the default
// sqlite-backed one; tests inject their own.
func New(cfg config.Config, svc *scheduler.Service, logger *slog.Logger) *Application {
	if logger == nil {
		logger = slog.Default()
	}
	return &Application{cfg: cfg, svc: svc, logger: logger}
}

// BuildService opens the configured store and restores its events.
func BuildService(ctx context.Context, cfg config.Config, logger *slog.Logger) (*scheduler.Service, func() error, error) {
	store, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	svc := scheduler.New(store, logger)
	if err := svc.LoadPersisted(ctx); err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return svc, store.Close, nil
}

func (a *Application) Run(ctx context.Context) error {
	server := api.New(api.Options{
		Service: a.svc,
		Auth: security.BearerAuth{
			Enabled: a.cfg.RequireBearerToken,
			Token:   a.cfg.BearerToken,
		},
		Logger: a.logger,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	wg := sync.WaitGroup{}

	if a.cfg.BindAddress != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.ServeTCP(ctx, a.cfg.BindAddress); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("tcp server: %w", err)
			}
		}()
	}
	if a.cfg.UnixSocketPath != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.ServeUnix(ctx, a.cfg.UnixSocketPath); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("unix server: %w", err)
			}
		}()
	}

	select {
	case err := <-errCh:
		cancel()
		wg.Wait()
		return err
	case <-ctx.Done():
		wg.Wait()
		return nil
	}
}
