package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/bibliotheca/bibliotheca/internal/auth"
	"github.com/bibliotheca/bibliotheca/internal/domain/loans"
	"github.com/bibliotheca/bibliotheca/internal/httpapi"
	"github.com/bibliotheca/bibliotheca/internal/metrics"
	"github.com/bibliotheca/bibliotheca/internal/server"
)

// ServeCmd runs the API until SIGINT or SIGTERM.
type ServeCmd struct{}

func (s *ServeCmd) Run(g *Global) error {
	cfg, logr := g.Config, g.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		rec     metrics.Recorder = metrics.NoopRecorder{}
		promRec *metrics.PrometheusRecorder
	)
	if cfg.MetricsEnabled {
		promRec = metrics.NewPrometheusRecorder(nil)
		rec = promRec
	}

	var tokens *auth.Manager
	if cfg.AuthEnabled() {
		m, err := auth.NewManager(cfg.JWTSecret, cfg.JWTExpiry)
		if err != nil {
			return err
		}
		tokens = m
		logr.Info("bearer token authorization enabled")
	} else {
		logr.Warn("JWT_SECRET not set; all routes are public")
	}

	be, err := openBackend(ctx, cfg, logr, loans.Recorder(rec))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := be.Close(context.Background()); cerr != nil {
			logr.Error("error closing backend", "err", cerr)
		}
	}()

	srv := server.New(cfg, logr, rec)
	srv.SetReadiness(be.Ping)
	if promRec != nil {
		srv.Router().Handle("/metrics", promRec.Handler())
	}
	httpapi.Register(srv.Router(), logr, be.Container, tokens)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return <-errCh
}
