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

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/user/dashboard-scraper/internal/app"
	"github.com/user/dashboard-scraper/internal/delivery/http/handler"
	"github.com/user/dashboard-scraper/internal/delivery/http/router"
	"github.com/user/dashboard-scraper/pkg/config"
	"github.com/user/dashboard-scraper/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// --- Configuration ---
	cfg, err := config.Load(nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// --- Logger ---
	log := logger.Must(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()
	log.Info("logger initialized", zap.String("level", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Adapters and use cases ---
	a := app.New(ctx, cfg, log)
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("closing backends failed", zap.Error(err))
		}
	}()

	webhook, err := a.Webhook()
	if err != nil {
		log.Warn("webhook pipeline disabled", zap.Error(err))
	}

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(webhook, log.Named("http"))
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router.New(apiHandler, log.Named("http")),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// A webhook run drafts, scrapes and uploads several items.
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on :%s: %w", cfg.ServerPort, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("server exiting")
}
