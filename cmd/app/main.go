package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/chris/stk-confirmation/pkg/bootstrap"
	"github.com/chris/stk-confirmation/pkg/config"
	"github.com/chris/stk-confirmation/pkg/handlers"
	"github.com/chris/stk-confirmation/pkg/jobs"
	"github.com/chris/stk-confirmation/pkg/middleware"
	"github.com/go-co-op/gocron/v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateGateway(); err != nil {
		log.Fatalf("Invalid gateway configuration: %v", err)
	}
	logger := cfg.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}
	defer engine.Close()

	// In-process sweeper. Deployments running the sweeper lambda can set a long interval instead.
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	if _, err := jobs.SweepJob(ctx, scheduler, engine.Sweeper, cfg.SweepInterval, logger); err != nil {
		log.Fatalf("Failed to schedule sweeper: %v", err)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			logger.Error("Failed to stop scheduler", "error", err)
		}
	}()

	handler := handlers.NewApiHandler(engine.Initiator, engine.Status, engine.Store, engine.Dispatcher, engine.Hub, logger)
	limiter := middleware.NewIPRateLimiter(ctx, cfg.RateLimit)
	router := handlers.NewRouter(handler, limiter.Handler, logger)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shut down server", "error", err)
		}
	}()

	logger.Info("Starting server", "port", cfg.HTTPPort, "store", cfg.StoreBackend)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
	logger.Info("Server stopped")
}
