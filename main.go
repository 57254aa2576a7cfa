package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"livepoll/internal/config"
	"livepoll/internal/container"
	"livepoll/internal/handler"
	"livepoll/pkg/logger"
)

// Resources holds all resources that need cleanup
type Resources struct {
	container  *container.Container
	server     *http.Server
	stopWorker context.CancelFunc
	log        *logger.Logger
	mu         sync.Mutex
	closed     bool
}

// Cleanup gracefully closes all resources
func (r *Resources) Cleanup(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errors []error

	r.log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first to stop accepting new intents
	if r.server != nil {
		r.log.Info("Shutting down HTTP server...")
		if err := r.server.Shutdown(ctx); err != nil {
			r.log.WithError(err).Error("Failed to shutdown HTTP server")
			errors = append(errors, fmt.Errorf("HTTP server shutdown: %w", err))
		} else {
			r.log.Info("HTTP server shutdown complete")
		}
	}

	// Hijacked WebSocket connections survive Shutdown
	if r.container != nil {
		r.log.Info("Closing WebSocket sessions...")
		r.container.CloseSessions()
	}

	// Stop the round worker; it flushes queued rounds before returning
	if r.stopWorker != nil {
		r.log.Info("Stopping round worker...")
		r.stopWorker()
		select {
		case <-r.container.RoundWorker.Done():
			r.log.Info("Round worker stopped")
		case <-ctx.Done():
			errors = append(errors, fmt.Errorf("round worker shutdown: %w", ctx.Err()))
		}
	}

	// Release Redis and Postgres
	if r.container != nil {
		if err := r.container.Close(); err != nil {
			r.log.WithError(err).Error("Failed to close external clients")
			errors = append(errors, err)
		} else {
			r.log.Info("External clients closed successfully")
		}
	}

	if len(errors) > 0 {
		r.log.WithField("error_count", len(errors)).Error("Cleanup completed with errors")
		return fmt.Errorf("cleanup completed with %d errors: %v", len(errors), errors)
	}

	r.log.Info("Graceful shutdown completed successfully")
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.WithFields(map[string]interface{}{
		"port":                  cfg.Port,
		"log_level":             cfg.LogLevel,
		"environment":           cfg.Environment,
		"retain_departed_votes": cfg.RetainDepartedVotes,
	}).Info("Starting livepoll server")

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 15*time.Second)
	c, err := container.New(startupCtx, cfg, log)
	cancelStartup()
	if err != nil {
		log.WithError(err).Fatal("Failed to create container")
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	go c.RoundWorker.Run(workerCtx)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        handler.NewRouter(c),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	resources := &Resources{
		container:  c,
		server:     server,
		stopWorker: stopWorker,
		log:        log,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Cleanup runs however the program exits
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := resources.Cleanup(cleanupCtx); err != nil {
			log.WithError(err).Error("Cleanup completed with errors")
		}
	}()

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Server starting on port " + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Server error occurred")
			serverErrChan <- err
		}
	}()

	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErrChan:
		log.WithError(err).Error("Server failed, initiating shutdown")
	}

	log.Info("Initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := resources.Cleanup(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown completed with errors")
		os.Exit(1)
	}

	log.Info("Application shutdown complete")
}
