package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spinchart/shared/go/config"
	"spinchart/shared/go/logging"
)

func main() {
	_ = godotenv.Load()
	_ = godotenv.Load("config/local.env")

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal(err, "Invalid configuration")
	}

	logger := logging.New(logging.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Service: "spinchart",
	})
	logging.SetGlobalLogger(logger)

	if err := run(cfg, logger); err != nil {
		logging.Fatal(err, "Server stopped")
	}
}

func run(cfg *config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ds, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	server := newHTTPServer(cfg, newHTTPHandler(cfg, logger, ds))

	errCh := make(chan error, 1)
	go func() {
		logger.Zerolog().Info().
			Str("addr", server.Addr).
			Str("backend", cfg.Database.Backend).
			Msg("API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
