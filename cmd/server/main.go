package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fastcode/fastshell/internal/infrastructure/config"
	"github.com/fastcode/fastshell/internal/infrastructure/logging"
	"github.com/fastcode/fastshell/internal/infrastructure/server"
)

func main() {
	port := flag.String("port", "", "Server port (overrides PORT)")
	backend := flag.String("backend", "", "Backend mode: memory, remote or postgres (overrides BACKEND_MODE)")
	dev := flag.Bool("dev", false, "Development mode: colored logs at debug level")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *backend != "" {
		cfg.Backend.Mode = *backend
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
			os.Exit(1)
		}
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down gracefully...")
	case err := <-errChan:
		if err != nil {
			logger.Error("Server error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", zap.Error(err))
	}
	if err := srv.Close(); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
}
