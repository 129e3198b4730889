package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pulseai/pulseai/internal/config"
	"github.com/pulseai/pulseai/internal/pkg/logger"
	"github.com/pulseai/pulseai/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})

	log.WithFields(map[string]interface{}{
		"environment": cfg.Server.Environment,
		"database":    cfg.Database.Driver,
		"model":       cfg.AI.Model,
	}).Info("Starting PulseAI API")

	srv, err := server.New(cfg, log)
	if err != nil {
		log.ErrorWithErr(err, "Failed to initialize server")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.ErrorWithErr(err, "Server exited with error")
		os.Exit(1)
	}
}
