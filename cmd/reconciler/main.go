package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/shiwake/reconciler/internal/cli"
	"github.com/shiwake/reconciler/internal/config"
	"github.com/shiwake/reconciler/internal/logger"
)

func main() {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if err := cli.NewRootCommand(cfg).ExecuteContext(context.Background()); err != nil {
		l := logger.WithComponent("main")
		l.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
