package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tour_guide_rag/internal/cli"
	"tour_guide_rag/src"
	"tour_guide_rag/src/logger"

	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()

	config, err := src.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.InitLogger(config.LogConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if envErr != nil {
		logger.Warn().Err(envErr).Msg("No .env file loaded, using process environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, config); err != nil {
		logger.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}
