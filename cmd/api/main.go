// Package main provides the entry point for the Server Time API server
// @title Server Time API
// @version 1.0
// @description Returns the current server time. When rate limiting is enabled, endpoints other than /swagger are limited per client.
// @host localhost:8080
// @BasePath /
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"servertime/internal/api/routes"
	"servertime/internal/api/server"
	"servertime/internal/clock"
	"servertime/internal/config"
	"servertime/internal/logging"
	"servertime/internal/validation"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const defaultEnvFile = ".env"

func main() {
	// Parse command line flags
	envFile := flag.String("env", defaultEnvFile, "Path to env file")
	flag.Parse()

	if err := run(*envFile); err != nil {
		logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		logger.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run(envFile string) error {
	// Load environment file. Only an explicitly requested file has to exist.
	envErr := godotenv.Load(envFile)
	if envErr != nil && (envFile != defaultEnvFile || !errors.Is(envErr, fs.ErrNotExist)) {
		return fmt.Errorf("failed to load env file %s: %w", envFile, envErr)
	}

	// Initialize validators
	validation.Initialize()

	// Load configuration
	cfg := &config.Config{}
	if err := cfg.LoadFromEnv(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.New(cfg.Log, os.Stderr)
	if envErr != nil {
		logger.Warn().Err(envErr).Str("file", envFile).Msg("env file not loaded, using process environment")
	}

	gin.SetMode(cfg.API.GinMode)

	// Setup routes
	router, err := routes.SetupRoutes(cfg, clock.NewSystemClock(), logger)
	if err != nil {
		return fmt.Errorf("failed to set up routes: %w", err)
	}

	if router.RateLimiter != nil {
		if err := router.RateLimiter.Start(); err != nil {
			return fmt.Errorf("failed to start rate limiter cleanup: %w", err)
		}
		defer func() { <-router.RateLimiter.Stop().Done() }()
	}

	srv, err := server.New(cfg, router.Engine, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ln, err := srv.Listen()
	if err != nil {
		return err
	}

	// Serve until interrupted, then give outstanding requests the shutdown timeout
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, ln); err != nil {
		return err
	}

	logger.Info().Msg("server exiting")
	return nil
}
