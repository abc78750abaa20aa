// Package routes handles the setup and configuration of API routes
package routes

import (
	"compress/gzip"
	"fmt"
	_ "servertime/docs" // Import swagger docs
	"servertime/internal/api/handlers"
	"servertime/internal/api/middleware"
	"servertime/internal/clock"
	"servertime/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Router is the configured engine plus the background pieces whose lifetime
// the caller owns
type Router struct {
	Engine      *gin.Engine
	RateLimiter *middleware.RateLimiter
}

// SetupRoutes configures all routes and their handlers. The time source is
// injected so tests can pin it.
func SetupRoutes(cfg *config.Config, clk clock.Clock, logger zerolog.Logger) (*Router, error) {
	errorPages, err := handlers.NewErrorPageHandler(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to set up error pages: %w", err)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	// "/time/" is a different path and gets the 404 page, not a redirect
	r.RedirectTrailingSlash = false

	r.Use(gin.CustomRecoveryWithWriter(nil, errorPages.Recovery))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Compression(middleware.CompressionConfig{
		MinLength: cfg.Compression.MinLength,
		Level:     gzip.DefaultCompression,
		Logger:    logger,
	}))

	r.NoRoute(errorPages.NotFound)
	r.NoMethod(errorPages.MethodNotAllowed)

	// Routes without rate limiting
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router := &Router{Engine: r}
	if cfg.RateLimit.Enabled {
		router.RateLimiter = middleware.NewRateLimiter(cfg.RateLimit, clk, logger)
		r.Use(router.RateLimiter.Middleware())
	}

	timeHandler := handlers.NewTimeHandler(clk)
	healthHandler := handlers.NewHealthHandler(clk)

	r.GET("/time", timeHandler.Time)
	r.GET("/health", healthHandler.Health)

	return router, nil
}
