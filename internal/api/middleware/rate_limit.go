package middleware

import (
	"context"
	"fmt"
	"net/http"
	"servertime/internal/clock"
	"servertime/internal/config"
	"servertime/internal/models"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// clientLimiter is the token bucket of a single client plus the time it was
// last used, stored as Unix nanoseconds.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// RateLimiter implements per-client rate limiting using a token bucket
type RateLimiter struct {
	limiters    map[string]*clientLimiter
	mu          sync.RWMutex
	rate        rate.Limit
	burst       int
	idleTimeout time.Duration
	window      int // Store window size for header calculations
	requests    int // Store total requests for header calculations
	schedule    string
	clock       clock.Clock
	logger      zerolog.Logger
	cron        *cron.Cron
}

// NewRateLimiter creates a new rate limiter. Call Start to schedule pruning of
// idle clients.
func NewRateLimiter(cfg config.RateLimitConfig, clk clock.Clock, logger zerolog.Logger) *RateLimiter {
	// Spread the window's requests evenly, one token every window/requests
	every := time.Duration(cfg.Window) * time.Second / time.Duration(cfg.Requests)

	return &RateLimiter{
		limiters:    make(map[string]*clientLimiter),
		rate:        rate.Every(every),
		burst:       cfg.Burst,
		idleTimeout: cfg.IdleTimeout,
		window:      cfg.Window,
		requests:    cfg.Requests,
		schedule:    cfg.CleanupSchedule,
		clock:       clk,
		logger:      logger,
	}
}

// Start schedules Cleanup on the configured cron spec
func (rl *RateLimiter) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(rl.schedule, func() { rl.Cleanup() }); err != nil {
		return fmt.Errorf("invalid rate limit cleanup schedule %q: %w", rl.schedule, err)
	}
	rl.cron = c
	c.Start()
	return nil
}

// Stop halts the cleanup schedule. The returned context is done once a
// running cleanup has finished.
func (rl *RateLimiter) Stop() context.Context {
	if rl.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return rl.cron.Stop()
}

// getLimiter returns the rate limiter for the given key, creating it on first use
func (rl *RateLimiter) getLimiter(key string, now time.Time) *rate.Limiter {
	rl.mu.RLock()
	cl, exists := rl.limiters[key]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		// Double check after acquiring write lock
		cl, exists = rl.limiters[key]
		if !exists {
			cl = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
			rl.limiters[key] = cl
		}
		rl.mu.Unlock()
	}

	cl.lastSeen.Store(now.UnixNano())
	return cl.limiter
}

// Cleanup removes limiters of clients idle for longer than the idle timeout
// and returns how many were removed
func (rl *RateLimiter) Cleanup() int {
	cutoff := rl.clock.Now().Add(-rl.idleTimeout).UnixNano()

	rl.mu.Lock()
	removed := 0
	for key, cl := range rl.limiters {
		if cl.lastSeen.Load() < cutoff {
			delete(rl.limiters, key)
			removed++
		}
	}
	remaining := len(rl.limiters)
	rl.mu.Unlock()

	rl.logger.Debug().Int("removed", removed).Int("remaining", remaining).Msg("pruned idle rate limiters")
	return removed
}

// Middleware returns a Gin middleware function that implements rate limiting
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip rate limiting for Swagger documentation
		if strings.HasPrefix(c.Request.URL.Path, "/swagger/") {
			c.Next()
			return
		}

		now := rl.clock.Now()
		limiter := rl.getLimiter(c.ClientIP(), now)

		r := limiter.ReserveN(now, 1)
		if !r.OK() {
			rl.reject(c, now, time.Duration(rl.window)*time.Second)
			return
		}
		if delay := r.DelayFrom(now); delay > 0 {
			// Give the token back, the request is refused rather than delayed
			r.CancelAt(now)
			rl.reject(c, now, delay)
			return
		}

		tokens := int(limiter.TokensAt(now))
		if tokens > rl.burst {
			tokens = rl.burst
		}
		if tokens < 0 {
			tokens = 0
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", rl.requests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", tokens))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", now.Add(time.Duration(rl.window)*time.Second).Unix()))

		c.Next()
	}
}

func (rl *RateLimiter) reject(c *gin.Context, now time.Time, retryAfter time.Duration) {
	seconds := int((retryAfter + time.Second - 1) / time.Second)
	c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", rl.requests))
	c.Header("X-RateLimit-Remaining", "0")
	c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", now.Add(retryAfter).Unix()))
	c.Header("Retry-After", fmt.Sprintf("%d", seconds))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
		Error:      "rate limit exceeded",
		RetryAfter: fmt.Sprintf("%ds", seconds),
	})
}
