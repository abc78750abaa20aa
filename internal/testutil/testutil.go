// Package testutil provides utilities for testing. It must only be imported
// from _test.go files.
package testutil

import (
	"path/filepath"
	"runtime"
	"servertime/internal/config"
	"servertime/internal/logging"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// ProjectRoot returns the absolute path of the module root
func ProjectRoot(t testing.TB) string {
	t.Helper()

	// Get the absolute path to this file
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "Failed to get current file path")

	// Project root is 2 levels up from this file
	root, err := filepath.Abs(filepath.Join(filepath.Dir(filename), "..", ".."))
	require.NoError(t, err, "Failed to get absolute project root path")
	return root
}

// LoadTestConfig loads configuration from .env.test at the project root.
// Variables are set with t.Setenv so they are restored after the test.
func LoadTestConfig(t *testing.T) *config.Config {
	t.Helper()

	env, err := godotenv.Read(filepath.Join(ProjectRoot(t), ".env.test"))
	require.NoError(t, err, "Failed to read .env.test file")
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg := &config.Config{}
	require.NoError(t, cfg.LoadFromEnv(), "Failed to load config")
	return cfg
}

// TestContext holds common test dependencies
type TestContext struct {
	T      *testing.T
	Config *config.Config
	Logger zerolog.Logger
}

// NewTestContext creates a new test context with a logger that discards output
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()

	// Set Gin to test mode
	gin.SetMode(gin.TestMode)

	cfg := LoadTestConfig(t)

	return &TestContext{
		T:      t,
		Config: cfg,
		Logger: logging.Nop(),
	}
}
