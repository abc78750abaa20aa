// Package server provides the HTTP server implementation
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"servertime/internal/config"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/acme/autocert"
)

// Server represents the HTTP server
type Server struct {
	cfg    *config.Config
	http   *http.Server
	logger zerolog.Logger
}

// New creates a new server instance. TLS material is loaded here so that a
// bad certificate fails at startup rather than on the first handshake.
func New(cfg *config.Config, handler http.Handler, logger zerolog.Logger) (*Server, error) {
	srv := &http.Server{
		Addr:              cfg.API.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: cfg.API.ReadHeaderTimeout,
	}

	switch cfg.TLS.Mode {
	case config.TLSModeFiles:
		cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS key pair: %w", err)
		}
		srv.TLSConfig = &tls.Config{
			MinVersion:   tls.VersionTLS12,
			Certificates: []tls.Certificate{cert},
		}
	case config.TLSModeAutocert:
		if len(cfg.TLS.AutocertDomains) == 0 {
			return nil, errors.New("autocert requires at least one domain")
		}
		manager := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(cfg.TLS.AutocertDomains...),
			Cache:      autocert.DirCache(cfg.TLS.AutocertCacheDir),
		}
		srv.TLSConfig = manager.TLSConfig()
		srv.TLSConfig.MinVersion = tls.VersionTLS12
	case config.TLSModeOff, "":
	default:
		return nil, fmt.Errorf("unknown TLS mode %q", cfg.TLS.Mode)
	}

	return &Server{
		cfg:    cfg,
		http:   srv,
		logger: logger,
	}, nil
}

// TLSEnabled reports whether the server serves HTTPS
func (s *Server) TLSEnabled() bool {
	return s.http.TLSConfig != nil
}

// TLSConfig returns the TLS configuration, or nil when serving plain HTTP
func (s *Server) TLSConfig() *tls.Config {
	return s.http.TLSConfig
}

// Listen opens the TCP listener for the configured address
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}
	return ln, nil
}

// Serve accepts connections on ln until the server is shut down. A clean
// shutdown returns nil.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info().
		Str("addr", ln.Addr().String()).
		Bool("tls", s.TLSEnabled()).
		Str("tls_mode", s.cfg.TLS.Mode).
		Msg("starting server")

	var err error
	if s.TLSEnabled() {
		// Certificates come from TLSConfig
		err = s.http.ServeTLS(ln, "", "")
	} else {
		err = s.http.Serve(ln)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server, waiting for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down server")
	return s.http.Shutdown(ctx)
}

// Run serves on ln until ctx is cancelled, then shuts down within the
// configured shutdown timeout
func (s *Server) Run(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.API.ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return <-errCh
}
