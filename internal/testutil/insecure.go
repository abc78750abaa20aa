package testutil

import (
	"crypto/tls"
	"net/http"
	"testing"
	"time"
)

// NewInsecureClient returns an HTTP client that accepts any server
// certificate: the chain is not verified and the host name is not checked.
// Plain and TLS requests share the client's connection pool.
//
// This exists so tests can reach servers using self-signed certificates.
// Never use it against anything but a local test server.
func NewInsecureClient(t testing.TB) *http.Client {
	t.Helper()

	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		t.Fatalf("cannot build insecure client: default transport is %T, not *http.Transport", http.DefaultTransport)
	}

	transport := base.Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: true, //nolint:gosec // test servers present self-signed certificates
		VerifyConnection: func(tls.ConnectionState) error {
			return nil
		},
	}
	t.Cleanup(transport.CloseIdleConnections)

	return &http.Client{
		Transport: transport,
		Timeout:   10 * time.Second,
	}
}
