package itest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"servertime/internal/api/routes"
	"servertime/internal/api/server"
	"servertime/internal/clock"
	"servertime/internal/config"
	"servertime/internal/models"
	"servertime/internal/testutil"
	"strings"
	"testing"
	"time"
)

type transport string

const (
	transportPlain transport = "http"
	transportTLS   transport = "https"
)

var transports = []transport{transportPlain, transportTLS}

type testServer struct {
	baseURL string
	client  *http.Client
}

// newTestServer starts the full stack on a loopback port. With transportTLS
// the server presents a self-signed certificate for a host name that does
// not match the address dialed, so only the insecure client can talk to it.
func newTestServer(t *testing.T, tr transport, clk clock.Clock) *testServer {
	t.Helper()

	tc := testutil.NewTestContext(t)
	if clk == nil {
		clk = clock.NewSystemClock()
	}

	cfg := tc.Config
	cfg.API.Host = "127.0.0.1"
	cfg.API.Port = "0"
	cfg.RateLimit.Enabled = false

	switch tr {
	case transportPlain:
		cfg.TLS = config.TLSConfig{Mode: config.TLSModeOff}
	case transportTLS:
		certFile, keyFile := testutil.WriteSelfSignedCert(t, t.TempDir(), "servertime.test")
		cfg.TLS = config.TLSConfig{
			Mode:     config.TLSModeFiles,
			CertFile: certFile,
			KeyFile:  keyFile,
		}
	default:
		t.Fatalf("unknown transport: %s", tr)
	}

	router, err := routes.SetupRoutes(cfg, clk, tc.Logger)
	if err != nil {
		t.Fatalf("setup routes: %v", err)
	}

	srv, err := server.New(cfg, router.Engine, tc.Logger)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ln, err := srv.Listen()
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("server stopped with error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Errorf("server did not stop")
		}
	})

	return &testServer{
		baseURL: string(tr) + "://" + ln.Addr().String(),
		client:  testutil.NewInsecureClient(t),
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) get(t *testing.T, path string, accept string) (int, []byte, http.Header) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, s.url(path), nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, out, resp.Header
}

func (s *testServer) getTime(t *testing.T) time.Time {
	t.Helper()

	status, body, _ := s.get(t, "/time", "application/json")
	if status != http.StatusOK {
		t.Fatalf("status=%d want=%d body=%s", status, http.StatusOK, string(body))
	}
	return mustUnmarshal[models.TimeResponse](t, body).Time.Time
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}
