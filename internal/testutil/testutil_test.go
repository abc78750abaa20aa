package testutil

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"go/parser"
	"go/token"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testutilImportPath = "servertime/internal/testutil"

// TestNotImportedByProductionCode keeps the trust-all client out of anything
// that can be linked into a binary
func TestNotImportedByProductionCode(t *testing.T) {
	root := ProjectRoot(t)
	self := filepath.Join(root, "internal", "testutil")
	fset := token.NewFileSet()
	checked := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata") {
				return filepath.SkipDir
			}
			if path == self {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		checked++
		for _, imp := range file.Imports {
			importPath, err := strconv.Unquote(imp.Path.Value)
			require.NoError(t, err)
			if importPath == testutilImportPath || strings.HasPrefix(importPath, testutilImportPath+"/") {
				rel, _ := filepath.Rel(root, path)
				t.Errorf("%s imports %s; test helpers must only be used from _test.go files", rel, importPath)
			}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Greater(t, checked, 0, "expected to inspect production files")
}

func TestNewInsecureClient(t *testing.T) {
	tlsServer := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "secure")
	}))
	defer tlsServer.Close()

	plainServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "plain")
	}))
	defer plainServer.Close()

	// A default client refuses the test server's certificate
	_, err := http.Get(tlsServer.URL)
	require.Error(t, err)

	client := NewInsecureClient(t)

	for _, tt := range []struct {
		url  string
		want string
	}{
		{url: tlsServer.URL, want: "secure"},
		{url: plainServer.URL, want: "plain"},
	} {
		resp, err := client.Get(tt.url)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, tt.want, string(body))
	}
}

func TestNewInsecureClient_Configuration(t *testing.T) {
	client := NewInsecureClient(t)

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	require.NotNil(t, transport.TLSClientConfig)
	assert.True(t, transport.TLSClientConfig.InsecureSkipVerify)
	require.NotNil(t, transport.TLSClientConfig.VerifyConnection)
	assert.NoError(t, transport.TLSClientConfig.VerifyConnection(tls.ConnectionState{ServerName: "anything.invalid"}))

	// The shared default transport is left untouched
	assert.NotSame(t, http.DefaultTransport, transport)
	if def, ok := http.DefaultTransport.(*http.Transport); ok && def.TLSClientConfig != nil {
		assert.False(t, def.TLSClientConfig.InsecureSkipVerify)
	}
}

func TestWriteSelfSignedCert(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := WriteSelfSignedCert(t, dir, "servertime.test", "127.0.0.1")

	_, err := tls.LoadX509KeyPair(certFile, keyFile)
	require.NoError(t, err)

	raw, err := os.ReadFile(certFile)
	require.NoError(t, err)
	block, _ := pem.Decode(raw)
	require.NotNil(t, block)

	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)
	assert.Equal(t, []string{"servertime.test"}, cert.DNSNames)
	require.Len(t, cert.IPAddresses, 1)
	assert.Equal(t, "127.0.0.1", cert.IPAddresses[0].String())
	assert.NoError(t, cert.VerifyHostname("servertime.test"))
	assert.Error(t, cert.VerifyHostname("localhost"))
}

func TestLoadTestConfig(t *testing.T) {
	cfg := LoadTestConfig(t)
	assert.Equal(t, "test", cfg.API.GinMode)
	assert.False(t, cfg.TLS.Enabled())
}
