package middleware

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

var (
	// Skip compression for these content types
	excludedContentTypes = []string{
		"image/",
		"video/",
		"audio/",
		"application/zip",
		"application/gzip",
	}
)

// CompressionConfig holds configuration for the compression middleware
type CompressionConfig struct {
	// Minimum content length to trigger compression (default: 1KB)
	MinLength int
	// Gzip compression level (1-9, higher = better compression but slower)
	Level int
	// Logger receives failures to flush the compressed body
	Logger zerolog.Logger
}

// DefaultCompressionConfig returns the default compression configuration
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinLength: 1024, // 1KB
		Level:     gzip.DefaultCompression,
		Logger:    zerolog.Nop(),
	}
}

// shouldCompress checks if the response should be compressed based on its headers
func shouldCompress(header http.Header) bool {
	if header.Get("Content-Encoding") != "" {
		return false
	}
	contentType := header.Get("Content-Type")
	for _, excluded := range excludedContentTypes {
		if strings.HasPrefix(contentType, excluded) {
			return false
		}
	}
	return true
}

// bodyAllowed reports whether a response with this status may carry a body
func bodyAllowed(status int) bool {
	return !(status >= 100 && status < 200) && status != http.StatusNoContent && status != http.StatusNotModified
}

// Compression returns a middleware that gunzips request bodies and gzips
// responses for clients that accept it
func Compression(cfg CompressionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Header.Get("Content-Encoding") == "gzip" {
			reader, err := gzip.NewReader(c.Request.Body)
			if err != nil {
				c.AbortWithStatus(http.StatusBadRequest)
				return
			}
			body, err := io.ReadAll(reader)
			reader.Close()
			if err != nil {
				c.AbortWithStatus(http.StatusBadRequest)
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
			c.Request.Header.Del("Content-Encoding")
			c.Request.ContentLength = int64(len(body))
		}

		if c.Request.Method == http.MethodHead || !strings.Contains(c.Request.Header.Get("Accept-Encoding"), "gzip") {
			c.Next()
			return
		}

		gzipWriter := &gzipResponseWriter{
			ResponseWriter: c.Writer,
			minLength:      cfg.MinLength,
			level:          cfg.Level,
			contentBuf:     new(bytes.Buffer),
		}
		c.Writer = gzipWriter

		// Add Vary header to prevent caching issues
		c.Header("Vary", "Accept-Encoding")

		// On panic, hand the original writer back so the recovery page reaches
		// the client instead of the discarded buffer
		defer func() {
			if r := recover(); r != nil {
				c.Writer = gzipWriter.ResponseWriter
				panic(r)
			}
		}()

		c.Next()

		if err := gzipWriter.finishWriting(true); err != nil {
			cfg.Logger.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("failed to write compressed response")
		}
	}
}

// gzipResponseWriter buffers the body so the compression decision can be
// made once the full size and content type are known
type gzipResponseWriter struct {
	gin.ResponseWriter
	minLength  int
	level      int
	contentBuf *bytes.Buffer
	finished   bool
}

func (g *gzipResponseWriter) Write(data []byte) (int, error) {
	if g.finished {
		return g.ResponseWriter.Write(data)
	}
	return g.contentBuf.Write(data)
}

func (g *gzipResponseWriter) WriteString(s string) (int, error) {
	return g.Write([]byte(s))
}

// finishWriting sends the buffered body, gzipped when allowed and worthwhile
func (g *gzipResponseWriter) finishWriting(allowGzip bool) error {
	if g.finished {
		return nil
	}
	g.finished = true

	content := g.contentBuf.Bytes()
	if !bodyAllowed(g.ResponseWriter.Status()) {
		g.ResponseWriter.WriteHeaderNow()
		return nil
	}

	if allowGzip && shouldCompress(g.Header()) && len(content) >= g.minLength {
		gz, err := gzip.NewWriterLevel(g.ResponseWriter, g.level)
		if err != nil {
			return err
		}
		g.Header().Set("Content-Encoding", "gzip")
		g.Header().Del("Content-Length")

		if _, err := gz.Write(content); err != nil {
			gz.Close()
			return err
		}
		return gz.Close()
	}

	_, err := g.ResponseWriter.Write(content)
	return err
}

// Flush ends buffering: the response goes out uncompressed and later writes
// pass straight through
func (g *gzipResponseWriter) Flush() {
	if err := g.finishWriting(false); err == nil {
		g.ResponseWriter.Flush()
	}
}

func (g *gzipResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return g.ResponseWriter.Hijack()
}

func (g *gzipResponseWriter) Size() int {
	return g.ResponseWriter.Size()
}

func (g *gzipResponseWriter) Written() bool {
	return g.ResponseWriter.Written()
}

func (g *gzipResponseWriter) Status() int {
	return g.ResponseWriter.Status()
}
