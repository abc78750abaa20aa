package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"servertime/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

//go:embed templates/error.html
var errorTemplates embed.FS

const htmlContentType = "text/html; charset=utf-8"

var (
	// NotFoundPage is rendered for any unmapped path
	NotFoundPage = models.ErrorPage{
		Status:  http.StatusNotFound,
		Title:   "Page Not Found",
		Message: "Sorry, the page you are looking for does not exist or has been moved.",
	}
	// MethodNotAllowedPage is rendered when the path exists but not for the method
	MethodNotAllowedPage = models.ErrorPage{
		Status:  http.StatusMethodNotAllowed,
		Title:   "Method Not Allowed",
		Message: "Sorry, this page does not support the requested method.",
	}
	// InternalErrorPage is rendered after a recovered panic
	InternalErrorPage = models.ErrorPage{
		Status:  http.StatusInternalServerError,
		Title:   "Internal Server Error",
		Message: "Sorry, something went wrong on our side. Please try again later.",
	}
)

// ErrorPageHandler renders the HTML error pages
type ErrorPageHandler struct {
	tmpl   *template.Template
	logger zerolog.Logger
}

// NewErrorPageHandler parses the embedded error template
func NewErrorPageHandler(logger zerolog.Logger) (*ErrorPageHandler, error) {
	tmpl, err := template.ParseFS(errorTemplates, "templates/error.html")
	if err != nil {
		return nil, fmt.Errorf("failed to load error page template: %w", err)
	}
	return &ErrorPageHandler{tmpl: tmpl, logger: logger}, nil
}

// Render writes page as the response and aborts the handler chain
func (h *ErrorPageHandler) Render(c *gin.Context, page models.ErrorPage) {
	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, page); err != nil {
		h.logger.Error().Err(err).Int("status", page.Status).Msg("failed to render error page")
		c.AbortWithStatus(page.Status)
		return
	}
	c.Data(page.Status, htmlContentType, buf.Bytes())
	c.Abort()
}

// NotFound handles requests that match no route
func (h *ErrorPageHandler) NotFound(c *gin.Context) {
	h.Render(c, NotFoundPage)
}

// MethodNotAllowed handles requests whose path matches a route but not its method
func (h *ErrorPageHandler) MethodNotAllowed(c *gin.Context) {
	h.Render(c, MethodNotAllowedPage)
}

// Recovery logs a recovered panic and renders the internal error page
func (h *ErrorPageHandler) Recovery(c *gin.Context, recovered any) {
	h.logger.Error().
		Interface("panic", recovered).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Msg("recovered from panic")
	h.Render(c, InternalErrorPage)
}
