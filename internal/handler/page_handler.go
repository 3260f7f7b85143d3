package handler

import (
	"path/filepath"

	"github.com/labstack/echo/v4"
)

// PageHandler serves the single-page app shell for browser navigations.
// The client router takes over once the shell loads; the server only owns
// the session routing policy applied in front of these routes.
type PageHandler struct {
	shellPath string
}

// NewPageHandler creates a PageHandler serving the shell from webRoot
func NewPageHandler(webRoot string) *PageHandler {
	return &PageHandler{shellPath: filepath.Join(webRoot, "index.html")}
}

// Shell serves the app shell
func (h *PageHandler) Shell(c echo.Context) error {
	return c.File(h.shellPath)
}
