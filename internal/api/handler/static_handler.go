package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

const indexFile = "index.html"

// StaticHandler serves the site from a directory through Echo's static
// middleware. Directories resolve to their index.html; misses fall through
// to a plain-text 404.
type StaticHandler struct {
	serve echo.HandlerFunc
}

func NewStaticHandler(root string) *StaticHandler {
	static := echomiddleware.StaticWithConfig(echomiddleware.StaticConfig{
		Root:       ".",
		Index:      indexFile,
		Filesystem: http.Dir(root),
	})
	return &StaticHandler{serve: static(fileNotFound)}
}

func (h *StaticHandler) Serve(c echo.Context) error {
	return h.serve(c)
}

func fileNotFound(c echo.Context) error {
	return c.String(http.StatusNotFound, "File not found: "+c.Request().URL.Path)
}
