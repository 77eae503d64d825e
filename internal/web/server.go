// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/oops"

	"github.com/inkpress/inkpress/internal/observability"
	"github.com/inkpress/inkpress/pkg/errutil"
)

// Server wraps the Echo instance serving the blog routes.
type Server struct {
	echo   *echo.Echo
	logger *slog.Logger
	addr   string
}

// NewServer builds the HTTP server with all routes registered.
// metrics may be nil to disable request metrics.
func NewServer(addr string, handlers *Handlers, metrics *observability.Metrics, logger *slog.Logger) (*Server, error) {
	if handlers == nil {
		return nil, oops.Code("WEB_NIL_DEPENDENCY").Errorf("handlers are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(RequestMetrics(metrics))

	s := &Server{echo: e, logger: logger, addr: addr}
	e.HTTPErrorHandler = s.handleError

	registerRoutes(e, handlers)

	return s, nil
}

// registerRoutes wires the route table.
func registerRoutes(e *echo.Echo, h *Handlers) {
	e.GET("/", h.Home)
	e.GET("/about", h.About)
	e.GET("/register", h.Register)
	e.POST("/register", h.Register)
	e.GET("/login", h.Login)
	e.POST("/login", h.Login)
	e.GET("/logout", h.Logout)
	e.GET("/article/:id", h.Detail)

	e.GET("/dashboard", h.Dashboard, h.RequireLogin)
	e.GET("/addArticle", h.AddArticle, h.RequireLogin)
	e.POST("/addArticle", h.AddArticle, h.RequireLogin)
	e.GET("/articles", h.Articles, h.RequireLogin)
	e.GET("/delete/:id", h.Delete, h.RequireLogin)
	e.GET("/update/:id", h.Update, h.RequireLogin)
	e.POST("/update/:id", h.Update, h.RequireLogin)
}

// handleError logs unexpected failures and renders a plain error response.
// Storage constraint violations land here too: the registration handler does
// not catch duplicates, so they surface as a 500.
func (s *Server) handleError(err error, c echo.Context) {
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		errutil.LogError(s.logger, "request failed", err)
		he = echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
	}

	if c.Response().Committed {
		return
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(he.Code)
		return
	}
	_ = c.String(he.Code, fmt.Sprintf("%v", he.Message))
}

// Start begins serving and blocks until the server stops.
func (s *Server) Start() error {
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return oops.Code("WEB_SERVE_FAILED").With("addr", s.addr).Wrap(err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return oops.Code("WEB_SHUTDOWN_FAILED").Wrap(err)
	}
	return nil
}

// Echo exposes the underlying Echo instance for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
