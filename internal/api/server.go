// Package api assembles the ebaybuy HTTP proxy: an Echo server with Huma
// operations for search, paging and quota, plus health probes and
// Prometheus metrics.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/donaldgifford/ebaybuy/internal/api/handlers"
	"github.com/donaldgifford/ebaybuy/internal/api/middleware"
	"github.com/donaldgifford/ebaybuy/internal/config"
	"github.com/donaldgifford/ebaybuy/internal/ebay"
)

// Server is the HTTP proxy in front of a BrowseClient.
type Server struct {
	echo    *echo.Echo
	api     huma.API
	cfg     config.ServerConfig
	log     *slog.Logger
	version string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request and server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// WithVersion sets the version reported in the OpenAPI document.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewServer builds the router for client. The server is not started.
func NewServer(client *ebay.BrowseClient, cfg config.ServerConfig, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		log:     slog.New(slog.DiscardHandler),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout
	e.HTTPErrorHandler = middleware.ProblemHandler

	e.Use(middleware.RequestLog(s.log))
	e.Use(middleware.Recovery(s.log))
	e.Use(middleware.Metrics())

	health := handlers.NewHealthHandler(client.Tokens(), client.Tokens().Environment())
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	humaCfg := huma.DefaultConfig("ebaybuy", s.version)
	humaCfg.Info.Description = "Proxy for the eBay Buy Browse item_summary/search API."
	api := humaecho.New(e, humaCfg)

	handlers.RegisterSearchRoutes(api, handlers.NewSearchHandler(client))
	handlers.RegisterPageRoutes(api, handlers.NewPageHandler(client, apiHost(client.Tokens().BaseURL())))
	handlers.RegisterQuotaRoutes(api, handlers.NewQuotaHandler(client.RateLimiter(), client))

	s.echo = e
	s.api = api
	return s
}

// apiHost is the host[:port] page links must point at. A base URL that
// does not parse yields "", which makes the page operation refuse every link.
func apiHost(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return u.Host
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// API returns the Huma API, used to export the OpenAPI document.
func (s *Server) API() huma.API {
	return s.api
}

// Start listens on the configured address and blocks until the server
// stops. A clean Shutdown returns nil.
func (s *Server) Start() error {
	addr := s.cfg.Addr()
	s.log.Info("starting server", "addr", addr)

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving on %s: %w", addr, err)
	}
	return nil
}

// Shutdown stops accepting connections and waits up to timeout for
// in-flight requests.
func (s *Server) Shutdown(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.log.Info("shutting down server")
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}
