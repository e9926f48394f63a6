package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/danielgtaylor/huma/v2"
	"github.com/labstack/echo/v4"

	"github.com/donaldgifford/ebaybuy/internal/metrics"
)

// Recovery turns a handler panic into a 500 problem response shaped like
// the ones Huma returns, so proxy clients decode every error the same way.
func Recovery(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if v := recover(); v != nil {
					err = recovered(c, log, v)
				}
			}()
			return next(c)
		}
	}
}

func recovered(c echo.Context, log *slog.Logger, v any) error {
	metrics.HTTPPanicsTotal.Inc()

	id := RequestID(c)
	req := c.Request()
	log.Error("handler panicked",
		"panic", fmt.Sprint(v),
		"method", req.Method,
		"path", req.URL.Path,
		"request_id", id,
		"stack", string(debug.Stack()),
	)

	// Part of a response already went out; the client sees a truncated body.
	if c.Response().Committed {
		return nil
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
	return c.JSON(http.StatusInternalServerError, &huma.ErrorModel{
		Title:  http.StatusText(http.StatusInternalServerError),
		Status: http.StatusInternalServerError,
		Detail: "request " + id + " failed",
	})
}
