package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestID returns the ID RequestLog assigned to c, or "" outside it.
func RequestID(c echo.Context) string {
	id, _ := c.Get(requestIDKey).(string)
	return id
}

// RequestLog assigns each request an ID (reusing X-Request-ID when the
// caller sent one), echoes it in the response and logs one line per
// request. Client errors log at WARN and server errors at ERROR.
//
// Probes are quiet: a run of successes on /healthz or /readyz is logged
// once, and every failure is logged.
func RequestLog(log *slog.Logger) echo.MiddlewareFunc {
	var (
		mu      sync.Mutex
		probeOK = map[string]bool{}
		probes  = map[string]struct{}{"/healthz": {}, "/readyz": {}}
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqID := c.Request().Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			c.Set(requestIDKey, reqID)
			c.Response().Header().Set(requestIDHeader, reqID)

			err := next(c)

			path := c.Request().URL.Path
			status := responseStatus(c, err)

			if _, probe := probes[path]; probe {
				ok := isSuccess(status)
				mu.Lock()
				quiet := ok && probeOK[path]
				probeOK[path] = ok
				mu.Unlock()
				if quiet {
					return err
				}
			}

			attrs := []any{
				"method", c.Request().Method,
				"path", path,
				"route", c.Path(),
				"status", status,
				"bytes", c.Response().Size,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", reqID,
			}
			if err != nil {
				attrs = append(attrs, "error", err.Error())
			}
			log.Log(c.Request().Context(), statusLevel(status), "request", attrs...)

			return err
		}
	}
}

func statusLevel(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
