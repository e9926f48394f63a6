// Package middleware provides Echo middleware for the ebaybuy HTTP API.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/donaldgifford/ebaybuy/internal/metrics"
)

// unmatchedRoute labels requests that hit no registered route, so probing
// clients cannot grow the path label without bound.
const unmatchedRoute = "unmatched"

// operational paths bypass the request histogram. Probe paths carry the
// gauge they drive; the rest are skipped.
var operational = map[string]prometheus.Gauge{
	"/healthz":      metrics.HealthzUp,
	"/readyz":       metrics.ReadyzUp,
	"/metrics":      nil,
	"/openapi.json": nil,
	"/openapi.yaml": nil,
	"/docs":         nil,
}

// Metrics records request count, duration and in-flight requests, labeled
// by route template rather than raw path.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := routeLabel(c)

			if gauge, ok := operational[route]; ok {
				err := next(c)
				if gauge != nil {
					gauge.Set(boolFloat(isSuccess(responseStatus(c, err))))
				}
				return err
			}

			metrics.HTTPRequestsInFlight.Inc()
			defer metrics.HTTPRequestsInFlight.Dec()

			start := time.Now()
			err := next(c)

			status := strconv.Itoa(responseStatus(c, err))
			method := c.Request().Method
			metrics.HTTPRequestDuration.
				WithLabelValues(method, route, status).
				Observe(time.Since(start).Seconds())
			metrics.HTTPRequestsTotal.
				WithLabelValues(method, route, status).
				Inc()

			return err
		}
	}
}

func routeLabel(c echo.Context) string {
	if p := c.Path(); p != "" {
		if _, ok := operational[p]; ok {
			return p
		}
		// Echo reports "/*" style paths for its not-found handler.
		if p != "/*" {
			return p
		}
	}
	if _, ok := operational[c.Request().URL.Path]; ok {
		return c.Request().URL.Path
	}
	return unmatchedRoute
}

// responseStatus is the status the client sees, including errors that the
// echo error handler has not written yet.
func responseStatus(c echo.Context, err error) int {
	if c.Response().Committed || err == nil {
		return c.Response().Status
	}
	if he, ok := err.(*echo.HTTPError); ok { //nolint:errorlint // echo returns it unwrapped
		return he.Code
	}
	return http.StatusInternalServerError
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
