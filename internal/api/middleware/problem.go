package middleware

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/labstack/echo/v4"
)

// ProblemHandler is an echo.HTTPErrorHandler that writes the errors Echo
// itself produces (unknown routes, wrong methods, errors from the probe
// handlers) in the same problem+json shape as Huma's.
func ProblemHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	var detail string
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if msg, ok := he.Message.(string); ok && msg != http.StatusText(status) {
			detail = msg
		}
	}
	if status >= http.StatusInternalServerError && detail == "" {
		detail = "request " + RequestID(c) + " failed"
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
	_ = c.JSON(status, &huma.ErrorModel{
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}
