// Package handlers implements the HTTP handlers of the ebaybuy proxy. The
// search, page and quota operations are Huma operations; the probes are
// plain Echo handlers so they stay out of the OpenAPI document.
package handlers

// StatusResponse is the probe response body.
type StatusResponse struct {
	Status      string `json:"status"                example:"ready"`
	Environment string `json:"environment,omitempty" example:"production"`
	Error       string `json:"error,omitempty"`
}
