package main

import (
	"errors"

	"github.com/donaldgifford/ebaybuy/tools/dashgen/rules"
)

const namespace = "ebaybuy_"

// exported lists the series ebaybuy registers, without the namespace.
var exported = []string{
	// internal/api/middleware
	"http_request_duration_seconds",
	"http_requests_total",
	"http_requests_in_flight",
	"http_panics_total",
	"healthz_up",
	"readyz_up",

	// internal/ebay token manager
	"token_refreshes_total",
	"token_refresh_duration_seconds",
	"token_invalidations_total",

	// internal/ebay browse client and limiter
	"api_calls_total",
	"api_call_duration_seconds",
	"pages_fetched_total",
	"daily_usage",
	"daily_limit_hits_total",
}

// KnownMetrics holds every series a dashboard or alert may query: the
// exported metrics, the recorded series and the scrape builtins.
var KnownMetrics = knownMetrics()

func knownMetrics() map[string]bool {
	known := map[string]bool{
		"up":                         true,
		"process_start_time_seconds": true,
	}
	for _, name := range exported {
		known[namespace+name] = true
	}
	for _, g := range rules.RecordingRules().Spec.Groups {
		for _, r := range g.Rules {
			known[r.Record] = true
		}
	}
	return known
}

// Config selects the artifacts to generate and their directory.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig writes everything to deploy/ at the repository root, as
// seen from tools/dashgen.
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate rejects a config with nowhere to write or nothing to write.
func (c Config) Validate() error {
	switch {
	case c.OutputDir == "":
		return errors.New("output directory must be set")
	case !c.DashboardEnabled && !c.RulesEnabled:
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
