// Package kpictl implements the kpictl command line client for the KPI
// ranking service.
package kpictl

import "time"

// Defaults for the persistent flags.
const (
	defaultBaseURL = "http://localhost:9080"
	defaultTimeout = 10 * time.Second
	defaultLimit   = 20
	topPerformers  = 10
)

// Config holds the settings shared by every subcommand.
type Config struct {
	BaseURL string        // Base URL of the service
	Timeout time.Duration // HTTP request timeout
	Verbose bool          // Print score statistics
}
