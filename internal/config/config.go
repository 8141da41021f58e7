// Package config defines process configuration and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// MetricsAddr is the Prometheus listen address; empty disables the
	// metrics server.
	MetricsAddr string `koanf:"metrics_addr"`

	// OracleProvider selects the generation backend: openai, anthropic
	// or scripted.
	OracleProvider string `koanf:"oracle_provider"`

	// OracleModel names the model requested from the provider.
	OracleModel string `koanf:"oracle_model"`

	// OracleBaseURL overrides the provider endpoint, mainly for tests.
	OracleBaseURL string `koanf:"oracle_base_url"`

	// OracleAPIKey authenticates with the provider.
	OracleAPIKey string `koanf:"oracle_api_key"`

	// RetryMaxAttempts bounds oracle retries per stage.
	RetryMaxAttempts int `koanf:"retry_max_attempts"`

	// RetryBaseDelayMS and RetryMaxDelayMS shape the exponential backoff.
	RetryBaseDelayMS int `koanf:"retry_base_delay_ms"`
	RetryMaxDelayMS  int `koanf:"retry_max_delay_ms"`

	// CallTimeoutMS caps a single oracle call.
	CallTimeoutMS int `koanf:"call_timeout_ms"`

	// QuorumFraction is the minimum fraction of voters that must return
	// a valid score for a topic to stay eligible.
	QuorumFraction float64 `koanf:"quorum_fraction"`

	// VoterRosterPath points to a YAML voter roster; empty uses the
	// built-in roster.
	VoterRosterPath string `koanf:"voter_roster_path"`

	// TopicCount is how many candidate topics discovery requests.
	TopicCount int `koanf:"topic_count"`

	// DedupeSize bounds the seen-topic cache.
	DedupeSize int `koanf:"dedupe_size"`

	// CanvasWidth and CanvasHeight size the chart canvas in pixels.
	CanvasWidth  float64 `koanf:"canvas_width"`
	CanvasHeight float64 `koanf:"canvas_height"`

	// NudgeBudget caps collision-avoidance attempts per chart label.
	NudgeBudget int `koanf:"nudge_budget"`

	// SessionsDir, QuarantineDir and PublishedDir root the three
	// filesystem sinks.
	SessionsDir   string `koanf:"sessions_dir"`
	QuarantineDir string `koanf:"quarantine_dir"`
	PublishedDir  string `koanf:"published_dir"`
}

// New creates a Config using defaults. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		MetricsAddr:      ":9090",
		OracleProvider:   "openai",
		OracleModel:      "gpt-4o",
		RetryMaxAttempts: 3,
		RetryBaseDelayMS: 500,
		RetryMaxDelayMS:  8_000,
		CallTimeoutMS:    90_000,
		QuorumFraction:   1.0,
		TopicCount:       5,
		DedupeSize:       10_000,
		CanvasWidth:      1280,
		CanvasHeight:     720,
		NudgeBudget:      8,
		SessionsDir:      "data/sessions",
		QuarantineDir:    "data/quarantine",
		PublishedDir:     "data/published",
	}
}
