package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if LINOTYPE_CONFIG is set
//  3. env (prefix LINOTYPE_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("LINOTYPE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: LINOTYPE_ORACLE_PROVIDER, LINOTYPE_TOPIC_COUNT, ...
	// Map env keys like LINOTYPE_TOPIC_COUNT -> topic_count (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("LINOTYPE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "linotype_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	switch {
	case cfg.OracleProvider == "":
		return fmt.Errorf("%w: oracle_provider must not be empty", ErrInvalidConfig)
	case cfg.RetryMaxAttempts < 1:
		return fmt.Errorf("%w: retry_max_attempts must be at least 1", ErrInvalidConfig)
	case cfg.QuorumFraction <= 0 || cfg.QuorumFraction > 1:
		return fmt.Errorf("%w: quorum_fraction must be in (0, 1]", ErrInvalidConfig)
	case cfg.TopicCount < 1:
		return fmt.Errorf("%w: topic_count must be at least 1", ErrInvalidConfig)
	case cfg.CanvasWidth <= 0 || cfg.CanvasHeight <= 0:
		return fmt.Errorf("%w: canvas dimensions must be positive", ErrInvalidConfig)
	case cfg.NudgeBudget < 0:
		return fmt.Errorf("%w: nudge_budget must not be negative", ErrInvalidConfig)
	}
	return nil
}
