package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if PROCTOR_CONFIG is set
//  3. env (prefix PROCTOR_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("PROCTOR_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: PROCTOR_ADDR, PROCTOR_IDLE_THRESHOLD_MS, ...
	// Map env keys like PROCTOR_IDLE_THRESHOLD_MS -> idle_threshold_ms,
	// preserving underscores to match koanf tags on the struct.
	envProvider := env.Provider("PROCTOR_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "proctor_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.IdleThresholdMS <= 0 {
		return fmt.Errorf("%w: idle_threshold_ms must be positive", ErrInvalidConfig)
	}
	if c.RetryBackoffMS <= 0 {
		return fmt.Errorf("%w: retry_backoff_ms must be positive", ErrInvalidConfig)
	}
	if c.SynthesisTimeoutMS <= 0 {
		return fmt.Errorf("%w: synthesis_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.QuestionTimeoutMS <= 0 {
		return fmt.Errorf("%w: question_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.ExcerptMaxLen <= 0 || c.SnippetMaxCount <= 0 {
		return fmt.Errorf("%w: excerpt and snippet caps must be positive", ErrInvalidConfig)
	}
	return nil
}
