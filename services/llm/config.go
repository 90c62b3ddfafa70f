// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables recognized by LoadProviderConfig.
const (
	EnvAPIKey         = "GEMINI_API_KEY"
	EnvAPIBase        = "GEMINI_API_BASE"
	EnvAPIVersion     = "GEMINI_API_VERSION"
	EnvAPIModel       = "GEMINI_API_MODEL"
	EnvAttemptTimeout = "GEMINI_ATTEMPT_TIMEOUT"
)

// Defaults applied before the config file and environment are read.
const (
	DefaultBaseURL        = "https://generativelanguage.googleapis.com"
	DefaultAPIVersion     = "v1beta"
	DefaultModel          = "gemini-1.5-flash-latest"
	DefaultAttemptTimeout = 30 * time.Second
)

// ErrInvalidConfig is returned when a loaded ProviderConfig fails validation.
var ErrInvalidConfig = errors.New("config: invalid provider configuration")

// envFiles are loaded in order; godotenv never overrides variables that are
// already present in the process environment.
var envFiles = []string{".env", ".env.local"}

// ProviderConfig holds the process-wide settings for the generative provider.
//
// Description:
//
//	Loaded once at startup and never mutated afterwards. The router and the
//	Gemini client only ever receive a pointer to it and treat it as read-only.
//	A blank APIKey is valid: it puts the router into "not configured" mode
//	where no network call is made.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type ProviderConfig struct {
	// APIKey is sent as the "key" query parameter on every provider call.
	APIKey string `yaml:"api_key"`

	// BaseURL is the provider root, without a trailing version segment.
	BaseURL string `yaml:"base_url" validate:"required,url"`

	// APIVersion is the preferred API version, tried before the well-known ones.
	// Blank means "no preference".
	APIVersion string `yaml:"api_version"`

	// Model is the preferred model name, tried before the fallback list.
	// Blank means "no preference".
	Model string `yaml:"model"`

	// AttemptTimeout bounds a single provider call.
	AttemptTimeout time.Duration `yaml:"attempt_timeout" validate:"gt=0"`
}

// DefaultProviderConfig returns the configuration used when nothing else is set.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		BaseURL:        DefaultBaseURL,
		APIVersion:     DefaultAPIVersion,
		Model:          DefaultModel,
		AttemptTimeout: DefaultAttemptTimeout,
	}
}

// IsConfigured reports whether an API key is present.
func (c *ProviderConfig) IsConfigured() bool {
	return c != nil && strings.TrimSpace(c.APIKey) != ""
}

// LoadProviderConfig builds the ProviderConfig for this process.
//
// Description:
//
//	Resolution order, later steps overriding earlier ones:
//	  1. DefaultProviderConfig
//	  2. YAML file at path (skipped when path is empty)
//	  3. .env / .env.local in the working directory (never override real env)
//	  4. GEMINI_* environment variables
//
//	An environment variable that is set but empty clears the field, which is
//	how an operator disables the preferred version or model.
//
// Inputs:
//   - path: Optional YAML config file. A missing file is an error only when
//     path is non-empty.
//
// Outputs:
//   - *ProviderConfig: The validated configuration.
//   - error: Non-nil if the file cannot be read/parsed or validation fails.
func LoadProviderConfig(path string) (*ProviderConfig, error) {
	cfg := DefaultProviderConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.APIVersion = strings.TrimSpace(cfg.APIVersion)
	cfg.Model = strings.TrimSpace(cfg.Model)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !cfg.IsConfigured() {
		slog.Warn("GEMINI_API_KEY not set, generation requests will not reach the provider")
	}
	slog.Info("Provider configuration loaded",
		slog.String("base_url", cfg.BaseURL),
		slog.String("api_version", cfg.APIVersion),
		slog.String("model", cfg.Model),
		slog.Duration("attempt_timeout", cfg.AttemptTimeout),
		slog.Bool("configured", cfg.IsConfigured()),
	)

	return &cfg, nil
}

// Validate checks the structural constraints of the configuration.
func (c *ProviderConfig) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: field %s failed %q", ErrInvalidConfig, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func applyEnv(cfg *ProviderConfig) error {
	if v, ok := os.LookupEnv(EnvAPIKey); ok {
		cfg.APIKey = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv(EnvAPIBase); ok && strings.TrimSpace(v) != "" {
		cfg.BaseURL = v
	}
	if v, ok := os.LookupEnv(EnvAPIVersion); ok {
		cfg.APIVersion = v
	}
	if v, ok := os.LookupEnv(EnvAPIModel); ok {
		cfg.Model = v
	}
	if v, ok := os.LookupEnv(EnvAttemptTimeout); ok && strings.TrimSpace(v) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvAttemptTimeout, err)
		}
		cfg.AttemptTimeout = d
	}
	return nil
}
