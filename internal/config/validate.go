package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/heartmarshall/songsmith-backend/internal/domain"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}

	if err := c.DeepInfra.validate(); err != nil {
		return fmt.Errorf("deepinfra: %w", err)
	}
	if err := c.Perplexity.validate(); err != nil {
		return fmt.Errorf("perplexity: %w", err)
	}
	if err := c.Rhymes.validate(); err != nil {
		return fmt.Errorf("rhymes: %w", err)
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerMinute <= 0 {
			return fmt.Errorf("rate_limit.requests_per_minute must be > 0 (got %d)", c.RateLimit.RequestsPerMinute)
		}
		if c.RateLimit.Burst <= 0 {
			return fmt.Errorf("rate_limit.burst must be > 0 (got %d)", c.RateLimit.Burst)
		}
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with / (got %q)", c.Metrics.Path)
	}

	return nil
}

func (d *DeepInfraConfig) validate() error {
	if strings.TrimSpace(d.APIKey) == "" {
		return fmt.Errorf("api_key is required")
	}
	if err := validateBaseURL(d.BaseURL); err != nil {
		return err
	}
	if !domain.Model(d.DefaultModel).IsValid() {
		return fmt.Errorf("unsupported default_model %q", d.DefaultModel)
	}
	switch d.ModelPolicy {
	case ModelPolicyFallback, ModelPolicyStrict:
	default:
		return fmt.Errorf("model_policy must be %q or %q (got %q)", ModelPolicyFallback, ModelPolicyStrict, d.ModelPolicy)
	}
	return validateRetries(d.MaxRetries)
}

func (p *PerplexityConfig) validate() error {
	if strings.TrimSpace(p.APIKey) == "" {
		return fmt.Errorf("api_key is required")
	}
	if err := validateBaseURL(p.BaseURL); err != nil {
		return err
	}
	if strings.TrimSpace(p.Model) == "" {
		return fmt.Errorf("model is required")
	}
	return validateRetries(p.MaxRetries)
}

func (r *RhymesConfig) validate() error {
	if r.CacheSize <= 0 {
		return fmt.Errorf("cache_size must be > 0 (got %d)", r.CacheSize)
	}
	if r.CategoryCacheSize <= 0 {
		return fmt.Errorf("category_cache_size must be > 0 (got %d)", r.CategoryCacheSize)
	}
	if r.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must be >= 0 (got %v)", r.CacheTTL)
	}
	if !domain.Model(r.ClassifierModel).IsValid() {
		return fmt.Errorf("unsupported classifier_model %q", r.ClassifierModel)
	}
	if r.MaxCount <= 0 {
		return fmt.Errorf("max_count must be > 0 (got %d)", r.MaxCount)
	}
	return nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute URL (got %q)", raw)
	}
	return nil
}

func validateRetries(n int) error {
	if n < 0 || n > 5 {
		return fmt.Errorf("max_retries must be in 0..5 (got %d)", n)
	}
	return nil
}
