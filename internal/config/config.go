package config

import (
	"net"
	"strconv"
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	CORS       CORSConfig       `yaml:"cors"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	DeepInfra  DeepInfraConfig  `yaml:"deepinfra"`
	Perplexity PerplexityConfig `yaml:"perplexity"`
	Rhymes     RhymesConfig     `yaml:"rhymes"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"3000"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"120s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	// APIPrefix mounts every /ai route a second time under this prefix.
	APIPrefix string `yaml:"api_prefix" env:"SERVER_API_PREFIX" env-default:"/api"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type,X-Request-Id"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// RateLimitConfig holds per-client rate limiting for the /ai routes.
type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled"             env:"RATE_LIMIT_ENABLED"             env-default:"true"`
	RequestsPerMinute int           `yaml:"requests_per_minute" env:"RATE_LIMIT_REQUESTS_PER_MINUTE" env-default:"60"`
	Burst             int           `yaml:"burst"               env:"RATE_LIMIT_BURST"               env-default:"10"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"    env:"RATE_LIMIT_CLEANUP_INTERVAL"    env-default:"5m"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED" env-default:"true"`
	Path    string `yaml:"path"    env:"METRICS_PATH"    env-default:"/metrics"`
}

// DeepInfraConfig holds completion provider settings.
type DeepInfraConfig struct {
	APIKey       string        `yaml:"api_key"       env:"DEEPINFRA_API_KEY"       env-required:"true"`
	BaseURL      string        `yaml:"base_url"      env:"DEEPINFRA_BASE_URL"      env-default:"https://api.deepinfra.com/v1/openai"`
	DefaultModel string        `yaml:"default_model" env:"DEEPINFRA_DEFAULT_MODEL" env-default:"claude-3-sonnet-20240229"`
	ModelPolicy  string        `yaml:"model_policy"  env:"DEEPINFRA_MODEL_POLICY"  env-default:"fallback"`
	Timeout      time.Duration `yaml:"timeout"       env:"DEEPINFRA_TIMEOUT"       env-default:"0s"`
	MaxRetries   int           `yaml:"max_retries"   env:"DEEPINFRA_MAX_RETRIES"   env-default:"0"`
}

// PerplexityConfig holds research provider settings.
type PerplexityConfig struct {
	APIKey     string        `yaml:"api_key"     env:"PERPLEXITY_API_KEY"     env-required:"true"`
	BaseURL    string        `yaml:"base_url"    env:"PERPLEXITY_BASE_URL"    env-default:"https://api.perplexity.ai"`
	Model      string        `yaml:"model"       env:"PERPLEXITY_MODEL"       env-default:"pplx-70b-online"`
	Timeout    time.Duration `yaml:"timeout"     env:"PERPLEXITY_TIMEOUT"     env-default:"0s"`
	MaxRetries int           `yaml:"max_retries" env:"PERPLEXITY_MAX_RETRIES" env-default:"0"`
}

// RhymesConfig holds rhyme engine settings.
type RhymesConfig struct {
	CacheSize         int           `yaml:"cache_size"          env:"RHYMES_CACHE_SIZE"          env-default:"1024"`
	CategoryCacheSize int           `yaml:"category_cache_size" env:"RHYMES_CATEGORY_CACHE_SIZE" env-default:"1024"`
	CacheTTL          time.Duration `yaml:"cache_ttl"           env:"RHYMES_CACHE_TTL"           env-default:"24h"`
	CaseSensitiveKeys bool          `yaml:"case_sensitive_keys" env:"RHYMES_CASE_SENSITIVE_KEYS" env-default:"false"`
	ClassifierModel   string        `yaml:"classifier_model"    env:"RHYMES_CLASSIFIER_MODEL"    env-default:"claude-3-sonnet-20240229"`
	MaxCount          int           `yaml:"max_count"           env:"RHYMES_MAX_COUNT"           env-default:"200"`
}

// Model policies for unknown completion model identifiers.
const (
	ModelPolicyFallback = "fallback"
	ModelPolicyStrict   = "strict"
)

// Addr returns the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// NormalizedPrefix returns APIPrefix with a leading slash and no trailing
// slash, or "" when no prefix is configured.
func (s ServerConfig) NormalizedPrefix() string {
	p := strings.Trim(strings.TrimSpace(s.APIPrefix), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}
