package config

import (
	"fmt"
	"net/url"
	"strings"

	pkgconfig "github.com/vedicseva/console/pkg/config"
)

// Config holds all configuration for the admin console service. It is loaded
// once at startup, validated, and injected into every component that needs it.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort    int    `env:"CONSOLE_HTTP_PORT" envDefault:"8080"`

	// Platform API
	APIBaseURL   string `env:"API_BASE_URL" envDefault:"http://localhost:3001"`
	MediaBaseURL string `env:"MEDIA_BASE_URL" envDefault:"http://localhost:3001"`

	// ServiceToken is forwarded as a bearer token on report-delivery calls.
	// The console never mints or verifies tokens.
	ServiceToken string `env:"SERVICE_TOKEN"`

	// Redis read cache. Empty address disables caching entirely.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	CacheTTLSecs  int    `env:"CACHE_TTL_SECONDS" envDefault:"300"`

	// Rate limiting
	RateLimitRPS   int `env:"RATE_LIMIT_RPS" envDefault:"100"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"200"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Tracing
	TracingEnabled bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint   string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TraceSample    float64 `env:"TRACE_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load console config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	for name, raw := range map[string]string{
		"API_BASE_URL":   c.APIBaseURL,
		"MEDIA_BASE_URL": c.MediaBaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}

	if c.Environment != "development" && c.ServiceToken == "" {
		return fmt.Errorf("SERVICE_TOKEN is required in %s environment", c.Environment)
	}

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("CONSOLE_HTTP_PORT must be a valid port, got %d", c.HTTPPort)
	}

	if c.TraceSample < 0 || c.TraceSample > 1 {
		return fmt.Errorf("TRACE_SAMPLE_RATE must be between 0 and 1, got %v", c.TraceSample)
	}

	return nil
}

// APIURL joins the API base URL with the given path.
func (c *Config) APIURL(path string) string {
	return strings.TrimSuffix(c.APIBaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}

// MediaURL joins the media base URL with a stored image path, used when
// hydrating editor sessions from existing records.
func (c *Config) MediaURL(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimSuffix(c.MediaBaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}
