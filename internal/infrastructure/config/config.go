package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of every environment variable read by Load
const EnvPrefix = "GATEWAY"

// Config holds all configuration for the gateway
type Config struct {
	Server    ServerConfig
	Scorer    ScorerConfig
	Tokenizer TokenizerConfig
	Tracing   TracingConfig
	Log       LogConfig

	// Labels overrides the label table shipped with the model artifact
	Labels []string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `default:"0.0.0.0"`
	Port            int           `default:"8080"`
	Mode            string        `default:"release"`
	ReadTimeout     time.Duration `split_words:"true" default:"30s"`
	WriteTimeout    time.Duration `split_words:"true" default:"35s"`
	ShutdownTimeout time.Duration `split_words:"true" default:"30s"`
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ScorerConfig holds configuration for the remote model server
type ScorerConfig struct {
	URL          string        `default:"http://localhost:8081/predict"`
	HealthURL    string        `split_words:"true"`
	Timeout      time.Duration `default:"30s"`
	MaxRetries   int           `split_words:"true" default:"0"`
	RetryBackoff time.Duration `split_words:"true" default:"100ms"`
	MaxIdleConns int           `split_words:"true" default:"100"`
}

// TokenizerConfig holds the location of the tokenizer artifact
type TokenizerConfig struct {
	Dir       string `default:"./models/model"`
	MaxLength int    `split_words:"true" default:"0"`
}

// TracingConfig holds OpenTelemetry exporter configuration
type TracingConfig struct {
	Enabled     bool    `default:"true"`
	Endpoint    string  `default:"localhost:4317"`
	Insecure    bool    `default:"true"`
	ServiceName string  `split_words:"true" default:"inference-gateway"`
	SampleRatio float64 `split_words:"true" default:"1.0"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level   string `default:"info"`
	Format  string `default:"json"`
	Service string `ignored:"true"`
}

// legacyAliases are the variable names used by earlier deployments of the
// gateway. They apply only when the prefixed variable is unset.
var legacyAliases = []struct {
	name    string
	current string
	apply   func(cfg *Config, value string)
}{
	{"KSERVE_URL", EnvPrefix + "_SCORER_URL", func(cfg *Config, v string) { cfg.Scorer.URL = v }},
	{"MODEL_DIR", EnvPrefix + "_TOKENIZER_DIR", func(cfg *Config, v string) { cfg.Tokenizer.Dir = v }},
	{"JAEGER_ENDPOINT", EnvPrefix + "_TRACING_ENDPOINT", func(cfg *Config, v string) { cfg.Tracing.Endpoint = v }},
}

// Load reads configuration from an optional .env file and the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	applyLegacyAliases(&cfg)

	if cfg.Scorer.HealthURL == "" {
		healthURL, err := deriveHealthURL(cfg.Scorer.URL)
		if err != nil {
			return nil, err
		}
		cfg.Scorer.HealthURL = healthURL
	}
	cfg.Log.Service = cfg.Tracing.ServiceName

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyLegacyAliases(cfg *Config) {
	for _, alias := range legacyAliases {
		if _, ok := os.LookupEnv(alias.current); ok {
			continue
		}
		if value := os.Getenv(alias.name); value != "" {
			alias.apply(cfg, value)
		}
	}
}

// deriveHealthURL points at /healthz on the scorer's host
func deriveHealthURL(scorerURL string) (string, error) {
	u, err := url.Parse(scorerURL)
	if err != nil {
		return "", fmt.Errorf("invalid scorer url %q: %w", scorerURL, err)
	}
	u.Path = "/healthz"
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unsupported server mode %q", c.Server.Mode)
	}

	u, err := url.Parse(c.Scorer.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid scorer url %q", c.Scorer.URL)
	}
	if c.Scorer.Timeout <= 0 {
		return fmt.Errorf("scorer timeout must be positive, got %s", c.Scorer.Timeout)
	}
	if c.Scorer.MaxRetries < 0 {
		return fmt.Errorf("scorer max retries must not be negative, got %d", c.Scorer.MaxRetries)
	}

	if c.Tokenizer.Dir == "" {
		return errors.New("tokenizer dir must be set")
	}
	if c.Tokenizer.MaxLength < 0 {
		return fmt.Errorf("tokenizer max length must not be negative, got %d", c.Tokenizer.MaxLength)
	}

	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing sample ratio must be within [0,1], got %v", c.Tracing.SampleRatio)
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unsupported log format %q", c.Log.Format)
	}

	return nil
}
