package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Redis     RedisConfig     `yaml:"redis" mapstructure:"redis"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini    GeminiConfig    `yaml:"gemini" mapstructure:"gemini"`
	Ollama    OllamaConfig    `yaml:"ollama" mapstructure:"ollama"`
	Backends  BackendsConfig  `yaml:"backends" mapstructure:"backends"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Session   SessionConfig   `yaml:"session" mapstructure:"session"`
	Prompt    PromptConfig    `yaml:"prompt" mapstructure:"prompt"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the session store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	// MaxConns and MinConns size the postgres pool.
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// RedisConfig configures the redis session store.
type RedisConfig struct {
	Addr      string `yaml:"addr" mapstructure:"addr"`
	Password  string `yaml:"password" mapstructure:"password"`
	DB        int    `yaml:"db" mapstructure:"db"`
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
}

// GeminiConfig holds Google Gemini API settings.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// OllamaConfig configures the local Ollama server.
type OllamaConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Model       string  `yaml:"model" mapstructure:"model"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	TopP        float64 `yaml:"top_p" mapstructure:"top_p"`
	NumPredict  int     `yaml:"num_predict" mapstructure:"num_predict"`
}

// BackendsConfig configures the inference backend chain.
type BackendsConfig struct {
	Order             []string      `yaml:"order" mapstructure:"order"`
	HostedTimeoutSecs int           `yaml:"hosted_timeout_secs" mapstructure:"hosted_timeout_secs"`
	LocalTimeoutSecs  int           `yaml:"local_timeout_secs" mapstructure:"local_timeout_secs"`
	Breaker           BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
	RatePerSec        float64       `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
}

// HostedTimeout returns the per-call deadline for hosted API backends.
func (b BackendsConfig) HostedTimeout() time.Duration {
	return time.Duration(b.HostedTimeoutSecs) * time.Second
}

// LocalTimeout returns the per-call deadline for the local server.
func (b BackendsConfig) LocalTimeout() time.Duration {
	return time.Duration(b.LocalTimeoutSecs) * time.Second
}

// BreakerConfig configures per-backend circuit breakers.
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// ExtractConfig configures document text extraction.
type ExtractConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
}

// SessionConfig configures session key generation.
type SessionConfig struct {
	KeyStrategy string `yaml:"key_strategy" mapstructure:"key_strategy"`
}

// PromptConfig configures prompt rendering.
type PromptConfig struct {
	SummaryMaxWords int `yaml:"summary_max_words" mapstructure:"summary_max_words"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	MaxUploadMB int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// legacyEnv maps config keys to unprefixed environment names that are also
// honored.
var legacyEnv = map[string]string{
	"ollama.base_url": "OLLAMA_BASE_URL",
	"ollama.model":    "OLLAMA_MODEL",
	"anthropic.key":   "ANTHROPIC_API_KEY",
	"gemini.key":      "GOOGLE_API_KEY",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ASSISTANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		prefixed := "ASSISTANT_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", env)
		}
	}

	// Defaults
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "assistant")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("gemini.key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("ollama.base_url", "http://localhost:11434")
	v.SetDefault("ollama.model", "llama2")
	v.SetDefault("ollama.temperature", 0.7)
	v.SetDefault("ollama.top_p", 0.9)
	v.SetDefault("ollama.num_predict", 2048)
	v.SetDefault("backends.order", []string{"anthropic", "gemini", "ollama"})
	v.SetDefault("backends.hosted_timeout_secs", 60)
	v.SetDefault("backends.local_timeout_secs", 120)
	v.SetDefault("backends.breaker.failure_threshold", 3)
	v.SetDefault("backends.breaker.reset_timeout_secs", 30)
	v.SetDefault("backends.rate_per_sec", 0)
	v.SetDefault("backends.burst", 1)
	v.SetDefault("extract.provider", "native")
	v.SetDefault("extract.pdftotext_path", "pdftotext")
	v.SetDefault("session.key_strategy", "timestamp")
	v.SetDefault("prompt.summary_max_words", 150)
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.max_upload_mb", 20)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

var (
	storeDrivers     = []string{"memory", "sqlite", "postgres", "redis"}
	backendNames     = []string{"anthropic", "gemini", "ollama"}
	extractProviders = []string{"native", "pdftotext"}
	keyStrategies    = []string{"timestamp", "uuid"}
)

// Validate checks the configuration for the given mode ("serve" or "cli").
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Server.MaxUploadMB <= 0 {
			errs = append(errs, "server.max_upload_mb must be > 0")
		}
	case "cli":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if !oneOf(c.Store.Driver, storeDrivers) {
		errs = append(errs, fmt.Sprintf("store.driver must be one of %v", storeDrivers))
	}
	if (c.Store.Driver == "postgres" || c.Store.Driver == "sqlite") && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required for "+c.Store.Driver)
	}
	if c.Store.MinConns < 0 || c.Store.MaxConns < 0 || (c.Store.MaxConns > 0 && c.Store.MinConns > c.Store.MaxConns) {
		errs = append(errs, "store.min_conns and store.max_conns must be >= 0 with min_conns <= max_conns")
	}
	if c.Store.Driver == "redis" && c.Redis.Addr == "" {
		errs = append(errs, "redis.addr is required for redis")
	}
	for _, name := range c.Backends.Order {
		if !oneOf(name, backendNames) {
			errs = append(errs, fmt.Sprintf("backends.order: unknown backend %q", name))
		}
	}
	if c.Backends.HostedTimeoutSecs <= 0 || c.Backends.LocalTimeoutSecs <= 0 {
		errs = append(errs, "backends timeouts must be > 0")
	}
	if c.Backends.RatePerSec < 0 {
		errs = append(errs, "backends.rate_per_sec must be >= 0")
	}
	if !oneOf(c.Extract.Provider, extractProviders) {
		errs = append(errs, fmt.Sprintf("extract.provider must be one of %v", extractProviders))
	}
	if !oneOf(c.Session.KeyStrategy, keyStrategies) {
		errs = append(errs, fmt.Sprintf("session.key_strategy must be one of %v", keyStrategies))
	}
	if c.Prompt.SummaryMaxWords <= 0 {
		errs = append(errs, "prompt.summary_max_words must be > 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func oneOf(s string, set []string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

// IsPlaceholder reports whether a credential is unset or a template value
// such as "your-openai-api-key-here", "changeme" or "<api-key>".
func IsPlaceholder(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	switch {
	case k == "":
		return true
	case k == "changeme":
		return true
	case strings.HasPrefix(k, "your-") && strings.HasSuffix(k, "-here"):
		return true
	case strings.HasPrefix(k, "<") && strings.HasSuffix(k, ">"):
		return true
	}
	return false
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
