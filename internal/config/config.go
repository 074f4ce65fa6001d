package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Routing   RoutingConfig   `yaml:"routing" mapstructure:"routing"`
	Classify  ClassifyConfig  `yaml:"classify" mapstructure:"classify"`
	Provider  ProviderConfig  `yaml:"provider" mapstructure:"provider"`
	Groq      GroqConfig      `yaml:"groq" mapstructure:"groq"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Pricing   PricingConfig   `yaml:"pricing" mapstructure:"pricing"`
	Audit     AuditConfig     `yaml:"audit" mapstructure:"audit"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// RoutingConfig configures the hybrid router.
type RoutingConfig struct {
	SimpleConfidenceThreshold float64 `yaml:"simple_confidence_threshold" mapstructure:"simple_confidence_threshold"`
	FallbackEnabled           bool    `yaml:"fallback_enabled" mapstructure:"fallback_enabled"`
	ReviewThreshold           float64 `yaml:"review_threshold" mapstructure:"review_threshold"`
}

// ClassifyConfig configures the image classifier.
type ClassifyConfig struct {
	BrightnessThreshold float64 `yaml:"brightness_threshold" mapstructure:"brightness_threshold"`
}

// ProviderConfig selects the provider implementation.
type ProviderConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode"` // "live" or "static"
}

// GroqConfig holds Groq API settings for the cheap path.
type GroqConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	Model     string  `yaml:"model" mapstructure:"model"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// AnthropicConfig holds Anthropic API settings for the precise path.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// PricingConfig points at the optional rates override file.
type PricingConfig struct {
	RatesFile string `yaml:"rates_file" mapstructure:"rates_file"`
}

// AuditConfig configures the optional sqlite attempt log.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// BatchConfig configures directory batch processing.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RECEIPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("routing.simple_confidence_threshold", 0.85)
	v.SetDefault("routing.fallback_enabled", true)
	v.SetDefault("routing.review_threshold", 0.95)
	v.SetDefault("classify.brightness_threshold", 0.6)
	v.SetDefault("provider.mode", "live")
	// Secrets default empty so env-only values bind through AutomaticEnv.
	v.SetDefault("groq.key", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("pricing.rates_file", "")
	v.SetDefault("groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("groq.model", "llama-3.3-70b-versatile")
	v.SetDefault("groq.rate_limit", 2.0)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.path", "receipts-audit.db")
	v.SetDefault("batch.max_concurrent", 4)
	v.SetDefault("server.port", 8080)
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
