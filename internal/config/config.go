package config

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Supported AI providers
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds all application configuration
// Default credential precedence order:
// 1. Vault (if configured) - Highest priority
// 2. Config file value (credential.defaultKey)
// 3. Environment variables (RESUMEGRADE_CREDENTIAL_DEFAULTKEY, then OPENAI_API_KEY / GEMINI_API_KEY)
// A key saved by the user through the credential modal always wins over the default.
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Credential    CredentialConfig    `mapstructure:"credential"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AIConfig holds completion endpoint configuration
type AIConfig struct {
	Provider       string               `mapstructure:"provider" validate:"oneof=openai gemini"`
	Endpoint       string               `mapstructure:"endpoint"`
	Model          string               `mapstructure:"model"`
	Temperature    float32              `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens      int                  `mapstructure:"maxTokens" validate:"gt=0"`
	Timeout        time.Duration        `mapstructure:"timeout" validate:"gte=0"` // 0 keeps the transport default
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold" validate:"gte=0,lte=1"` // Failure ratio threshold
}

// CredentialConfig holds settings for the persisted API credential
type CredentialConfig struct {
	StorePath     string        `mapstructure:"storePath"`
	DefaultKey    string        `mapstructure:"defaultKey"`
	Watch         bool          `mapstructure:"watch"`
	DebounceDelay time.Duration `mapstructure:"debounceDelay"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port" validate:"required"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	MaxRequestSize int64         `mapstructure:"maxRequestSize"`

	// Rate Limiting Configuration
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// RateLimitConfig holds rate limiting configuration for uploads
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`        // Enable/disable rate limiting
	RequestsPerMin int           `mapstructure:"requestsPerMin"` // Requests allowed per minute
	BurstCapacity  int           `mapstructure:"burstCapacity"`  // Burst capacity for token bucket
	ByIP           bool          `mapstructure:"byIP"`           // Enable per-IP rate limiting
	Window         time.Duration `mapstructure:"window"`         // Idle limiter eviction window
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize" validate:"gt=0"`
	MinTextLength    int      `mapstructure:"minTextLength" validate:"gte=0"`
}

// ObservabilityConfig holds tracing and metrics settings
type ObservabilityConfig struct {
	Enabled         bool             `mapstructure:"enabled"`
	ServiceName     string           `mapstructure:"serviceName"`
	ServiceVersion  string           `mapstructure:"serviceVersion"`  // app version when empty
	ServiceInstance string           `mapstructure:"serviceInstance"` // <name>-<hostname> when empty
	SampleRate      float64          `mapstructure:"sampleRate" validate:"gte=0,lte=1"`
	Console         ConsoleConfig    `mapstructure:"console"`
	Metrics         MetricsConfig    `mapstructure:"metrics"`
	Prometheus      PrometheusConfig `mapstructure:"prometheus"`
	OTLP            OTLPConfig       `mapstructure:"otlp"`
}

// ConsoleConfig writes spans and metrics to stdout
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// MetricsConfig selects which review instruments record
type MetricsConfig struct {
	CollectionInterval time.Duration `mapstructure:"collectionInterval" validate:"gte=0"`
	AIDuration         bool          `mapstructure:"aiDuration"`
	TokenUsage         bool          `mapstructure:"tokenUsage"`
	Reviews            bool          `mapstructure:"reviews"`
	Scores             bool          `mapstructure:"scores"`
	Extractions        bool          `mapstructure:"extractions"`
	RateLimits         bool          `mapstructure:"rateLimits"`
}

// PrometheusConfig exposes metrics on a separate listener
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port" validate:"required_if=Enabled true"`
}

// OTLPConfig holds OTLP/HTTP exporter settings
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint" validate:"omitempty,url"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadConfig loads configuration from environment variables and a config file
func LoadConfig() (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	v := viper.New()

	// Set default values
	setDefaults(v)
	log.Println("[CONFIG] Applied default configuration values")

	// Set up environment variable handling
	v.SetEnvPrefix("RESUMEGRADE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	log.Println("[CONFIG] Configured environment variable handling with prefix 'RESUMEGRADE'")

	// Set up config file handling
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/resumegrade/")
	v.AddConfigPath("$HOME/.resumegrade")
	v.AddConfigPath(".")
	log.Println("[CONFIG] Configured config file search paths: /etc/resumegrade/, $HOME/.resumegrade, .")

	// Read the config file
	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	return finishLoading(v, configFileUsed)
}

// finishLoading unmarshals, completes and validates the configuration held by v
func finishLoading(v *viper.Viper, configFileUsed string) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	log.Println("[CONFIG] Successfully unmarshaled configuration")

	config.applyFallbacks()
	log.Println("[CONFIG] Applied configuration fallbacks and environment variable overrides")

	config.logConfigurationSources(configFileUsed)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// fieldMessages words the failures users hit most often
var fieldMessages = map[string]string{
	"Config.AI.Provider":                 "unsupported AI provider (must be 'openai' or 'gemini')",
	"Config.AI.MaxTokens":                "AI maxTokens must be positive",
	"Config.AI.Timeout":                  "AI timeout cannot be negative",
	"Config.Server.Port":                 "server port is required",
	"Config.App.MaxFileSize":             "app maxFileSize must be positive",
	"Config.App.MinTextLength":           "app minTextLength cannot be negative",
	"Config.Observability.OTLP.Endpoint": "observability otlp endpoint must be a URL",
}

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field rules from the validate tags, then the rules that
// span several sections
func (c *Config) Validate() error {
	if err := structValidator.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
			return err
		}
		fe := fieldErrs[0]
		if msg, ok := fieldMessages[fe.Namespace()]; ok {
			return fmt.Errorf("%s: got %v", msg, fe.Value())
		}
		return fmt.Errorf("invalid %s: %v fails %q", fe.Namespace(), fe.Value(), fe.Tag())
	}

	if c.Server.MaxRequestSize <= c.App.MaxFileSize {
		return fmt.Errorf("server maxRequestSize (%d) must be larger than app maxFileSize (%d)",
			c.Server.MaxRequestSize, c.App.MaxFileSize)
	}

	if !slices.Contains(c.App.SupportedFormats, c.App.DefaultFormat) {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerMin <= 0 {
		return fmt.Errorf("rate limit requestsPerMin must be positive when rate limiting is enabled")
	}

	return nil
}
