package server

import (
	"time"

	"resumegrade/internal/ai"
	"resumegrade/internal/app"
	"resumegrade/internal/config"
	resumegradeErrors "resumegrade/internal/errors"
	"resumegrade/internal/observability"
	"resumegrade/internal/presentation"
)

// ViewResponse is the page state returned by every /api endpoint
type ViewResponse struct {
	Phase              string                 `json:"phase"`
	View               presentation.ViewKind  `json:"view"`
	Message            string                 `json:"message,omitempty"`
	HTML               string                 `json:"html,omitempty"`
	Banners            []presentation.Banner  `json:"banners"`
	Modal              presentation.ModalView `json:"modal"`
	CredentialSet      bool                   `json:"credentialSet"`
	Revision           uint64                 `json:"revision"`
	AnimationElapsedMs int64                  `json:"animationElapsedMs,omitempty"`
	Error              string                 `json:"error,omitempty"`
}

// CredentialRequest is the body of POST /api/credential
type CredentialRequest struct {
	APIKey string `json:"apiKey"`
}

// HealthReporter exposes the completion client's breaker state
type HealthReporter interface {
	GetStats() map[string]any
	IsHealthy() bool
}

// Watcher is a background component started and stopped with the server
type Watcher interface {
	Start() error
	Stop() error
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	App           *app.Controller
	Renderer      *presentation.Renderer
	AI            HealthReporter
	Observability *observability.ObservabilityManager
	Watchers      []Watcher
	KeyFormat     ai.KeyFormat

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Size limits
	MaxRequestSize int64
	MaxFileSize    int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	Logger *resumegradeErrors.Logger
}

// ServerConfig holds the listener settings for a Server
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	MaxFileSize    int64
	RateLimit      *config.RateLimitConfig
}

// Dependencies are the collaborators the handlers drive
type Dependencies struct {
	App           *app.Controller
	Renderer      *presentation.Renderer
	AI            HealthReporter
	Observability *observability.ObservabilityManager
	Watchers      []Watcher
	KeyFormat     ai.KeyFormat
}

// NewServer creates a new Server instance
func NewServer(appCfg *config.Config, cfg ServerConfig, deps Dependencies, logger *resumegradeErrors.Logger) *Server {
	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.Window,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	om := deps.Observability
	if om == nil {
		om, _ = observability.NewObservabilityManager(observability.ObservabilityConfig{Enabled: false}, appCfg)
	}

	keyFormat := deps.KeyFormat
	if keyFormat.Prefix == "" {
		keyFormat = ai.KeyFormatFor("")
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		App:            deps.App,
		Renderer:       deps.Renderer,
		AI:             deps.AI,
		Observability:  om,
		Watchers:       deps.Watchers,
		KeyFormat:      keyFormat,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		MaxFileSize:    cfg.MaxFileSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Logger:         logger,
	}
}
