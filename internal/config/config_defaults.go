package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values that depend on the selected provider
const (
	DefaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"
	DefaultOpenAIModel    = "gpt-4"
	DefaultGeminiModel    = "gemini-2.0-flash"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI Configuration
	v.SetDefault("ai.provider", ProviderOpenAI)
	v.SetDefault("ai.endpoint", "")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.temperature", 0.3)
	v.SetDefault("ai.maxTokens", 2000)
	v.SetDefault("ai.timeout", time.Duration(0))

	// Circuit breaker is off by default; a failed call is reported, never retried
	v.SetDefault("ai.circuitBreaker.enabled", false)
	v.SetDefault("ai.circuitBreaker.maxRequests", 1)
	v.SetDefault("ai.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.timeout", 30*time.Second)
	v.SetDefault("ai.circuitBreaker.minRequests", 3)
	v.SetDefault("ai.circuitBreaker.failureThreshold", 0.6)

	// Credential Configuration
	v.SetDefault("credential.storePath", "") // resolved to $HOME/.resumegrade/credentials.json
	v.SetDefault("credential.defaultKey", "")
	v.SetDefault("credential.watch", true)
	v.SetDefault("credential.debounceDelay", 500*time.Millisecond)

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 30*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxRequestSize", 16*1024*1024)

	// Rate limiting defaults
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 10)
	v.SetDefault("server.rateLimit.burstCapacity", 3)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.window", 10*time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "text")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 5*1024*1024) // 5MB
	v.SetDefault("app.minTextLength", 50)

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.mount", "secret")
	v.SetDefault("vault.secrets.providerKey", "")
	v.SetDefault("vault.pollInterval", 0)

	// Observability: traces are sampled but only exported when console or OTLP is on
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "resumegrade")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)

	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.metrics.aiDuration", true)
	v.SetDefault("observability.metrics.tokenUsage", true)
	v.SetDefault("observability.metrics.reviews", true)
	v.SetDefault("observability.metrics.scores", true)
	v.SetDefault("observability.metrics.extractions", true)
	v.SetDefault("observability.metrics.rateLimits", true)

	v.SetDefault("observability.prometheus.enabled", false)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}
