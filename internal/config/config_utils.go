package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

const credentialFileName = "credentials.json"

// applyFallbacks fills values that depend on the provider, the environment or the host
func (c *Config) applyFallbacks() {
	c.applyProviderDefaults()
	c.applyCredentialDefaults()
	c.applyObservabilityDefaults()
}

// applyProviderDefaults picks the model and endpoint for the selected provider
func (c *Config) applyProviderDefaults() {
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))

	switch c.AI.Provider {
	case ProviderOpenAI:
		if c.AI.Model == "" {
			c.AI.Model = DefaultOpenAIModel
		}
		if c.AI.Endpoint == "" {
			c.AI.Endpoint = DefaultOpenAIEndpoint
		}
	case ProviderGemini:
		if c.AI.Model == "" {
			c.AI.Model = DefaultGeminiModel
		}
	}
}

// applyCredentialDefaults resolves the store location and the default credential
func (c *Config) applyCredentialDefaults() {
	c.Credential.StorePath = expandHome(c.Credential.StorePath)
	if c.Credential.StorePath == "" {
		c.Credential.StorePath = defaultStorePath()
	}

	if c.Credential.DefaultKey == "" {
		c.Credential.DefaultKey = os.Getenv(providerKeyEnv(c.AI.Provider))
	}
	c.Credential.DefaultKey = strings.TrimSpace(c.Credential.DefaultKey)
}

// providerKeyEnv names the conventional environment variable for a provider's key
func providerKeyEnv(provider string) string {
	if provider == ProviderGemini {
		return "GEMINI_API_KEY"
	}
	return "OPENAI_API_KEY"
}

func defaultStorePath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".resumegrade", credentialFileName)
	}
	return filepath.Join(".resumegrade", credentialFileName)
}

// expandHome replaces a leading ~ with the user's home directory
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// applyObservabilityDefaults applies default observability configuration values
func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
}

// generateServiceInstanceID generates a unique service instance ID
func generateServiceInstanceID(serviceName string) string {
	// Try to get hostname, fallback to default
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		"RESUMEGRADE_AI_PROVIDER",
		"RESUMEGRADE_AI_MODEL",
		"RESUMEGRADE_AI_ENDPOINT",
		"RESUMEGRADE_CREDENTIAL_DEFAULTKEY",
		"RESUMEGRADE_CREDENTIAL_STOREPATH",
		"RESUMEGRADE_SERVER_PORT",
		"RESUMEGRADE_SERVER_HOST",
		"RESUMEGRADE_APP_LOGLEVEL",
		"RESUMEGRADE_VAULT_ENABLED",
		"OPENAI_API_KEY",
		"GEMINI_API_KEY",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			if isSensitiveName(envVar) {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] AI Provider: %s", c.AI.Provider)
	log.Printf("[CONFIG] AI Model: %s", c.AI.Model)
	if c.AI.Endpoint != "" {
		log.Printf("[CONFIG] AI Endpoint: %s", c.AI.Endpoint)
	}
	if c.Credential.DefaultKey != "" {
		log.Println("[CONFIG] Default API Key: ***CONFIGURED***")
	} else {
		log.Println("[CONFIG] Default API Key: ***NOT SET***")
	}
	log.Printf("[CONFIG] Credential Store: %s", c.Credential.StorePath)
	log.Printf("[CONFIG] Server Host: %s", c.Server.Host)
	log.Printf("[CONFIG] Server Port: %s", c.Server.Port)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] Max File Size: %d bytes", c.App.MaxFileSize)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)

	log.Println("[CONFIG] =====================================")
}

func isSensitiveName(name string) bool {
	return strings.Contains(strings.ToLower(name), "key")
}
