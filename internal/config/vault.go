package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"resumegrade/internal/errors"

	"github.com/hashicorp/vault/api"
)

// ProviderKeyField is the field holding the credential inside the KVv2 secret
const ProviderKeyField = "api_key"

const vaultRequestTimeout = 10 * time.Second

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`

	// PollInterval re-reads the provider key while serving; 0 disables polling
	PollInterval time.Duration `mapstructure:"pollInterval"`
}

// VaultSecrets locates the provider key in a KVv2 engine
type VaultSecrets struct {
	Mount string `mapstructure:"mount"`
	// ProviderKey is the secret path under Mount. Its "api_key" field
	// becomes the default credential.
	ProviderKey string `mapstructure:"providerKey"`
}

// VaultSecret is one version of a KVv2 secret
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// VaultClient reads KVv2 secrets from one mount
type VaultClient struct {
	kv     *api.KVv2
	mount  string
	logger *errors.Logger
}

// NewVaultClient connects to Vault and checks its health. It returns nil
// without error when Vault is disabled.
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !config.Enabled {
		return nil, nil
	}

	apiConfig := api.DefaultConfig()
	if config.Address != "" {
		apiConfig.Address = config.Address
	}
	apiConfig.Timeout = vaultRequestTimeout

	client, err := api.NewClient(apiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	token, err := resolveVaultToken(config)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	ctx, cancel := context.WithTimeout(context.Background(), vaultRequestTimeout)
	defer cancel()
	health, err := client.Sys().HealthWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to vault at %s: %w", apiConfig.Address, err)
	}
	if health.Sealed {
		return nil, fmt.Errorf("vault at %s is sealed", apiConfig.Address)
	}

	mount := config.Secrets.Mount
	if mount == "" {
		mount = "secret"
	}

	if logger != nil {
		logger.Info("Connected to Vault",
			"address", apiConfig.Address,
			"version", health.Version,
			"mount", mount)
	}

	return &VaultClient{kv: client.KVv2(mount), mount: mount, logger: logger}, nil
}

// resolveVaultToken takes the configured token, then the token file, then VAULT_TOKEN
func resolveVaultToken(config VaultConfig) (string, error) {
	token := strings.TrimSpace(config.Token)

	if token == "" && config.TokenFile != "" {
		raw, err := os.ReadFile(config.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	}

	if token == "" {
		token = strings.TrimSpace(os.Getenv("VAULT_TOKEN"))
	}

	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// GetSecretV2 reads the latest version of the secret at path under the mount
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	ctx, cancel := context.WithTimeout(context.Background(), vaultRequestTimeout)
	defer cancel()

	secret, err := vc.kv.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", vc.mount, path, err)
	}

	out := &VaultSecret{Data: secret.Data}
	if secret.VersionMetadata != nil {
		out.Version = int64(secret.VersionMetadata.Version)
	}
	if vc.logger != nil {
		vc.logger.Debug("Read secret from Vault", "mount", vc.mount, "path", path, "version", out.Version)
	}
	return out, nil
}

// GetStringSecret reads one string field of the secret at path
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	raw, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}
	if vc.logger != nil {
		vc.logger.Debug("String secret retrieved from Vault", "path", path, "key", key, "masked_value", maskSecret(value))
	}
	return value, nil
}

// maskSecret renders a secret for debug logs
func maskSecret(value string) string {
	switch {
	case len(value) > 8:
		return value[:4] + "****" + value[len(value)-4:]
	case value != "":
		return "****"
	default:
		return ""
	}
}

// secretReader is the part of VaultClient used at startup
type secretReader interface {
	GetStringSecret(path, key string) (string, error)
}

// ApplyVaultSecrets makes the Vault provider key the default credential.
// It is a no-op when Vault is disabled or no path is configured.
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled || config.Vault.Secrets.ProviderKey == "" {
		if logger != nil {
			logger.Debug("Vault provider key not configured, skipping")
		}
		return nil
	}

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}
	return loadProviderKeyFromVault(client, config, logger)
}

func loadProviderKeyFromVault(client secretReader, config *Config, logger *errors.Logger) error {
	path := config.Vault.Secrets.ProviderKey
	if path == "" {
		return nil
	}

	key, err := client.GetStringSecret(path, ProviderKeyField)
	if err != nil {
		return fmt.Errorf("failed to load provider API key from vault: %w", err)
	}

	key = strings.TrimSpace(key)
	if key == "" {
		if logger != nil {
			logger.Warn("Empty provider API key found in Vault, keeping the existing default", "path", path)
		}
		return nil
	}

	config.Credential.DefaultKey = key
	if logger != nil {
		logger.Info("Provider API key loaded from Vault", "provider", config.AI.Provider, "path", path)
	}
	return nil
}
