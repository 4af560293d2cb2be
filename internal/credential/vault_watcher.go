package credential

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"resumegrade/internal/config"
	"resumegrade/internal/errors"
)

// SecretSource reads versioned KVv2 secrets
type SecretSource interface {
	GetSecretV2(path string) (*config.VaultSecret, error)
}

// VaultWatcher polls the provider key secret in Vault and installs a new
// version as the store's default credential. A key saved by the user still wins.
type VaultWatcher struct {
	mu sync.RWMutex

	client       SecretSource
	secretPath   string
	pollInterval time.Duration
	target       Defaulter
	logger       *errors.Logger

	stopChan    chan struct{}
	running     bool
	lastVersion int64
}

// NewVaultWatcher creates a watcher for the secret at secretPath
func NewVaultWatcher(client SecretSource, secretPath string, pollInterval time.Duration, target Defaulter, logger *errors.Logger) *VaultWatcher {
	return &VaultWatcher{
		client:       client,
		secretPath:   secretPath,
		pollInterval: pollInterval,
		target:       target,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start begins polling. The version present at start is treated as already applied.
func (vw *VaultWatcher) Start() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if vw.running {
		return fmt.Errorf("vault watcher is already running")
	}
	if vw.pollInterval <= 0 {
		return fmt.Errorf("vault poll interval must be positive")
	}

	if secret, err := vw.client.GetSecretV2(vw.secretPath); err == nil && secret != nil {
		vw.lastVersion = secret.Version
	}

	vw.running = true
	go vw.pollLoop()
	if vw.logger != nil {
		vw.logger.Info("Vault credential watcher started",
			"secret_path", vw.secretPath, "poll_interval", vw.pollInterval)
	}
	return nil
}

// Stop stops the watcher
func (vw *VaultWatcher) Stop() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if !vw.running {
		return nil
	}
	close(vw.stopChan)
	vw.running = false
	if vw.logger != nil {
		vw.logger.Info("Vault credential watcher stopped")
	}
	return nil
}

func (vw *VaultWatcher) pollLoop() {
	ticker := time.NewTicker(vw.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := vw.Poll(); err != nil && vw.logger != nil {
				vw.logger.LogError(err, "Failed to check Vault for a new provider key")
			}
		case <-vw.stopChan:
			return
		}
	}
}

// Poll reads the secret once and applies it when its version is newer.
// It reports whether the default credential changed.
func (vw *VaultWatcher) Poll() (bool, error) {
	secret, err := vw.client.GetSecretV2(vw.secretPath)
	if err != nil {
		return false, fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == nil {
		return false, nil
	}

	vw.mu.Lock()
	if secret.Version <= vw.lastVersion {
		vw.mu.Unlock()
		return false, nil
	}
	vw.lastVersion = secret.Version
	vw.mu.Unlock()

	key, _ := secret.Data[config.ProviderKeyField].(string)
	key = strings.TrimSpace(key)
	if key == "" {
		if vw.logger != nil {
			vw.logger.Warn("New provider key version in Vault is empty, keeping the current default",
				"secret_path", vw.secretPath, "version", secret.Version)
		}
		return false, nil
	}

	vw.target.SetDefault(key)
	if vw.logger != nil {
		vw.logger.Info("Default credential rotated from Vault",
			"version", secret.Version, "credential", Mask(key))
	}
	return true, nil
}

// Status reports the watcher state for health output
func (vw *VaultWatcher) Status() map[string]any {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	return map[string]any{
		"running":       vw.running,
		"poll_interval": vw.pollInterval.String(),
		"secret_path":   vw.secretPath,
		"last_version":  vw.lastVersion,
	}
}
