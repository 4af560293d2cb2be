// Package credential persists the single API credential used for analysis.
package credential

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"resumegrade/internal/errors"
)

// StorageKey is the fixed name the credential is stored under
const StorageKey = "openai_api_key"

// Store holds the user's API credential.
// Save ignores empty or whitespace-only input; errors only report persistence failures.
type Store interface {
	Get() (string, bool)
	Has() bool
	Save(raw string) error
	Clear() error
}

// Defaulter is implemented by stores whose fallback credential can change at runtime
type Defaulter interface {
	SetDefault(value string)
}

// resolve prefers a user-entered value over the default
func resolve(user, fallback string) (string, bool) {
	if user != "" {
		return user, true
	}
	if fallback != "" {
		return fallback, true
	}
	return "", false
}

// MemoryStore keeps the credential in process memory
type MemoryStore struct {
	mu           sync.RWMutex
	value        string
	defaultValue string
}

// NewMemoryStore creates an in-memory store with an optional default value
func NewMemoryStore(defaultValue string) *MemoryStore {
	return &MemoryStore{defaultValue: strings.TrimSpace(defaultValue)}
}

func (m *MemoryStore) Get() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return resolve(m.value, m.defaultValue)
}

func (m *MemoryStore) Has() bool {
	_, ok := m.Get()
	return ok
}

func (m *MemoryStore) Save(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	m.mu.Lock()
	m.value = trimmed
	m.mu.Unlock()
	return nil
}

// SetDefault replaces the fallback used when nothing has been saved
func (m *MemoryStore) SetDefault(value string) {
	m.mu.Lock()
	m.defaultValue = strings.TrimSpace(value)
	m.mu.Unlock()
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	m.value = ""
	m.mu.Unlock()
	return nil
}

// FileStore persists the credential as a small JSON document on disk
type FileStore struct {
	mu           sync.RWMutex
	path         string
	value        string
	defaultValue string
	logger       *errors.Logger
}

// NewFileStore opens the store at path, loading any saved credential
func NewFileStore(path, defaultValue string, logger *errors.Logger) (*FileStore, error) {
	if path == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"Credential store path is required", nil)
	}

	fs := &FileStore{
		path:         path,
		defaultValue: strings.TrimSpace(defaultValue),
		logger:       logger,
	}
	if err := fs.Reload(); err != nil {
		return nil, err
	}
	return fs, nil
}

// Path returns the file backing the store
func (fs *FileStore) Path() string {
	return fs.path
}

func (fs *FileStore) Get() (string, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return resolve(fs.value, fs.defaultValue)
}

func (fs *FileStore) Has() bool {
	_, ok := fs.Get()
	return ok
}

// Save trims raw and persists it. Empty input is a no-op.
func (fs *FileStore) Save(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.write(map[string]string{StorageKey: trimmed}); err != nil {
		return err
	}
	fs.value = trimmed

	if fs.logger != nil {
		fs.logger.Info("Credential saved", "path", fs.path, "credential", Mask(trimmed))
	}
	return nil
}

// SetDefault replaces the fallback used when nothing has been saved
func (fs *FileStore) SetDefault(value string) {
	fs.mu.Lock()
	fs.defaultValue = strings.TrimSpace(value)
	fs.mu.Unlock()
}

// Clear removes the stored credential. The default value, if any, remains.
func (fs *FileStore) Clear() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
		return errors.NewIOError(errors.ErrCodeCredentialStore,
			fmt.Sprintf("Cannot remove credential file: %s", fs.path), err)
	}
	fs.value = ""

	if fs.logger != nil {
		fs.logger.Info("Credential cleared", "path", fs.path)
	}
	return nil
}

// Reload re-reads the credential file. A missing file means no saved credential.
func (fs *FileStore) Reload() error {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			fs.mu.Lock()
			fs.value = ""
			fs.mu.Unlock()
			return nil
		}
		return errors.NewIOError(errors.ErrCodeCredentialStore,
			fmt.Sprintf("Cannot read credential file: %s", fs.path), err)
	}

	var doc map[string]string
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return errors.NewIOError(errors.ErrCodeCredentialStore,
				fmt.Sprintf("Credential file is not valid JSON: %s", fs.path), err)
		}
	}

	fs.mu.Lock()
	fs.value = strings.TrimSpace(doc[StorageKey])
	fs.mu.Unlock()
	return nil
}

// write replaces the file atomically via a temp file and rename
func (fs *FileStore) write(doc map[string]string) error {
	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.NewIOError(errors.ErrCodeCredentialStore,
			fmt.Sprintf("Cannot create directory: %s", dir), err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.NewIOError(errors.ErrCodeCredentialStore, "Cannot encode credential", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*.json")
	if err != nil {
		return errors.NewIOError(errors.ErrCodeCredentialStore,
			fmt.Sprintf("Cannot write credential file: %s", fs.path), err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.NewIOError(errors.ErrCodeCredentialStore,
			fmt.Sprintf("Cannot write credential file: %s", fs.path), err)
	}
	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return errors.NewIOError(errors.ErrCodeCredentialStore,
			fmt.Sprintf("Cannot set credential file permissions: %s", fs.path), err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewIOError(errors.ErrCodeCredentialStore,
			fmt.Sprintf("Cannot write credential file: %s", fs.path), err)
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		return errors.NewIOError(errors.ErrCodeCredentialStore,
			fmt.Sprintf("Cannot write credential file: %s", fs.path), err)
	}
	return nil
}

// Mask renders a credential for logs and status output
func Mask(value string) string {
	if len(value) > 8 {
		return value[:4] + "****" + value[len(value)-4:]
	}
	if value != "" {
		return "****"
	}
	return ""
}
