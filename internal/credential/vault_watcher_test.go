package credential

import (
	"fmt"
	"testing"
	"time"

	"resumegrade/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockVaultClient struct {
	secrets map[string]*config.VaultSecret
	err     error
}

func (m *mockVaultClient) GetSecretV2(path string) (*config.VaultSecret, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.secrets[path], nil
}

const keyPath = "resumegrade/openai"

func TestVaultWatcherRotatesDefault(t *testing.T) {
	client := &mockVaultClient{secrets: map[string]*config.VaultSecret{
		keyPath: {Data: map[string]any{"api_key": "sk-old"}, Version: 1},
	}}
	store := NewMemoryStore("sk-old")
	vw := NewVaultWatcher(client, keyPath, time.Hour, store, nil)
	require.NoError(t, vw.Start())
	defer func() { _ = vw.Stop() }()

	changed, err := vw.Poll()
	require.NoError(t, err)
	assert.False(t, changed, "the version seen at start is not reapplied")

	client.secrets[keyPath] = &config.VaultSecret{Data: map[string]any{"api_key": " sk-new "}, Version: 2}
	changed, err = vw.Poll()
	require.NoError(t, err)
	assert.True(t, changed)

	key, ok := store.Get()
	assert.True(t, ok)
	assert.Equal(t, "sk-new", key)
	assert.Equal(t, int64(2), vw.Status()["last_version"])
}

func TestVaultWatcherUserKeyWins(t *testing.T) {
	client := &mockVaultClient{secrets: map[string]*config.VaultSecret{
		keyPath: {Data: map[string]any{"api_key": "sk-rotated"}, Version: 3},
	}}
	store := NewMemoryStore("")
	require.NoError(t, store.Save("sk-user"))

	vw := NewVaultWatcher(client, keyPath, time.Hour, store, nil)
	changed, err := vw.Poll()
	require.NoError(t, err)
	assert.True(t, changed)

	key, _ := store.Get()
	assert.Equal(t, "sk-user", key)

	require.NoError(t, store.Clear())
	key, _ = store.Get()
	assert.Equal(t, "sk-rotated", key)
}

func TestVaultWatcherIgnoresEmptyKey(t *testing.T) {
	client := &mockVaultClient{secrets: map[string]*config.VaultSecret{
		keyPath: {Data: map[string]any{"api_key": "  "}, Version: 5},
	}}
	store := NewMemoryStore("sk-current")
	vw := NewVaultWatcher(client, keyPath, time.Hour, store, nil)

	changed, err := vw.Poll()
	require.NoError(t, err)
	assert.False(t, changed)
	key, _ := store.Get()
	assert.Equal(t, "sk-current", key)
}

func TestVaultWatcherErrors(t *testing.T) {
	vw := NewVaultWatcher(&mockVaultClient{err: fmt.Errorf("sealed")}, keyPath, time.Hour, NewMemoryStore(""), nil)
	_, err := vw.Poll()
	assert.ErrorContains(t, err, "sealed")

	vw = NewVaultWatcher(&mockVaultClient{}, keyPath, 0, NewMemoryStore(""), nil)
	assert.Error(t, vw.Start())
}
