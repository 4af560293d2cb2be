package app

import (
	"testing"

	"resumegrade/internal/ai"
	"resumegrade/internal/credential"
	"resumegrade/internal/errors"
	"resumegrade/internal/presentation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenModalPrefill(t *testing.T) {
	c := newTestApp("", &fakeExtractor{}, &fakeAnalyzer{})
	c.OpenModal()
	assert.Equal(t, presentation.ModalView{Open: true}, c.Modal())

	c = newTestApp("sk-existing", &fakeExtractor{}, &fakeAnalyzer{})
	c.OpenModal()
	assert.Equal(t, presentation.ModalView{Open: true, Prefill: presentation.CredentialMask}, c.Modal())

	c.CloseModal()
	assert.Equal(t, presentation.ModalView{}, c.Modal())
}

func TestSaveCredentialValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"empty", "", MsgInvalidKey},
		{"whitespace", "   ", MsgInvalidKey},
		{"mask", presentation.CredentialMask, MsgInvalidKey},
		{"wrong prefix", "pk-123", `Invalid API key format. OpenAI keys start with "sk-"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := credential.NewMemoryStore("")
			c := New(Options{Credentials: store, KeyFormat: ai.KeyFormatFor("openai")})
			c.OpenModal()

			err := c.SaveCredential(tt.input)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
			assert.Equal(t, tt.message, errors.UserMessage(err))

			assert.False(t, store.Has())
			assert.True(t, c.Modal().Open, "modal stays open on rejection")
			banners := c.View().Snapshot().Banners
			require.Len(t, banners, 1)
			assert.Equal(t, presentation.BannerError, banners[0].Kind)
			assert.Equal(t, tt.message, banners[0].Message)
		})
	}
}

func TestSaveCredentialSuccess(t *testing.T) {
	store := credential.NewMemoryStore("")
	c := New(Options{Credentials: store})
	c.OpenModal()

	require.NoError(t, c.SaveCredential("  sk-abc123  "))
	key, ok := store.Get()
	assert.True(t, ok)
	assert.Equal(t, "sk-abc123", key)
	assert.False(t, c.Modal().Open)
	assert.True(t, c.CredentialSet())

	banners := c.View().Snapshot().Banners
	require.Len(t, banners, 1)
	assert.Equal(t, presentation.BannerSuccess, banners[0].Kind)
	assert.Equal(t, MsgKeySaved, banners[0].Message)
}

func TestGeminiKeyFormat(t *testing.T) {
	c := New(Options{Credentials: credential.NewMemoryStore(""), KeyFormat: ai.KeyFormatFor("gemini")})

	err := c.SaveCredential("sk-abc")
	require.Error(t, err)
	assert.Equal(t, `Invalid API key format. Gemini keys start with "AIza"`, errors.UserMessage(err))
	assert.NoError(t, c.SaveCredential("AIzaSyExample"))
}

func TestClearCredential(t *testing.T) {
	store := credential.NewMemoryStore("")
	c := New(Options{Credentials: store})
	require.NoError(t, store.Save("sk-abc"))
	c.OpenModal()

	require.NoError(t, c.ClearCredential())
	assert.False(t, store.Has())
	assert.False(t, c.Modal().Open)
	assert.False(t, c.State().CredentialSet)
}
