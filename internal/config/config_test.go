package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xeb/lldb-copilot/internal/config"
	cperrors "github.com/0xeb/lldb-copilot/internal/errors"
)

func settingsPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "settings.yaml")
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	s, err := config.Load(settingsPath(t))
	require.NoError(t, err)

	assert.Equal(t, config.ProviderGemini, s.Provider)
	assert.Equal(t, config.DefaultMaxToolCalls, s.MaxToolCalls)
	assert.NotEmpty(t, s.Gemini.Model)
	assert.NotEmpty(t, s.OpenAI.Model)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := settingsPath(t)
	require.NoError(t, os.WriteFile(path, []byte("provider: openai\n"), 0o644))

	s, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.ProviderOpenAI, s.Provider)
	// Everything the file does not set keeps its default.
	assert.Equal(t, config.DefaultMaxToolCalls, s.MaxToolCalls)
	assert.NotEmpty(t, s.Gemini.Model)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := settingsPath(t)
	require.NoError(t, os.WriteFile(path, []byte("provider: [unclosed"), 0o644))

	_, err := config.Load(path)
	require.Error(t, err)
	assert.True(t, cperrors.HasCode(err, cperrors.CodeConfigInvalid))
}

func TestLoad_NonPositiveMaxToolCalls(t *testing.T) {
	path := settingsPath(t)
	require.NoError(t, os.WriteFile(path, []byte("max_tool_calls: -3\n"), 0o644))

	s, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultMaxToolCalls, s.MaxToolCalls)
}

func TestSet_PersistsImmediately(t *testing.T) {
	path := settingsPath(t)
	s, err := config.Load(path)
	require.NoError(t, err)

	require.NoError(t, s.Set("provider", "openai"))
	require.NoError(t, s.Set("openai.model", "gpt-4.1"))
	require.NoError(t, s.Set("max_tool_calls", "7"))

	// A fresh load must observe every acknowledged change.
	reloaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.ProviderOpenAI, reloaded.Provider)
	assert.Equal(t, "gpt-4.1", reloaded.OpenAI.Model)
	assert.Equal(t, 7, reloaded.MaxToolCalls)
}

func TestSet_UnknownKey(t *testing.T) {
	s, err := config.Load(settingsPath(t))
	require.NoError(t, err)

	err = s.Set("no.such.key", "value")
	require.Error(t, err)
	assert.True(t, cperrors.HasCode(err, cperrors.CodeConfigNotFound))
}

func TestSet_InvalidValues(t *testing.T) {
	s, err := config.Load(settingsPath(t))
	require.NoError(t, err)

	assert.Error(t, s.Set("provider", "claude"))
	assert.Error(t, s.Set("max_tool_calls", "zero"))
	assert.Error(t, s.Set("max_tool_calls", "0"))
}

func TestGet_RedactsSecrets(t *testing.T) {
	s, err := config.Load(settingsPath(t))
	require.NoError(t, err)

	require.NoError(t, s.Set("gemini.api_key", "AIzaSyFakeKey1234567890"))

	got, err := s.Get("gemini.api_key")
	require.NoError(t, err)
	assert.NotContains(t, got, "FakeKey")
	assert.Contains(t, got, "****")

	// Non-secret keys come back verbatim.
	provider, err := s.Get("provider")
	require.NoError(t, err)
	assert.Equal(t, config.ProviderGemini, provider)
}

func TestKeys_CoverAllSettings(t *testing.T) {
	s, err := config.Load(settingsPath(t))
	require.NoError(t, err)

	for _, key := range config.Keys() {
		_, err := s.Get(key)
		assert.NoError(t, err, "key %s", key)
	}
}
