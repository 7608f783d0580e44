package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settingKeys(cfg *Config) []string {
	var keys []string
	for _, s := range Settings(cfg) {
		keys = append(keys, s.Key)
	}
	return keys
}

func TestSettings_LeafKeysInFileOrder(t *testing.T) {
	keys := settingKeys(Default())

	assert.Equal(t, "data_dir", keys[0])
	assert.Contains(t, keys, "request_timeout_seconds")
	assert.Contains(t, keys, "http.listen")
	assert.Contains(t, keys, "llm.classifier_timeout_seconds")
	assert.Contains(t, keys, "brave.requests_per_second")
	assert.Contains(t, keys, "client.debounce_ms")
	assert.NotContains(t, keys, "brave", "struct sections are not settings")

	var brave []string
	for _, k := range keys {
		if strings.HasPrefix(k, "brave.") {
			brave = append(brave, k)
		}
	}
	assert.Equal(t, []string{"brave.api_key", "brave.requests_per_second", "brave.prefetch"}, brave)
}

func TestSetting_String(t *testing.T) {
	cfg := Default()
	tests := []struct {
		key  string
		want string
	}{
		{key: "llm.temperature", want: "0.7"},
		{key: "brave.requests_per_second", want: "1"},
		{key: "brave.prefetch", want: "3"},
		{key: "request_timeout_seconds", want: "45"},
		{key: "client.ping_schedule", want: "@every 14m"},
	}
	for _, tt := range tests {
		s, ok := cfg.Lookup(tt.key)
		require.True(t, ok, tt.key)
		assert.Equal(t, tt.want, s.String(), tt.key)
	}
}

func TestConfigSet_WritesThrough(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("brave.requests_per_second", "2.5"))
	require.NoError(t, cfg.Set("brave.prefetch", " 5 "))
	require.NoError(t, cfg.Set("request_timeout_seconds", "30"))
	require.NoError(t, cfg.Set("llm.temperature", "0.2"))
	require.NoError(t, cfg.Set("http.listen", ":9000"))

	assert.Equal(t, 2.5, cfg.Brave.RequestsPerSecond)
	assert.Equal(t, 5, cfg.Brave.Prefetch)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
	assert.Equal(t, float32(0.2), cfg.LLM.Temperature)
	assert.Equal(t, ":9000", cfg.HTTP.Listen)
}

func TestConfigSet_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "fraction for int", key: "brave.prefetch", value: "2.5"},
		{name: "word for float", key: "brave.requests_per_second", value: "fast"},
		{name: "word for int", key: "request_timeout_seconds", value: "forever"},
		{name: "unknown key", key: "brave.region", value: "eu"},
		{name: "section key", key: "brave", value: "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			assert.Error(t, cfg.Set(tt.key, tt.value))
			assert.Equal(t, Default(), cfg, "a rejected value leaves the config untouched")
		})
	}
}

func TestSetValue_PersistsTypedValues(t *testing.T) {
	clearEnv(t)
	path := tempConfigPath(t)

	require.NoError(t, SetValue(path, "brave.prefetch", "4"))
	require.NoError(t, SetValue(path, "brave.requests_per_second", "0.5"))
	require.NoError(t, SetValue(path, "request_timeout_seconds", "60"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Brave.Prefetch)
	assert.Equal(t, 0.5, cfg.Brave.RequestsPerSecond)
	assert.Equal(t, time.Minute, cfg.RequestTimeout())
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model, "other settings keep their defaults")

	s, err := GetValue(path, "brave.requests_per_second")
	require.NoError(t, err)
	assert.Equal(t, 0.5, s.Value())
}

func TestSetValue_InvalidLeavesFileUntouched(t *testing.T) {
	path := tempConfigPath(t)
	require.NoError(t, SetValue(path, "brave.prefetch", "4"))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Error(t, SetValue(path, "brave.prefetch", "many"))
	assert.Error(t, SetValue(path, "no.such.key", "1"))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestGetValue_UnknownKey(t *testing.T) {
	_, err := GetValue(tempConfigPath(t), "llm.provider")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
}

func TestIsSecretKey(t *testing.T) {
	for _, key := range []string{"llm.api_key", "brave.api_key", "telegram.token"} {
		assert.True(t, IsSecretKey(key), key)
	}
	for _, key := range []string{"llm.model", "brave.prefetch", "http.listen", "unknown.api_key"} {
		assert.False(t, IsSecretKey(key), key)
	}
}

func TestSetting_DisplayMasksCredentials(t *testing.T) {
	cfg := Default()
	cfg.Brave.APIKey = "BSAabcdef1234"
	cfg.Telegram.Token = "abc"

	display := map[string]string{}
	for _, s := range Settings(cfg) {
		display[s.Key] = s.Display()
	}

	assert.Equal(t, "***1234", display["brave.api_key"])
	assert.Equal(t, "***", display["telegram.token"])
	assert.Equal(t, "", display["llm.api_key"], "an empty secret stays empty")
	assert.Equal(t, "gemini-2.5-flash", display["llm.model"])
	assert.Equal(t, "3", display["brave.prefetch"])
}
