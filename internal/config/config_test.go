package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, int64(50<<20), cfg.MaxFileSize)
	assert.Equal(t, int64(4), cfg.MaxConcurrency)
	assert.Equal(t, 120*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "Redline Service", cfg.AuthorName)
	assert.False(t, cfg.Dev)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_KEY", "secret")
	t.Setenv("PORT", "8080")
	t.Setenv("MAX_FILE_SIZE", "1048576")
	t.Setenv("MAX_DOCUMENT_CONCURRENCY", "2")
	t.Setenv("REQUEST_TIMEOUT_MS", "30000")
	t.Setenv("DEFAULT_AUTHOR_NAME", "Review Bot")
	t.Setenv("ENV", "dev")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, int64(1<<20), cfg.MaxFileSize)
	assert.Equal(t, int64(2), cfg.MaxConcurrency)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "Review Bot", cfg.AuthorName)
	assert.True(t, cfg.Dev)
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("API_KEY", "")
	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"port out of range", map[string]string{"PORT": "70000"}},
		{"zero file size", map[string]string{"MAX_FILE_SIZE": "0"}},
		{"zero concurrency", map[string]string{"MAX_DOCUMENT_CONCURRENCY": "0"}},
		{"sub-second timeout", map[string]string{"REQUEST_TIMEOUT_MS": "100"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("API_KEY", "secret")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
