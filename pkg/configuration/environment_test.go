package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_FallsBackToGoModRoot(t *testing.T) {
	tmp := t.TempDir()

	requireWriteFile(t, filepath.Join(tmp, "go.mod"), "module example.com/test\n\ngo 1.22\n")
	requireWriteFile(t, filepath.Join(tmp, ".env.local"), "CONSOLE_TEST_ENV_LOAD=ok\n")

	sub := filepath.Join(tmp, "pkg", "listing")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	t.Chdir(sub)
	t.Setenv("CONSOLE_TEST_ENV_LOAD", "")
	require.NoError(t, os.Unsetenv("CONSOLE_TEST_ENV_LOAD"))

	n, err := LoadEnv([]string{".env", ".env.local"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "ok", os.Getenv("CONSOLE_TEST_ENV_LOAD"))
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	c, err := Load()
	require.NoError(t, err)
	t.Cleanup(c.Unload)

	assert.Equal(t, "http://localhost:8013/api/v2/", c.API.BaseURL)
	assert.Equal(t, 30*time.Second, c.API.Timeout)
	assert.Equal(t, "X-CSRFToken", c.API.CSRFHeader)
	assert.Equal(t, "memory", c.Session.Storage)
	assert.Equal(t, "sid", c.SidCookieKey)
	assert.Equal(t, 20, c.PageSize)
	assert.Equal(t, "localhost:3200", c.SocketAddress)
	assert.NotNil(t, c.Logger())
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"api url":       {"API_BASE_URL": "ftp://example.com"},
		"session redis": {"SESSION_STORAGE": "redis"},
		"rate storage":  {"RATE_LIMIT_STORAGE": "disk"},
		"page size":     {"PAGE_SIZE": "500", "MAX_PAGE_SIZE": "100"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestRateLimitOptions_Validate(t *testing.T) {
	ok := RateLimitOptions{GlobalRPS: 10, Storage: "memory"}
	require.NoError(t, ok.Validate())

	redis := RateLimitOptions{GlobalRPS: 10, Storage: "redis"}
	assert.Error(t, redis.Validate())

	redis.RedisURL = "redis://localhost:6379/0"
	assert.NoError(t, redis.Validate())
}

func TestLogrusLogLevel(t *testing.T) {
	c := &Configuration{LogLevel: "debug"}
	assert.Equal(t, "debug", c.LogrusLogLevel().String())
	c.LogLevel = "bogus"
	assert.Equal(t, "error", c.LogrusLogLevel().String())
}

func requireWriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
