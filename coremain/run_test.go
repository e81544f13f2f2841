package coremain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
log:
  level: debug
prefix: app.
storage:
  kind: permanent
  file: /tmp/cache.json
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "app.", cfg.Prefix)
	assert.Equal(t, "permanent", cfg.Storage.Kind)
	assert.Equal(t, "/tmp/cache.json", cfg.Storage.File)
}

func TestLoadConfigRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bogus: true\n"), 0644))

	_, err := loadConfig(path)
	require.Error(t, err)
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, float64(42), parseValue("42"))
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, nil, parseValue("null"))
	assert.Equal(t, []any{float64(1), float64(2)}, parseValue("[1,2]"))
	assert.Equal(t, map[string]any{"a": float64(1)}, parseValue(`{"a":1}`))
	// Anything that is not a JSON literal is a plain string.
	assert.Equal(t, "hello world", parseValue("hello world"))
	assert.Equal(t, "quoted", parseValue(`"quoted"`))
}

func TestNewCacheFromConfig(t *testing.T) {
	cfg := &Config{}
	cfg.Storage.Kind = "permanent"
	cfg.Storage.File = filepath.Join(t.TempDir(), "cache.json")

	c, err := NewCache(cfg)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Set("k", 1)
	require.NoError(t, err)
	v, ok, err := c.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, float64(1), v)
}
