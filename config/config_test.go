package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_DefaultsWithoutFile(t *testing.T) {
	c, err := build(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, BackendFile, c.StoreBackend)
	assert.Equal(t, filepath.Join("data", "streak.json"), c.DataFile)
	assert.Equal(t, 90, c.DefaultGoal)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
	assert.Equal(t, 60, c.RateLimitPerMinute)
	assert.Equal(t, "", c.JWTSecret)
}

func TestBuild_GroupedJSONThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"app": {"AppPort": "9000", "AllowedOrigins": ["https://a.example"]},
		"store": {"Backend": "Redis", "DefaultGoal": 30},
		"redis": {"RedisHost": "cache", "RedisPort": 6380},
		"log": {"Level": "debug", "Compress": true}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	t.Setenv("APP_PORT", "9100")
	t.Setenv("REDIS_DB", "2")

	c, err := build(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", c.AppPort, "env wins over file")
	assert.Equal(t, BackendRedis, c.StoreBackend)
	assert.Equal(t, 30, c.DefaultGoal)
	assert.Equal(t, "cache", c.RedisHost)
	assert.Equal(t, 6380, c.RedisPort)
	assert.Equal(t, 2, c.RedisDB)
	assert.Equal(t, []string{"https://a.example"}, c.AllowedOrigins)
	assert.Equal(t, "debug", c.LogLevel)
	assert.True(t, c.LogCompress)
}

func TestBuild_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := build(path)
	assert.Error(t, err)
}

func TestBuild_InvalidIntegerEnv(t *testing.T) {
	t.Setenv("DEFAULT_GOAL", "ninety")
	_, err := build(filepath.Join(t.TempDir(), "missing.json"))

	var envErr *EnvError
	require.True(t, errors.As(err, &envErr))
	assert.Equal(t, "DEFAULT_GOAL", envErr.Key)
	assert.True(t, errors.Is(err, strconv.ErrSyntax))
}

func TestBuild_CORSListFromEnv(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	c, err := build(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
}
