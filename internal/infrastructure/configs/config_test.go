package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, uint16(8080), cfg.HTTP.Port)
	assert.Equal(t, "mongo", cfg.Store.Driver)
	assert.Equal(t, "beatvote", cfg.Mongo.Database)
	assert.Equal(t, 5, cfg.Catalog.SearchLimit)
	assert.Equal(t, "https://accounts.spotify.com/api/token", cfg.Catalog.TokenURL)
	assert.False(t, cfg.AMQP.Enabled)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: 9090

store:
  driver: "memory"

catalog:
  search_limit: 10
  timeout: 3s
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint16(9090), cfg.HTTP.Port)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 10, cfg.Catalog.SearchLimit)
	assert.Equal(t, 3*time.Second, cfg.Catalog.Timeout)

	// Untouched keys keep their defaults.
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  driver: "mongo"
`), 0o644))

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SPOTIFY_CLIENT_ID", "env-id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "env-secret")
	t.Setenv("RABBITMQ_URI", "amqp://broker:5672/")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "env-id", cfg.Catalog.ClientID)
	assert.Equal(t, "env-secret", cfg.Catalog.ClientSecret)

	// Supplying a broker URI switches event publishing on.
	assert.True(t, cfg.AMQP.Enabled)
	assert.Equal(t, "amqp://broker:5672/", cfg.AMQP.URI)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
