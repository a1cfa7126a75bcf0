package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORE_DRIVER", "")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, DriverDynamoDB, cfg.StoreDriver)
	assert.Equal(t, 3*time.Second, cfg.StoreTimeout)
	assert.Equal(t, "StoryProgress", cfg.Tables.Progress)
	assert.Equal(t, "child-story-favorite-index", cfg.Tables.FavoriteIndex)
	assert.True(t, cfg.ClampOutOfRange)
	assert.Equal(t, []string{"defaults", "environment"}, cfg.LoadedFrom)
}

func TestLoadConfig_FileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twinklepod.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: staging
store_driver: memory
store_timeout: 750ms
library_event_lookback: 720h
tables:
  progress: progress-staging
cors_origins:
  - https://app.example.com
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("STORE_TIMEOUT", "2s")
	t.Setenv("CLAMP_OUT_OF_RANGE", "false")
	t.Setenv("PORT", "9090")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 2*time.Second, cfg.StoreTimeout, "environment overrides the file")
	assert.Equal(t, 720*time.Hour, cfg.EventLookback)
	assert.Equal(t, "progress-staging", cfg.Tables.Progress)
	assert.Equal(t, "StoryInteractions", cfg.Tables.Events, "unset fields keep defaults")
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORSOrigins)
	assert.False(t, cfg.ClampOutOfRange)
	assert.Equal(t, ":9090", cfg.ServerAddress)
	assert.Equal(t, []string{"defaults", path, "environment"}, cfg.LoadedFrom)

	domain := cfg.DomainConfig()
	assert.False(t, domain.ClampOutOfRange)
	assert.Equal(t, 720*time.Hour, domain.EventLookback)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", "")
		t.Setenv("STORE_TIMEOUT", "soon")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "STORE_TIMEOUT")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.StoreDriver = "sqlite" }, wantErr: true},
		{name: "negative lookback", mutate: func(c *Config) { c.EventLookback = -time.Hour }, wantErr: true},
		{name: "no lookup workers", mutate: func(c *Config) { c.LookupConcurrency = 0 }, wantErr: true},
		{name: "missing table", mutate: func(c *Config) { c.Tables.Events = "" }, wantErr: true},
		{name: "memory ignores tables", mutate: func(c *Config) { c.StoreDriver = DriverMemory; c.Tables.Events = "" }},
		{name: "production needs secret", mutate: func(c *Config) { c.Environment = "production" }, wantErr: true},
		{
			name: "production rejects memory",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.JWTSecret = "s3cret"
				c.StoreDriver = DriverMemory
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestSchemaTables(t *testing.T) {
	cfg := Default()
	cfg.Tables.Children = "kids"

	tables := cfg.SchemaTables()

	assert.Equal(t, "kids", tables.Children)
	assert.Equal(t, "child-events-index", tables.ChildEventsIndex)
}
