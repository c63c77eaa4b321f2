package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "partnership-events", cfg.Events.StreamName)
	assert.Equal(t, 3, cfg.Events.MaxRetries)
	assert.Equal(t, "0 */10 * * * *", cfg.Scheduler.RefreshSpec)
}

func TestLoadEventsOverrides(t *testing.T) {
	t.Setenv("EVENTS_MAX_RETRIES", "7")
	t.Setenv("EVENTS_WORKERS", "4")
	t.Setenv("EVENTS_STREAM_NAME", "partnership-events-staging")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Events.MaxRetries)
	assert.Equal(t, 4, cfg.Events.Workers)
	assert.Equal(t, "partnership-events-staging", cfg.Events.StreamName)
}
