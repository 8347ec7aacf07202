package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess_Defaults(t *testing.T) {
	cfg, err := Process(context.Background(), envconfig.MapLookuper(map[string]string{
		"SUPABASE_URL":      "https://project.supabase.co",
		"SUPABASE_ANON_KEY": "anon",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 25*time.Second, cfg.Supabase.Heartbeat)
	assert.Equal(t, time.Minute, cfg.Session.RefreshMargin)
	assert.Equal(t, 2*time.Second, cfg.Chat.CompletionDelay)
	assert.Equal(t, 10<<20, cfg.Chat.MaxAudioBytes)
	assert.Equal(t, "drbrain_session", cfg.Session.CookieName)
	assert.False(t, cfg.IsProduction())
}

func TestProcess_BackendCredentialsRequired(t *testing.T) {
	for _, missing := range []string{"SUPABASE_URL", "SUPABASE_ANON_KEY"} {
		env := map[string]string{
			"SUPABASE_URL":      "https://project.supabase.co",
			"SUPABASE_ANON_KEY": "anon",
		}
		delete(env, missing)

		_, err := Process(context.Background(), envconfig.MapLookuper(env))
		assert.Error(t, err, "missing %s must fail", missing)
	}
}

func TestProcess_Overrides(t *testing.T) {
	cfg, err := Process(context.Background(), envconfig.MapLookuper(map[string]string{
		"SUPABASE_URL":           "https://project.supabase.co",
		"SUPABASE_ANON_KEY":      "anon",
		"ENV":                    "production",
		"WHATSAPP_POLL_INTERVAL": "10s",
		"NOTIFICATION_WORKERS":   "2",
	}))
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 10*time.Second, cfg.Polling.WhatsApp)
	assert.Equal(t, 2, cfg.Dispatcher.Workers)
}
