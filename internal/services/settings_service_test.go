package services

import (
	"context"
	"testing"

	"github.com/forumhub/phone-verification/internal/config"
	"github.com/forumhub/phone-verification/internal/models"
	"github.com/forumhub/phone-verification/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSettingsService() *SettingsService {
	return NewSettingsService(store.NewMemoryStore(), &config.Config{
		VoiceServerURL:     "https://voice.example.com/api",
		VoiceServerAPIKey:  "seed-key",
		VoiceServerEnabled: true,
	})
}

func TestSettingsService_DefaultsFromConfig(t *testing.T) {
	ctx := context.Background()
	svc := newTestSettingsService()

	settings, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://voice.example.com/api", settings.VoiceServerURL)
	assert.Equal(t, "seed-key", settings.VoiceServerAPIKey)
	assert.True(t, settings.VoiceServerEnabled)
	assert.Equal(t, "1", settings.VoiceTTSMode)
	assert.Contains(t, settings.VoiceMessageTemplate, "{code}")
	assert.False(t, settings.BlockUnverifiedUsers)
}

func TestSettingsService_SaveOverridesDefaults(t *testing.T) {
	ctx := context.Background()
	svc := newTestSettingsService()

	require.NoError(t, svc.Save(ctx, models.GatewaySettings{
		VoiceServerURL:       "https://other.example.com",
		VoiceServerAPIKey:    "new-key",
		VoiceServerEnabled:   false,
		VoiceTTSMode:         "2",
		VoiceMessageTemplate: "code: {code}",
		BlockUnverifiedUsers: true,
	}))

	settings, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://other.example.com", settings.VoiceServerURL)
	assert.Equal(t, "new-key", settings.VoiceServerAPIKey)
	assert.False(t, settings.VoiceServerEnabled)
	assert.Equal(t, "2", settings.VoiceTTSMode)
	assert.Equal(t, "code: {code}", settings.VoiceMessageTemplate)
	assert.True(t, settings.BlockUnverifiedUsers)
}

func TestSettingsService_MaskedKeyKeepsStoredKey(t *testing.T) {
	ctx := context.Background()
	svc := newTestSettingsService()

	require.NoError(t, svc.Save(ctx, models.GatewaySettings{
		VoiceServerAPIKey: "real-key",
	}))

	// Saving the mask back, as the admin UI does, must not clobber the key.
	require.NoError(t, svc.Save(ctx, models.GatewaySettings{
		VoiceServerAPIKey:    models.MaskedAPIKey,
		BlockUnverifiedUsers: true,
	}))

	settings, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "real-key", settings.VoiceServerAPIKey)
	assert.True(t, settings.BlockUnverifiedUsers)
}
