package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	require.NoError(t, LoadConfig())

	assert.Equal(t, 8080, AppConfig.Port)
	assert.Equal(t, "development", AppConfig.Environment)
	assert.Equal(t, 5*time.Minute, AppConfig.CodeExpiry)
	assert.Equal(t, 20*time.Minute, AppConfig.VerificationRecTTL)
	assert.Equal(t, 3, AppConfig.MaxAttempts)
	assert.Equal(t, 15*time.Minute, AppConfig.BlockDuration)
	assert.Equal(t, 10*time.Minute, AppConfig.VerifiedPhoneTTL)
	assert.Equal(t, 10, AppConfig.MaxRequestsPerIP)
	assert.Equal(t, 24*time.Hour, AppConfig.IPRateLimitWindow)
	assert.False(t, AppConfig.VoiceServerEnabled)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CODE_EXPIRY", "2m")
	t.Setenv("VERIFICATION_RECORD_TTL", "30m")
	t.Setenv("MAX_ATTEMPTS", "5")
	t.Setenv("VOICE_SERVER_ENABLED", "true")

	require.NoError(t, LoadConfig())
	assert.Equal(t, 9090, AppConfig.Port)
	assert.Equal(t, 2*time.Minute, AppConfig.CodeExpiry)
	assert.Equal(t, 30*time.Minute, AppConfig.VerificationRecTTL)
	assert.Equal(t, 5, AppConfig.MaxAttempts)
	assert.True(t, AppConfig.VoiceServerEnabled)
}

func TestLoadConfig_RejectsShortRecordTTL(t *testing.T) {
	t.Setenv("CODE_EXPIRY", "10m")
	t.Setenv("VERIFICATION_RECORD_TTL", "5m")

	err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VERIFICATION_RECORD_TTL")
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	assert.Error(t, LoadConfig())
}
