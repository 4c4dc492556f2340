package services

import (
	"context"

	"github.com/forumhub/phone-verification/internal/config"
	"github.com/forumhub/phone-verification/internal/models"
	"github.com/forumhub/phone-verification/internal/store"
)

const defaultVoiceMessageTemplate = "Your code for {siteTitle} is {code}. Again, the code is {code}"

// SettingsService persists the admin-editable gateway settings so they
// take effect without a restart. Environment values seed the defaults.
type SettingsService struct {
	store    store.Store
	defaults models.GatewaySettings
}

// NewSettingsService creates a settings service seeded from config.
func NewSettingsService(st store.Store, cfg *config.Config) *SettingsService {
	return &SettingsService{
		store: st,
		defaults: models.GatewaySettings{
			VoiceServerURL:       cfg.VoiceServerURL,
			VoiceServerAPIKey:    cfg.VoiceServerAPIKey,
			VoiceServerEnabled:   cfg.VoiceServerEnabled,
			VoiceTTSMode:         "1",
			VoiceMessageTemplate: defaultVoiceMessageTemplate,
		},
	}
}

// Get returns the stored settings, falling back to defaults for unset
// fields.
func (s *SettingsService) Get(ctx context.Context) (models.GatewaySettings, error) {
	fields, err := s.store.GetObject(ctx, settingsKey)
	if err != nil {
		return s.defaults, err
	}
	out := s.defaults
	if v, ok := fields["voiceServerUrl"]; ok && v != "" {
		out.VoiceServerURL = v
	}
	if v, ok := fields["voiceServerApiKey"]; ok && v != "" {
		out.VoiceServerAPIKey = v
	}
	if v, ok := fields["voiceServerEnabled"]; ok {
		out.VoiceServerEnabled = v == "true"
	}
	if v, ok := fields["voiceTtsMode"]; ok && v != "" {
		out.VoiceTTSMode = v
	}
	if v, ok := fields["voiceMessageTemplate"]; ok && v != "" {
		out.VoiceMessageTemplate = v
	}
	if v, ok := fields["blockUnverifiedUsers"]; ok {
		out.BlockUnverifiedUsers = v == "true"
	}
	return out, nil
}

// Save persists the settings. A masked API key keeps the stored one.
func (s *SettingsService) Save(ctx context.Context, settings models.GatewaySettings) error {
	if settings.VoiceServerAPIKey == models.MaskedAPIKey {
		current, err := s.Get(ctx)
		if err != nil {
			return err
		}
		settings.VoiceServerAPIKey = current.VoiceServerAPIKey
	}
	return s.store.SetObject(ctx, settingsKey, map[string]string{
		"voiceServerUrl":       settings.VoiceServerURL,
		"voiceServerApiKey":    settings.VoiceServerAPIKey,
		"voiceServerEnabled":   boolString(settings.VoiceServerEnabled),
		"voiceTtsMode":         settings.VoiceTTSMode,
		"voiceMessageTemplate": settings.VoiceMessageTemplate,
		"blockUnverifiedUsers": boolString(settings.BlockUnverifiedUsers),
	})
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
