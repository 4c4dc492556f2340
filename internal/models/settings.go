package models

// GatewaySettings are the admin-editable delivery settings, persisted in
// the store and editable at runtime without a restart.
type GatewaySettings struct {
	VoiceServerURL       string `json:"voiceServerUrl"`
	VoiceServerAPIKey    string `json:"voiceServerApiKey"`
	VoiceServerEnabled   bool   `json:"voiceServerEnabled"`
	VoiceTTSMode         string `json:"voiceTtsMode"`
	VoiceMessageTemplate string `json:"voiceMessageTemplate"`
	BlockUnverifiedUsers bool   `json:"blockUnverifiedUsers"`
}

// MaskedAPIKey is what the admin settings endpoint returns in place of a
// configured key; posting it back preserves the stored key.
const MaskedAPIKey = "********"
