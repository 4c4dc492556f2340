package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/forumhub/phone-verification/internal/logging"
	"github.com/forumhub/phone-verification/internal/models"
	"github.com/forumhub/phone-verification/internal/observability"
	"github.com/forumhub/phone-verification/internal/utils"
	"github.com/forumhub/phone-verification/internal/utils/httpclient"
	"go.uber.org/zap"
)

// ErrDisabled is returned when the voice server is not configured or
// switched off in settings.
var ErrDisabled = errors.New("gateway: voice server disabled")

// Deliverer is the outbound delivery contract. The provider delivers a
// code by voice call; it enforces none of the anti-abuse policy — the
// rate limiter and verification store are the only enforcement.
type Deliverer interface {
	// SpeakCode places a TTS call reading the given code to the phone.
	SpeakCode(ctx context.Context, phone, code string) error

	// PlaceCallerIDCall asks the provider to place a caller-ID call and
	// returns the provider-issued code (the digits the user reads off
	// the calling number). The caller must run that code through the
	// verification store exactly like a locally generated one.
	PlaceCallerIDCall(ctx context.Context, phone string) (string, error)
}

// SettingsFunc supplies the current gateway settings on each call, so
// admin edits apply immediately.
type SettingsFunc func(ctx context.Context) (models.GatewaySettings, error)

// campaignResponse is the provider's reply envelope.
type campaignResponse struct {
	ResponseStatus string `json:"responseStatus"`
	Message        string `json:"message"`
	CallerCode     string `json:"callerCode"`
}

// VoiceGateway talks to a RunCampaign-style voice provider over HTTP.
type VoiceGateway struct {
	settings  SettingsFunc
	siteTitle string
	pool      *httpclient.Pool
	logger    *logging.SafeLogger
}

// NewVoiceGateway creates a gateway using the given settings source.
func NewVoiceGateway(settings SettingsFunc, siteTitle string, pool *httpclient.Pool, logger *logging.SafeLogger) *VoiceGateway {
	return &VoiceGateway{
		settings:  settings,
		siteTitle: siteTitle,
		pool:      pool,
		logger:    logger,
	}
}

// SpeakCode places a TTS call reading the code.
func (g *VoiceGateway) SpeakCode(ctx context.Context, phone, code string) error {
	settings, err := g.settings(ctx)
	if err != nil {
		return err
	}
	if !settings.VoiceServerEnabled || settings.VoiceServerAPIKey == "" {
		return ErrDisabled
	}

	spoken := utils.FormatCodeForSpeech(code)
	message := strings.NewReplacer(
		"{code}", spoken,
		"{siteTitle}", g.siteTitle,
	).Replace(settings.VoiceMessageTemplate)

	dest, err := utils.PhoneToE164(phone)
	if err != nil {
		return err
	}
	phonesData, err := json.Marshal(map[string]interface{}{
		dest: map[string]interface{}{
			"name":     "user",
			"moreinfo": message,
			"blocked":  false,
		},
	})
	if err != nil {
		return err
	}

	params := url.Values{}
	params.Set("ttsMode", settings.VoiceTTSMode)
	params.Set("phones", string(phonesData))
	params.Set("token", settings.VoiceServerAPIKey)

	resp, err := g.call(ctx, settings.VoiceServerURL, params)
	if err != nil {
		return err
	}
	g.logger.Info("voice call placed",
		zap.String("phone", observability.MaskPhone(phone)),
		zap.String("status", resp.ResponseStatus))
	return nil
}

// PlaceCallerIDCall requests a caller-ID call and returns the
// provider-issued code.
func (g *VoiceGateway) PlaceCallerIDCall(ctx context.Context, phone string) (string, error) {
	settings, err := g.settings(ctx)
	if err != nil {
		return "", err
	}
	if !settings.VoiceServerEnabled || settings.VoiceServerAPIKey == "" {
		return "", ErrDisabled
	}

	dest, err := utils.PhoneToE164(phone)
	if err != nil {
		return "", err
	}
	params := url.Values{}
	params.Set("callerIdMode", "1")
	params.Set("phone", dest)
	params.Set("token", settings.VoiceServerAPIKey)

	resp, err := g.call(ctx, settings.VoiceServerURL, params)
	if err != nil {
		return "", err
	}
	if resp.CallerCode == "" {
		return "", fmt.Errorf("voice server returned no caller code")
	}
	return resp.CallerCode, nil
}

func (g *VoiceGateway) call(ctx context.Context, baseURL string, params url.Values) (*campaignResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	client := g.pool.Get()
	defer g.pool.Put(client)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voice server request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("voice server returned status %d", resp.StatusCode)
	}

	var result campaignResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode voice server response: %w", err)
	}
	if result.ResponseStatus != "OK" && result.ResponseStatus != "WAITING" {
		if result.Message != "" {
			return nil, fmt.Errorf("voice server rejected call: %s", result.Message)
		}
		return nil, fmt.Errorf("voice server rejected call: %s", result.ResponseStatus)
	}
	return &result, nil
}

// NopDeliverer is a Deliverer that reports the voice server disabled.
// Used when no provider is configured and in tests.
type NopDeliverer struct{}

func (NopDeliverer) SpeakCode(ctx context.Context, phone, code string) error {
	return ErrDisabled
}

func (NopDeliverer) PlaceCallerIDCall(ctx context.Context, phone string) (string, error) {
	return "", ErrDisabled
}
