package services

import (
	"context"
	"errors"

	"github.com/forumhub/phone-verification/internal/gateway"
	"github.com/forumhub/phone-verification/internal/logging"
	"github.com/forumhub/phone-verification/internal/models"
	"github.com/forumhub/phone-verification/internal/observability"
	"github.com/forumhub/phone-verification/internal/userdir"
	"github.com/forumhub/phone-verification/internal/utils"
	"go.uber.org/zap"
)

// VerificationService orchestrates the send-code / verify-code /
// registration / profile flows over the core components. Each request
// runs as an independent unit of work against the shared store; the
// service holds no mutable state of its own.
type VerificationService struct {
	codes       *VerificationStore
	rateLimiter *IPRateLimiter
	registry    *PhoneRegistry
	verified    *VerifiedPhoneCache
	settings    *SettingsService
	deliverer   gateway.Deliverer
	users       userdir.Directory
	logger      *logging.SafeLogger
	environment string
}

// NewVerificationService wires the orchestrator. All collaborators are
// injected; nothing reaches for globals.
func NewVerificationService(
	codes *VerificationStore,
	rateLimiter *IPRateLimiter,
	registry *PhoneRegistry,
	verified *VerifiedPhoneCache,
	settings *SettingsService,
	deliverer gateway.Deliverer,
	users userdir.Directory,
	logger *logging.SafeLogger,
	environment string,
) *VerificationService {
	return &VerificationService{
		codes:       codes,
		rateLimiter: rateLimiter,
		registry:    registry,
		verified:    verified,
		settings:    settings,
		deliverer:   deliverer,
		users:       users,
		logger:      logger,
		environment: environment,
	}
}

// Registry exposes the registry for admin flows.
func (s *VerificationService) Registry() *PhoneRegistry {
	return s.registry
}

// Settings exposes the settings service for admin flows.
func (s *VerificationService) Settings() *SettingsService {
	return s.settings
}

// admitAndValidate runs the shared front half of the code-issuance
// flows: rate limit, format validation, uniqueness check. Returns the
// normalized phone on success.
func (s *VerificationService) admitAndValidate(ctx context.Context, ip, phoneNumber string) (string, models.Result) {
	allowed, err := s.rateLimiter.CheckLimit(ctx, ip)
	if err != nil {
		// Rate limiting degrades open on store faults: losing throttling
		// beats losing the whole issuance path.
		s.logger.Error("rate limit check failed", zap.Error(err))
	} else if !allowed {
		return "", models.Fail(models.ErrCodeIPBlocked, "Too many requests. Try again later.")
	}
	if err := s.rateLimiter.Increment(ctx, ip); err != nil {
		s.logger.Error("rate limit increment failed", zap.Error(err))
	}

	if phoneNumber == "" {
		return "", models.Fail(models.ErrCodePhoneRequired, "Phone number is required")
	}
	if !utils.ValidatePhone(phoneNumber) {
		return "", models.Fail(models.ErrCodePhoneInvalid, "Phone number is not valid")
	}
	normalized := utils.NormalizePhone(phoneNumber)

	exists, err := s.registry.Exists(ctx, normalized)
	if err != nil {
		s.logger.Error("failed to check phone binding", zap.Error(err))
		return "", models.Fail(models.ErrCodeDBError, "A system error occurred")
	}
	if exists {
		return "", models.Fail(models.ErrCodePhoneExists, "Phone number is already registered")
	}
	return normalized, models.Ok()
}

// SendCode issues a verification code for the phone and asks the voice
// provider to speak it. The code is created even when delivery fails so
// an operator can fall back to another channel.
func (s *VerificationService) SendCode(ctx context.Context, ip, phoneNumber string) models.SendCodeResponse {
	normalized, admit := s.admitAndValidate(ctx, ip, phoneNumber)
	if !admit.Success {
		return models.SendCodeResponse{Success: false, Error: admit.Error, Message: admit.Message}
	}

	code, err := utils.GenerateVerificationCode()
	if err != nil {
		s.logger.Error("failed to generate verification code", zap.Error(err))
		return models.SendCodeResponse{Success: false, Error: models.ErrCodeServerError, Message: "A server error occurred"}
	}

	issued, err := s.codes.Issue(ctx, normalized, code)
	if err != nil || !issued.Success {
		return models.SendCodeResponse{Success: false, Error: issued.Error, Message: issued.Message}
	}
	observability.CodesIssued.WithLabelValues("voice").Inc()

	voiceSent := true
	if err := s.deliverer.SpeakCode(ctx, normalized, code); err != nil {
		voiceSent = false
		if !errors.Is(err, gateway.ErrDisabled) {
			s.logger.Error("voice delivery failed",
				zap.String("phone", observability.MaskPhone(normalized)),
				zap.Error(err))
		}
	}

	resp := models.SendCodeResponse{
		Success:       true,
		Message:       "Verification code created",
		ExpiresAt:     issued.ExpiresAt,
		VoiceCallSent: voiceSent,
	}
	if voiceSent {
		resp.Message = "Verification code sent! You will receive a call shortly."
	}
	if s.environment != "production" {
		resp.Code = code
		resp.Phone = normalized
	}
	return resp
}

// InitiateCall starts a caller-ID verification: the provider places a
// call and the digits of the calling number are the code. When the
// provider cannot issue one, a local code is generated and returned for
// the client to display. Either way the code passes through the same
// store, TTL and attempt rules.
func (s *VerificationService) InitiateCall(ctx context.Context, ip, phoneNumber string) models.InitiateCallResponse {
	normalized, admit := s.admitAndValidate(ctx, ip, phoneNumber)
	if !admit.Success {
		return models.InitiateCallResponse{Success: false, Error: admit.Error, Message: admit.Message}
	}

	code, err := s.deliverer.PlaceCallerIDCall(ctx, normalized)
	if err != nil {
		if !errors.Is(err, gateway.ErrDisabled) {
			s.logger.Error("caller-id call failed",
				zap.String("phone", observability.MaskPhone(normalized)),
				zap.Error(err))
		}
		code, err = utils.GenerateVerificationCode()
		if err != nil {
			s.logger.Error("failed to generate verification code", zap.Error(err))
			return models.InitiateCallResponse{Success: false, Error: models.ErrCodeServerError, Message: "A server error occurred"}
		}
	}

	issued, issueErr := s.codes.Issue(ctx, normalized, code)
	if issueErr != nil || !issued.Success {
		return models.InitiateCallResponse{Success: false, Error: issued.Error, Message: issued.Message}
	}
	observability.CodesIssued.WithLabelValues("caller_id").Inc()

	return models.InitiateCallResponse{
		Success:   true,
		Phone:     normalized,
		Code:      code,
		ExpiresAt: issued.ExpiresAt,
	}
}

// VerifyCode validates a submitted code and, on success, records the
// short-lived verified marker for the pre-registration flow.
func (s *VerificationService) VerifyCode(ctx context.Context, phoneNumber, code string) models.Result {
	if phoneNumber == "" || code == "" {
		return models.Fail(models.ErrCodeMissingParams, "Missing parameters")
	}
	normalized := utils.NormalizePhone(phoneNumber)
	result, err := s.codes.Verify(ctx, normalized, code)
	if err != nil {
		return result
	}
	if result.Success {
		if err := s.verified.MarkVerified(ctx, normalized); err != nil {
			s.logger.Error("failed to mark phone verified", zap.Error(err))
			return models.Fail(models.ErrCodeDBError, "A system error occurred")
		}
	}
	return result
}

// CheckStatus reports whether the phone holds a valid verified marker.
func (s *VerificationService) CheckStatus(ctx context.Context, phoneNumber string) models.CheckStatusResponse {
	if phoneNumber == "" {
		return models.CheckStatusResponse{Success: false, Verified: false}
	}
	verified, err := s.verified.IsVerified(ctx, phoneNumber)
	if err != nil {
		s.logger.Error("failed to check verified marker", zap.Error(err))
		return models.CheckStatusResponse{Success: false, Verified: false}
	}
	return models.CheckStatusResponse{Success: true, Verified: verified}
}

// CheckRegistration gate-checks a registration attempt: the phone must
// be valid, unbound, and already verified.
func (s *VerificationService) CheckRegistration(ctx context.Context, phoneNumber string) models.Result {
	if phoneNumber == "" {
		return models.Fail(models.ErrCodePhoneRequired, "Phone number is required")
	}
	if !utils.ValidatePhone(phoneNumber) {
		return models.Fail(models.ErrCodePhoneInvalid, "Phone number is not valid")
	}
	normalized := utils.NormalizePhone(phoneNumber)

	exists, err := s.registry.Exists(ctx, normalized)
	if err != nil {
		return models.Fail(models.ErrCodeDBError, "A system error occurred")
	}
	if exists {
		return models.Fail(models.ErrCodePhoneExists, "Phone number is already registered")
	}

	verified, err := s.verified.IsVerified(ctx, normalized)
	if err != nil {
		return models.Fail(models.ErrCodeDBError, "A system error occurred")
	}
	if !verified {
		return models.Fail(models.ErrCodeNotVerified, "Phone number must be verified before registration")
	}
	return models.Ok()
}

// CompleteRegistration binds a freshly created account to its verified
// phone and consumes the marker.
func (s *VerificationService) CompleteRegistration(ctx context.Context, uid int64, phoneNumber string) models.Result {
	normalized := utils.NormalizePhone(phoneNumber)
	result, err := s.registry.Bind(ctx, uid, normalized, true, false)
	if err != nil || !result.Success {
		return result
	}
	if err := s.verified.Clear(ctx, normalized); err != nil {
		s.logger.Warn("failed to clear verified marker", zap.Error(err))
	}
	return result
}

// CanPost reports whether the uid may post. Admins always may; others
// need a verified phone while blockUnverifiedUsers is on. Guests
// (uid 0) are the host's concern and pass through.
func (s *VerificationService) CanPost(ctx context.Context, uid int64) models.Result {
	if uid == 0 {
		return models.Ok()
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		s.logger.Error("failed to load settings", zap.Error(err))
		return models.Ok()
	}
	if !settings.BlockUnverifiedUsers {
		return models.Ok()
	}
	isAdmin, err := s.users.IsAdministrator(ctx, uid)
	if err != nil {
		return models.Fail(models.ErrCodeDBError, "A system error occurred")
	}
	if isAdmin {
		return models.Ok()
	}
	phone, err := s.registry.GetUserPhone(ctx, uid)
	if err != nil {
		return models.Fail(models.ErrCodeDBError, "A system error occurred")
	}
	if phone == nil || !phone.PhoneVerified {
		return models.Fail(models.ErrCodeNotVerified, "A verified phone number is required to post")
	}
	return models.Ok()
}

// UpdateUserPhone saves a new phone on the user's profile. The binding
// is stored unverified and a verification code goes out immediately;
// the user confirms it through VerifyUserPhone. An empty phone removes
// the current binding.
func (s *VerificationService) UpdateUserPhone(ctx context.Context, uid int64, phoneNumber string) models.Result {
	if phoneNumber == "" {
		if err := s.registry.Release(ctx, uid); err != nil {
			s.logger.Error("failed to release phone", zap.Int64("uid", uid), zap.Error(err))
			return models.Fail(models.ErrCodeDBError, "A system error occurred")
		}
		return models.Result{Success: true, Message: "Phone number removed"}
	}
	if !utils.ValidatePhone(phoneNumber) {
		return models.Fail(models.ErrCodePhoneInvalid, "Phone number is not valid")
	}
	result, _ := s.registry.Bind(ctx, uid, phoneNumber, false, false)
	if !result.Success {
		return result
	}

	normalized := utils.NormalizePhone(phoneNumber)
	code, err := utils.GenerateVerificationCode()
	if err != nil {
		s.logger.Error("failed to generate verification code", zap.Error(err))
		return models.Fail(models.ErrCodeServerError, "A server error occurred")
	}
	issued, err := s.codes.Issue(ctx, normalized, code)
	if err != nil || !issued.Success {
		// The binding stays; the user can retry once the block lapses.
		return issued.Result
	}
	observability.CodesIssued.WithLabelValues("voice").Inc()

	result.Message = "Phone number saved. Verify it to complete the process"
	if err := s.deliverer.SpeakCode(ctx, normalized, code); err == nil {
		result.Message = "Phone number saved. You will receive a call shortly"
	} else if !errors.Is(err, gateway.ErrDisabled) {
		s.logger.Error("voice delivery failed",
			zap.String("phone", observability.MaskPhone(normalized)),
			zap.Error(err))
	}
	return result
}

// VerifyUserPhone verifies the code for the uid's own saved phone and
// flips the verified flag.
func (s *VerificationService) VerifyUserPhone(ctx context.Context, uid int64, code string) models.Result {
	phone, err := s.registry.GetUserPhone(ctx, uid)
	if err != nil {
		return models.Fail(models.ErrCodeDBError, "A system error occurred")
	}
	if phone == nil || phone.Phone == "" {
		return models.Fail(models.ErrCodeNoPhone, "No phone number found")
	}
	result, err := s.codes.Verify(ctx, phone.Phone, code)
	if err != nil || !result.Success {
		return result
	}
	if err := s.registry.SetVerified(ctx, uid, true); err != nil {
		return models.Fail(models.ErrCodeDBError, "A system error occurred")
	}
	return models.Result{Success: true, Message: "Phone number verified successfully"}
}

// TestCall places a test voice call with a fixed code. Admin path.
func (s *VerificationService) TestCall(ctx context.Context, phoneNumber string) models.Result {
	if phoneNumber == "" {
		return models.Fail(models.ErrCodePhoneRequired, "Phone number is required")
	}
	if !utils.ValidatePhone(phoneNumber) {
		return models.Fail(models.ErrCodePhoneInvalid, "Phone number is not valid")
	}
	if err := s.deliverer.SpeakCode(ctx, utils.NormalizePhone(phoneNumber), "123456"); err != nil {
		if errors.Is(err, gateway.ErrDisabled) {
			return models.Fail(models.ErrCodeVoiceDisabled, "Voice server is not configured")
		}
		s.logger.Error("test call failed", zap.Error(err))
		return models.Fail(models.ErrCodeVoiceError, "Failed to place test call")
	}
	return models.Result{Success: true, Message: "Test call sent successfully!"}
}
