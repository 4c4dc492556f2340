package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/forumhub/phone-verification/internal/logging"
	"github.com/forumhub/phone-verification/internal/models"
	"github.com/forumhub/phone-verification/internal/observability"
	"github.com/forumhub/phone-verification/internal/store"
	"github.com/forumhub/phone-verification/internal/utils"
	"go.uber.org/zap"
)

// VerificationPolicy is the attempt/expiry/lockout policy of the code
// state machine.
type VerificationPolicy struct {
	CodeExpiry    time.Duration
	RecordTTL     time.Duration
	MaxAttempts   int
	BlockDuration time.Duration
}

// DefaultVerificationPolicy returns the production defaults: 5 minute
// codes, 20 minute records, 3 attempts, 15 minute lockout.
func DefaultVerificationPolicy() VerificationPolicy {
	return VerificationPolicy{
		CodeExpiry:    5 * time.Minute,
		RecordTTL:     20 * time.Minute,
		MaxAttempts:   3,
		BlockDuration: 15 * time.Minute,
	}
}

// VerificationStore is the per-phone code state machine: issue a hashed
// one-time code, count failed attempts, escalate to a timed block.
type VerificationStore struct {
	store  store.Store
	policy VerificationPolicy
	logger *logging.SafeLogger
	now    func() time.Time
}

// NewVerificationStore creates a verification store over the given
// persistence layer.
func NewVerificationStore(st store.Store, policy VerificationPolicy, logger *logging.SafeLogger) *VerificationStore {
	return &VerificationStore{
		store:  st,
		policy: policy,
		logger: logger,
		now:    time.Now,
	}
}

func nowMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// remainingMinutes rounds the remaining block window up to whole minutes.
func remainingMinutes(untilMs, nowMs int64) int64 {
	return (untilMs - nowMs + 59999) / 60000
}

func parseRecord(fields map[string]string) models.VerificationRecord {
	attempts, _ := strconv.Atoi(fields["attempts"])
	createdAt, _ := strconv.ParseInt(fields["createdAt"], 10, 64)
	expiresAt, _ := strconv.ParseInt(fields["expiresAt"], 10, 64)
	blockedUntil, _ := strconv.ParseInt(fields["blockedUntil"], 10, 64)
	return models.VerificationRecord{
		HashedCode:   fields["hashedCode"],
		Attempts:     attempts,
		CreatedAt:    createdAt,
		ExpiresAt:    expiresAt,
		BlockedUntil: blockedUntil,
	}
}

func blockedResult(untilMs, nowMs int64) models.Result {
	return models.Fail(models.ErrCodePhoneBlocked,
		fmt.Sprintf("Phone number is temporarily blocked, try again in %d minutes", remainingMinutes(untilMs, nowMs)))
}

// Issue creates a fresh verification record for the phone unless an
// active block exists. An existing non-blocked record is overwritten,
// which also resets its attempt counter.
func (s *VerificationStore) Issue(ctx context.Context, phone, code string) (models.IssueResult, error) {
	key := codeKeyPrefix + utils.NormalizePhone(phone)
	now := nowMillis(s.now())

	existing, err := s.store.GetObject(ctx, key)
	if err != nil {
		s.logger.Error("failed to read verification record", zap.Error(err))
		return models.IssueResult{Result: models.Fail(models.ErrCodeDBError, "A system error occurred")}, err
	}
	if len(existing) > 0 {
		rec := parseRecord(existing)
		if rec.BlockedUntil > now {
			return models.IssueResult{Result: blockedResult(rec.BlockedUntil, now)}, nil
		}
	}

	expiresAt := now + s.policy.CodeExpiry.Milliseconds()
	record := map[string]string{
		"hashedCode":   utils.HashCode(code),
		"attempts":     "0",
		"createdAt":    strconv.FormatInt(now, 10),
		"expiresAt":    strconv.FormatInt(expiresAt, 10),
		"blockedUntil": "0",
	}
	// Overwrite any stale record wholesale so leftover fields cannot
	// survive a reissue.
	if err := s.store.Delete(ctx, key); err != nil {
		return models.IssueResult{Result: models.Fail(models.ErrCodeDBError, "A system error occurred")}, err
	}
	if err := s.store.SetObject(ctx, key, record); err != nil {
		return models.IssueResult{Result: models.Fail(models.ErrCodeDBError, "A system error occurred")}, err
	}
	// The record outlives the code so a block set after expiry sticks.
	if err := s.store.ExpireAt(ctx, key, s.now().Add(s.policy.RecordTTL)); err != nil {
		return models.IssueResult{Result: models.Fail(models.ErrCodeDBError, "A system error occurred")}, err
	}

	return models.IssueResult{Result: models.Ok(), ExpiresAt: expiresAt}, nil
}

// Verify checks a candidate code. Ordering is fixed: block state first,
// then expiry, then the hash comparison — a blocked phone learns nothing
// about its code, and an expired code is never compared.
func (s *VerificationStore) Verify(ctx context.Context, phone, candidate string) (models.Result, error) {
	key := codeKeyPrefix + utils.NormalizePhone(phone)
	now := nowMillis(s.now())

	fields, err := s.store.GetObject(ctx, key)
	if err != nil {
		s.logger.Error("failed to read verification record", zap.Error(err))
		return models.Fail(models.ErrCodeDBError, "A system error occurred"), err
	}
	if len(fields) == 0 {
		observability.VerificationResults.WithLabelValues("not_found").Inc()
		return models.Fail(models.ErrCodeNotFound, "No verification code found for this number"), nil
	}

	rec := parseRecord(fields)
	if rec.BlockedUntil > now {
		observability.VerificationResults.WithLabelValues("blocked").Inc()
		return blockedResult(rec.BlockedUntil, now), nil
	}
	if rec.ExpiresAt < now {
		observability.VerificationResults.WithLabelValues("expired").Inc()
		return models.Fail(models.ErrCodeExpired, "Verification code has expired"), nil
	}

	if utils.HashCode(candidate) == rec.HashedCode {
		// One-shot credential: consume the record on success.
		if err := s.store.Delete(ctx, key); err != nil {
			return models.Fail(models.ErrCodeDBError, "A system error occurred"), err
		}
		observability.VerificationResults.WithLabelValues("success").Inc()
		return models.Ok(), nil
	}

	attempts := rec.Attempts + 1
	if err := s.store.SetObjectField(ctx, key, "attempts", strconv.Itoa(attempts)); err != nil {
		return models.Fail(models.ErrCodeDBError, "A system error occurred"), err
	}
	if attempts >= s.policy.MaxAttempts {
		blockedUntil := now + s.policy.BlockDuration.Milliseconds()
		if err := s.store.SetObjectField(ctx, key, "blockedUntil", strconv.FormatInt(blockedUntil, 10)); err != nil {
			return models.Fail(models.ErrCodeDBError, "A system error occurred"), err
		}
		s.logger.Warn("phone blocked after failed attempts",
			zap.String("phone", observability.MaskPhone(phone)),
			zap.Int("attempts", attempts))
		observability.VerificationResults.WithLabelValues("blocked").Inc()
		return models.Fail(models.ErrCodePhoneBlocked,
			fmt.Sprintf("Phone number blocked for %d minutes due to failed attempts", int64(s.policy.BlockDuration.Minutes()))), nil
	}

	observability.VerificationResults.WithLabelValues("invalid").Inc()
	return models.Fail(models.ErrCodeInvalid,
		fmt.Sprintf("Incorrect verification code. %d attempts remaining", s.policy.MaxAttempts-attempts)), nil
}
