package services

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/forumhub/phone-verification/internal/logging"
	"github.com/forumhub/phone-verification/internal/models"
	"github.com/forumhub/phone-verification/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPhone = "0501234567"

func newTestVerificationStore() (*VerificationStore, *store.MemoryStore) {
	st := store.NewMemoryStore()
	return NewVerificationStore(st, DefaultVerificationPolicy(), logging.NewNop()), st
}

func TestVerificationStore_IssueAndVerify(t *testing.T) {
	ctx := context.Background()
	vs, _ := newTestVerificationStore()

	issued, err := vs.Issue(ctx, testPhone, "123456")
	require.NoError(t, err)
	require.True(t, issued.Success)
	assert.Greater(t, issued.ExpiresAt, time.Now().UnixMilli())

	result, err := vs.Verify(ctx, testPhone, "123456")
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestVerificationStore_CodeIsOneShot(t *testing.T) {
	ctx := context.Background()
	vs, _ := newTestVerificationStore()

	_, err := vs.Issue(ctx, testPhone, "123456")
	require.NoError(t, err)

	result, err := vs.Verify(ctx, testPhone, "123456")
	require.NoError(t, err)
	require.True(t, result.Success)

	// The record was consumed, so even the correct code fails now.
	result, err = vs.Verify(ctx, testPhone, "123456")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, models.ErrCodeNotFound, result.Error)
}

func TestVerificationStore_VerifyWithoutIssue(t *testing.T) {
	ctx := context.Background()
	vs, _ := newTestVerificationStore()

	result, err := vs.Verify(ctx, testPhone, "123456")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, models.ErrCodeNotFound, result.Error)
}

func TestVerificationStore_WrongCodeCountsAttempts(t *testing.T) {
	ctx := context.Background()
	vs, _ := newTestVerificationStore()

	_, err := vs.Issue(ctx, testPhone, "123456")
	require.NoError(t, err)

	result, err := vs.Verify(ctx, testPhone, "000000")
	require.NoError(t, err)
	assert.Equal(t, models.ErrCodeInvalid, result.Error)
	assert.Contains(t, result.Message, "2 attempts remaining")

	result, err = vs.Verify(ctx, testPhone, "000000")
	require.NoError(t, err)
	assert.Equal(t, models.ErrCodeInvalid, result.Error)
	assert.Contains(t, result.Message, "1 attempts remaining")
}

func TestVerificationStore_BlocksAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	vs, _ := newTestVerificationStore()

	_, err := vs.Issue(ctx, testPhone, "123456")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		result, err := vs.Verify(ctx, testPhone, "000000")
		require.NoError(t, err)
		assert.Equal(t, models.ErrCodeInvalid, result.Error)
	}

	result, err := vs.Verify(ctx, testPhone, "000000")
	require.NoError(t, err)
	assert.Equal(t, models.ErrCodePhoneBlocked, result.Error)

	// A blocked phone rejects even the correct code.
	result, err = vs.Verify(ctx, testPhone, "123456")
	require.NoError(t, err)
	assert.Equal(t, models.ErrCodePhoneBlocked, result.Error)
}

func TestVerificationStore_IssueRejectedWhileBlocked(t *testing.T) {
	ctx := context.Background()
	vs, _ := newTestVerificationStore()

	_, err := vs.Issue(ctx, testPhone, "123456")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := vs.Verify(ctx, testPhone, "000000")
		require.NoError(t, err)
	}

	issued, err := vs.Issue(ctx, testPhone, "654321")
	require.NoError(t, err)
	assert.False(t, issued.Success)
	assert.Equal(t, models.ErrCodePhoneBlocked, issued.Error)
	assert.Contains(t, issued.Message, "15 minutes")
}

func TestVerificationStore_ExpiredCode(t *testing.T) {
	ctx := context.Background()
	vs, st := newTestVerificationStore()

	_, err := vs.Issue(ctx, testPhone, "123456")
	require.NoError(t, err)

	// Age the record past the code expiry.
	past := time.Now().Add(-time.Minute).UnixMilli()
	require.NoError(t, st.SetObjectField(ctx, codeKeyPrefix+testPhone, "expiresAt", strconv.FormatInt(past, 10)))

	result, err := vs.Verify(ctx, testPhone, "123456")
	require.NoError(t, err)
	assert.Equal(t, models.ErrCodeExpired, result.Error)
}

func TestVerificationStore_ReissueResetsAttempts(t *testing.T) {
	ctx := context.Background()
	vs, _ := newTestVerificationStore()

	_, err := vs.Issue(ctx, testPhone, "123456")
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := vs.Verify(ctx, testPhone, "000000")
		require.NoError(t, err)
	}

	issued, err := vs.Issue(ctx, testPhone, "654321")
	require.NoError(t, err)
	require.True(t, issued.Success)

	// A fresh record has a clean attempt counter.
	result, err := vs.Verify(ctx, testPhone, "000000")
	require.NoError(t, err)
	assert.Equal(t, models.ErrCodeInvalid, result.Error)
	assert.Contains(t, result.Message, "2 attempts remaining")
}

func TestVerificationStore_NormalizesPhoneKey(t *testing.T) {
	ctx := context.Background()
	vs, _ := newTestVerificationStore()

	_, err := vs.Issue(ctx, "050-123-4567", "123456")
	require.NoError(t, err)

	result, err := vs.Verify(ctx, "050 123 4567", "123456")
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestRemainingMinutes_RoundsUp(t *testing.T) {
	now := int64(1_000_000)
	assert.Equal(t, int64(1), remainingMinutes(now+1, now))
	assert.Equal(t, int64(1), remainingMinutes(now+60_000, now))
	assert.Equal(t, int64(2), remainingMinutes(now+60_001, now))
	assert.Equal(t, int64(15), remainingMinutes(now+15*60_000, now))
}
