package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/forumhub/phone-verification/internal/models"
	"github.com/forumhub/phone-verification/internal/userdir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendCode_InvalidBody(t *testing.T) {
	f := newTestFixture(t)

	req, _ := http.NewRequest("POST", "/v1/phone-verification/send-code", bytes.NewBufferString("not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendCode_BusinessFailureIsHTTP200(t *testing.T) {
	f := newTestFixture(t)

	w := f.do(t, "POST", "/v1/phone-verification/send-code", "", models.SendCodeRequest{PhoneNumber: "12345"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.SendCodeResponse
	decodeBody(t, w, &resp)
	assert.False(t, resp.Success)
	assert.Equal(t, models.ErrCodePhoneInvalid, resp.Error)
}

func TestVerificationFlowOverHTTP(t *testing.T) {
	f := newTestFixture(t)
	f.users.AddUser(7, map[string]string{userdir.FieldUsername: "alice", userdir.FieldUserslug: "alice"})

	w := f.do(t, "POST", "/v1/phone-verification/send-code", "", models.SendCodeRequest{PhoneNumber: "050-123-4567"})
	require.Equal(t, http.StatusOK, w.Code)

	var sent models.SendCodeResponse
	decodeBody(t, w, &sent)
	require.True(t, sent.Success)
	require.Len(t, sent.Code, 6, "test environment echoes the code")

	w = f.do(t, "POST", "/v1/phone-verification/verify-code", "", models.VerifyCodeRequest{
		PhoneNumber: "0501234567", Code: sent.Code,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result models.Result
	decodeBody(t, w, &result)
	require.True(t, result.Success)

	w = f.do(t, "POST", "/v1/phone-verification/check-status", "", models.CheckStatusRequest{PhoneNumber: "0501234567"})
	var status models.CheckStatusResponse
	decodeBody(t, w, &status)
	assert.True(t, status.Verified)

	w = f.do(t, "POST", "/v1/phone-verification/check-registration", "", models.CheckStatusRequest{PhoneNumber: "0501234567"})
	decodeBody(t, w, &result)
	assert.True(t, result.Success)

	w = f.do(t, "POST", "/v1/phone-verification/complete-registration", "", models.CompleteRegistrationRequest{
		UID: 7, PhoneNumber: "0501234567",
	})
	decodeBody(t, w, &result)
	require.True(t, result.Success)
}

func TestVerifyCode_WrongCode(t *testing.T) {
	f := newTestFixture(t)

	w := f.do(t, "POST", "/v1/phone-verification/send-code", "", models.SendCodeRequest{PhoneNumber: "0501234567"})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, "POST", "/v1/phone-verification/verify-code", "", models.VerifyCodeRequest{
		PhoneNumber: "0501234567", Code: "000000",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result models.Result
	decodeBody(t, w, &result)
	assert.False(t, result.Success)
	assert.Equal(t, models.ErrCodeInvalid, result.Error)
}

func TestInitiateCallOverHTTP(t *testing.T) {
	f := newTestFixture(t)

	w := f.do(t, "POST", "/v1/phone-verification/initiate-call", "", models.SendCodeRequest{PhoneNumber: "0501234567"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.InitiateCallResponse
	decodeBody(t, w, &resp)
	require.True(t, resp.Success)
	assert.Equal(t, "445566", resp.Code, "provider caller code is surfaced")
}

func TestCompleteRegistration_RequiresUID(t *testing.T) {
	f := newTestFixture(t)

	w := f.do(t, "POST", "/v1/phone-verification/complete-registration", "", models.CompleteRegistrationRequest{
		PhoneNumber: "0501234567",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCanPost_RequiresAuth(t *testing.T) {
	f := newTestFixture(t)

	w := f.do(t, "GET", "/v1/phone-verification/can-post", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	f.users.AddUser(3, map[string]string{userdir.FieldUsername: "carol"})
	w = f.do(t, "GET", "/v1/phone-verification/can-post", tokenFor(3, false), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result models.Result
	decodeBody(t, w, &result)
	assert.True(t, result.Success, "gate is off by default")
}

func TestHealthCheck(t *testing.T) {
	f := newTestFixture(t)

	w := f.do(t, "GET", "/v1/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var health HealthResponse
	decodeBody(t, w, &health)
	assert.Equal(t, "healthy", health.Status)
}
