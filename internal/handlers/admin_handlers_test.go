package handlers

import (
	"net/http"
	"testing"

	"github.com/forumhub/phone-verification/internal/gateway"
	"github.com/forumhub/phone-verification/internal/models"
	"github.com/forumhub/phone-verification/internal/userdir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	f := newTestFixture(t)

	w := f.do(t, "GET", "/v1/admin/phone-verification/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, "GET", "/v1/admin/phone-verification/users", tokenFor(1, false), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminListAndSearch(t *testing.T) {
	f := newTestFixture(t)
	f.users.AddUser(1, map[string]string{userdir.FieldUsername: "alice", userdir.FieldUserslug: "alice"})
	admin := tokenFor(9, true)

	w := f.do(t, "POST", "/v1/admin/phone-verification/user/1/force-bind", admin, models.ForceBindRequest{PhoneNumber: "0501234567"})
	require.Equal(t, http.StatusOK, w.Code)
	var result models.Result
	decodeBody(t, w, &result)
	require.True(t, result.Success)

	w = f.do(t, "GET", "/v1/admin/phone-verification/users", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list models.PhoneList
	decodeBody(t, w, &list)
	require.Equal(t, int64(1), list.Total)
	require.Len(t, list.Users, 1)
	assert.Equal(t, "alice", list.Users[0].Username)
	assert.True(t, list.Users[0].PhoneVerified)

	w = f.do(t, "GET", "/v1/admin/phone-verification/search?phone=050-123-4567", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entry models.PhoneListEntry
	decodeBody(t, w, &entry)
	assert.Equal(t, int64(1), entry.UID)

	w = f.do(t, "GET", "/v1/admin/phone-verification/search?phone=0509999999", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, "GET", "/v1/admin/phone-verification/search", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminForceVerifyAndUnverify(t *testing.T) {
	f := newTestFixture(t)
	f.users.AddUser(1, map[string]string{userdir.FieldUsername: "alice"})
	admin := tokenFor(9, true)

	w := f.do(t, "POST", "/v1/admin/phone-verification/user/1/force-verify", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var result models.Result
	decodeBody(t, w, &result)
	require.True(t, result.Success)

	w = f.do(t, "GET", "/v1/admin/phone-verification/user/1", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var phone models.UserPhone
	decodeBody(t, w, &phone)
	assert.True(t, phone.PhoneVerified)

	w = f.do(t, "POST", "/v1/admin/phone-verification/user/1/force-unverify", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, "GET", "/v1/admin/phone-verification/user/1", admin, nil)
	decodeBody(t, w, &phone)
	assert.False(t, phone.PhoneVerified)
}

func TestAdminDeletePhone(t *testing.T) {
	f := newTestFixture(t)
	f.users.AddUser(1, map[string]string{userdir.FieldUsername: "alice"})
	admin := tokenFor(9, true)

	w := f.do(t, "POST", "/v1/admin/phone-verification/user/1/force-bind", admin, models.ForceBindRequest{PhoneNumber: "0501234567"})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, "DELETE", "/v1/admin/phone-verification/user/1/phone", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var result models.Result
	decodeBody(t, w, &result)
	require.True(t, result.Success)

	w = f.do(t, "GET", "/v1/admin/phone-verification/search?phone=0501234567", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRoutes_UnknownUID(t *testing.T) {
	f := newTestFixture(t)
	admin := tokenFor(9, true)

	w := f.do(t, "GET", "/v1/admin/phone-verification/user/42", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, "GET", "/v1/admin/phone-verification/user/abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminSettings_KeyMasking(t *testing.T) {
	f := newTestFixture(t)
	admin := tokenFor(9, true)

	w := f.do(t, "POST", "/v1/admin/phone-verification/settings", admin, AdminSettingsResponse{
		VoiceServerURL:     "https://voice.example.com",
		VoiceServerAPIKey:  "real-key",
		VoiceServerEnabled: true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, "GET", "/v1/admin/phone-verification/settings", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var settings AdminSettingsResponse
	decodeBody(t, w, &settings)
	assert.Equal(t, models.MaskedAPIKey, settings.VoiceServerAPIKey, "key must never be echoed")

	// Posting the masked value back keeps the stored key usable.
	settings.BlockUnverifiedUsers = true
	w = f.do(t, "POST", "/v1/admin/phone-verification/settings", admin, settings)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, "GET", "/v1/admin/phone-verification/settings", admin, nil)
	decodeBody(t, w, &settings)
	assert.Equal(t, models.MaskedAPIKey, settings.VoiceServerAPIKey)
	assert.True(t, settings.BlockUnverifiedUsers)
}

func TestAdminTestCall(t *testing.T) {
	f := newTestFixture(t)
	admin := tokenFor(9, true)

	w := f.do(t, "POST", "/v1/admin/phone-verification/test-call", admin, models.SendCodeRequest{PhoneNumber: "0501234567"})
	require.Equal(t, http.StatusOK, w.Code)
	var result models.Result
	decodeBody(t, w, &result)
	require.True(t, result.Success)
	assert.Equal(t, "123456", f.deliver.spoken["0501234567"])

	f.deliver.err = gateway.ErrDisabled
	w = f.do(t, "POST", "/v1/admin/phone-verification/test-call", admin, models.SendCodeRequest{PhoneNumber: "0501234567"})
	decodeBody(t, w, &result)
	assert.Equal(t, models.ErrCodeVoiceDisabled, result.Error)
}
