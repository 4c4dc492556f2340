package handlers

import (
	"net/http"
	"strconv"

	"github.com/forumhub/phone-verification/internal/models"
	"github.com/forumhub/phone-verification/internal/observability"
	"github.com/forumhub/phone-verification/internal/userdir"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminSettingsResponse carries the gateway settings with the API key
// masked. The stored key never leaves the service.
type AdminSettingsResponse struct {
	VoiceServerURL       string `json:"voiceServerUrl"`
	VoiceServerAPIKey    string `json:"voiceServerApiKey"`
	VoiceServerEnabled   bool   `json:"voiceServerEnabled"`
	VoiceTTSMode         string `json:"voiceTtsMode"`
	VoiceMessageTemplate string `json:"voiceMessageTemplate"`
	BlockUnverifiedUsers bool   `json:"blockUnverifiedUsers"`
}

func (h *Handler) uidParam(c *gin.Context) (int64, bool) {
	uid, err := strconv.ParseInt(c.Param("uid"), 10, 64)
	if err != nil || uid <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid uid"})
		return 0, false
	}
	exists, err := h.users.Exists(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to look up user"})
		return 0, false
	}
	if !exists {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
		return 0, false
	}
	return uid, true
}

// ListUsers godoc
// @Summary List users with verification records
// @Description Pages through users touched by phone verification, most recent first
// @Tags admin
// @Produce json
// @Param page query int false "Page number (1-based)"
// @Param perPage query int false "Page size"
// @Security BearerAuth
// @Success 200 {object} models.PhoneList
// @Failure 500 {object} ErrorResponse
// @Router /admin/phone-verification/users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	page, err := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}
	perPage, err := strconv.ParseInt(c.DefaultQuery("perPage", "50"), 10, 64)
	if err != nil || perPage < 1 || perPage > 200 {
		perPage = 50
	}

	start := (page - 1) * perPage
	list, err := h.service.Registry().List(c.Request.Context(), start, start+perPage-1)
	if err != nil {
		h.logger.Error("failed to list phone users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list users"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// SearchByPhone godoc
// @Summary Find the owner of a phone number
// @Description Looks up which user, if any, a phone number is bound to
// @Tags admin
// @Produce json
// @Param phone query string true "Phone number"
// @Security BearerAuth
// @Success 200 {object} models.PhoneListEntry
// @Failure 404 {object} ErrorResponse
// @Router /admin/phone-verification/search [get]
func (h *Handler) SearchByPhone(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "phone query parameter is required"})
		return
	}

	uid, found, err := h.service.Registry().FindOwner(c.Request.Context(), phone)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to search"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Phone number is not bound to any user"})
		return
	}

	fields, err := h.users.GetUserFields(c.Request.Context(), uid, []string{
		userdir.FieldUsername, userdir.FieldPhoneNumber,
		userdir.FieldPhoneVerified, userdir.FieldPhoneVerifiedAt,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to search"})
		return
	}
	verifiedAt, _ := strconv.ParseInt(fields[userdir.FieldPhoneVerifiedAt], 10, 64)
	c.JSON(http.StatusOK, models.PhoneListEntry{
		UID:             uid,
		Username:        fields[userdir.FieldUsername],
		Phone:           fields[userdir.FieldPhoneNumber],
		PhoneVerified:   fields[userdir.FieldPhoneVerified] == "1",
		PhoneVerifiedAt: verifiedAt,
	})
}

// GetUserPhoneAdmin godoc
// @Summary Get a user's phone state
// @Description Returns the full phone binding for a uid
// @Tags admin
// @Produce json
// @Param uid path int true "User ID"
// @Security BearerAuth
// @Success 200 {object} models.UserPhone
// @Failure 404 {object} ErrorResponse
// @Router /admin/phone-verification/user/{uid} [get]
func (h *Handler) GetUserPhoneAdmin(c *gin.Context) {
	uid, ok := h.uidParam(c)
	if !ok {
		return
	}
	phone, err := h.service.Registry().GetUserPhone(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load phone state"})
		return
	}
	if phone == nil {
		c.JSON(http.StatusOK, models.UserPhone{})
		return
	}
	c.JSON(http.StatusOK, phone)
}

// ForceBindPhone godoc
// @Summary Force-bind a phone to a user
// @Description Binds the phone as verified, revoking any previous owner
// @Tags admin
// @Accept json
// @Produce json
// @Param uid path int true "User ID"
// @Param data body models.ForceBindRequest true "Phone number"
// @Security BearerAuth
// @Success 200 {object} models.Result
// @Failure 400 {object} ErrorResponse
// @Router /admin/phone-verification/user/{uid}/force-bind [post]
func (h *Handler) ForceBindPhone(c *gin.Context) {
	uid, ok := h.uidParam(c)
	if !ok {
		return
	}
	var req models.ForceBindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	result, err := h.service.Registry().Bind(c.Request.Context(), uid, req.PhoneNumber, true, true)
	if err != nil {
		h.logger.Error("force-bind failed", zap.Int64("uid", uid), zap.Error(err))
	}
	if result.Success {
		h.logger.Info("phone force-bound",
			zap.Int64("uid", uid),
			zap.String("phone", observability.MaskPhone(req.PhoneNumber)))
		result.Message = "Phone number bound successfully"
	}
	c.JSON(http.StatusOK, result)
}

// ForceVerifyPhone godoc
// @Summary Force-verify a user
// @Description Marks the user's phone verified without a code; works with no phone bound
// @Tags admin
// @Produce json
// @Param uid path int true "User ID"
// @Security BearerAuth
// @Success 200 {object} models.Result
// @Failure 404 {object} ErrorResponse
// @Router /admin/phone-verification/user/{uid}/force-verify [post]
func (h *Handler) ForceVerifyPhone(c *gin.Context) {
	uid, ok := h.uidParam(c)
	if !ok {
		return
	}
	if err := h.service.Registry().SetVerified(c.Request.Context(), uid, true); err != nil {
		c.JSON(http.StatusOK, models.Fail(models.ErrCodeDBError, "A system error occurred"))
		return
	}
	c.JSON(http.StatusOK, models.Result{Success: true, Message: "User marked as verified"})
}

// ForceUnverifyPhone godoc
// @Summary Revoke a user's verified status
// @Tags admin
// @Produce json
// @Param uid path int true "User ID"
// @Security BearerAuth
// @Success 200 {object} models.Result
// @Failure 404 {object} ErrorResponse
// @Router /admin/phone-verification/user/{uid}/force-unverify [post]
func (h *Handler) ForceUnverifyPhone(c *gin.Context) {
	uid, ok := h.uidParam(c)
	if !ok {
		return
	}
	if err := h.service.Registry().SetVerified(c.Request.Context(), uid, false); err != nil {
		c.JSON(http.StatusOK, models.Fail(models.ErrCodeDBError, "A system error occurred"))
		return
	}
	c.JSON(http.StatusOK, models.Result{Success: true, Message: "Verified status revoked"})
}

// DeleteUserPhone godoc
// @Summary Remove a user's phone binding
// @Description Releases the phone from both indices and clears the profile fields
// @Tags admin
// @Produce json
// @Param uid path int true "User ID"
// @Security BearerAuth
// @Success 200 {object} models.Result
// @Failure 404 {object} ErrorResponse
// @Router /admin/phone-verification/user/{uid}/phone [delete]
func (h *Handler) DeleteUserPhone(c *gin.Context) {
	uid, ok := h.uidParam(c)
	if !ok {
		return
	}
	if err := h.service.Registry().Release(c.Request.Context(), uid); err != nil {
		h.logger.Error("failed to release phone", zap.Int64("uid", uid), zap.Error(err))
		c.JSON(http.StatusOK, models.Fail(models.ErrCodeDBError, "A system error occurred"))
		return
	}
	c.JSON(http.StatusOK, models.Result{Success: true, Message: "Phone number removed"})
}

// GetSettings godoc
// @Summary Read gateway settings
// @Description Returns the voice gateway settings with the API key masked
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} AdminSettingsResponse
// @Failure 500 {object} ErrorResponse
// @Router /admin/phone-verification/settings [get]
func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.service.Settings().Get(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to load settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load settings"})
		return
	}

	resp := AdminSettingsResponse{
		VoiceServerURL:       settings.VoiceServerURL,
		VoiceServerEnabled:   settings.VoiceServerEnabled,
		VoiceTTSMode:         settings.VoiceTTSMode,
		VoiceMessageTemplate: settings.VoiceMessageTemplate,
		BlockUnverifiedUsers: settings.BlockUnverifiedUsers,
	}
	if settings.VoiceServerAPIKey != "" {
		resp.VoiceServerAPIKey = models.MaskedAPIKey
	}
	c.JSON(http.StatusOK, resp)
}

// SaveSettings godoc
// @Summary Save gateway settings
// @Description Persists the voice gateway settings; a masked API key keeps the stored one
// @Tags admin
// @Accept json
// @Produce json
// @Param data body AdminSettingsResponse true "Settings"
// @Security BearerAuth
// @Success 200 {object} models.Result
// @Failure 400 {object} ErrorResponse
// @Router /admin/phone-verification/settings [post]
func (h *Handler) SaveSettings(c *gin.Context) {
	var req AdminSettingsResponse
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	err := h.service.Settings().Save(c.Request.Context(), models.GatewaySettings{
		VoiceServerURL:       req.VoiceServerURL,
		VoiceServerAPIKey:    req.VoiceServerAPIKey,
		VoiceServerEnabled:   req.VoiceServerEnabled,
		VoiceTTSMode:         req.VoiceTTSMode,
		VoiceMessageTemplate: req.VoiceMessageTemplate,
		BlockUnverifiedUsers: req.BlockUnverifiedUsers,
	})
	if err != nil {
		h.logger.Error("failed to save settings", zap.Error(err))
		c.JSON(http.StatusOK, models.Fail(models.ErrCodeDBError, "A system error occurred"))
		return
	}
	c.JSON(http.StatusOK, models.Result{Success: true, Message: "Settings saved"})
}

// TestCall godoc
// @Summary Place a test voice call
// @Description Sends a call with a fixed code to verify the gateway configuration
// @Tags admin
// @Accept json
// @Produce json
// @Param data body models.SendCodeRequest true "Phone number"
// @Security BearerAuth
// @Success 200 {object} models.Result
// @Failure 400 {object} ErrorResponse
// @Router /admin/phone-verification/test-call [post]
func (h *Handler) TestCall(c *gin.Context) {
	var req models.SendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.service.TestCall(c.Request.Context(), req.PhoneNumber))
}
