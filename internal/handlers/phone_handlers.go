package handlers

import (
	"net/http"

	"github.com/forumhub/phone-verification/internal/middleware"
	"github.com/forumhub/phone-verification/internal/models"
	"github.com/forumhub/phone-verification/internal/observability"
	"github.com/forumhub/phone-verification/internal/userdir"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserPhoneResponse is the profile view of a phone binding. Fields are
// trimmed down for viewers who are neither the owner nor an admin.
type UserPhoneResponse struct {
	UID             int64  `json:"uid"`
	Phone           string `json:"phone,omitempty"`
	PhoneVerified   bool   `json:"phoneVerified"`
	PhoneVerifiedAt int64  `json:"phoneVerifiedAt,omitempty"`
	ShowPhone       bool   `json:"showPhone,omitempty"`
}

// resolveUser maps the userslug path parameter to a uid and reports
// whether the requester owns the profile or is an admin.
func (h *Handler) resolveUser(c *gin.Context) (uid int64, owner, admin bool, ok bool) {
	slug := c.Param("userslug")
	uid, err := h.users.GetUIDBySlug(c.Request.Context(), slug)
	if err != nil {
		h.logger.Error("failed to resolve userslug", zap.String("userslug", slug), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to resolve user"})
		return 0, false, false, false
	}
	if uid == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
		return 0, false, false, false
	}

	requester, err := middleware.UIDFromToken(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid token"})
		return 0, false, false, false
	}
	admin, _ = middleware.IsAdmin(c)
	return uid, requester == uid, admin, true
}

// GetUserPhone godoc
// @Summary Get a user's phone binding
// @Description Returns the phone state for a profile, trimmed by visibility rules
// @Tags profile
// @Produce json
// @Param userslug path string true "User slug"
// @Security BearerAuth
// @Success 200 {object} UserPhoneResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /user/{userslug}/phone [get]
func (h *Handler) GetUserPhone(c *gin.Context) {
	uid, owner, admin, ok := h.resolveUser(c)
	if !ok {
		return
	}

	phone, err := h.service.Registry().GetUserPhone(c.Request.Context(), uid)
	if err != nil {
		h.logger.Error("failed to load user phone", zap.Int64("uid", uid), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load phone state"})
		return
	}

	resp := UserPhoneResponse{UID: uid}
	if phone != nil {
		resp.PhoneVerified = phone.PhoneVerified
	}

	fields, err := h.users.GetUserFields(c.Request.Context(), uid, []string{userdir.FieldShowPhone})
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load phone state"})
		return
	}
	showPhone := fields[userdir.FieldShowPhone] == "1"

	if owner || admin {
		if phone != nil {
			resp.Phone = phone.Phone
			resp.PhoneVerifiedAt = phone.PhoneVerifiedAt
		}
		resp.ShowPhone = showPhone
	} else if showPhone && phone != nil {
		resp.Phone = phone.Phone
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateUserPhone godoc
// @Summary Save a user's phone number
// @Description Stores a new unverified phone on the profile; empty removes the binding
// @Tags profile
// @Accept json
// @Produce json
// @Param userslug path string true "User slug"
// @Param data body models.UpdatePhoneRequest true "Phone number"
// @Security BearerAuth
// @Success 200 {object} models.Result
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /user/{userslug}/phone [post]
func (h *Handler) UpdateUserPhone(c *gin.Context) {
	uid, owner, admin, ok := h.resolveUser(c)
	if !ok {
		return
	}
	if !owner && !admin {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Access denied"})
		return
	}

	var req models.UpdatePhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	result := h.service.UpdateUserPhone(c.Request.Context(), uid, req.PhoneNumber)
	if result.Success {
		h.logger.Info("phone binding updated",
			zap.Int64("uid", uid),
			zap.String("phone", observability.MaskPhone(req.PhoneNumber)))
	}
	c.JSON(http.StatusOK, result)
}

// SetPhoneVisibility godoc
// @Summary Set phone visibility
// @Description Toggles whether the phone number appears on the public profile
// @Tags profile
// @Accept json
// @Produce json
// @Param userslug path string true "User slug"
// @Param data body models.VisibilityRequest true "Visibility flag"
// @Security BearerAuth
// @Success 200 {object} models.Result
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /user/{userslug}/phone/visibility [post]
func (h *Handler) SetPhoneVisibility(c *gin.Context) {
	uid, owner, admin, ok := h.resolveUser(c)
	if !ok {
		return
	}
	if !owner && !admin {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Access denied"})
		return
	}

	var req models.VisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	value := "0"
	if req.ShowPhone {
		value = "1"
	}
	if err := h.users.SetUserFields(c.Request.Context(), uid, map[string]string{userdir.FieldShowPhone: value}); err != nil {
		c.JSON(http.StatusOK, models.Fail(models.ErrCodeDBError, "A system error occurred"))
		return
	}
	c.JSON(http.StatusOK, models.Result{Success: true, Message: "Visibility updated"})
}

// VerifyOwnPhone godoc
// @Summary Verify the saved phone
// @Description Validates a code against the user's saved phone and flips the verified flag
// @Tags profile
// @Accept json
// @Produce json
// @Param userslug path string true "User slug"
// @Param data body models.VerifyOwnPhoneRequest true "Verification code"
// @Security BearerAuth
// @Success 200 {object} models.Result
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /user/{userslug}/phone/verify [post]
func (h *Handler) VerifyOwnPhone(c *gin.Context) {
	uid, owner, admin, ok := h.resolveUser(c)
	if !ok {
		return
	}
	if !owner && !admin {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Access denied"})
		return
	}

	var req models.VerifyOwnPhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.service.VerifyUserPhone(c.Request.Context(), uid, req.Code))
}
