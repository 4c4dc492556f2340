package handlers

import (
	"net/http"

	"github.com/forumhub/phone-verification/internal/middleware"
	"github.com/forumhub/phone-verification/internal/models"
	"github.com/gin-gonic/gin"
)

// Business failures are reported with HTTP 200 and success=false; error
// statuses are reserved for malformed requests and faults. Clients
// branch on the error code, not the status line.

// SendCode godoc
// @Summary Send a verification code
// @Description Issues a one-time code for the phone and delivers it by voice call
// @Tags verification
// @Accept json
// @Produce json
// @Param data body models.SendCodeRequest true "Phone number"
// @Success 200 {object} models.SendCodeResponse
// @Failure 400 {object} ErrorResponse
// @Router /phone-verification/send-code [post]
func (h *Handler) SendCode(c *gin.Context) {
	var req models.SendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.service.SendCode(c.Request.Context(), c.ClientIP(), req.PhoneNumber))
}

// VerifyCode godoc
// @Summary Verify a code
// @Description Checks a submitted code against the issued one and marks the phone verified
// @Tags verification
// @Accept json
// @Produce json
// @Param data body models.VerifyCodeRequest true "Phone number and code"
// @Success 200 {object} models.Result
// @Failure 400 {object} ErrorResponse
// @Router /phone-verification/verify-code [post]
func (h *Handler) VerifyCode(c *gin.Context) {
	var req models.VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.service.VerifyCode(c.Request.Context(), req.PhoneNumber, req.Code))
}

// InitiateCall godoc
// @Summary Start a caller-ID verification call
// @Description Places a call whose calling number carries the verification code
// @Tags verification
// @Accept json
// @Produce json
// @Param data body models.SendCodeRequest true "Phone number"
// @Success 200 {object} models.InitiateCallResponse
// @Failure 400 {object} ErrorResponse
// @Router /phone-verification/initiate-call [post]
func (h *Handler) InitiateCall(c *gin.Context) {
	var req models.SendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.service.InitiateCall(c.Request.Context(), c.ClientIP(), req.PhoneNumber))
}

// CheckStatus godoc
// @Summary Check phone verification status
// @Description Reports whether the phone currently holds a valid verified marker
// @Tags verification
// @Accept json
// @Produce json
// @Param data body models.CheckStatusRequest true "Phone number"
// @Success 200 {object} models.CheckStatusResponse
// @Failure 400 {object} ErrorResponse
// @Router /phone-verification/check-status [post]
func (h *Handler) CheckStatus(c *gin.Context) {
	var req models.CheckStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.service.CheckStatus(c.Request.Context(), req.PhoneNumber))
}

// CheckRegistration godoc
// @Summary Gate-check a registration attempt
// @Description Verifies the phone is valid, unbound and verified before account creation
// @Tags registration
// @Accept json
// @Produce json
// @Param data body models.CheckStatusRequest true "Phone number"
// @Success 200 {object} models.Result
// @Failure 400 {object} ErrorResponse
// @Router /phone-verification/check-registration [post]
func (h *Handler) CheckRegistration(c *gin.Context) {
	var req models.CheckStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.service.CheckRegistration(c.Request.Context(), req.PhoneNumber))
}

// CompleteRegistration godoc
// @Summary Bind a new account to its verified phone
// @Description Called by the forum host after account creation to persist the phone binding
// @Tags registration
// @Accept json
// @Produce json
// @Param data body models.CompleteRegistrationRequest true "UID and phone number"
// @Security BearerAuth
// @Success 200 {object} models.Result
// @Failure 400 {object} ErrorResponse
// @Router /phone-verification/complete-registration [post]
func (h *Handler) CompleteRegistration(c *gin.Context) {
	var req models.CompleteRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}
	if req.UID <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "uid is required"})
		return
	}
	c.JSON(http.StatusOK, h.service.CompleteRegistration(c.Request.Context(), req.UID, req.PhoneNumber))
}

// CanPost godoc
// @Summary Check posting eligibility
// @Description Reports whether the authenticated user passes the verified-phone posting gate
// @Tags verification
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Result
// @Failure 401 {object} ErrorResponse
// @Router /phone-verification/can-post [get]
func (h *Handler) CanPost(c *gin.Context) {
	uid, err := middleware.UIDFromToken(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid token"})
		return
	}
	c.JSON(http.StatusOK, h.service.CanPost(c.Request.Context(), uid))
}
