package models

// SendCodeRequest is the body of POST /phone-verification/send-code.
type SendCodeRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

// VerifyCodeRequest is the body of POST /phone-verification/verify-code.
type VerifyCodeRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Code        string `json:"code"`
}

// CheckStatusRequest is the body of POST /phone-verification/check-status.
type CheckStatusRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

// UpdatePhoneRequest is the body of POST /user/:userslug/phone.
type UpdatePhoneRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

// VisibilityRequest is the body of POST /user/:userslug/phone/visibility.
type VisibilityRequest struct {
	ShowPhone bool `json:"showPhone"`
}

// VerifyOwnPhoneRequest is the body of POST /user/:userslug/phone/verify.
type VerifyOwnPhoneRequest struct {
	Code string `json:"code"`
}

// CompleteRegistrationRequest binds a freshly created account to a
// verified phone.
type CompleteRegistrationRequest struct {
	UID         int64  `json:"uid"`
	PhoneNumber string `json:"phoneNumber"`
}

// ForceBindRequest is the admin conflict-resolution bind.
type ForceBindRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

// SendCodeResponse carries the issue outcome. Code is only echoed in
// non-production environments.
type SendCodeResponse struct {
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
	Message       string `json:"message,omitempty"`
	ExpiresAt     int64  `json:"expiresAt,omitempty"`
	VoiceCallSent bool   `json:"voiceCallSent,omitempty"`
	Code          string `json:"_code,omitempty"`
	Phone         string `json:"_phone,omitempty"`
}

// CheckStatusResponse reports whether a phone holds a valid verified
// marker.
type CheckStatusResponse struct {
	Success  bool `json:"success"`
	Verified bool `json:"verified"`
}

// InitiateCallResponse is the caller-ID flow outcome: the code is
// returned so the client can display the number the user should expect.
type InitiateCallResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Code      string `json:"code,omitempty"`
	ExpiresAt int64  `json:"expiresAt,omitempty"`
}
