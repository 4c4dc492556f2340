package models

// Error codes surfaced in verification results. These are business
// outcomes, not faults; handlers translate them to user-facing messages.
const (
	ErrCodePhoneRequired = "PHONE_REQUIRED"
	ErrCodePhoneInvalid  = "PHONE_INVALID"
	ErrCodePhoneExists   = "PHONE_EXISTS"
	ErrCodePhoneBlocked  = "PHONE_BLOCKED"
	ErrCodeNotFound      = "CODE_NOT_FOUND"
	ErrCodeExpired       = "CODE_EXPIRED"
	ErrCodeInvalid       = "CODE_INVALID"
	ErrCodeIPBlocked     = "IP_BLOCKED"
	ErrCodeMissingParams = "MISSING_PARAMS"
	ErrCodeUserNotFound  = "USER_NOT_FOUND"
	ErrCodeNoPhone       = "NO_PHONE"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeNotVerified   = "PHONE_NOT_VERIFIED"
	ErrCodeDBError       = "DB_ERROR"
	ErrCodeServerError   = "SERVER_ERROR"
	ErrCodeVoiceDisabled = "VOICE_SERVER_DISABLED"
	ErrCodeVoiceError    = "VOICE_SERVER_ERROR"
)

// VerificationRecord is the per-phone state of an issued code. All
// timestamps are milliseconds since epoch, matching the store encoding.
type VerificationRecord struct {
	HashedCode   string `json:"hashedCode"`
	Attempts     int    `json:"attempts"`
	CreatedAt    int64  `json:"createdAt"`
	ExpiresAt    int64  `json:"expiresAt"`
	BlockedUntil int64  `json:"blockedUntil"`
}

// Result is the discriminated outcome every core operation returns.
// Expected business failures carry an error code and message instead of
// a Go error.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Ok returns a successful result.
func Ok() Result {
	return Result{Success: true}
}

// Fail returns a failed result with the given code and message.
func Fail(code, message string) Result {
	return Result{Success: false, Error: code, Message: message}
}

// IssueResult is the outcome of issuing a verification code.
type IssueResult struct {
	Result
	ExpiresAt int64 `json:"expiresAt,omitempty"`
}

// Verification configuration defaults (overridable via config).
const (
	VerificationCodeLength = 6
)
