package observability

import (
	"github.com/forumhub/phone-verification/internal/logging"
)

// Logger returns the global safe logger instance
func Logger() *logging.SafeLogger {
	return logging.Logger
}

// MaskPhone masks a phone number for logging, keeping the prefix and the
// last two digits.
func MaskPhone(phone string) string {
	if len(phone) < 6 {
		return "**********"
	}
	return phone[:2] + "******" + phone[len(phone)-2:]
}

// MaskSensitiveData masks sensitive fields in a map before logging
func MaskSensitiveData(data map[string]interface{}) map[string]interface{} {
	sensitiveFields := []string{"phoneNumber", "phone", "code", "hashedCode"}
	masked := make(map[string]interface{})

	for k, v := range data {
		if contains(sensitiveFields, k) {
			masked[k] = "********"
		} else {
			masked[k] = v
		}
	}

	return masked
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
