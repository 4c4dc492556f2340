package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Mobile numbers are stored in national form: a 05 prefix followed by
// eight digits, separators stripped.
var mobilePhoneRegex = regexp.MustCompile(`^05\d{8}$`)

// NormalizePhone strips hyphens and whitespace. It does not validate
// shape, so malformed input surfaces as a validation error downstream
// instead of being silently corrupted. Idempotent.
func NormalizePhone(phone string) string {
	if phone == "" {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', ' ', '\t':
			return -1
		}
		return r
	}, phone)
}

// ValidatePhone reports whether the input, once separators are stripped,
// is a well-formed national mobile number.
func ValidatePhone(phone string) bool {
	if phone == "" {
		return false
	}
	return mobilePhoneRegex.MatchString(NormalizePhone(phone))
}

// PhoneToE164 renders a normalized national number in E.164 form for the
// delivery provider.
func PhoneToE164(phone string) (string, error) {
	num, err := phonenumbers.Parse(phone, "IL")
	if err != nil {
		return "", fmt.Errorf("failed to parse phone number: %w", err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("invalid phone number: %s", phone)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
