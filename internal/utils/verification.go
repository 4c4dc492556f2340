package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// GenerateVerificationCode generates a random 6-digit verification code
// from a cryptographically secure source. Three random bytes give 2^24
// values, so the modulo bias over 10^6 is negligible.
func GenerateVerificationCode() (string, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[1:]); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	n := binary.BigEndian.Uint32(buf[:]) % 1000000
	return fmt.Sprintf("%06d", n), nil
}

// HashCode returns the hex SHA-256 digest of a code. Only digests are
// persisted; raw codes never reach the store.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// FormatCodeForSpeech spaces out the digits so TTS engines read them one
// by one. Presentational only.
func FormatCodeForSpeech(code string) string {
	return strings.Join(strings.Split(code, ""), " ")
}
