package secrets

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// VerifyPassword reports whether candidate matches stored. If stored
// looks like a bcrypt hash (the "$2" prefix) it's compared with
// bcrypt; otherwise it's compared in constant time as a plaintext
// secret, e.g. one sourced straight from an environment variable.
func VerifyPassword(stored, candidate string) bool {
	if stored == "" {
		return false
	}
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
}

// VerifyToken reports whether candidate matches the configured static
// token, using a constant-time comparison to avoid timing side
// channels on the health endpoint.
func VerifyToken(stored, candidate string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
}
