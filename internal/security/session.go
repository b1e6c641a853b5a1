package security

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
)

// Session IDs have a fixed recognizable shape: the "sess_" prefix followed by
// 32 lowercase hex chars of crypto/rand entropy. Anything else coming from a
// client is discarded, never echoed back.

const sessionIDPrefix = "sess_"

var sessionIDPattern = regexp.MustCompile(`^sess_[0-9a-f]{32}$`)

// NewSessionID generates a fresh unpredictable session id.
func NewSessionID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return sessionIDPrefix + hex.EncodeToString(buf)
}

// ValidSessionID reports whether id matches the expected format.
func ValidSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

// EnsureSessionID returns id when it passes the format check, otherwise a
// freshly generated replacement. An unrecognized session id from the client
// is never trusted.
func EnsureSessionID(id string) string {
	if ValidSessionID(id) {
		return id
	}
	return NewSessionID()
}
