package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateID returns a prefixed random identifier such as "post_3f2c...".
func GenerateID(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}

// GenerateRequestID generates the value sent in X-Request-ID.
func GenerateRequestID() string {
	return GenerateID("req")
}

// MaskToken keeps only the tail of a credential for log output.
func MaskToken(token string) string {
	if len(token) <= 6 {
		return "***"
	}
	return "***" + token[len(token)-6:]
}
