package services

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// PhotoETag returns a strong entity tag for photo bytes
func PhotoETag(data []byte) string {
	h := sha256.Sum256(data)
	return `"` + hex.EncodeToString(h[:]) + `"`
}

// ETagMatches reports whether an If-None-Match header value matches etag.
// Weak validators compare equal to their strong form.
func ETagMatches(ifNoneMatch, etag string) bool {
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		candidate = strings.TrimPrefix(candidate, "W/")
		if candidate != "" && candidate == etag {
			return true
		}
	}
	return false
}
