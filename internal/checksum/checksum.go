// Package checksum computes the content digests used for optimistic
// concurrency on entity documents.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Matches reports whether etag, optionally wrapped in ETag quotes, is the
// digest of data.
func Matches(data []byte, etag string) bool {
	return Sum(data) == strings.Trim(etag, `"`)
}
