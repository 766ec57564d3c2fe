// Package checksum computes the content digests used for change detection
// and optimistic concurrency.
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

// Matches reports whether tag names the digest of data. tag may be a bare
// digest or an entity tag, weak or strong; "*" matches anything.
func Matches(tag string, data []byte) bool {
	tag = strings.TrimSpace(tag)
	if tag == "*" {
		return true
	}
	tag = strings.Trim(strings.TrimPrefix(tag, "W/"), `"`)
	return tag == Sum(data)
}
