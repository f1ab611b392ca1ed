// Package hash provides shared hashing utilities for cache keys and IDs.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// IDLength is the number of hex characters used for truncated hash IDs.
const IDLength = 16

// TruncatedSHA256 returns a 16-character hex prefix of the SHA256 of data.
func TruncatedSHA256(data string) string {
	h := sha256.Sum256([]byte(data))
	return hex.EncodeToString(h[:])[:IDLength]
}

// Key joins parts with a NUL separator and hashes the result, so that
// ("ab", "c") and ("a", "bc") never collide. Secrets such as access tokens
// can be passed as parts without ending up in the key in clear text.
func Key(parts ...string) string {
	return TruncatedSHA256(strings.Join(parts, "\x00"))
}
