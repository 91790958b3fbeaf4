// Package sha256 fingerprints rendered output for HTTP caching.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex SHA-256 digest of data.
func Sum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ETag returns a strong entity tag for data.
func ETag(data []byte) string {
	return `"` + Sum(data) + `"`
}
