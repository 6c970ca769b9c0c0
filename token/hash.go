package token

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashID returns the SHA-256 hex digest of a token's jti. Records are keyed
// by this digest so the raw token never reaches storage.
func HashID(jti string) string {
	sum := sha256.Sum256([]byte(jti))
	return hex.EncodeToString(sum[:])
}
