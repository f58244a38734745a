package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken hashes a secret before it is used as a storage key so raw codes and
// tokens never sit in a cache or database.
func HashToken(token string) string {
	hashedBytes := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hashedBytes[:])
}
