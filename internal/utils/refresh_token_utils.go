package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashRefreshToken hashes a raw refresh token with SHA-256 for storage. Only
// the hash is persisted on the user row; the raw token exists client-side.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// CompareRefreshTokenHash reports whether a raw refresh token matches the
// stored hash.
func CompareRefreshTokenHash(token string, storedHash string) bool {
	return HashRefreshToken(token) == storedHash
}
