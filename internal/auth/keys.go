package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// keyPrefixLen is how many characters of the plaintext key are kept for
// display ("cs_" + first 8 hex chars).
const keyPrefixLen = 11

// Hasher computes API key fingerprints. The fingerprint is a SHA-256 hash of
// the plaintext key concatenated with a process-wide secret, so a database
// leak alone is not enough to forge lookups.
type Hasher struct {
	secrets SecretProvider
}

// NewHasher creates a Hasher bound to the given secret provider.
func NewHasher(secrets SecretProvider) *Hasher {
	return &Hasher{secrets: secrets}
}

// Hash returns the hex-encoded fingerprint for a plaintext key.
// Deterministic: same plaintext and secret always yield the same fingerprint.
func (h *Hasher) Hash(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext + h.secrets.APIKeySecret()))
	return hex.EncodeToString(sum[:])
}

// GenerateAPIKey generates a new random API key. The plaintext is returned to
// the caller exactly once; only the fingerprint is stored.
func (h *Hasher) GenerateAPIKey() (key string, hash string, prefix string, err error) {
	// 32 random bytes gives 256 bits of entropy
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", "", err
	}

	key = "cs_" + hex.EncodeToString(bytes)
	hash = h.Hash(key)
	prefix = key[:keyPrefixLen]

	return key, hash, prefix, nil
}
