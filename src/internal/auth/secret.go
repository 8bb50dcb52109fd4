// FILE: logvault/src/internal/auth/secret.go
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const (
	DefaultSecretLength = 32
	minSecretLength     = 16
	maxSecretLength     = 512
)

// GenerateSecret returns a random URL-safe signing key of length bytes
func GenerateSecret(length int) (string, error) {
	if length < minSecretLength {
		return "", fmt.Errorf("secret length must be at least %d bytes", minSecretLength)
	}
	if length > maxSecretLength {
		return "", fmt.Errorf("secret length exceeds maximum (%d bytes)", maxSecretLength)
	}

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(b), nil
}
