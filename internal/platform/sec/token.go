// Copyright (c) 2026 Trackwell Health. All rights reserved.
// Author: platform@trackwell.health

package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// # Opaque Tokens

// GenerateSecureToken returns a URL-safe random token with byteLength bytes
// of entropy (32 bytes = 256 bits, the platform minimum for refresh, reset,
// and verification tokens).
func GenerateSecureToken(byteLength int) (string, error) {
	buffer := make([]byte, byteLength)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec: failed to generate secure token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// HashToken returns the sha256 digest of an opaque token, URL-safe encoded.
//
// Only the digest is ever persisted: a database leak must not hand an
// attacker usable refresh or reset tokens.
func HashToken(rawToken string) string {
	digest := sha256.Sum256([]byte(rawToken))
	return base64.RawURLEncoding.EncodeToString(digest[:])
}
