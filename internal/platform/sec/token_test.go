// Copyright (c) 2026 Trackwell Health. All rights reserved.
// Author: platform@trackwell.health

package sec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackwell/trackwell/internal/platform/sec"
)

/*
TestGenerateSecureToken verifies length and uniqueness of opaque tokens.
*/
func TestGenerateSecureToken(t *testing.T) {
	first, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	second, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	// 32 bytes base64url-encoded without padding is 43 characters.
	assert.Len(t, first, 43)
	assert.NotEqual(t, first, second)

	// URL-safe alphabet only: tokens travel in JSON bodies and links.
	assert.NotContains(t, first, "+")
	assert.NotContains(t, first, "/")
	assert.NotContains(t, first, "=")
}

/*
TestHashToken verifies the digest is deterministic and one-way shaped.
*/
func TestHashToken(t *testing.T) {
	raw, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	digest := sec.HashToken(raw)
	assert.Equal(t, digest, sec.HashToken(raw))
	assert.NotEqual(t, raw, digest)
	assert.NotEqual(t, digest, sec.HashToken(raw+"x"))
}
