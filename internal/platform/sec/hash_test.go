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
TestPasswordHasher_RoundTrip verifies hashing and checking a password.
*/
func TestPasswordHasher_RoundTrip(t *testing.T) {
	// Minimum cost keeps the test fast.
	hasher := sec.NewPasswordHasher(4)

	hash, err := hasher.Hash("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	// The plain text must never survive into the hash.
	assert.NotContains(t, hash, "correct horse")

	assert.True(t, sec.CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, sec.CheckPasswordHash("wrong password", hash))
}

/*
TestPasswordHasher_UniqueSalt verifies two hashes of the same input differ.
*/
func TestPasswordHasher_UniqueSalt(t *testing.T) {
	hasher := sec.NewPasswordHasher(4)

	first, err := hasher.Hash("same-password")
	require.NoError(t, err)
	second, err := hasher.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

/*
TestPasswordHasher_CostOutOfRange verifies the constructor falls back to a
sane default instead of producing a broken hasher.
*/
func TestPasswordHasher_CostOutOfRange(t *testing.T) {
	hasher := sec.NewPasswordHasher(99)

	hash, err := hasher.Hash("any-password")
	require.NoError(t, err)
	assert.True(t, sec.CheckPasswordHash("any-password", hash))
}

/*
TestCheckPasswordHash_NotAHash verifies garbage stored hashes never match.
*/
func TestCheckPasswordHash_NotAHash(t *testing.T) {
	assert.False(t, sec.CheckPasswordHash("password", "not-a-bcrypt-hash"))
	assert.False(t, sec.CheckPasswordHash("password", ""))
}
