// Copyright (c) 2026 Trackwell Health. All rights reserved.
// Author: platform@trackwell.health

package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/trackwell/trackwell/internal/auth"
	"github.com/trackwell/trackwell/internal/platform/apperr"
)

// # In-Memory Repositories
//
// These fakes mirror the PostgreSQL semantics the service depends on:
// unique emails, conditional revocation as the single linearization point,
// and append-and-revoke-only token records.

type memoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*auth.User // keyed by ID
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: make(map[string]*auth.User)}
}

func (repo *memoryUserRepository) Create(_ context.Context, user *auth.User) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, existing := range repo.users {
		if existing.Email == user.Email {
			return apperr.Conflict("Email is already registered")
		}
	}
	clone := *user
	repo.users[user.ID] = &clone
	return nil
}

func (repo *memoryUserRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	user, ok := repo.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	clone := *user
	return &clone, nil
}

func (repo *memoryUserRepository) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, user := range repo.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *memoryUserRepository) UpdatePassword(_ context.Context, userID, newHash string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if user, ok := repo.users[userID]; ok {
		user.PasswordHash = newHash
	}
	return nil
}

func (repo *memoryUserRepository) MarkVerified(_ context.Context, userID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if user, ok := repo.users[userID]; ok {
		user.IsVerified = true
	}
	return nil
}

type memoryTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]*auth.Token // keyed by hash
}

func newMemoryTokenRepository() *memoryTokenRepository {
	return &memoryTokenRepository{tokens: make(map[string]*auth.Token)}
}

func (repo *memoryTokenRepository) Create(_ context.Context, token *auth.Token) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	clone := *token
	repo.tokens[token.TokenHash] = &clone
	return nil
}

func (repo *memoryTokenRepository) RevokeActive(_ context.Context, tokenHash string, tokenType auth.TokenType) (*auth.Token, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	token, ok := repo.tokens[tokenHash]
	if !ok || token.Type != tokenType || token.Revoked || !token.ExpiresAt.After(time.Now()) {
		return nil, apperr.NotFound("Token")
	}
	token.Revoked = true
	clone := *token
	return &clone, nil
}

func (repo *memoryTokenRepository) Revoke(_ context.Context, tokenHash string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if token, ok := repo.tokens[tokenHash]; ok {
		token.Revoked = true
	}
	return nil
}

func (repo *memoryTokenRepository) RevokeAllForUser(_ context.Context, userID string, tokenType auth.TokenType) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, token := range repo.tokens {
		if token.UserID == userID && token.Type == tokenType {
			token.Revoked = true
		}
	}
	return nil
}

// activeCount reports how many unexpired, unrevoked tokens of the given
// type the user currently holds.
func (repo *memoryTokenRepository) activeCount(userID string, tokenType auth.TokenType) int {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	count := 0
	for _, token := range repo.tokens {
		if token.UserID == userID && token.Type == tokenType && !token.Revoked && token.ExpiresAt.After(time.Now()) {
			count++
		}
	}
	return count
}

// # Login Limiter Fake

type memoryLoginLimiter struct {
	mu       sync.Mutex
	failures map[string]int
	broken   bool // simulate a Redis outage
}

func newMemoryLoginLimiter() *memoryLoginLimiter {
	return &memoryLoginLimiter{failures: make(map[string]int)}
}

func (limiter *memoryLoginLimiter) TooManyFailures(_ context.Context, email string) (bool, error) {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if limiter.broken {
		return false, errContext("limiter down")
	}
	return limiter.failures[email] >= auth.MaxLoginFailures, nil
}

func (limiter *memoryLoginLimiter) RecordFailure(_ context.Context, email string) error {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if limiter.broken {
		return errContext("limiter down")
	}
	limiter.failures[email]++
	return nil
}

func (limiter *memoryLoginLimiter) Clear(_ context.Context, email string) error {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	delete(limiter.failures, email)
	return nil
}

type errContext string

func (e errContext) Error() string { return string(e) }

// faultyUserRepository simulates a database outage on email lookups.
type faultyUserRepository struct {
	*memoryUserRepository
}

func (repo *faultyUserRepository) FindByEmail(_ context.Context, _ string) (*auth.User, error) {
	return nil, errContext("connection refused")
}

// # Mailer Fake

// captureMailer records the raw tokens handed to it so tests can complete
// the verification and reset flows end to end.
type captureMailer struct {
	mu                sync.Mutex
	verificationToken string
	resetToken        string
	sentVerifications int
	sentResets        int
}

func (mailer *captureMailer) SendVerification(_ context.Context, email, token string) error {
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	mailer.verificationToken = token
	mailer.sentVerifications++
	return nil
}

func (mailer *captureMailer) SendPasswordReset(_ context.Context, email, token string) error {
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	mailer.resetToken = token
	mailer.sentResets++
	return nil
}

func (mailer *captureMailer) lastVerification() string {
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	return mailer.verificationToken
}

func (mailer *captureMailer) lastReset() string {
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	return mailer.resetToken
}
