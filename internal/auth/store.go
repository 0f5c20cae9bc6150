// Copyright (c) 2026 Trackwell Health. All rights reserved.
// Author: platform@trackwell.health

package auth

import (
	"context"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given (normalized) email.

		Parameters:
		  - context: context.Context
		  - email: string (must already be lowercase-normalized)

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		Create persists a brand-new user account to the storage.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: apperr.Conflict on a duplicate email, or persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		UpdatePassword replaces only the user's password hash.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - newHash: string

		Returns:
		  - error: Persistence failures
	*/
	UpdatePassword(context context.Context, userID, newHash string) error

	/*
		MarkVerified updates the user's status to isverified = true.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	MarkVerified(context context.Context, userID string) error
}

// # Token Data Access

// TokenRepository defines the data access contract for persisted opaque
// token records (refresh, password reset, email verification).
//
// # Invariants
//
// Records are append-and-revoke only: no method updates a revoked record
// back to active, and nothing deletes rows. Expiry is a read-time predicate
// (expiresat > now), not a stored state transition.
type TokenRepository interface {

	/*
		Create persists a new token record.

		Parameters:
		  - context: context.Context
		  - token: *Token

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, token *Token) error

	/*
		RevokeActive atomically revokes the active record matching the given
		hash and type, returning the record it revoked.

		The revocation is conditional on the record still being active
		(not revoked, not expired): of any number of concurrent callers
		presenting the same token, exactly one receives the record — the
		rest get apperr.NotFound. This is the linearization point for
		refresh-token rotation and single-use token consumption.

		Parameters:
		  - context: context.Context
		  - tokenHash: string
		  - tokenType: TokenType

		Returns:
		  - *Token: The record that was just revoked
		  - error: apperr.NotFound if no active match, or execution failures
	*/
	RevokeActive(context context.Context, tokenHash string, tokenType TokenType) (*Token, error)

	/*
		Revoke marks the record with the given hash revoked, regardless of
		type or current state. Idempotent: revoking an already-revoked or
		nonexistent token is not an error.

		Parameters:
		  - context: context.Context
		  - tokenHash: string

		Returns:
		  - error: Execution failures only
	*/
	Revoke(context context.Context, tokenHash string) error

	/*
		RevokeAllForUser revokes every active token of the given type owned
		by the user. Used to enforce the one-active-token invariant for
		reset/verification types and to nuke sessions after a password reset.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - tokenType: TokenType

		Returns:
		  - error: Batch revocation failures
	*/
	RevokeAllForUser(context context.Context, userID string, tokenType TokenType) error
}

// # Login Throttling

// LoginLimiter tracks consecutive failed password attempts per account.
//
// Implementations are best-effort: a limiter backend outage must not lock
// every user out, so callers treat limiter errors as "not limited" and log.
type LoginLimiter interface {

	/*
		TooManyFailures reports whether the account has exceeded the
		failure budget inside the current window.
	*/
	TooManyFailures(context context.Context, email string) (bool, error)

	/*
		RecordFailure increments the failure counter for the account,
		starting the window on the first failure.
	*/
	RecordFailure(context context.Context, email string) error

	/*
		Clear removes the failure counter after a successful login.
	*/
	Clear(context context.Context, email string) error
}
