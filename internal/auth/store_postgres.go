// Copyright (c) 2026 Trackwell Health. All rights reserved.
// Author: platform@trackwell.health

// PostgreSQL implementations of the auth domain repositories.
//
// # Error Mapping
//
// Storage-specific errors (like pgx.ErrNoRows) are mapped to domain-friendly
// [apperr.AppError] types to avoid leaking storage implementation details.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trackwell/trackwell/internal/platform/apperr"
	"github.com/trackwell/trackwell/internal/platform/dberr"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

/*
Create persists a new user record into the auth.account table.

Description: Deep-persists account metadata, ensuring timestamps are
initialized if not provided. A duplicate email surfaces as apperr.Conflict
via the unique constraint rather than a racy pre-check.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: apperr.Conflict on duplicate email, or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO auth.account (
			id, email, passwordhash, firstname, lastname, dateofbirth, roles, isactive, isverified, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.DateOfBirth,
		user.Roles,
		user.IsActive,
		user.IsVerified,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Email is already registered")
		}
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByEmail retrieves a user record by their unique email address.

Description: Lookup on the account table. The caller must normalize the
email first (emailaddr.Normalize); the column stores lowercase only.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	const query = `
		SELECT id, email, passwordhash, firstname, lastname, dateofbirth, roles, isactive, isverified, createdat, updatedat
		FROM auth.account
		WHERE email = $1`

	user := &User{}
	err := repository.pool.QueryRow(context, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.DateOfBirth,
		&user.Roles,
		&user.IsActive,
		&user.IsVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_email_failed: %w", err)
	}

	return user, nil
}

/*
FindByID retrieves a user record by their unique ID.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	const query = `
		SELECT id, email, passwordhash, firstname, lastname, dateofbirth, roles, isactive, isverified, createdat, updatedat
		FROM auth.account
		WHERE id = $1`

	user := &User{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.DateOfBirth,
		&user.Roles,
		&user.IsActive,
		&user.IsVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

/*
UpdatePassword updates only the password hash for a specific user.

Parameters:
  - context: context.Context
  - userID: string
  - newHash: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) UpdatePassword(context context.Context, userID, newHash string) error {
	const query = `
		UPDATE auth.account
		SET passwordhash = $2, updatedat = $3
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query, userID, newHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_password_failed: %w", err)
	}

	return nil
}

/*
MarkVerified updates the user's status to isverified = true.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Database errors
*/
func (repository *PostgresUserRepository) MarkVerified(context context.Context, userID string) error {
	const query = "UPDATE auth.account SET isverified = TRUE, updatedat = $2 WHERE id = $1"
	_, err := repository.pool.Exec(context, query, userID, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_mark_verified_failed: %w", err)
	}
	return nil
}

// # Token Repository

// PostgresTokenRepository implements the TokenRepository interface.
type PostgresTokenRepository struct {
	pool *pgxpool.Pool
}

// NewTokenRepository creates a new PostgreSQL implementation of TokenRepository.
func NewTokenRepository(pool *pgxpool.Pool) *PostgresTokenRepository {
	return &PostgresTokenRepository{pool: pool}
}

/*
Create persists a new token record into the auth.token table.

Parameters:
  - context: context.Context
  - token: *Token

Returns:
  - error: Storage failures
*/
func (repository *PostgresTokenRepository) Create(context context.Context, token *Token) error {
	const query = `
		INSERT INTO auth.token (
			id, userid, tokenhash, type, expiresat, revoked, createdat
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(context, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.Type,
		token.ExpiresAt,
		token.Revoked,
		token.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_token_repo_create_failed: %w", err)
	}

	return nil
}

/*
RevokeActive atomically revokes the single active record matching hash+type.

Description: The guarded UPDATE is the rotation linearization point: the
WHERE clause re-checks "not revoked, not expired" so that of two concurrent
rotations presenting the same stale token, exactly one row transition
happens. Zero rows updated means the token was never issued, already spent,
or expired — indistinguishable by design, all reported as apperr.NotFound.

Parameters:
  - context: context.Context
  - tokenHash: string
  - tokenType: TokenType

Returns:
  - *Token: The record as it was just revoked
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresTokenRepository) RevokeActive(context context.Context, tokenHash string, tokenType TokenType) (*Token, error) {
	const query = `
		UPDATE auth.token
		SET revoked = TRUE
		WHERE tokenhash = $1 AND type = $2 AND revoked = FALSE AND expiresat > NOW()
		RETURNING id, userid, tokenhash, type, expiresat, revoked, createdat`

	token := &Token{}
	err := repository.pool.QueryRow(context, query, tokenHash, tokenType).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.Type,
		&token.ExpiresAt,
		&token.Revoked,
		&token.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Token")
		}
		return nil, fmt.Errorf("postgres_token_repo_revoke_active_failed: %w", err)
	}

	return token, nil
}

/*
Revoke marks the record with the given hash revoked. Idempotent: a missing
or already-revoked record is success.

Parameters:
  - context: context.Context
  - tokenHash: string

Returns:
  - error: Execution failures only
*/
func (repository *PostgresTokenRepository) Revoke(context context.Context, tokenHash string) error {
	const query = "UPDATE auth.token SET revoked = TRUE WHERE tokenhash = $1"
	_, err := repository.pool.Exec(context, query, tokenHash)
	if err != nil {
		return fmt.Errorf("postgres_token_repo_revoke_failed: %w", err)
	}
	return nil
}

/*
RevokeAllForUser revokes every active token of the given type for a user.

Parameters:
  - context: context.Context
  - userID: string
  - tokenType: TokenType

Returns:
  - error: Batch revocation failures
*/
func (repository *PostgresTokenRepository) RevokeAllForUser(context context.Context, userID string, tokenType TokenType) error {
	const query = "UPDATE auth.token SET revoked = TRUE WHERE userid = $1 AND type = $2 AND revoked = FALSE"
	_, err := repository.pool.Exec(context, query, userID, tokenType)
	if err != nil {
		return fmt.Errorf("postgres_token_repo_revoke_all_failed: %w", err)
	}
	return nil
}
