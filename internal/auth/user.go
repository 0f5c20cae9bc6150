// Copyright (c) 2026 Trackwell Health. All rights reserved.
// Author: platform@trackwell.health

/*
Package auth implements the credential and token lifecycle core.

It defines the domain entities (User, Token) and the logic for registration,
authentication, token issuance, rotation, and revocation.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no
transport or storage dependencies and encapsulate all business rules related
to user identity. The gateway never duplicates this logic — it delegates
every verification to this service over the network.
*/
package auth

import (
	"time"
)

// # Domain Entities

// User represents a registered member of the Trackwell platform.
//
// The email is stored lowercase (see pkg/emailaddr) and is unique
// case-insensitively. The password hash is never serialized.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty"`
	Roles        []string   `json:"roles"`
	IsActive     bool       `json:"is_active"`
	IsVerified   bool       `json:"is_verified"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// # Token Records

// TokenType discriminates the persisted opaque token kinds.
type TokenType string

const (
	// TokenTypeRefresh is a long-lived, single-use session credential.
	// A user may hold several at once (one per device/session).
	TokenTypeRefresh TokenType = "refresh"

	// TokenTypePasswordReset is a short-lived recovery credential.
	// At most one may be active per user.
	TokenTypePasswordReset TokenType = "password_reset"

	// TokenTypeEmailVerification confirms address ownership.
	// At most one may be active per user.
	TokenTypeEmailVerification TokenType = "email_verification"
)

// Token is the persistent record of an issued opaque token.
//
// Only the sha256 digest of the opaque value is stored. Records are never
// physically deleted — revocation is the only mutation, and expiry is
// enforced at read time against ExpiresAt. The table doubles as an audit
// trail of every issuance event.
type Token struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	Type      TokenType `json:"type"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	Revoked   bool      `json:"revoked"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the auth domain.
const (
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldFirstName    = "first_name"
	FieldLastName     = "last_name"
	FieldDateOfBirth  = "date_of_birth"
	FieldToken        = "token"
	FieldRefreshToken = "refreshToken"
	FieldNewPassword  = "new_password"
	FieldAccessToken  = "access_token"
	FieldUser         = "user"
	FieldMessage      = "message"
)
