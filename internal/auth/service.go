// Copyright (c) 2026 Trackwell Health. All rights reserved.
// Author: platform@trackwell.health

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/trackwell/trackwell/internal/platform/apperr"
	"github.com/trackwell/trackwell/internal/platform/ctxutil"
	"github.com/trackwell/trackwell/internal/platform/sec"
	"github.com/trackwell/trackwell/pkg/emailaddr"
	"github.com/trackwell/trackwell/pkg/uuid"
)

// # Contracts & Types

// TokenProvider defines the contract for signed access tokens.
type TokenProvider interface {
	// Generate creates a signed JWT string for the given identity.
	//
	// # Parameters
	//   - userID: The ID of the account.
	//   - email: The normalized email of the account.
	//   - roles: The role set of the account.
	//   - timeToLive: The duration before the token expires.
	//
	// # Returns
	//   - A signed JWT string, or an err if signing fails.
	Generate(userID, email string, roles []string, timeToLive time.Duration) (string, error)

	// Verify checks the signature and validity of a JWT string,
	// distinguishing sec.ErrTokenExpired from sec.ErrTokenInvalid.
	Verify(tokenString string) (*sec.AuthClaims, error)
}

// PasswordHasher defines the contract for password hashing.
type PasswordHasher interface {
	Hash(plainTextPassword string) (string, error)
}

// Lifetimes groups the configured token durations.
type Lifetimes struct {
	Access       time.Duration
	Refresh      time.Duration
	Reset        time.Duration
	Verification time.Duration
}

// Service implements the credential and token lifecycle use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, rotation,
// or revocation logic must be reviewed by the security team.
type Service struct {
	userRepository  UserRepository
	tokenRepository TokenRepository
	loginLimiter    LoginLimiter
	mailer          Mailer
	tokenProvider   TokenProvider
	hasher          PasswordHasher
	lifetimes       Lifetimes
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	tokenRepo TokenRepository,
	limiter LoginLimiter,
	mailer Mailer,
	tokenProv TokenProvider,
	hasher PasswordHasher,
	lifetimes Lifetimes,
) *Service {
	return &Service{
		userRepository:  userRepo,
		tokenRepository: tokenRepo,
		loginLimiter:    limiter,
		mailer:          mailer,
		tokenProvider:   tokenProv,
		hasher:          hasher,
		lifetimes:       lifetimes,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	DateOfBirth *time.Time
}

/*
Register validates, hashes, and persists a brand new user account.

Description: Enrollment of a new member, handling email normalization,
password hashing, and the initial email-verification token.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - err: Conflict (if the email is taken) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {

	// Emails are unique case-insensitively: normalize before any lookup or write.
	email := emailaddr.Normalize(input.Email)

	// Verify email uniqueness. Only a definitive "not found" may proceed:
	// a lookup transport failure must not be read as "email free", even
	// though the unique index would still catch the duplicate on insert.
	_, err := service.userRepository.FindByEmail(context, email)
	switch {
	case err == nil:
		return nil, apperr.Conflict("Email is already registered")
	case apperr.IsAppError(err):
		// apperr.NotFound: the address is free.
	default:
		return nil, fmt.Errorf("auth_service_register_lookup_failed: %w", err)
	}

	// Prevent storing plain-text passwords.
	hashedPassword, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Construct the new User entity. Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hashedPassword,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		DateOfBirth:  input.DateOfBirth,
		Roles:        sec.DefaultRoles(),
		IsActive:     true,
		IsVerified:   false,
	}

	// Persist the user to the database. The unique index backs the
	// pre-check above against concurrent registrations.
	if err := service.userRepository.Create(context, user); err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	// Issue the verification token and hand it to the mailer. Delivery is
	// best-effort: the account exists either way and the token can be
	// re-requested.
	token, err := service.IssueSingleUseToken(context, user.ID, TokenTypeEmailVerification)
	if err != nil {
		ctxutil.GetLogger(context).WarnContext(context, "verification_token_issue_failed",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	} else if mailErr := service.mailer.SendVerification(context, user.Email, token); mailErr != nil {
		ctxutil.GetLogger(context).WarnContext(context, "verification_email_failed",
			slog.String("user_id", user.ID),
		)
	}

	return user, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string
}

// TokenPair is the access/refresh credential pair returned by login and rotation.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginSession represents a successfully established user session.
type LoginSession struct {
	Tokens TokenPair
	User   *User
}

/*
Login validates user credentials and issues the token pair.

Description: Verifies identity with a constant-time password comparison,
enforces the failed-attempt throttle and the verified-email gate, then
issues a signed access token and a persisted refresh token.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginSession: Transport-ready session credentials
  - err: Unauthorized, Forbidden (unverified), RateLimited, or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginSession, error) {
	email := emailaddr.Normalize(input.Email)

	// Throttle check. Limiter outages fail open: locking every user out
	// because Redis is down is the worse failure.
	limited, err := service.loginLimiter.TooManyFailures(context, email)
	if err != nil {
		ctxutil.GetLogger(context).WarnContext(context, "login_limiter_unavailable",
			slog.String("error", err.Error()),
		)
	} else if limited {
		return nil, apperr.RateLimited(LoginRetryAfterSeconds)
	}

	user, err := service.userRepository.FindByEmail(context, email)

	// Unknown email. Generic message to prevent enumeration.
	if err != nil {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	// Verify password hash using constant-time comparison to prevent timing attacks.
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		if recErr := service.loginLimiter.RecordFailure(context, email); recErr != nil {
			ctxutil.GetLogger(context).WarnContext(context, "login_limiter_record_failed",
				slog.String("error", recErr.Error()),
			)
		}
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	// Deactivated accounts authenticate like unknown ones.
	if !user.IsActive {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	// Valid identity, but the address is unproven: 403, not 401 — the
	// client should offer "resend verification", not "wrong password".
	if !user.IsVerified {
		return nil, apperr.Forbidden("Email address is not verified")
	}

	_ = service.loginLimiter.Clear(context, email)

	tokens, err := service.issueTokenPair(context, user)
	if err != nil {
		return nil, err
	}

	return &LoginSession{Tokens: *tokens, User: user}, nil
}

/*
Logout permanently revokes the presented refresh token.

Description: Idempotent revocation — an unknown, expired, or already-revoked
token is treated as success, and an empty token is a no-op.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - err: Revocation failures
*/
func (service *Service) Logout(context context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	if err := service.tokenRepository.Revoke(context, sec.HashToken(refreshToken)); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	return nil
}

// # Token Issuance & Rotation

/*
IssueRefreshToken mints a new opaque refresh token for the user and persists
its record.

Description: 256 bits of entropy; only the sha256 digest is stored. The raw
value is returned exactly once and never logged.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - string: The raw refresh token
  - err: Generation or storage failures
*/
func (service *Service) IssueRefreshToken(context context.Context, userID string) (string, error) {
	rawToken, err := sec.GenerateSecureToken(OpaqueTokenLength)
	if err != nil {
		return "", fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	record := &Token{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: sec.HashToken(rawToken),
		Type:      TokenTypeRefresh,
		ExpiresAt: time.Now().Add(service.lifetimes.Refresh),
		Revoked:   false,
	}

	if err := service.tokenRepository.Create(context, record); err != nil {
		return "", fmt.Errorf("auth_service_refresh_token_persist_failed: %w", err)
	}

	return rawToken, nil
}

/*
IssueSingleUseToken mints a password-reset or email-verification token.

Description: Enforces the one-active-token-per-type invariant by first
revoking every prior active token of that type for the user, then creating
the replacement. Refresh tokens never pass through here — they have no
uniqueness constraint.

Parameters:
  - context: context.Context
  - userID: string
  - tokenType: TokenType (TokenTypePasswordReset or TokenTypeEmailVerification)

Returns:
  - string: The raw token
  - err: Generation or storage failures
*/
func (service *Service) IssueSingleUseToken(context context.Context, userID string, tokenType TokenType) (string, error) {
	var ttl time.Duration
	switch tokenType {
	case TokenTypePasswordReset:
		ttl = service.lifetimes.Reset
	case TokenTypeEmailVerification:
		ttl = service.lifetimes.Verification
	default:
		return "", fmt.Errorf("auth_service_single_use_token_bad_type: %q", tokenType)
	}

	// Invalidate predecessors before the new token exists: a window with
	// zero active tokens is acceptable, two active ones is not.
	if err := service.tokenRepository.RevokeAllForUser(context, userID, tokenType); err != nil {
		return "", fmt.Errorf("auth_service_single_use_revoke_prior_failed: %w", err)
	}

	rawToken, err := sec.GenerateSecureToken(OpaqueTokenLength)
	if err != nil {
		return "", fmt.Errorf("auth_service_single_use_token_failed: %w", err)
	}

	record := &Token{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: sec.HashToken(rawToken),
		Type:      tokenType,
		ExpiresAt: time.Now().Add(ttl),
		Revoked:   false,
	}

	if err := service.tokenRepository.Create(context, record); err != nil {
		return "", fmt.Errorf("auth_service_single_use_token_persist_failed: %w", err)
	}

	return rawToken, nil
}

/*
RotateRefreshToken implements the refresh token rotation mechanism.

Description: Atomically revokes the presented token (replay mitigation) and
issues a fresh pair. The revoke is conditional on the record still being
active, so two concurrent rotations of the same stale token produce exactly
one winner. Revoke-first ordering is deliberate: a crash between revoke and
issue logs the user out, which is the safe failure direction — it can never
leave two valid children of one parent.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - *TokenPair: New access and refresh tokens
  - err: Unauthorized (invalid/expired/revoked/replayed) or storage failures
*/
func (service *Service) RotateRefreshToken(context context.Context, refreshToken string) (*TokenPair, error) {

	revoked, err := service.tokenRepository.RevokeActive(context, sec.HashToken(refreshToken), TokenTypeRefresh)
	if err != nil {
		if apperr.IsAppError(err) {
			return nil, apperr.Unauthorized("Invalid or expired refresh token")
		}
		return nil, fmt.Errorf("auth_service_rotate_revoke_failed: %w", err)
	}

	user, err := service.userRepository.FindByID(context, revoked.UserID)
	if err != nil || !user.IsActive {
		return nil, apperr.Unauthorized("User not found or suspended")
	}

	return service.issueTokenPair(context, user)
}

// issueTokenPair mints a signed access token and a fresh refresh token.
func (service *Service) issueTokenPair(context context.Context, user *User) (*TokenPair, error) {
	accessToken, err := service.tokenProvider.Generate(user.ID, user.Email, user.Roles, service.lifetimes.Access)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	refreshToken, err := service.IssueRefreshToken(context, user.ID)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// # Access Token Validation

/*
ValidateAccessToken verifies a presented bearer credential.

Description: Signature and clock comparison only — no storage round-trip.
This is the operation behind GET /validate-token, which the gateway calls
for every protected request.

Parameters:
  - context: context.Context
  - rawToken: string

Returns:
  - *sec.AuthClaims: The embedded identity
  - err: Unauthorized, with distinct messages for expired vs malformed
*/
func (service *Service) ValidateAccessToken(context context.Context, rawToken string) (*sec.AuthClaims, error) {
	claims, err := service.tokenProvider.Verify(rawToken)
	if err != nil {
		if errors.Is(err, sec.ErrTokenExpired) {
			return nil, apperr.Unauthorized("Access token expired, please log in again")
		}
		return nil, apperr.Unauthorized("Invalid authentication token")
	}
	return claims, nil
}

// # Password Recovery

/*
RequestPasswordReset initiates the forgot-password flow.

Description: Issues a fresh reset token (revoking any prior one) and hands
it to the mailer. Unknown emails succeed silently to prevent enumeration.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - err: Generation errors
*/
func (service *Service) RequestPasswordReset(context context.Context, email string) error {
	user, err := service.userRepository.FindByEmail(context, emailaddr.Normalize(email))
	if err != nil {
		return nil
	}

	token, err := service.IssueSingleUseToken(context, user.ID, TokenTypePasswordReset)
	if err != nil {
		return fmt.Errorf("auth_service_reset_token_failed: %w", err)
	}

	if mailErr := service.mailer.SendPasswordReset(context, user.Email, token); mailErr != nil {
		ctxutil.GetLogger(context).WarnContext(context, "password_reset_email_failed",
			slog.String("user_id", user.ID),
		)
	}

	return nil
}

/*
ResetPassword completes the forgot-password flow.

Description: Consumes the reset token (single use, conditional revoke),
hashes the new password, updates the account, and revokes every refresh
token the user holds — a credential change invalidates all sessions.

Parameters:
  - context: context.Context
  - token: string
  - newPassword: string

Returns:
  - err: Unauthorized (bad token) or update failures
*/
func (service *Service) ResetPassword(context context.Context, token, newPassword string) error {

	record, err := service.tokenRepository.RevokeActive(context, sec.HashToken(token), TokenTypePasswordReset)
	if err != nil {
		if apperr.IsAppError(err) {
			return apperr.Unauthorized("Reset token is invalid or expired")
		}
		return fmt.Errorf("auth_service_reset_consume_failed: %w", err)
	}

	hashedPassword, err := service.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_reset_password_hash_failed: %w", err)
	}

	if err := service.userRepository.UpdatePassword(context, record.UserID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_reset_password_update_failed: %w", err)
	}

	// Security cleanup: revoke EVERY active session for this user.
	if err := service.tokenRepository.RevokeAllForUser(context, record.UserID, TokenTypeRefresh); err != nil {
		ctxutil.GetLogger(context).WarnContext(context, "reset_session_revoke_failed",
			slog.String("user_id", record.UserID),
		)
	}

	return nil
}

/*
VerifyEmail confirms a user's email address using a verification token.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - err: Unauthorized (bad token) or database errors
*/
func (service *Service) VerifyEmail(context context.Context, token string) error {

	record, err := service.tokenRepository.RevokeActive(context, sec.HashToken(token), TokenTypeEmailVerification)
	if err != nil {
		if apperr.IsAppError(err) {
			return apperr.Unauthorized("Verification token is invalid or expired")
		}
		return fmt.Errorf("auth_service_verify_consume_failed: %w", err)
	}

	if err := service.userRepository.MarkVerified(context, record.UserID); err != nil {
		return fmt.Errorf("auth_service_verify_email_failed: %w", err)
	}

	return nil
}
