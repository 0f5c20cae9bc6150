// Copyright (c) 2026 Trackwell Health. All rights reserved.
// Author: platform@trackwell.health

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/trackwell/trackwell/internal/platform/middleware"
	"github.com/trackwell/trackwell/internal/platform/request"
	"github.com/trackwell/trackwell/internal/platform/respond"
	"github.com/trackwell/trackwell/internal/platform/validate"
)

// Handler implements the authentication HTTP endpoints.
//
// # Architecture
//
// Handlers act as the "gatekeepers" to the system. They are responsible for:
//   - JSON request parsing and strict input validation.
//   - Mapping HTTP contexts to service layer method calls.
//   - Standardizing JSON response formats via the [respond] package.
//
// They contain NO business logic or database queries.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication routes.
//
// # Endpoints
//   - POST /register        : Creates a new account.
//   - POST /login           : Authenticates and returns a token pair.
//   - POST /refresh-token   : Rotates a refresh token into a new pair.
//   - POST /forgot-password : Starts the password recovery flow.
//   - POST /reset-password  : Completes the password recovery flow.
//   - POST /verify-email    : Confirms address ownership.
//   - GET  /validate-token  : Verifies a bearer token (authenticated).
//   - POST /logout          : Revokes a refresh token (authenticated).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh-token", handler.refreshToken)
	router.Post("/forgot-password", handler.forgotPassword)
	router.Post("/reset-password", handler.resetPassword)
	router.Post("/verify-email", handler.verifyEmail)

	router.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth)
		protected.Get("/validate-token", handler.validateToken)
		protected.Post("/logout", handler.logout)
	})

	return router
}

// registerRequest represents the JSON payload expected for account creation.
type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth"` // YYYY-MM-DD, optional
}

// register handles POST /api/v1/auth/register requests.
//
// # Returns
//   - Writes HTTP 201 Created on success with the user ID and email.
//   - Writes HTTP 400 Bad Request if validation rules fail.
//   - Writes HTTP 409 Conflict if the email is taken.
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	// ── 1. Payload Extraction ─────────────────────────────────────────────

	var input registerRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 2. Boundary Validation (Explicit & Mandatory) ────────────────────

	validator := &validate.Validator{}
	validator.
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8).
		MaxLen(FieldPassword, input.Password, 72). // bcrypt input ceiling
		MaxLen(FieldFirstName, input.FirstName, 100).
		MaxLen(FieldLastName, input.LastName, 100).
		Date(FieldDateOfBirth, input.DateOfBirth)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	var dateOfBirth *time.Time
	if input.DateOfBirth != "" {
		parsed, _ := time.Parse("2006-01-02", input.DateOfBirth)
		dateOfBirth = &parsed
	}

	// ── 3. Application Execution ──────────────────────────────────────────

	user, err := handler.authService.Register(request.Context(), RegisterInput{
		Email:       input.Email,
		Password:    input.Password,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		DateOfBirth: dateOfBirth,
	})

	// Service handles uniqueness checks and bcrypt hashing. Domain errors
	// map to the correct HTTP status inside the respond helper.
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 4. Presentation Output ────────────────────────────────────────────

	respond.Created(writer, map[string]any{
		"userId": user.ID,
		"email":  user.Email,
	})
}

// loginRequest represents the JSON payload expected for authentication.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// login handles POST /api/v1/auth/login requests.
//
// # Returns
//   - Writes HTTP 200 OK on success with the token pair and user profile.
//   - Writes HTTP 401 Unauthorized for bad credentials.
//   - Writes HTTP 403 Forbidden for unverified accounts.
//   - Writes HTTP 429 Too Many Requests when throttled.
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	// ── 1. Payload Extraction ─────────────────────────────────────────────

	var input loginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 2. Boundary Validation ────────────────────────────────────────────

	if input.Email == "" || input.Password == "" {
		respond.Error(writer, request, validate.RequiredError("email/password", "are required"))
		return
	}

	// ── 3. Application Execution ──────────────────────────────────────────

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Email:    input.Email,
		Password: input.Password,
	})

	if err != nil {
		// Passes through HTTP 401 without leaking the reason (wrong pass vs unknown email).
		respond.Error(writer, request, err)
		return
	}

	// ── 4. Presentation Output ────────────────────────────────────────────

	respond.OK(writer, map[string]any{
		FieldUser: session.User,
		"tokens":  session.Tokens,
	})
}

// refreshRequest carries the opaque refresh token being rotated or revoked.
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// refreshToken handles POST /api/v1/auth/refresh-token requests.
//
// # Returns
//   - Writes HTTP 200 OK with a brand-new token pair.
//   - Writes HTTP 401 Unauthorized if the token is invalid, expired,
//     revoked, or already used (replay).
func (handler *Handler) refreshToken(writer http.ResponseWriter, request *http.Request) {
	// ── 1. Payload Extraction ─────────────────────────────────────────────

	var input refreshRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 2. Boundary Validation ────────────────────────────────────────────

	if input.RefreshToken == "" {
		respond.Error(writer, request, validate.RequiredError(FieldRefreshToken, "is required"))
		return
	}

	// ── 3. Application Execution ──────────────────────────────────────────

	tokens, err := handler.authService.RotateRefreshToken(request.Context(), input.RefreshToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 4. Presentation Output ────────────────────────────────────────────

	respond.OK(writer, map[string]any{"tokens": tokens})
}

// validateToken handles GET /api/v1/auth/validate-token requests.
//
// The gateway calls this endpoint for every protected request it proxies.
// The Authenticate middleware already verified the bearer token (and chose
// the right 401 message for expired vs malformed); this handler only
// surfaces the embedded identity.
//
// # Returns
//   - Writes HTTP 200 OK with the identity claims.
//   - Writes HTTP 401 Unauthorized for missing/expired/malformed tokens.
func (handler *Handler) validateToken(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldUser: map[string]any{
			"userId": claims.UserID,
			"email":  claims.Email,
			"roles":  claims.Roles,
		},
	})
}

// logout handles POST /api/v1/auth/logout requests.
//
// # Returns
//   - Writes HTTP 200 OK always — revocation is idempotent.
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	// ── 1. Payload Extraction ─────────────────────────────────────────────

	// A missing or empty body still logs out: the access token expires on
	// its own and there may be no refresh token to revoke.
	var input refreshRequest
	_ = requestutil.DecodeJSON(request, &input)

	// ── 2. Application Execution ──────────────────────────────────────────

	if err := handler.authService.Logout(request.Context(), input.RefreshToken); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 3. Presentation Output ────────────────────────────────────────────

	respond.OK(writer, map[string]any{FieldMessage: "Logged out"})
}

// forgotPasswordRequest carries the address for password recovery.
type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// forgotPassword handles POST /api/v1/auth/forgot-password requests.
//
// # Returns
//   - Writes HTTP 200 OK regardless of whether the email exists, to
//     prevent account enumeration.
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	// ── 1. Payload Extraction ─────────────────────────────────────────────

	var input forgotPasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 2. Boundary Validation ────────────────────────────────────────────

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 3. Application Execution ──────────────────────────────────────────

	if err := handler.authService.RequestPasswordReset(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 4. Presentation Output ────────────────────────────────────────────

	respond.OK(writer, map[string]any{
		FieldMessage: "If the email exists, a reset link has been sent",
	})
}

// resetPasswordRequest completes the recovery flow.
type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// resetPassword handles POST /api/v1/auth/reset-password requests.
//
// # Returns
//   - Writes HTTP 200 OK on success.
//   - Writes HTTP 401 Unauthorized if the token is invalid or expired.
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	// ── 1. Payload Extraction ─────────────────────────────────────────────

	var input resetPasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 2. Boundary Validation ────────────────────────────────────────────

	validator := &validate.Validator{}
	validator.
		Required(FieldToken, input.Token).
		Required(FieldNewPassword, input.NewPassword).
		MinLen(FieldNewPassword, input.NewPassword, 8).
		MaxLen(FieldNewPassword, input.NewPassword, 72)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 3. Application Execution ──────────────────────────────────────────

	if err := handler.authService.ResetPassword(request.Context(), input.Token, input.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 4. Presentation Output ────────────────────────────────────────────

	respond.OK(writer, map[string]any{FieldMessage: "Password has been reset"})
}

// verifyEmailRequest carries the verification token.
type verifyEmailRequest struct {
	Token string `json:"token"`
}

// verifyEmail handles POST /api/v1/auth/verify-email requests.
//
// # Returns
//   - Writes HTTP 200 OK once the address is confirmed.
//   - Writes HTTP 401 Unauthorized if the token is invalid or expired.
func (handler *Handler) verifyEmail(writer http.ResponseWriter, request *http.Request) {
	// ── 1. Payload Extraction ─────────────────────────────────────────────

	var input verifyEmailRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 2. Boundary Validation ────────────────────────────────────────────

	if input.Token == "" {
		respond.Error(writer, request, validate.RequiredError(FieldToken, "is required"))
		return
	}

	// ── 3. Application Execution ──────────────────────────────────────────

	if err := handler.authService.VerifyEmail(request.Context(), input.Token); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 4. Presentation Output ────────────────────────────────────────────

	respond.OK(writer, map[string]any{FieldMessage: "Email verified"})
}
