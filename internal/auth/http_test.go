// Copyright (c) 2026 Trackwell Health. All rights reserved.
// Author: platform@trackwell.health

package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackwell/trackwell/internal/auth"
	"github.com/trackwell/trackwell/internal/platform/middleware"
	"github.com/trackwell/trackwell/internal/platform/sec"
)

// handlerFixture boots the real route table behind an httptest server.
type handlerFixture struct {
	*serviceFixture
	server *httptest.Server
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	fixture := newServiceFixture(t)
	handler := auth.NewHandler(fixture.service)

	tokenService, err := sec.NewTokenService(fixture.jwtSecret, "trackwell.health")
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Use(middleware.Authenticate(tokenService))
	router.Mount("/api/v1/auth", handler.Routes())

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &handlerFixture{serviceFixture: fixture, server: server}
}

// postJSON issues a POST with a JSON body and optional bearer token.
func (fixture *handlerFixture) postJSON(t *testing.T, path, bearer string, payload any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	request, err := http.NewRequest(http.MethodPost, fixture.server.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	request.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		request.Header.Set("Authorization", "Bearer "+bearer)
	}

	response, err := fixture.server.Client().Do(request)
	require.NoError(t, err)
	return response
}

func (fixture *handlerFixture) get(t *testing.T, path, bearer string) *http.Response {
	t.Helper()

	request, err := http.NewRequest(http.MethodGet, fixture.server.URL+path, nil)
	require.NoError(t, err)
	if bearer != "" {
		request.Header.Set("Authorization", "Bearer "+bearer)
	}

	response, err := fixture.server.Client().Do(request)
	require.NoError(t, err)
	return response
}

// decodeData unwraps the {"data": ...} success envelope into target.
func decodeData(t *testing.T, response *http.Response, target any) {
	t.Helper()
	defer response.Body.Close()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(response.Body).Decode(&envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, target))
}

func decodeError(t *testing.T, response *http.Response) (message, code string) {
	t.Helper()
	defer response.Body.Close()

	var envelope struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(response.Body).Decode(&envelope))
	return envelope.Error, envelope.Code
}

/*
TestHandler_FullLifecycle walks a member through the whole credential
lifecycle over HTTP: register, verify, login, validate, rotate, logout.
*/
func TestHandler_FullLifecycle(t *testing.T) {
	fixture := newHandlerFixture(t)

	// ── Register ─────────────────────────────────────────────────────────
	response := fixture.postJSON(t, "/api/v1/auth/register", "", map[string]string{
		"email":      "alice@trackwell.health",
		"password":   "hunter2-long",
		"first_name": "Alice",
		"last_name":  "Nguyen",
	})
	require.Equal(t, http.StatusCreated, response.StatusCode)

	var created struct {
		UserID string `json:"userId"`
		Email  string `json:"email"`
	}
	decodeData(t, response, &created)
	assert.NotEmpty(t, created.UserID)
	assert.Equal(t, "alice@trackwell.health", created.Email)

	// ── Verify Email ─────────────────────────────────────────────────────
	response = fixture.postJSON(t, "/api/v1/auth/verify-email", "", map[string]string{
		"token": fixture.mailer.lastVerification(),
	})
	require.Equal(t, http.StatusOK, response.StatusCode)
	response.Body.Close()

	// ── Login ────────────────────────────────────────────────────────────
	response = fixture.postJSON(t, "/api/v1/auth/login", "", map[string]string{
		"email":    "alice@trackwell.health",
		"password": "hunter2-long",
	})
	require.Equal(t, http.StatusOK, response.StatusCode)

	var session struct {
		Tokens struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		} `json:"tokens"`
		User struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	decodeData(t, response, &session)
	require.NotEmpty(t, session.Tokens.AccessToken)
	require.NotEmpty(t, session.Tokens.RefreshToken)
	assert.Equal(t, created.UserID, session.User.ID)

	// ── Validate Token ───────────────────────────────────────────────────
	response = fixture.get(t, "/api/v1/auth/validate-token", session.Tokens.AccessToken)
	require.Equal(t, http.StatusOK, response.StatusCode)

	var identity struct {
		User struct {
			UserID string   `json:"userId"`
			Email  string   `json:"email"`
			Roles  []string `json:"roles"`
		} `json:"user"`
	}
	decodeData(t, response, &identity)
	assert.Equal(t, created.UserID, identity.User.UserID)
	assert.Equal(t, "alice@trackwell.health", identity.User.Email)
	assert.Equal(t, []string{"member"}, identity.User.Roles)

	// ── Rotate ───────────────────────────────────────────────────────────
	response = fixture.postJSON(t, "/api/v1/auth/refresh-token", "", map[string]string{
		"refreshToken": session.Tokens.RefreshToken,
	})
	require.Equal(t, http.StatusOK, response.StatusCode)

	var rotated struct {
		Tokens struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		} `json:"tokens"`
	}
	decodeData(t, response, &rotated)
	assert.NotEqual(t, session.Tokens.RefreshToken, rotated.Tokens.RefreshToken)

	// Replay of the spent token is rejected.
	response = fixture.postJSON(t, "/api/v1/auth/refresh-token", "", map[string]string{
		"refreshToken": session.Tokens.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, response.StatusCode)
	response.Body.Close()

	// ── Logout ───────────────────────────────────────────────────────────
	response = fixture.postJSON(t, "/api/v1/auth/logout", rotated.Tokens.AccessToken, map[string]string{
		"refreshToken": rotated.Tokens.RefreshToken,
	})
	assert.Equal(t, http.StatusOK, response.StatusCode)
	response.Body.Close()

	response = fixture.postJSON(t, "/api/v1/auth/refresh-token", "", map[string]string{
		"refreshToken": rotated.Tokens.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, response.StatusCode)
	response.Body.Close()
}

/*
TestHandler_RegisterValidation verifies boundary validation answers 400
with field-level details before any service work happens.
*/
func TestHandler_RegisterValidation(t *testing.T) {
	fixture := newHandlerFixture(t)

	tests := []struct {
		name    string
		payload map[string]string
	}{
		{"missing_email", map[string]string{"password": "hunter2-long"}},
		{"bad_email", map[string]string{"email": "not-an-email", "password": "hunter2-long"}},
		{"short_password", map[string]string{"email": "a@b.c", "password": "short"}},
		{"bad_date", map[string]string{"email": "a@b.c", "password": "hunter2-long", "date_of_birth": "31/12/1990"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response := fixture.postJSON(t, "/api/v1/auth/register", "", tt.payload)
			assert.Equal(t, http.StatusBadRequest, response.StatusCode)
			_, code := decodeError(t, response)
			assert.Equal(t, "VALIDATION_ERROR", code)
		})
	}
}

/*
TestHandler_DuplicateRegister verifies a duplicate email answers 409.
*/
func TestHandler_DuplicateRegister(t *testing.T) {
	fixture := newHandlerFixture(t)

	payload := map[string]string{
		"email":    "alice@trackwell.health",
		"password": "hunter2-long",
	}

	response := fixture.postJSON(t, "/api/v1/auth/register", "", payload)
	require.Equal(t, http.StatusCreated, response.StatusCode)
	response.Body.Close()

	response = fixture.postJSON(t, "/api/v1/auth/register", "", payload)
	assert.Equal(t, http.StatusConflict, response.StatusCode)
	_, code := decodeError(t, response)
	assert.Equal(t, "CONFLICT", code)
}

/*
TestHandler_ValidateToken_Failures verifies the 401 taxonomy at the HTTP
boundary: missing header, expired token, and garbage token each answer 401,
with distinct messages for expired vs malformed.
*/
func TestHandler_ValidateToken_Failures(t *testing.T) {
	fixture := newHandlerFixture(t)

	// Missing header.
	response := fixture.get(t, "/api/v1/auth/validate-token", "")
	assert.Equal(t, http.StatusUnauthorized, response.StatusCode)
	response.Body.Close()

	// Expired but authentic token.
	provider, err := sec.NewTokenService(fixture.jwtSecret, "trackwell.health")
	require.NoError(t, err)
	expiredToken, err := provider.Generate("user-1", "a@b.c", []string{"member"}, -time.Minute)
	require.NoError(t, err)

	response = fixture.get(t, "/api/v1/auth/validate-token", expiredToken)
	assert.Equal(t, http.StatusUnauthorized, response.StatusCode)
	expiredMessage, _ := decodeError(t, response)
	assert.Contains(t, expiredMessage, "expired")

	// Garbage token.
	response = fixture.get(t, "/api/v1/auth/validate-token", "garbage-token")
	assert.Equal(t, http.StatusUnauthorized, response.StatusCode)
	malformedMessage, _ := decodeError(t, response)
	assert.NotEqual(t, expiredMessage, malformedMessage)
}

/*
TestHandler_ForgotPassword_Silent verifies unknown emails get the same 200
as known ones.
*/
func TestHandler_ForgotPassword_Silent(t *testing.T) {
	fixture := newHandlerFixture(t)

	response := fixture.postJSON(t, "/api/v1/auth/forgot-password", "", map[string]string{
		"email": "ghost@trackwell.health",
	})
	assert.Equal(t, http.StatusOK, response.StatusCode)
	response.Body.Close()
	assert.Zero(t, fixture.mailer.sentResets)
}

/*
TestHandler_InvalidJSON verifies undecodable bodies answer 400.
*/
func TestHandler_InvalidJSON(t *testing.T) {
	fixture := newHandlerFixture(t)

	request, err := http.NewRequest(http.MethodPost,
		fixture.server.URL+"/api/v1/auth/register", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	request.Header.Set("Content-Type", "application/json")

	response, err := fixture.server.Client().Do(request)
	require.NoError(t, err)
	defer response.Body.Close()

	assert.Equal(t, http.StatusBadRequest, response.StatusCode)
}
