// Copyright (c) 2026 Trackwell Health. All rights reserved.
// Author: platform@trackwell.health

package gateway_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackwell/trackwell/internal/gateway"
)

// newAuthStub spins up a fake auth service answering validate-token with
// the given handler and counting how many calls arrive.
func newAuthStub(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		calls.Add(1)
		handler(writer, request)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

// protectedEcho is the downstream handler behind RequireIdentity; it
// reports whether it ran and what identity it saw.
func protectedEcho(sawIdentity **gateway.Identity, ran *bool) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		*ran = true
		*sawIdentity = gateway.GetIdentity(request.Context())
		writer.WriteHeader(http.StatusOK)
	}
}

/*
TestRequireIdentity_MissingHeader verifies a request without an
Authorization header answers 401 with ZERO calls to the auth service.
*/
func TestRequireIdentity_MissingHeader(t *testing.T) {
	stub, calls := newAuthStub(t, func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})
	authClient := gateway.NewAuthClient(stub.URL, time.Second)

	var identity *gateway.Identity
	var ran bool
	handler := gateway.RequireIdentity(authClient)(protectedEcho(&identity, &ran))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.False(t, ran)
	assert.Zero(t, calls.Load(), "auth service must not be called without a header")
}

/*
TestRequireIdentity_MalformedHeader verifies a non-Bearer header answers
401 locally, without an upstream call.
*/
func TestRequireIdentity_MalformedHeader(t *testing.T) {
	stub, calls := newAuthStub(t, func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})
	authClient := gateway.NewAuthClient(stub.URL, time.Second)

	var identity *gateway.Identity
	var ran bool
	handler := gateway.RequireIdentity(authClient)(protectedEcho(&identity, &ran))

	for _, header := range []string{"Basic dXNlcjpwYXNz", "Bearer", "token-without-scheme"} {
		request := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
		request.Header.Set("Authorization", header)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code, "header %q", header)
	}
	assert.False(t, ran)
	assert.Zero(t, calls.Load())
}

/*
TestRequireIdentity_Accepted verifies a 2xx verdict attaches the verified
identity to the request context.
*/
func TestRequireIdentity_Accepted(t *testing.T) {
	stub, calls := newAuthStub(t, func(writer http.ResponseWriter, request *http.Request) {
		// The original bearer token must be forwarded.
		assert.Equal(t, "Bearer the-access-token", request.Header.Get("Authorization"))
		assert.Equal(t, "/api/v1/auth/validate-token", request.URL.Path)

		writer.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(writer).Encode(map[string]any{
			"data": map[string]any{
				"user": map[string]any{
					"userId": "user-42",
					"email":  "alice@trackwell.health",
					"roles":  []string{"member", "coach"},
				},
			},
		})
	})
	authClient := gateway.NewAuthClient(stub.URL, time.Second)

	var identity *gateway.Identity
	var ran bool
	handler := gateway.RequireIdentity(authClient)(protectedEcho(&identity, &ran))

	request := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	request.Header.Set("Authorization", "Bearer the-access-token")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.True(t, ran)
	require.NotNil(t, identity)
	assert.Equal(t, "user-42", identity.UserID)
	assert.Equal(t, "alice@trackwell.health", identity.Email)
	assert.Equal(t, "member,coach", identity.RolesHeader())
	assert.True(t, identity.HasRole("coach"))
	assert.False(t, identity.HasRole("admin"))
	assert.Equal(t, int64(1), calls.Load())
}

/*
TestRequireIdentity_DenialPassthrough verifies a non-2xx auth verdict is
relayed byte-for-byte: status, content type, and body.
*/
func TestRequireIdentity_DenialPassthrough(t *testing.T) {
	const verdictBody = `{"error":"Access token expired, please log in again","code":"UNAUTHORIZED"}` + "\n"

	stub, _ := newAuthStub(t, func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		writer.WriteHeader(http.StatusUnauthorized)
		_, _ = writer.Write([]byte(verdictBody))
	})
	authClient := gateway.NewAuthClient(stub.URL, time.Second)

	var identity *gateway.Identity
	var ran bool
	handler := gateway.RequireIdentity(authClient)(protectedEcho(&identity, &ran))

	request := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	request.Header.Set("Authorization", "Bearer stale-token")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "application/json; charset=utf-8", recorder.Header().Get("Content-Type"))
	assert.Equal(t, verdictBody, recorder.Body.String())
	assert.False(t, ran)
}

/*
TestRequireIdentity_AuthServiceDown verifies that an unreachable auth
service fails CLOSED with 503, never as anonymous or authenticated access.
*/
func TestRequireIdentity_AuthServiceDown(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	stub.Close() // nothing is listening anymore
	authClient := gateway.NewAuthClient(stub.URL, time.Second)

	var identity *gateway.Identity
	var ran bool
	handler := gateway.RequireIdentity(authClient)(protectedEcho(&identity, &ran))

	request := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	request.Header.Set("Authorization", "Bearer any-token")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.False(t, ran)

	var envelope struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", envelope.Code)
}

/*
TestRequireIdentity_AuthServiceTimeout verifies a validation call that
outlives its deadline answers 503.
*/
func TestRequireIdentity_AuthServiceTimeout(t *testing.T) {
	stub, _ := newAuthStub(t, func(writer http.ResponseWriter, request *http.Request) {
		time.Sleep(300 * time.Millisecond)
		writer.WriteHeader(http.StatusOK)
	})
	authClient := gateway.NewAuthClient(stub.URL, 50*time.Millisecond)

	var identity *gateway.Identity
	var ran bool
	handler := gateway.RequireIdentity(authClient)(protectedEcho(&identity, &ran))

	request := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	request.Header.Set("Authorization", "Bearer any-token")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.False(t, ran)
}
