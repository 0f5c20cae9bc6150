// Copyright (c) 2026 Trackwell Health. All rights reserved.
// Author: platform@trackwell.health

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/trackwell/trackwell/internal/platform/apperr"
	"github.com/trackwell/trackwell/internal/platform/constants"
	"github.com/trackwell/trackwell/internal/platform/ctxutil"
	"github.com/trackwell/trackwell/internal/platform/respond"
)

// # Auth Service Client

// maxVerdictBody bounds how much of an auth-service denial body is buffered
// for verbatim passthrough.
const maxVerdictBody = 64 * 1024

// Denial is a non-2xx verdict from the auth service, captured byte-for-byte
// so the client sees exactly what the auth service said.
type Denial struct {
	Status      int
	ContentType string
	Body        []byte
}

// AuthClient performs the synchronous token-validation round-trip against
// the auth service.
type AuthClient struct {
	validateURL string
	client      *http.Client
}

// NewAuthClient constructs an [AuthClient] for the given auth service base URL.
//
// The timeout bounds the whole round-trip. A validation call that cannot
// finish in time is an upstream failure, never an implicit allow.
func NewAuthClient(baseURL string, timeout time.Duration) *AuthClient {
	return &AuthClient{
		validateURL: strings.TrimRight(baseURL, "/") + constants.ValidateTokenPath,
		client:      &http.Client{Timeout: timeout},
	}
}

/*
ValidateToken forwards the bearer token to the auth service for verification.

Description: Issues GET /api/v1/auth/validate-token with the original
Authorization header. Exactly one of the three results is non-zero:

  - identity: the auth service answered 2xx; the claims are trusted.
  - denial: the auth service answered non-2xx; relay it verbatim.
  - err: no definitive answer (connect failure, timeout, unreadable body).

Parameters:
  - context: context.Context
  - bearerToken: string (raw token, without the "Bearer " prefix)

Returns:
  - *Identity: Verified caller identity on 2xx
  - *Denial: Captured non-2xx verdict
  - error: Transport-level failures (callers answer 503)
*/
func (authClient *AuthClient) ValidateToken(context context.Context, bearerToken string) (*Identity, *Denial, error) {

	request, err := http.NewRequestWithContext(context, http.MethodGet, authClient.validateURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("gateway_auth_client_build_request_failed: %w", err)
	}
	request.Header.Set(constants.HeaderAuthorization, "Bearer "+bearerToken)

	response, err := authClient.client.Do(request)
	if err != nil {
		return nil, nil, fmt.Errorf("gateway_auth_client_unreachable: %w", err)
	}
	defer response.Body.Close()

	// Non-2xx: capture the verdict for verbatim passthrough. The gateway
	// never rewrites what the auth service decided.
	if response.StatusCode < 200 || response.StatusCode > 299 {
		body, readErr := io.ReadAll(io.LimitReader(response.Body, maxVerdictBody))
		if readErr != nil {
			return nil, nil, fmt.Errorf("gateway_auth_client_verdict_read_failed: %w", readErr)
		}
		return nil, &Denial{
			Status:      response.StatusCode,
			ContentType: response.Header.Get(constants.HeaderContentType),
			Body:        body,
		}, nil
	}

	// 2xx: decode the identity out of the success envelope.
	var envelope struct {
		Data struct {
			User Identity `json:"user"`
		} `json:"data"`
	}
	if err := json.NewDecoder(response.Body).Decode(&envelope); err != nil {
		return nil, nil, fmt.Errorf("gateway_auth_client_decode_failed: %w", err)
	}
	if envelope.Data.User.UserID == "" {
		return nil, nil, fmt.Errorf("gateway_auth_client_empty_identity")
	}

	return &envelope.Data.User, nil, nil
}

// # Authentication Middleware

// RequireIdentity gates a route group behind auth-service verification.
//
// # Flow
//  1. Missing or malformed Authorization header: 401 immediately, with NO
//     call to the auth service.
//  2. Auth service unreachable or timed out: 503 UPSTREAM_UNAVAILABLE —
//     the gateway fails closed, never open.
//  3. Auth service answered non-2xx: that response is relayed verbatim.
//  4. Auth service answered 2xx: the verified [Identity] is attached to the
//     request context and the request proceeds.
func RequireIdentity(authClient *AuthClient) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// 1. Header presence and shape, checked locally.
			authHeader := request.Header.Get(constants.HeaderAuthorization)
			if authHeader == "" {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			// 2. Delegate the verdict to the auth service.
			identity, denial, err := authClient.ValidateToken(request.Context(), parts[1])
			if err != nil {
				ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(), "auth_service_validation_failed",
					slog.String("error", err.Error()),
				)
				respond.Error(writer, request, apperr.UpstreamUnavailable("Authentication service unavailable", err))
				return
			}

			// 3. Verbatim passthrough of a denial.
			if denial != nil {
				relayDenial(writer, denial)
				return
			}

			// 4. Attach the verified identity.
			ctx := WithIdentity(request.Context(), identity)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// relayDenial writes a captured auth-service verdict unchanged.
func relayDenial(writer http.ResponseWriter, denial *Denial) {
	if denial.ContentType != "" {
		writer.Header().Set(constants.HeaderContentType, denial.ContentType)
	}
	writer.WriteHeader(denial.Status)
	_, _ = writer.Write(denial.Body)
}
