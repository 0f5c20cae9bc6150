// Copyright (c) 2026 Trackwell Health. All rights reserved.
// Author: platform@trackwell.health

/*
Package gateway implements the Trackwell edge router.

It terminates client connections, enforces authentication by delegating
every token verification to the auth service over HTTP, and relays the
request to the owning backend service.

# Architecture

The gateway holds NO signing keys and NO sessions. Its entire security
model is: ask the auth service, attach the verified identity, forward.
When the auth service cannot answer, the request fails closed with 503.
*/
package gateway

import (
	"context"
	"strings"

	"github.com/trackwell/trackwell/internal/platform/ctxkey"
)

// # Verified Identity

// Identity is the caller identity verified by the auth service.
//
// It exists only after a successful validate-token round-trip and is the
// sole source for the X-User-* headers injected into proxied requests.
type Identity struct {
	UserID string   `json:"userId"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
}

// HasRole reports whether the identity carries the given role.
func (identity Identity) HasRole(role string) bool {
	for _, r := range identity.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RolesHeader renders the role list for the X-User-Roles header.
func (identity Identity) RolesHeader() string {
	return strings.Join(identity.Roles, ",")
}

// WithIdentity returns a new context carrying the verified identity.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, ctxkey.KeyIdentity, identity)
}

// GetIdentity retrieves the verified [*Identity] from the context.
// Returns nil for unauthenticated (public-route) requests.
func GetIdentity(ctx context.Context) *Identity {
	identity, ok := ctx.Value(ctxkey.KeyIdentity).(*Identity)
	if !ok {
		return nil
	}
	return identity
}
