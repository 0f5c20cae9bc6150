// Copyright (c) 2026 Trackwell Health. All rights reserved.
// Author: platform@trackwell.health

package gateway

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/trackwell/trackwell/internal/platform/apperr"
	"github.com/trackwell/trackwell/internal/platform/constants"
	"github.com/trackwell/trackwell/internal/platform/ctxutil"
	"github.com/trackwell/trackwell/internal/platform/respond"
)

// # Request Relay

// hopByHopHeaders are connection-scoped headers that must not be forwarded.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// identityHeaders are gateway-owned. They are stripped from every inbound
// request so a client can never impersonate a verified identity, and are
// set again only from the context [Identity].
var identityHeaders = []string{
	constants.HeaderXUserID,
	constants.HeaderXUserEmail,
	constants.HeaderXUserRoles,
}

// Proxy relays requests for one backend service.
//
// # Contract
//
//   - Method, path suffix, query string, body, and content headers pass
//     through unchanged.
//   - Whatever the backend answers (including 4xx/5xx) is relayed verbatim.
//   - A backend that cannot be reached answers 503 with the gateway's own
//     structured error body.
//   - Exactly one attempt per request. The gateway never retries: relayed
//     requests are not known to be idempotent.
type Proxy struct {
	serviceName string
	baseURL     string
	stripPrefix string
	client      *http.Client
}

// NewProxy constructs a relay for the backend rooted at baseURL.
//
// stripPrefix is removed from the inbound path before the backend path is
// built, so a gateway route like /api/v1/users/* can map onto a backend
// that serves /api/v1/users/* as well (empty prefix) or /* (full prefix).
func NewProxy(serviceName, baseURL, stripPrefix string, timeout time.Duration) *Proxy {
	return &Proxy{
		serviceName: serviceName,
		baseURL:     strings.TrimRight(baseURL, "/"),
		stripPrefix: stripPrefix,
		client: &http.Client{
			Timeout: timeout,

			// Backend redirects belong to the client, not the gateway.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// ServeHTTP implements http.Handler by relaying the request to the backend.
func (proxy *Proxy) ServeHTTP(writer http.ResponseWriter, request *http.Request) {

	// ── 1. Build the outbound request ────────────────────────────────────

	path := request.URL.Path
	if proxy.stripPrefix != "" {
		path = strings.TrimPrefix(path, proxy.stripPrefix)
	}
	targetURL := proxy.baseURL + path
	if request.URL.RawQuery != "" {
		targetURL += "?" + request.URL.RawQuery
	}

	outbound, err := http.NewRequestWithContext(request.Context(), request.Method, targetURL, request.Body)
	if err != nil {
		respond.Error(writer, request, apperr.Internal(fmt.Errorf("gateway_proxy_build_request_failed: %w", err)))
		return
	}

	// ── 2. Forward headers ───────────────────────────────────────────────

	copyHeaders(outbound.Header, request.Header)
	for _, name := range hopByHopHeaders {
		outbound.Header.Del(name)
	}

	// Spoofing guard: client-sent identity headers never survive.
	for _, name := range identityHeaders {
		outbound.Header.Del(name)
	}

	// Preserve the original client address chain.
	outbound.Header.Set(constants.HeaderXForwardedFor, appendForwardedFor(request))
	if requestID := ctxutil.GetRequestID(request.Context()); requestID != "" {
		outbound.Header.Set(constants.HeaderXRequestID, requestID)
	}

	// ── 3. Inject the verified identity ──────────────────────────────────

	if identity := GetIdentity(request.Context()); identity != nil {
		outbound.Header.Set(constants.HeaderXUserID, identity.UserID)
		outbound.Header.Set(constants.HeaderXUserEmail, identity.Email)
		outbound.Header.Set(constants.HeaderXUserRoles, identity.RolesHeader())
	}

	// ── 4. Single attempt relay ──────────────────────────────────────────

	response, err := proxy.client.Do(outbound)
	if err != nil {
		ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(), "backend_unreachable",
			slog.String("service", proxy.serviceName),
			slog.String("error", err.Error()),
		)
		respond.Error(writer, request,
			apperr.UpstreamUnavailable(proxy.serviceName+" service unavailable", err))
		return
	}
	defer response.Body.Close()

	// ── 5. Relay the backend answer verbatim ─────────────────────────────

	copyHeaders(writer.Header(), response.Header)
	for _, name := range hopByHopHeaders {
		writer.Header().Del(name)
	}
	writer.WriteHeader(response.StatusCode)

	if _, err := io.Copy(writer, response.Body); err != nil {
		// Headers are already on the wire; all we can do is log.
		ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "backend_body_relay_interrupted",
			slog.String("service", proxy.serviceName),
			slog.String("error", err.Error()),
		)
	}
}

// copyHeaders copies every header value from source into destination.
func copyHeaders(destination, source http.Header) {
	for name, values := range source {
		for _, value := range values {
			destination.Add(name, value)
		}
	}
}

// appendForwardedFor extends the X-Forwarded-For chain with the direct peer.
func appendForwardedFor(request *http.Request) string {
	peer := request.RemoteAddr
	if host, _, err := net.SplitHostPort(request.RemoteAddr); err == nil {
		peer = host
	}
	if prior := request.Header.Get(constants.HeaderXForwardedFor); prior != "" {
		return prior + ", " + peer
	}
	return peer
}
