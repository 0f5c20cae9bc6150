// Copyright (c) 2026 Trackwell Health. All rights reserved.
// Author: platform@trackwell.health

package auth

import "time"

// # Authentication Constraints

const (
	// OpaqueTokenLength is the byte length of every random opaque token
	// (refresh, reset, verification). 32 bytes = 256 bits of entropy,
	// the platform minimum for unguessable credentials.
	OpaqueTokenLength = 32

	// MaxLoginFailures is the number of consecutive failed password
	// attempts per email before the throttle engages.
	MaxLoginFailures = 10

	// LoginFailureWindow is how long failure counters live. A successful
	// login clears the counter early.
	LoginFailureWindow = 15 * time.Minute

	// LoginRetryAfterSeconds is the advisory retry delay returned with 429.
	LoginRetryAfterSeconds = 900
)
