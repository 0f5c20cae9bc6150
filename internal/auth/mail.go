// Copyright (c) 2026 Trackwell Health. All rights reserved.
// Author: platform@trackwell.health

package auth

import (
	"context"
	"log/slog"
)

// # Outbound Email

// Mailer is the contract for outbound account emails. Actual delivery
// (SMTP relay, transactional provider) is an external collaborator; the
// auth service only decides WHEN a message is owed and with WHICH token.
type Mailer interface {

	/*
		SendVerification delivers the email-verification link for a new
		or re-verifying account.

		Parameters:
		  - context: context.Context
		  - email: string (recipient)
		  - token: string (raw single-use verification token)

		Returns:
		  - error: Delivery handoff failures
	*/
	SendVerification(context context.Context, email, token string) error

	/*
		SendPasswordReset delivers the password recovery link.

		Parameters:
		  - context: context.Context
		  - email: string (recipient)
		  - token: string (raw single-use reset token)

		Returns:
		  - error: Delivery handoff failures
	*/
	SendPasswordReset(context context.Context, email, token string) error
}

// LogMailer is the default Mailer used in development and tests.
//
// It records that a dispatch happened without logging the token or
// the message body — raw tokens never reach the log stream.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a Mailer that only logs dispatch events.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// SendVerification implements Mailer.
func (mailer *LogMailer) SendVerification(context context.Context, email, token string) error {
	mailer.logger.InfoContext(context, "verification_email_dispatched",
		slog.String("kind", "email_verification"),
	)
	return nil
}

// SendPasswordReset implements Mailer.
func (mailer *LogMailer) SendPasswordReset(context context.Context, email, token string) error {
	mailer.logger.InfoContext(context, "password_reset_email_dispatched",
		slog.String("kind", "password_reset"),
	)
	return nil
}
