// Package mail is the outbound mail boundary: account-activation and
// password-reset messages.
//
// Delivery may fail; callers decide what a failure means (registration rolls
// the whole transaction back, a reset request does not). The default sender
// is a no-op so that development and tests run without an SMTP relay.
package mail

import (
	"context"
	"fmt"
)

// Sender dispatches lifecycle emails. Implementations must return an error
// only when delivery was not acknowledged by the relay.
type Sender interface {
	SendActivation(ctx context.Context, to, token string) error
	SendPasswordReset(ctx context.Context, to, token string) error
}

// NoopSender acknowledges every message without sending anything.
type NoopSender struct{}

// SendActivation is a no-op.
func (NoopSender) SendActivation(_ context.Context, _, _ string) error { return nil }

// SendPasswordReset is a no-op.
func (NoopSender) SendPasswordReset(_ context.Context, _, _ string) error { return nil }

func activationBody(baseURL, token string) string {
	return fmt.Sprintf(`<div>
  <b>Please click below link to activate your account</b>
</div>
<div>
  <a href="%s/#/login?token=%s">Activate</a>
</div>`, baseURL, token)
}

func passwordResetBody(baseURL, token string) string {
	return fmt.Sprintf(`<div>
  <b>Please click below link to reset your password</b>
</div>
<div>
  <a href="%s/#/password-reset?reset=%s">Reset</a>
</div>`, baseURL, token)
}
