package mail

import (
	"context"
	"errors"

	gomail "github.com/wneessen/go-mail"
)

// Config holds SMTP relay settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string

	// From is the sender address, e.g. "Passage <info@passage.example>".
	From string

	// BaseURL is the public frontend origin used in activation and reset
	// links.
	BaseURL string
}

// SMTPSender delivers mail through an SMTP relay.
type SMTPSender struct {
	client  *gomail.Client
	from    string
	baseURL string
}

// NewSMTPSender builds an SMTP-backed Sender. Credentials are optional for
// relays that accept unauthenticated submission (e.g. a local test relay).
func NewSMTPSender(cfg Config) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.From == "" || cfg.BaseURL == "" {
		return nil, errors.New("mail: host, from, and base URL are required")
	}

	opts := []gomail.Option{
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Port > 0 {
		opts = append(opts, gomail.WithPort(cfg.Port))
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, err
	}

	return &SMTPSender{client: client, from: cfg.From, baseURL: cfg.BaseURL}, nil
}

// SendActivation mails the account-activation link.
func (s *SMTPSender) SendActivation(ctx context.Context, to, token string) error {
	return s.send(ctx, to, "Account Activation", activationBody(s.baseURL, token))
}

// SendPasswordReset mails the password-reset link.
func (s *SMTPSender) SendPasswordReset(ctx context.Context, to, token string) error {
	return s.send(ctx, to, "Password Reset", passwordResetBody(s.baseURL, token))
}

func (s *SMTPSender) send(ctx context.Context, to, subject, htmlBody string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)

	return s.client.DialAndSendWithContext(ctx, msg)
}
