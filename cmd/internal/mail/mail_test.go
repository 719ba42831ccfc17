package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBodies_ContainLinkAndToken(t *testing.T) {
	act := activationBody("https://app.example", "tok-activate")
	assert.Contains(t, act, `https://app.example/#/login?token=tok-activate`)

	rst := passwordResetBody("https://app.example", "tok-reset")
	assert.Contains(t, rst, `https://app.example/#/password-reset?reset=tok-reset`)
}

func TestNoopSender(t *testing.T) {
	var s Sender = NoopSender{}
	assert.NoError(t, s.SendActivation(context.Background(), "a@b.c", "t"))
	assert.NoError(t, s.SendPasswordReset(context.Background(), "a@b.c", "t"))
}

func TestNewSMTPSender_Validation(t *testing.T) {
	_, err := NewSMTPSender(Config{})
	assert.Error(t, err)

	s, err := NewSMTPSender(Config{
		Host:    "smtp.example",
		From:    "Passage <info@passage.example>",
		BaseURL: "https://app.example",
	})
	require.NoError(t, err)
	assert.NotNil(t, s)
}
