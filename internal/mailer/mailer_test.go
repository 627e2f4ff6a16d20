// internal/mailer/mailer_test.go
package mailer

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbbjarnason/fivesuitsrummy/internal/config"
)

func TestNewPicksLogMailerWithoutSMTP(t *testing.T) {
	logger, hook := test.NewNullLogger()
	cfg := &config.Config{PublicBaseURL: "https://play.example.com"}

	m := New(cfg, logger)
	_, isLog := m.(*logMailer)
	assert.True(t, isLog)

	require.NoError(t, m.SendVerification("a@b.c", "tok123"))
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, "https://play.example.com/auth/verify?token=tok123", hook.LastEntry().Data["link"])

	require.NoError(t, m.SendPasswordReset("a@b.c", "tok456"))
	assert.Equal(t, "https://play.example.com/reset-password?token=tok456", hook.LastEntry().Data["link"])
}

func TestNewPicksSMTPMailerWithHost(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := &config.Config{SMTPHost: "smtp.example.com", SMTPPort: 587}

	m := New(cfg, logger)
	_, isSMTP := m.(*smtpMailer)
	assert.True(t, isSMTP)
}
