// internal/mailer/mailer.go
package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/sirupsen/logrus"

	"github.com/jbbjarnason/fivesuitsrummy/internal/config"
)

// Mailer sends the account emails. Handlers depend on this interface so
// tests and development runs never touch SMTP.
type Mailer interface {
	SendVerification(to, token string) error
	SendPasswordReset(to, token string) error
}

// New returns an SMTP-backed mailer when SMTP_HOST is set, otherwise a
// log-only mailer that prints the links it would have sent.
func New(cfg *config.Config, logger *logrus.Logger) Mailer {
	if cfg.SMTPHost == "" {
		return &logMailer{logger: logger, baseURL: cfg.PublicBaseURL}
	}
	return &smtpMailer{cfg: cfg}
}

type logMailer struct {
	logger  *logrus.Logger
	baseURL string
}

func (m *logMailer) SendVerification(to, token string) error {
	m.logger.WithFields(logrus.Fields{
		"to":   to,
		"link": fmt.Sprintf("%s/auth/verify?token=%s", m.baseURL, token),
	}).Info("verification email (dev mode, not sent)")
	return nil
}

func (m *logMailer) SendPasswordReset(to, token string) error {
	m.logger.WithFields(logrus.Fields{
		"to":   to,
		"link": fmt.Sprintf("%s/reset-password?token=%s", m.baseURL, token),
	}).Info("password reset email (dev mode, not sent)")
	return nil
}

type smtpMailer struct {
	cfg *config.Config
}

func (m *smtpMailer) send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	var a smtp.Auth
	if m.cfg.SMTPUser != "" {
		a = smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPass, m.cfg.SMTPHost)
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.cfg.SMTPFrom, to, subject, body)
	if err := smtp.SendMail(addr, a, m.cfg.SMTPFrom, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

func (m *smtpMailer) SendVerification(to, token string) error {
	link := fmt.Sprintf("%s/auth/verify?token=%s", m.cfg.PublicBaseURL, token)
	body := fmt.Sprintf("Welcome! Confirm your email address by opening this link:\n\n%s\n", link)
	return m.send(to, "Verify your email", body)
}

func (m *smtpMailer) SendPasswordReset(to, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", m.cfg.PublicBaseURL, token)
	body := fmt.Sprintf("A password reset was requested for your account. Open this link to choose a new password:\n\n%s\n\nIf you did not request this, ignore this email.\n", link)
	return m.send(to, "Reset your password", body)
}
