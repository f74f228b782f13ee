// Package mailer sends HTML e-mail with optional file attachments over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/phrazzld/candidate-api/internal/config"
	"gopkg.in/gomail.v2"
)

var (
	// ErrNotConfigured is returned when no SMTP host or sender address is set.
	ErrNotConfigured = errors.New("mail transport not configured")

	// ErrNoRecipients is returned when a message has no recipients.
	ErrNoRecipients = errors.New("message has no recipients")
)

// Message is an outbound HTML e-mail.
type Message struct {
	To       []string
	Subject  string
	HTMLBody string
	// Attachments are paths to files attached under their base names.
	Attachments []string
}

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends messages through an SMTP relay.
type SMTPMailer struct {
	cfg    config.MailConfig
	sender Sender
	logger *slog.Logger
}

// NewSMTPMailer creates a mailer dialing the relay described by cfg.
func NewSMTPMailer(cfg config.MailConfig, logger *slog.Logger) *SMTPMailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.SSLTLS
	return NewSMTPMailerWithSender(cfg, d, logger)
}

// NewSMTPMailerWithSender creates a mailer using a custom Sender.
func NewSMTPMailerWithSender(cfg config.MailConfig, sender Sender, logger *slog.Logger) *SMTPMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPMailer{
		cfg:    cfg,
		sender: sender,
		logger: logger.With(slog.String("component", "mailer")),
	}
}

// Send composes and delivers msg. gomail has no context support, so ctx is
// only checked before dialing.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if m.cfg.Host == "" || m.cfg.From == "" {
		return ErrNotConfigured
	}
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := m.sender.DialAndSend(m.compose(msg)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	m.logger.InfoContext(ctx, "email sent",
		slog.String("subject", msg.Subject),
		slog.Int("recipients", len(msg.To)),
		slog.Int("attachments", len(msg.Attachments)))
	return nil
}

func (m *SMTPMailer) compose(msg Message) *gomail.Message {
	gm := gomail.NewMessage()
	if m.cfg.FromName != "" {
		gm.SetAddressHeader("From", m.cfg.From, m.cfg.FromName)
	} else {
		gm.SetHeader("From", m.cfg.From)
	}
	gm.SetHeader("To", msg.To...)
	gm.SetHeader("Subject", strings.TrimSpace(msg.Subject))
	gm.SetBody("text/html", msg.HTMLBody)

	for _, path := range msg.Attachments {
		gm.Attach(path, gomail.Rename(filepath.Base(path)))
	}
	return gm
}
