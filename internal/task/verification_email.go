package task

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/phrazzld/candidate-api/internal/platform/logger"
	"github.com/phrazzld/candidate-api/internal/platform/mailer"
)

// VerificationEmailSubject is the subject line of verification e-mails.
const VerificationEmailSubject = "Verify Your Email"

// Mailer delivers e-mail for job handlers.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// VerificationEmailPayload is the payload of a send_verification_email job.
type VerificationEmailPayload struct {
	Email string `json:"email"`
	Link  string `json:"link"`
}

// VerificationEmailHandler sends the e-mail verification link to a new candidate.
type VerificationEmailHandler struct {
	mailer Mailer
}

// NewVerificationEmailHandler creates a VerificationEmailHandler.
func NewVerificationEmailHandler(m Mailer) *VerificationEmailHandler {
	return &VerificationEmailHandler{mailer: m}
}

// Handle implements Handler.
func (h *VerificationEmailHandler) Handle(ctx context.Context, job *Job) error {
	var p VerificationEmailPayload
	if err := job.Decode(&p); err != nil {
		return err
	}
	if strings.TrimSpace(p.Email) == "" || strings.TrimSpace(p.Link) == "" {
		return Permanent(fmt.Errorf("%w: email and link are required", ErrInvalidPayload))
	}

	msg := mailer.Message{
		To:       []string{p.Email},
		Subject:  VerificationEmailSubject,
		HTMLBody: verificationBody(p.Link),
	}
	if err := h.mailer.Send(ctx, msg); err != nil {
		return classifyMailError(fmt.Errorf("failed to send verification email: %w", err))
	}

	logger.FromContext(ctx).Info("verification email sent")
	return nil
}

// classifyMailError marks failures that no retry can fix as permanent.
func classifyMailError(err error) error {
	if errors.Is(err, mailer.ErrNotConfigured) || errors.Is(err, mailer.ErrNoRecipients) {
		return Permanent(err)
	}
	return err
}

func verificationBody(link string) string {
	escaped := html.EscapeString(link)
	return "<p>Please click the following link to verify your email: " +
		`<a href="` + escaped + `">` + escaped + "</a></p>"
}
