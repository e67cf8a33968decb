// Package sendemail provides the Send Email action dispatcher, backed by the
// Resend API.
package sendemail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/hookflow/hookflow/pkg/models"
	"github.com/hookflow/hookflow/pkg/protocol"
	"github.com/resend/resend-go/v2"
)

// Environment credentials required for sending. Missing either is a fatal
// configuration error.
const (
	APIKeyEnv    = "RESEND_API_KEY"
	FromEmailEnv = "RESEND_FROM_EMAIL"
)

// Sender abstracts the Resend email client so the action can be exercised
// without network access.
type Sender interface {
	Send(ctx context.Context, req *resend.SendEmailRequest) (id string, err error)
}

type resendSender struct {
	client *resend.Client
}

func (s *resendSender) Send(ctx context.Context, req *resend.SendEmailRequest) (string, error) {
	sent, err := s.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return "", err
	}

	return sent.Id, nil
}

// Action sends a plain-text email to a configured recipient.
type Action struct {
	To      string
	Subject string
	Body    string
	From    string

	sender Sender
}

// NewAction creates a Send Email action from resolved node configuration and
// environment credentials. Missing recipient, subject, or credentials are
// fatal configuration errors.
func NewAction(config map[string]any) (*Action, error) {
	apiKey := os.Getenv(APIKeyEnv)
	if apiKey == "" {
		return nil, protocol.NewFatalError(
			"send email failed: %s environment variable is not configured", APIKeyEnv)
	}

	from := os.Getenv(FromEmailEnv)
	if from == "" {
		return nil, protocol.NewFatalError(
			"send email failed: %s environment variable is not configured", FromEmailEnv)
	}

	return newAction(config, from, &resendSender{client: resend.NewClient(apiKey)})
}

// NewActionWithSender creates a Send Email action with an explicit sender and
// from-address, bypassing environment credentials. Intended for tests and
// embedding callers that manage their own client.
func NewActionWithSender(config map[string]any, from string, sender Sender) (*Action, error) {
	return newAction(config, from, sender)
}

func newAction(config map[string]any, from string, sender Sender) (*Action, error) {
	to, _ := config["emailTo"].(string)
	if to == "" {
		return nil, protocol.NewFatalError("send email failed: recipient email (to) is required")
	}

	subject, _ := config["emailSubject"].(string)
	if subject == "" {
		return nil, protocol.NewFatalError("send email failed: subject is required")
	}

	body, _ := config["emailBody"].(string)

	return &Action{
		To:      to,
		Subject: subject,
		Body:    body,
		From:    from,
		sender:  sender,
	}, nil
}

// Execute delivers the email. Provider-reported errors are fatal; transport
// errors are retryable failure results.
func (a *Action) Execute(ctx context.Context, logger *slog.Logger) (models.ExecutionResult, error) {
	logger = logger.With("module", "send_email_action")
	logger.InfoContext(ctx, "Sending email", "to", a.To, "subject", a.Subject)

	id, err := a.sender.Send(ctx, &resend.SendEmailRequest{
		From:    a.From,
		To:      []string{a.To},
		Subject: a.Subject,
		Text:    a.Body,
	})
	if err != nil {
		if isTransportError(err) {
			return models.ExecutionResult{
				Success: false,
				Error:   fmt.Sprintf("send email failed: %v", err),
			}, nil
		}

		return models.ExecutionResult{}, protocol.NewFatalError("send email failed: %v", err)
	}

	logger.InfoContext(ctx, "Email sent", "id", id)

	return models.ExecutionResult{
		Success: true,
		Data: map[string]any{
			"id":     id,
			"status": "sent",
		},
	}, nil
}

// isTransportError distinguishes network-level failures, which a caller may
// retry, from provider rejections, which must not be retried.
func isTransportError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr)
}
