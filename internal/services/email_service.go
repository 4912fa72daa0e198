package services

import (
	"context"
	"fmt"
	"html"

	"github.com/estatehub/marketplace-backend/internal/config"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
)

// Mailer sends a plain notification e-mail
type Mailer interface {
	Send(ctx context.Context, toEmail, toName, subject, body string) error
}

// EmailService sends owner e-mail copies through SendGrid
type EmailService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *logrus.Logger
}

// NewEmailService returns nil when no API key is configured
func NewEmailService(cfg config.EmailConfig, logger *logrus.Logger) *EmailService {
	if cfg.SendGridAPIKey == "" {
		logger.Info("SENDGRID_API_KEY not set, e-mail copies disabled")
		return nil
	}
	return &EmailService{
		client:    sendgrid.NewSendClient(cfg.SendGridAPIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

// Send delivers one message
func (s *EmailService) Send(ctx context.Context, toEmail, toName, subject, body string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, body, "<p>"+html.EscapeString(body)+"</p>")

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}

	s.logger.WithFields(logrus.Fields{"to": toEmail, "subject": subject}).Debug("Email sent")
	return nil
}
