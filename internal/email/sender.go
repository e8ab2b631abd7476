package email

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"

	"github.com/mauth-dev/mauth/internal/config"
	"github.com/mauth-dev/mauth/internal/logger"
	"github.com/mauth-dev/mauth/internal/model"
)

var _ model.EmailSender = (*SMTPSender)(nil)

// SMTPSender delivers mail over authenticated SMTP.
type SMTPSender struct {
	client   *mail.Client
	from     string
	fromName string
	logger   *logger.Logger
}

func NewSMTPSender(cfg config.SMTP, logger *logger.Logger) (*SMTPSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &SMTPSender{
		client:   client,
		from:     cfg.From,
		fromName: cfg.FromName,
		logger:   logger,
	}, nil
}

// Send delivers a multipart html+text message and returns its message id.
func (s *SMTPSender) Send(ctx context.Context, to, subject, html, text string) (string, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.from); err != nil {
		return "", fmt.Errorf("failed to set sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return "", fmt.Errorf("failed to set recipient: %w", err)
	}

	messageID := uuid.NewString()
	msg.SetMessageIDWithValue(messageID)
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, text)
	msg.AddAlternativeString(mail.TypeTextHTML, html)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("Email: message sent",
		"message_id", messageID,
		"subject", subject)

	return messageID, nil
}
