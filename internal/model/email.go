package model

import "context"

// EmailSender delivers transactional mail. Implementations report the
// provider message id for log correlation.
type EmailSender interface {
	Send(ctx context.Context, to, subject, html, text string) (messageID string, err error)
}
