package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MagicLinkTTL bounds how long an issued magic link stays redeemable.
const MagicLinkTTL = 10 * time.Minute

// MagicLinkStore is an expiring keyed store for pending magic-link
// redemptions.
type MagicLinkStore interface {
	Save(ctx context.Context, token string, entry MagicLinkEntry, ttl time.Duration) error
	// Consume atomically reads and deletes the entry. Two concurrent
	// calls for the same token must yield exactly one success; the loser
	// and any absent/expired token get ErrLinkInvalid.
	Consume(ctx context.Context, token string) (MagicLinkEntry, error)
}

// MagicLinkEntry is the pending redemption stored under an opaque token.
type MagicLinkEntry struct {
	UserID      uuid.UUID `json:"userId"`
	ClientID    uuid.UUID `json:"clientId"`
	RedirectURL string    `json:"redirectUrl,omitempty"`
}
