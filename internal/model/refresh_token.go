package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Sentinel values recorded in ReplacedBy when a token is revoked outside
// of rotation.
const (
	ReplacedByManual    = "manually_revoked"
	ReplacedByRevokeAll = "revoked_all_tokens"
	// ReplacedByRotationLost marks a successor whose rotation lost a
	// concurrent-refresh race and was never handed to a caller.
	ReplacedByRotationLost = "rotation_race_lost"
)

// RefreshTokenStore defines persistence operations for the refresh token
// ledger. Records are never deleted; revocation only flips state.
type RefreshTokenStore interface {
	Create(ctx context.Context, token RefreshToken) error
	GetByToken(ctx context.Context, token string) (RefreshToken, error)
	// Revoke marks a single record revoked with the given replacedBy
	// marker: the successor token on rotation, or a sentinel.
	Revoke(ctx context.Context, token string, replacedBy string) error
	// RevokeAllForUser revokes every active record for (user, client) and
	// returns the number of records affected.
	RevokeAllForUser(ctx context.Context, userID, clientID uuid.UUID) (int64, error)
}

// RefreshToken is a durable ledger record for an issued refresh token.
// Active records authorize exactly one refresh; rotation revokes the
// consumed record and creates exactly one successor.
type RefreshToken struct {
	ID         uuid.UUID
	Token      string
	UserID     uuid.UUID
	ClientID   uuid.UUID
	ExpiresAt  time.Time
	Revoked    bool
	ReplacedBy string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
