package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	GetByEmail(ctx context.Context, email string, clientID uuid.UUID) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Create(ctx context.Context, user User) (User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// User is an end user scoped to a single client. The same email may exist
// as independent users under different clients; (email, client) is unique.
type User struct {
	ID        uuid.UUID
	Email     string
	ClientID  uuid.UUID
	LastLogin *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
