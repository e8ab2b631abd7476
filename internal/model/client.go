package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ClientStore defines persistence operations for registered client
// applications.
type ClientStore interface {
	Create(ctx context.Context, client Client) (Client, error)
	GetByID(ctx context.Context, id uuid.UUID) (Client, error)
	GetByName(ctx context.Context, name string) (Client, error)
	GetByKID(ctx context.Context, kid string) (Client, error)
	GetByAPIKey(ctx context.Context, apiKey string) (Client, error)
	List(ctx context.Context) ([]Client, error)
	// UpdateKeys replaces the whole keypair in a single write. Partial
	// key state must never be persisted.
	UpdateKeys(ctx context.Context, id uuid.UUID, material KeyMaterial) error
	TouchAPIKey(ctx context.Context, id uuid.UUID) error
}

// KeyMaterial is one generation of a client keypair: the exportable public
// key plus the AEAD ciphertext components of the private key.
type KeyMaterial struct {
	PublicKeyPEM        string
	EncryptedPrivateKey string
	IV                  string
	Tag                 string
	KID                 string
}

// Client represents a tenant application. A client owns exactly one active
// keypair at any time.
type Client struct {
	ID             uuid.UUID
	Name           string
	RedirectURL    string
	KeyMaterial    KeyMaterial
	APIKey         string
	APIKeyLastUsed *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
