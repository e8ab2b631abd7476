package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mauth-dev/mauth/internal/model"
)

var _ model.ClientStore = (*ClientRepository)(nil)

const clientColumns = `id, name, redirect_url, public_key, encrypted_private_key, iv, tag, kid,
	api_key, api_key_last_used, created_at, updated_at`

type ClientRepository struct {
	db *Connection
}

func NewClientRepository(db *Connection) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(ctx context.Context, client model.Client) (model.Client, error) {
	query := `INSERT INTO clients (id, name, redirect_url, public_key, encrypted_private_key, iv, tag, kid, api_key, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
			  RETURNING ` + clientColumns

	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}

	row := r.db.QueryRow(ctx, query,
		client.ID, client.Name, client.RedirectURL,
		client.KeyMaterial.PublicKeyPEM, client.KeyMaterial.EncryptedPrivateKey,
		client.KeyMaterial.IV, client.KeyMaterial.Tag, client.KeyMaterial.KID,
		client.APIKey,
	)

	saved, err := scanClient(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.Client{}, model.ErrClientExists
		}
		return model.Client{}, fmt.Errorf("failed to create client: %w", err)
	}
	return saved, nil
}

func (r *ClientRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Client, error) {
	return r.getBy(ctx, "id = $1", id)
}

func (r *ClientRepository) GetByName(ctx context.Context, name string) (model.Client, error) {
	return r.getBy(ctx, "name = $1", name)
}

func (r *ClientRepository) GetByKID(ctx context.Context, kid string) (model.Client, error) {
	return r.getBy(ctx, "kid = $1", kid)
}

func (r *ClientRepository) GetByAPIKey(ctx context.Context, apiKey string) (model.Client, error) {
	return r.getBy(ctx, "api_key = $1", apiKey)
}

func (r *ClientRepository) getBy(ctx context.Context, cond string, arg any) (model.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE ` + cond

	client, err := scanClient(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Client{}, model.ErrNotFound
		}
		return model.Client{}, fmt.Errorf("failed to get client: %w", err)
	}
	return client, nil
}

func (r *ClientRepository) List(ctx context.Context) ([]model.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients ORDER BY created_at`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	clients := make([]model.Client, 0)
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}

// UpdateKeys overwrites the whole key generation in one statement so a
// failed rotation never leaves a half-rotated client.
func (r *ClientRepository) UpdateKeys(ctx context.Context, id uuid.UUID, material model.KeyMaterial) error {
	query := `UPDATE clients
			  SET public_key = $2, encrypted_private_key = $3, iv = $4, tag = $5, kid = $6, updated_at = NOW()
			  WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		id, material.PublicKeyPEM, material.EncryptedPrivateKey, material.IV, material.Tag, material.KID,
	)
	if err != nil {
		return fmt.Errorf("failed to update client keys: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *ClientRepository) TouchAPIKey(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE clients SET api_key_last_used = NOW() WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to touch api key: %w", err)
	}
	return nil
}

func scanClient(row pgx.Row) (model.Client, error) {
	var c model.Client
	err := row.Scan(
		&c.ID, &c.Name, &c.RedirectURL,
		&c.KeyMaterial.PublicKeyPEM, &c.KeyMaterial.EncryptedPrivateKey,
		&c.KeyMaterial.IV, &c.KeyMaterial.Tag, &c.KeyMaterial.KID,
		&c.APIKey, &c.APIKeyLastUsed, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}
