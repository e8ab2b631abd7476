package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mauth-dev/mauth/internal/keys"
	"github.com/mauth-dev/mauth/internal/logger"
	"github.com/mauth-dev/mauth/internal/model"
)

const apiKeyBytes = 32

// Client implements the management plane: registration, key rotation and
// API-key authentication of client applications.
type Client struct {
	clientStore model.ClientStore
	custody     *keys.Custody
	logger      *logger.Logger
}

func NewClient(clientStore model.ClientStore, custody *keys.Custody, logger *logger.Logger) *Client {
	return &Client{
		clientStore: clientStore,
		custody:     custody,
		logger:      logger,
	}
}

// Register provisions a keypair for a new client and persists it together
// with a freshly generated API key. The API key is returned exactly once.
func (s *Client) Register(ctx context.Context, name, redirectURL string) (model.Client, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return model.Client{}, fmt.Errorf("%w: name is required", model.ErrValidation)
	}

	if _, err := s.clientStore.GetByName(ctx, name); err == nil {
		return model.Client{}, model.ErrClientExists
	} else if !errors.Is(err, model.ErrNotFound) {
		return model.Client{}, fmt.Errorf("failed to check client name: %w", err)
	}

	material, err := s.custody.Provision()
	if err != nil {
		s.logger.Error("Client service: key provisioning failed",
			"client_name", name,
			"error", err.Error())
		return model.Client{}, err
	}

	apiKey, err := newAPIKey()
	if err != nil {
		return model.Client{}, err
	}

	client, err := s.clientStore.Create(ctx, model.Client{
		ID:          uuid.New(),
		Name:        name,
		RedirectURL: redirectURL,
		KeyMaterial: material,
		APIKey:      apiKey,
	})
	if err != nil {
		if errors.Is(err, model.ErrClientExists) {
			return model.Client{}, model.ErrClientExists
		}
		return model.Client{}, fmt.Errorf("failed to persist client: %w", err)
	}

	s.logger.Info("Client service: client registered",
		"client_id", client.ID,
		"client_name", client.Name,
		"kid", client.KeyMaterial.KID)

	return client, nil
}

// RotateKeys provisions a new key generation and overwrites the stored
// material in one write. Tokens signed under the old key become
// unverifiable; the old public key is discarded, not archived.
func (s *Client) RotateKeys(ctx context.Context, client model.Client) (model.Client, error) {
	material, err := s.custody.Provision()
	if err != nil {
		s.logger.Error("Client service: key rotation provisioning failed",
			"client_id", client.ID,
			"error", err.Error())
		return model.Client{}, err
	}

	if err := s.clientStore.UpdateKeys(ctx, client.ID, material); err != nil {
		return model.Client{}, fmt.Errorf("failed to store rotated keys: %w", err)
	}

	s.logger.Info("Client service: keys rotated",
		"client_id", client.ID,
		"old_kid", client.KeyMaterial.KID,
		"new_kid", material.KID)

	client.KeyMaterial = material
	return client, nil
}

// Authenticate resolves a client by its API key and records the use.
func (s *Client) Authenticate(ctx context.Context, apiKey string) (model.Client, error) {
	if apiKey == "" {
		return model.Client{}, fmt.Errorf("%w: api key is required", model.ErrValidation)
	}

	client, err := s.clientStore.GetByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Client{}, model.ErrNotFound
		}
		return model.Client{}, fmt.Errorf("failed to look up api key: %w", err)
	}

	if err := s.clientStore.TouchAPIKey(ctx, client.ID); err != nil {
		// Monitoring metadata only; the request proceeds.
		s.logger.Error("Client service: failed to record api key use",
			"client_id", client.ID,
			"error", err.Error())
	}

	return client, nil
}

func newAPIKey() (string, error) {
	buf := make([]byte, apiKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%w: generate api key: %v", model.ErrCryptoFailure, err)
	}
	return hex.EncodeToString(buf), nil
}
