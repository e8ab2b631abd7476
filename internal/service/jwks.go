package service

import (
	"context"
	"fmt"

	"github.com/mauth-dev/mauth/internal/keys"
	"github.com/mauth-dev/mauth/internal/logger"
	"github.com/mauth-dev/mauth/internal/model"
)

// JWKS publishes all clients' current public keys for independent
// verification by relying parties.
type JWKS struct {
	clientStore model.ClientStore
	logger      *logger.Logger
}

func NewJWKS(clientStore model.ClientStore, logger *logger.Logger) *JWKS {
	return &JWKS{clientStore: clientStore, logger: logger}
}

// KeySet is the document served at /.well-known/jwks.json.
type KeySet struct {
	Keys []keys.JWK `json:"keys"`
}

// Keys enumerates every client's current public key. An empty client list
// yields {"keys":[]}, not an error.
func (s *JWKS) Keys(ctx context.Context) (KeySet, error) {
	clients, err := s.clientStore.List(ctx)
	if err != nil {
		return KeySet{}, fmt.Errorf("failed to list clients: %w", err)
	}

	set := KeySet{Keys: make([]keys.JWK, 0, len(clients))}
	for _, client := range clients {
		jwk, err := keys.PublicKeyJWK(client.KeyMaterial.PublicKeyPEM, client.KeyMaterial.KID)
		if err != nil {
			// A single corrupt record must not break discovery for
			// every other client.
			s.logger.Error("JWKS service: skipping unparseable public key",
				"client_id", client.ID,
				"kid", client.KeyMaterial.KID,
				"error", err.Error())
			continue
		}
		set.Keys = append(set.Keys, jwk)
	}
	return set, nil
}
