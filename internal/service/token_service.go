package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mauth-dev/mauth/internal/keys"
	"github.com/mauth-dev/mauth/internal/logger"
	"github.com/mauth-dev/mauth/internal/model"
)

// TokenService issues, verifies, refreshes and revokes token pairs. It
// composes the token manager, key custody and the refresh-token ledger.
type TokenService struct {
	manager     model.TokenManager
	custody     *keys.Custody
	clientStore model.ClientStore
	userStore   model.UserStore
	ledger      model.RefreshTokenStore
	logger      *logger.Logger
}

func NewTokenService(
	manager model.TokenManager,
	custody *keys.Custody,
	clientStore model.ClientStore,
	userStore model.UserStore,
	ledger model.RefreshTokenStore,
	logger *logger.Logger,
) *TokenService {
	return &TokenService{
		manager:     manager,
		custody:     custody,
		clientStore: clientStore,
		userStore:   userStore,
		ledger:      ledger,
		logger:      logger,
	}
}

// VerifyResult combines decoded claims with the resolved user and client.
type VerifyResult struct {
	Claims model.TokenClaims
	User   model.User
	Client model.Client
}

// IssuePair mints an access/refresh pair signed with the client's current
// private key and records the refresh token in the ledger. When
// prevRefreshToken is set the prior record is revoked with the new token
// as its successor. The new record is created before the old one is
// revoked; see Refresh for the rationale.
func (s *TokenService) IssuePair(ctx context.Context, userID, clientID uuid.UUID, prevRefreshToken string) (model.TokenPair, error) {
	client, err := s.clientStore.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.TokenPair{}, model.ErrNotFound
		}
		return model.TokenPair{}, fmt.Errorf("failed to load client: %w", err)
	}

	// Fetched and decrypted fresh on every issuance so rotation takes
	// effect immediately.
	privateKey, err := s.custody.Decrypt(client.KeyMaterial)
	if err != nil {
		s.logger.Error("Token service: private key decryption failed",
			"client_id", client.ID,
			"error", err.Error())
		return model.TokenPair{}, err
	}

	pair, err := s.manager.SignPair(privateKey, userID.String(), client.KeyMaterial.KID, client.Name)
	if err != nil {
		s.logger.Error("Token service: signing failed",
			"client_id", client.ID,
			"error", err.Error())
		return model.TokenPair{}, err
	}

	record := model.RefreshToken{
		ID:        uuid.New(),
		Token:     pair.RefreshToken,
		UserID:    userID,
		ClientID:  clientID,
		ExpiresAt: pair.RefreshExpiresAt,
	}
	if err := s.ledger.Create(ctx, record); err != nil {
		return model.TokenPair{}, fmt.Errorf("persist refresh: %w", err)
	}

	if prevRefreshToken != "" {
		if err := s.ledger.Revoke(ctx, prevRefreshToken, pair.RefreshToken); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				// A concurrent refresh already consumed the presented
				// token. Retire the successor created above so no
				// unclaimed active record lingers, and treat the loser
				// like any other replay.
				if rerr := s.ledger.Revoke(ctx, pair.RefreshToken, model.ReplacedByRotationLost); rerr != nil {
					s.logger.Error("Token service: failed to retire race-lost successor",
						"client_id", clientID,
						"error", rerr.Error())
				}
				s.logger.Info("Token service: concurrent refresh lost rotation race",
					"client_id", clientID,
					"user_id", userID)
				return model.TokenPair{}, model.ErrTokenForbidden
			}
			return model.TokenPair{}, fmt.Errorf("revoke old refresh: %w", err)
		}
	}

	return pair, nil
}

// Verify validates a bearer token: kid from the header selects the
// client, whose current public key must verify the signature. Body claims
// are never used for key selection.
func (s *TokenService) Verify(ctx context.Context, tokenString string) (VerifyResult, error) {
	claims, client, err := s.verifySignature(ctx, tokenString)
	if err != nil {
		return VerifyResult{}, err
	}

	result := VerifyResult{Claims: claims, Client: client}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("%w: malformed user id claim", model.ErrTokenInvalid)
	}
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return VerifyResult{}, fmt.Errorf("failed to load user: %w", err)
	}
	result.User = user

	return result, nil
}

// Refresh rotates a refresh token: ledger state and signature are checked
// independently, then a successor pair is issued. The successor record is
// created before the presented record is revoked, so a crash between the
// two writes never strands the user. A concurrent duplicate refresh loses
// the revoke on the shared predecessor, has its successor retired, and is
// rejected like a replay.
func (s *TokenService) Refresh(ctx context.Context, presented string) (model.TokenPair, error) {
	record, err := s.ledger.GetByToken(ctx, presented)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.TokenPair{}, model.ErrTokenForbidden
		}
		return model.TokenPair{}, fmt.Errorf("failed to load refresh record: %w", err)
	}
	if record.Revoked {
		s.logger.Info("Token service: revoked refresh token presented",
			"client_id", record.ClientID,
			"user_id", record.UserID)
		return model.TokenPair{}, model.ErrTokenForbidden
	}
	if time.Now().After(record.ExpiresAt) {
		return model.TokenPair{}, model.ErrTokenForbidden
	}

	// The ledger row alone is not proof of authenticity; the presented
	// token must still verify against the client's current key.
	if _, _, err := s.verifySignature(ctx, presented); err != nil {
		return model.TokenPair{}, model.ErrTokenForbidden
	}

	return s.IssuePair(ctx, record.UserID, record.ClientID, presented)
}

// RevokeOne revokes a single refresh token presented by its holder.
func (s *TokenService) RevokeOne(ctx context.Context, presented string) error {
	if _, _, err := s.verifySignature(ctx, presented); err != nil {
		return err
	}

	record, err := s.ledger.GetByToken(ctx, presented)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("failed to load refresh record: %w", err)
	}
	if record.Revoked {
		return model.ErrTokenRevoked
	}

	if err := s.ledger.Revoke(ctx, presented, model.ReplacedByManual); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	s.logger.Info("Token service: refresh token revoked",
		"client_id", record.ClientID,
		"user_id", record.UserID)
	return nil
}

// RevokeAll revokes every active refresh token for (user, client) and
// returns the number of records affected. Used for logout-everywhere and
// compromise response.
func (s *TokenService) RevokeAll(ctx context.Context, userID, clientID uuid.UUID) (int64, error) {
	count, err := s.ledger.RevokeAllForUser(ctx, userID, clientID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke all refresh tokens: %w", err)
	}

	s.logger.Info("Token service: all refresh tokens revoked",
		"client_id", clientID,
		"user_id", userID,
		"count", count)
	return count, nil
}

func (s *TokenService) verifySignature(ctx context.Context, tokenString string) (model.TokenClaims, model.Client, error) {
	kid, err := s.manager.PeekKID(tokenString)
	if err != nil {
		return model.TokenClaims{}, model.Client{}, err
	}

	client, err := s.clientStore.GetByKID(ctx, kid)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.TokenClaims{}, model.Client{}, model.ErrNotFound
		}
		return model.TokenClaims{}, model.Client{}, fmt.Errorf("failed to load client by kid: %w", err)
	}

	publicKey, err := keys.ParsePublicKeyPEM(client.KeyMaterial.PublicKeyPEM)
	if err != nil {
		return model.TokenClaims{}, model.Client{}, err
	}

	claims, err := s.manager.Verify(tokenString, publicKey)
	if err != nil {
		return model.TokenClaims{}, model.Client{}, err
	}
	return claims, client, nil
}
