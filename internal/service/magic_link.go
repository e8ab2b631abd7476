package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mauth-dev/mauth/internal/logger"
	"github.com/mauth-dev/mauth/internal/model"
)

const magicTokenBytes = 32

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// MagicLink issues and redeems single-use magic-link tokens. Issue does
// not send mail; the caller embeds the returned token in a link.
type MagicLink struct {
	clientStore model.ClientStore
	userStore   model.UserStore
	linkStore   model.MagicLinkStore
	logger      *logger.Logger
}

func NewMagicLink(
	clientStore model.ClientStore,
	userStore model.UserStore,
	linkStore model.MagicLinkStore,
	logger *logger.Logger,
) *MagicLink {
	return &MagicLink{
		clientStore: clientStore,
		userStore:   userStore,
		linkStore:   linkStore,
		logger:      logger,
	}
}

// Issue validates the client, lazily creates the (email, client) user,
// updates last login and stores a pending redemption under a fresh random
// token for MagicLinkTTL.
func (s *MagicLink) Issue(ctx context.Context, email string, clientID uuid.UUID) (string, model.Client, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", model.Client{}, err
	}

	client, err := s.clientStore.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", model.Client{}, model.ErrNotFound
		}
		return "", model.Client{}, fmt.Errorf("failed to load client: %w", err)
	}

	user, err := s.userStore.GetByEmail(ctx, email, client.ID)
	if errors.Is(err, model.ErrNotFound) {
		user, err = s.userStore.Create(ctx, model.User{
			ID:       uuid.New(),
			Email:    email,
			ClientID: client.ID,
		})
	}
	if err != nil {
		return "", model.Client{}, fmt.Errorf("failed to resolve user: %w", err)
	}

	if err := s.userStore.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		return "", model.Client{}, fmt.Errorf("failed to update last login: %w", err)
	}

	buf := make([]byte, magicTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", model.Client{}, fmt.Errorf("%w: generate magic token: %v", model.ErrCryptoFailure, err)
	}
	token := hex.EncodeToString(buf)

	entry := model.MagicLinkEntry{
		UserID:      user.ID,
		ClientID:    client.ID,
		RedirectURL: client.RedirectURL,
	}
	if err := s.linkStore.Save(ctx, token, entry, model.MagicLinkTTL); err != nil {
		return "", model.Client{}, err
	}

	s.logger.Info("Magic link service: link issued",
		"client_id", client.ID,
		"user_id", user.ID)

	return token, client, nil
}

// Redeem consumes a pending redemption exactly once. Absent, expired and
// already-used tokens all surface as ErrLinkInvalid.
func (s *MagicLink) Redeem(ctx context.Context, token string) (model.MagicLinkEntry, error) {
	if token == "" {
		return model.MagicLinkEntry{}, fmt.Errorf("%w: token is required", model.ErrValidation)
	}

	entry, err := s.linkStore.Consume(ctx, token)
	if err != nil {
		return model.MagicLinkEntry{}, err
	}

	s.logger.Info("Magic link service: link redeemed",
		"client_id", entry.ClientID,
		"user_id", entry.UserID)

	return entry, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", model.ErrValidation)
	}
	if len(email) < 5 || len(email) > 255 || !emailPattern.MatchString(email) {
		return "", fmt.Errorf("%w: malformed email", model.ErrValidation)
	}
	return email, nil
}
