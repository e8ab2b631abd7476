package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mauth-dev/mauth/internal/model"
)

var _ model.MagicLinkStore = (*MagicLinkStore)(nil)

const magicTokenPrefix = "magic_token:"

// MagicLinkStore keeps pending magic-link redemptions in Redis under a
// TTL, so expiry needs no background sweeps.
type MagicLinkStore struct {
	redis redis.UniversalClient
}

func NewMagicLinkStore(client redis.UniversalClient) *MagicLinkStore {
	return &MagicLinkStore{redis: client}
}

func (s *MagicLinkStore) key(token string) string {
	return magicTokenPrefix + token
}

func (s *MagicLinkStore) Save(ctx context.Context, token string, entry model.MagicLinkEntry, ttl time.Duration) error {
	encoded, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode magic link entry: %w", err)
	}

	if err := s.redis.Set(ctx, s.key(token), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store magic link entry: %w", err)
	}
	return nil
}

// Consume performs the read-and-delete as one GETDEL command. The store
// is the single arbiter of the race: of two concurrent redeems exactly
// one observes the value.
func (s *MagicLinkStore) Consume(ctx context.Context, token string) (model.MagicLinkEntry, error) {
	data, err := s.redis.GetDel(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Never issued, already used, or expired. Indistinguishable
			// on purpose.
			return model.MagicLinkEntry{}, model.ErrLinkInvalid
		}
		return model.MagicLinkEntry{}, fmt.Errorf("failed to consume magic link entry: %w", err)
	}

	var entry model.MagicLinkEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return model.MagicLinkEntry{}, fmt.Errorf("failed to decode magic link entry: %w", err)
	}
	return entry, nil
}
