package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/crashgame/backend/domain/provablyfair"
)

const (
	seedStateKeyPrefix = "crash:seed:"
	seedStateTTL       = 24 * time.Hour
)

// SeedCache is the fast-path store for per-user seed session state. Losing
// it is harmless: the service recovers from the encrypted DB copy.
type SeedCache struct {
	client *redis.Client
}

func NewSeedCache(client *redis.Client) *SeedCache {
	return &SeedCache{client: client}
}

var _ provablyfair.CacheRepository = (*SeedCache)(nil)

func (c *SeedCache) GetSessionState(ctx context.Context, userID uuid.UUID) (*provablyfair.SessionState, error) {
	raw, err := c.client.Get(ctx, seedStateKeyPrefix+userID.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, provablyfair.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read seed state: %w", err)
	}
	var state provablyfair.SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("failed to decode seed state: %w", err)
	}
	return &state, nil
}

func (c *SeedCache) SetSessionState(ctx context.Context, state *provablyfair.SessionState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode seed state: %w", err)
	}
	if err := c.client.Set(ctx, seedStateKeyPrefix+state.UserID.String(), raw, seedStateTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache seed state: %w", err)
	}
	return nil
}

func (c *SeedCache) DeleteSessionState(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, seedStateKeyPrefix+userID.String()).Err(); err != nil {
		return fmt.Errorf("failed to delete seed state: %w", err)
	}
	return nil
}
