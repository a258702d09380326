package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/crashgame/backend/domain/crash"
)

const historyKey = "crash:history"

// HistoryCache mirrors the crash-history ring to Redis so the on-connect
// history payload survives process restarts.
type HistoryCache struct {
	client *redis.Client
}

func NewHistoryCache(client *redis.Client) *HistoryCache {
	return &HistoryCache{client: client}
}

var _ crash.HistoryStore = (*HistoryCache)(nil)

// PushHistory prepends the entry and trims the list to max.
func (c *HistoryCache) PushHistory(ctx context.Context, entry crash.HistoryEntry, max int) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode history entry: %w", err)
	}
	pipe := c.client.TxPipeline()
	pipe.LPush(ctx, historyKey, raw)
	pipe.LTrim(ctx, historyKey, 0, int64(max-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push history entry: %w", err)
	}
	return nil
}

// RecentHistory returns up to max entries, most recent first.
func (c *HistoryCache) RecentHistory(ctx context.Context, max int) ([]crash.HistoryEntry, error) {
	raws, err := c.client.LRange(ctx, historyKey, 0, int64(max-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	entries := make([]crash.HistoryEntry, 0, len(raws))
	for _, raw := range raws {
		var entry crash.HistoryEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
