package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// PresenceMirror keeps a best-effort copy of the in-memory online set in
// Redis so HTTP consumers can list who is online without touching the
// realtime layer. The in-memory tracker stays the source of truth; a
// failed mirror write is logged by the caller and otherwise ignored.
type PresenceMirror struct {
	rdb *redis.Client
	ttl time.Duration
}

const onlineSetKey = "presence:online"

func NewPresenceMirror(rdb *redis.Client) *PresenceMirror {
	return &PresenceMirror{rdb: rdb, ttl: 24 * time.Hour}
}

func (m *PresenceMirror) SetOnline(ctx context.Context, userID string) error {
	if err := m.rdb.SAdd(ctx, onlineSetKey, userID).Err(); err != nil {
		return err
	}
	// refresh so a crashed process doesn't leave the set around forever
	return m.rdb.Expire(ctx, onlineSetKey, m.ttl).Err()
}

func (m *PresenceMirror) SetOffline(ctx context.Context, userID string) error {
	return m.rdb.SRem(ctx, onlineSetKey, userID).Err()
}

func (m *PresenceMirror) ListOnline(ctx context.Context) ([]string, error) {
	return m.rdb.SMembers(ctx, onlineSetKey).Result()
}
