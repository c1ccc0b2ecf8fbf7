package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix      = "user:%d"
	UserStatsKeyPrefix = "user:%d:stats"
)

// A read that misses while a write commits can store the pre-write row
// after the write's invalidation. The TTL bounds how long that lasts.
const (
	UserTTL      = 5 * time.Minute
	UserStatsTTL = 1 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func UserStatsKey(userID uint) string {
	return fmt.Sprintf(UserStatsKeyPrefix, userID)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}

// InvalidateUser drops the cached profile and counters for userID.
func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID), UserStatsKey(userID))
}

// InvalidateStats drops only the cached counters, used when edges change.
func InvalidateStats(ctx context.Context, userIDs ...uint) {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, UserStatsKey(id))
	}
	Invalidate(ctx, keys...)
}
