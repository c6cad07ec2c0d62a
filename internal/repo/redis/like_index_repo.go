package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const likeIndexPrefix = "likes:"

// LikeIndexRepo mirrors recent like/super-like decisions as per-user redis
// sets with a bounded lifetime. It is a lookup shortcut only; the swipe
// ledger stays the source of record and callers must fall back to it on a
// miss.
type LikeIndexRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewLikeIndexRepo(client *goredis.Client, ttl time.Duration) *LikeIndexRepo {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &LikeIndexRepo{
		client: client,
		ttl:    ttl,
	}
}

// Register adds targetID to the user's like set and refreshes the set's
// expiry.
func (r *LikeIndexRepo) Register(ctx context.Context, userID, targetID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if userID <= 0 || targetID <= 0 {
		return fmt.Errorf("invalid like index payload")
	}

	pipe := r.client.TxPipeline()
	pipe.SAdd(ctx, likeIndexKey(userID), targetID)
	pipe.Expire(ctx, likeIndexKey(userID), r.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("register like in index: %w", err)
	}

	return nil
}

// Contains reports whether the user's like set holds targetID. A false
// result means "not cached", not "never liked".
func (r *LikeIndexRepo) Contains(ctx context.Context, userID, targetID int64) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	if userID <= 0 || targetID <= 0 {
		return false, fmt.Errorf("invalid like index payload")
	}

	found, err := r.client.SIsMember(ctx, likeIndexKey(userID), targetID).Result()
	if err != nil {
		return false, fmt.Errorf("check like index membership: %w", err)
	}

	return found, nil
}

func likeIndexKey(userID int64) string {
	return likeIndexPrefix + strconv.FormatInt(userID, 10)
}
