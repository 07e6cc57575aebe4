package projections

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Freshness marks citizens whose assessments were synced or requested
// recently, so repeated list requests do not flood the syncer.
type Freshness struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewFreshness(rdb redis.Cmdable, ttl time.Duration) *Freshness {
	return &Freshness{rdb: rdb, ttl: ttl}
}

func freshKey(citizenID string) string {
	return "fresh:bsn:" + citizenID
}

// Acquire reports whether a sync should be requested for citizenID now and,
// if so, marks it as requested.
func (f *Freshness) Acquire(ctx context.Context, citizenID string) (bool, error) {
	// redis/go-redis/v9: SETNX with TTL, the marker expires on its own.
	return f.rdb.SetNX(ctx, freshKey(citizenID), "requested", f.ttl).Result()
}

// Forget clears the marker so the next request retries.
func (f *Freshness) Forget(ctx context.Context, citizenID string) error {
	return f.rdb.Del(ctx, freshKey(citizenID)).Err()
}

// Touch restarts the window after a completed sync.
func (f *Freshness) Touch(ctx context.Context, citizenID string) error {
	return f.rdb.Set(ctx, freshKey(citizenID), "synced", f.ttl).Err()
}
