// Package syncstore links upstream tax system keys to local objects in Redis.
package syncstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps synchronization links and uniqueness claims.
//
//	sync:<source>:<schema>:<key>  -> linked object id
//	claim:<source>:<schema>:<key> -> claim timestamp
type Store struct {
	rdb redis.Cmdable
	// claimTTL bounds how long an unlinked claim survives a crashed request.
	claimTTL time.Duration
}

// New returns a store on rdb. A zero claimTTL keeps claims until released.
func New(rdb redis.Cmdable, claimTTL time.Duration) *Store {
	return &Store{rdb: rdb, claimTTL: claimTTL}
}

func linkKey(sourceRef, schemaRef, key string) string {
	return fmt.Sprintf("sync:%s:%s:%s", sourceRef, schemaRef, key)
}

func claimKey(sourceRef, schemaRef, key string) string {
	return fmt.Sprintf("claim:%s:%s:%s", sourceRef, schemaRef, key)
}

// FindByCompositeKey returns the object linked to key, if any.
func (s *Store) FindByCompositeKey(ctx context.Context, sourceRef, schemaRef, key string) (string, bool, error) {
	id, err := s.rdb.Get(ctx, linkKey(sourceRef, schemaRef, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("syncstore: get link: %w", err)
	}
	return id, true, nil
}

// Claim reserves key for one creator. It reports false when the key was
// already claimed or linked.
func (s *Store) Claim(ctx context.Context, sourceRef, schemaRef, key string) (bool, error) {
	// redis/go-redis/v9: SETNX is atomic, so of two racing callers exactly one wins.
	ok, err := s.rdb.SetNX(ctx, claimKey(sourceRef, schemaRef, key), time.Now().UTC().Format(time.RFC3339Nano), s.claimTTL).Result()
	if err != nil {
		return false, fmt.Errorf("syncstore: claim: %w", err)
	}
	return ok, nil
}

// Link records objectID as the local object for key and makes the claim
// permanent.
func (s *Store) Link(ctx context.Context, sourceRef, schemaRef, key, objectID string) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, linkKey(sourceRef, schemaRef, key), objectID, 0)
		pipe.Persist(ctx, claimKey(sourceRef, schemaRef, key))
		return nil
	})
	if err != nil {
		return fmt.Errorf("syncstore: link: %w", err)
	}
	return nil
}

// Release drops an unlinked claim.
func (s *Store) Release(ctx context.Context, sourceRef, schemaRef, key string) error {
	if err := s.rdb.Del(ctx, claimKey(sourceRef, schemaRef, key)).Err(); err != nil {
		return fmt.Errorf("syncstore: release: %w", err)
	}
	return nil
}
