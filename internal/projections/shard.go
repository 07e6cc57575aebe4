package projections

import (
	"context"
	"errors"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"simtax-adapter/internal/model"
)

// AssessmentKey holds the JSON snapshot of one assessment.
func AssessmentKey(id string) string {
	return "assessment:" + id
}

// UpdateShard stores the full assessment snapshot. TTL=0, the next sync
// overwrites it.
func UpdateShard(ctx context.Context, rdb redis.Cmdable, a model.Assessment) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, AssessmentKey(a.ID), data, 0).Err()
}

// LoadShard reads one snapshot. A missing key yields nil, nil.
func LoadShard(ctx context.Context, rdb redis.Cmdable, id string) (*model.Assessment, error) {
	data, err := rdb.Get(ctx, AssessmentKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var a model.Assessment
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
