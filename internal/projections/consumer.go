package projections

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"simtax-adapter/internal/model"
)

// Projector applies assessments-synced events to the Redis read model.
type Projector struct {
	rdb   redis.Cmdable
	fresh *Freshness
}

func NewProjector(rdb redis.Cmdable, fresh *Freshness) *Projector {
	return &Projector{rdb: rdb, fresh: fresh}
}

// HandleMessage decodes one Kafka message and applies it.
func (p *Projector) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var evt model.AssessmentsSynced
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		return fmt.Errorf("projections: decode event: %w", err)
	}
	return p.Apply(ctx, evt)
}

// Apply replaces a citizen's assessments with the synced set.
func (p *Projector) Apply(ctx context.Context, evt model.AssessmentsSynced) error {
	if evt.CitizenID == "" {
		return errors.New("projections: event without citizenId")
	}

	current := make(map[string]bool, len(evt.Assessments))
	for _, a := range evt.Assessments {
		if a.CitizenID == "" {
			a.CitizenID = evt.CitizenID
		}
		if a.ID == "" {
			a.ID = model.CompositeKey(a.AssessmentNumber, a.SequenceNumber)
		}
		current[a.ID] = true

		if err := UpdateShard(ctx, p.rdb, a); err != nil {
			return fmt.Errorf("projections: shard %s: %w", a.ID, err)
		}
		if err := UpdateIndex(ctx, p.rdb, a); err != nil {
			return fmt.Errorf("projections: index %s: %w", a.ID, err)
		}
	}

	if err := p.prune(ctx, evt.CitizenID, current); err != nil {
		return err
	}
	if p.fresh != nil {
		return p.fresh.Touch(ctx, evt.CitizenID)
	}
	return nil
}

// prune removes assessments the tax system stopped reporting for citizenID.
func (p *Projector) prune(ctx context.Context, citizenID string, keep map[string]bool) error {
	ids, err := p.rdb.ZRange(ctx, CitizenIndexKey(citizenID), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("projections: list index: %w", err)
	}
	for _, id := range ids {
		if keep[id] {
			continue
		}
		stale, err := LoadShard(ctx, p.rdb, id)
		if err != nil {
			return fmt.Errorf("projections: load %s: %w", id, err)
		}
		if stale == nil {
			stale = &model.Assessment{ID: id, CitizenID: citizenID}
		}
		if err := RemoveFromIndex(ctx, p.rdb, *stale); err != nil {
			return fmt.Errorf("projections: remove %s: %w", id, err)
		}
	}
	return nil
}
