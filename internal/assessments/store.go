// Package assessments serves the assessment read model that the projections
// package maintains in Redis.
package assessments

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/redis/go-redis/v9"

	"simtax-adapter/internal/model"
	"simtax-adapter/internal/projections"
)

// Store answers assessment searches for one schema.
type Store struct {
	rdb       redis.Cmdable
	schemaRef string
}

func NewStore(rdb redis.Cmdable, schemaRef string) *Store {
	return &Store{rdb: rdb, schemaRef: schemaRef}
}

// Search returns the assessments matching filter. Records of other schemas
// are never held here, so a search that does not name this store's schema
// finds nothing.
func (s *Store) Search(ctx context.Context, _ string, filter model.AssessmentFilter, schemaRefs []string) (model.SearchResult, error) {
	empty := model.SearchResult{Results: []model.Assessment{}}
	if len(schemaRefs) > 0 && !slices.Contains(schemaRefs, s.schemaRef) {
		return empty, nil
	}

	ids, err := s.candidates(ctx, filter)
	if err != nil {
		return empty, err
	}

	results := []model.Assessment{}
	for _, id := range ids {
		a, err := projections.LoadShard(ctx, s.rdb, id)
		if err != nil {
			return empty, fmt.Errorf("assessments: load %s: %w", id, err)
		}
		if a == nil || !matches(*a, filter) {
			continue
		}
		results = append(results, *a)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].TaxYear != results[j].TaxYear {
			return results[i].TaxYear < results[j].TaxYear
		}
		if results[i].AssessmentNumber != results[j].AssessmentNumber {
			return results[i].AssessmentNumber < results[j].AssessmentNumber
		}
		return results[i].SequenceNumber < results[j].SequenceNumber
	})
	return model.SearchResult{Count: len(results), Results: results}, nil
}

// GetByID loads one assessment. An unknown id yields nil, nil.
func (s *Store) GetByID(ctx context.Context, id string) (*model.Assessment, error) {
	return projections.LoadShard(ctx, s.rdb, id)
}

// candidates narrows the id set through the cheapest index the filter allows.
func (s *Store) candidates(ctx context.Context, filter model.AssessmentFilter) ([]string, error) {
	switch {
	case filter.AssessmentNumber != "":
		// redis/go-redis/v9: SMembers on the number index.
		return s.rdb.SMembers(ctx, projections.NumberIndexKey(filter.AssessmentNumber)).Result()
	case filter.CitizenID != "":
		by := &redis.ZRangeBy{Min: "-inf", Max: "+inf"}
		if len(filter.Years) > 0 {
			lo, hi := slices.Min(filter.Years), slices.Max(filter.Years)
			by = &redis.ZRangeBy{Min: lo, Max: hi}
		}
		// redis/go-redis/v9: ZRangeByScore over the tax-year scores.
		return s.rdb.ZRangeByScore(ctx, projections.CitizenIndexKey(filter.CitizenID), by).Result()
	default:
		return nil, nil
	}
}

func matches(a model.Assessment, filter model.AssessmentFilter) bool {
	if filter.CitizenID != "" && a.CitizenID != filter.CitizenID {
		return false
	}
	if filter.AssessmentNumber != "" && a.AssessmentNumber != filter.AssessmentNumber {
		return false
	}
	if filter.SequenceNumber != "" && a.SequenceNumber != filter.SequenceNumber {
		return false
	}
	if len(filter.Years) > 0 && !slices.Contains(filter.Years, a.TaxYear) {
		return false
	}
	return true
}
