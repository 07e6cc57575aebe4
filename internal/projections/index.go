package projections

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"simtax-adapter/internal/model"
)

// CitizenIndexKey is a sorted set of assessment ids per citizen, scored by
// tax year.
func CitizenIndexKey(citizenID string) string {
	return "idx:bsn:" + citizenID
}

// NumberIndexKey is a set of assessment ids sharing an assessment number.
func NumberIndexKey(number string) string {
	return "idx:number:" + number
}

// UpdateIndex makes an assessment findable by citizen and by number.
func UpdateIndex(ctx context.Context, rdb redis.Cmdable, a model.Assessment) error {
	year, _ := strconv.ParseFloat(a.TaxYear, 64)

	// redis/go-redis/v9: ZAdd keeps the citizen index ordered by tax year so
	// year filters become a ZRANGEBYSCORE.
	if err := rdb.ZAdd(ctx, CitizenIndexKey(a.CitizenID), redis.Z{Score: year, Member: a.ID}).Err(); err != nil {
		return err
	}
	if a.AssessmentNumber == "" {
		return nil
	}
	return rdb.SAdd(ctx, NumberIndexKey(a.AssessmentNumber), a.ID).Err()
}

// RemoveFromIndex drops an assessment that the tax system no longer reports.
func RemoveFromIndex(ctx context.Context, rdb redis.Cmdable, a model.Assessment) error {
	if err := rdb.ZRem(ctx, CitizenIndexKey(a.CitizenID), a.ID).Err(); err != nil {
		return err
	}
	if a.AssessmentNumber != "" {
		if err := rdb.SRem(ctx, NumberIndexKey(a.AssessmentNumber), a.ID).Err(); err != nil {
			return err
		}
	}
	return rdb.Del(ctx, AssessmentKey(a.ID)).Err()
}
