package repositories

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const rateLimitKeyPrefix = "ratelimit:"

// RateLimitRedisRepository implements the sliding-window entry storage with a
// Redis sorted set per identifier, scored by insertion timestamp (ms).
type RateLimitRedisRepository struct {
	r redis.Cmdable
}

func NewRateLimitRedisRepository(r redis.Cmdable) *RateLimitRedisRepository {
	return &RateLimitRedisRepository{r: r}
}

// key builds the literal prefixed key. Identifiers are opaque: empty strings
// and reserved characters are all valid key material.
func (repo *RateLimitRedisRepository) key(identifier string) string {
	return rateLimitKeyPrefix + identifier
}

// PurgeBefore removes entries scored strictly below cutoff.
func (repo *RateLimitRedisRepository) PurgeBefore(ctx context.Context, identifier string, cutoff int64) error {
	max := "(" + strconv.FormatInt(cutoff, 10)
	return repo.r.ZRemRangeByScore(ctx, repo.key(identifier), "-inf", max).Err()
}

// CountSince counts entries scored in [from, +inf).
func (repo *RateLimitRedisRepository) CountSince(ctx context.Context, identifier string, from int64) (int64, error) {
	return repo.r.ZCount(ctx, repo.key(identifier), strconv.FormatInt(from, 10), "+inf").Result()
}

// Record inserts an entry scored at and refreshes the key's TTL in one
// transactional pipeline. The member carries a uuid so two requests landing on
// the same millisecond stay distinct set members.
func (repo *RateLimitRedisRepository) Record(ctx context.Context, identifier string, at int64, ttl time.Duration) error {
	member := fmt.Sprintf("%d:%s", at, uuid.NewString())
	pipe := repo.r.TxPipeline()
	pipe.ZAdd(ctx, repo.key(identifier), &redis.Z{Score: float64(at), Member: member})
	pipe.Expire(ctx, repo.key(identifier), ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// OldestScore returns the earliest entry's score, for retry-after computation.
func (repo *RateLimitRedisRepository) OldestScore(ctx context.Context, identifier string) (int64, bool, error) {
	entries, err := repo.r.ZRangeWithScores(ctx, repo.key(identifier), 0, 0).Result()
	if err != nil {
		return 0, false, err
	}
	if len(entries) == 0 {
		return 0, false, nil
	}
	return int64(entries[0].Score), true, nil
}

// Delete removes the identifier's key outright.
func (repo *RateLimitRedisRepository) Delete(ctx context.Context, identifier string) error {
	return repo.r.Del(ctx, repo.key(identifier)).Err()
}
