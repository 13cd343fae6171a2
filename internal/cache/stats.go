package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/xrickbrizz/FCEFyN-Planner-sub001/pkg/errors"

	"github.com/xrickbrizz/FCEFyN-Planner-sub001/internal/domain"
)

const statsKeyPrefix = "stats:"

// StatsCache caches professor aggregates in Redis so the read path rarely
// touches PostgreSQL between recomputations.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache creates a Redis-backed stats cache.
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves a cached aggregate for the professor.
func (c *StatsCache) Get(ctx context.Context, professorID string) (*domain.ProfessorStats, error) {
	key := statsKeyPrefix + professorID

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("professor stats", professorID)
		}
		return nil, fmt.Errorf("redis get stats: %w", err)
	}

	var stats domain.ProfessorStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("unmarshal stats: %w", err)
	}

	return &stats, nil
}

// Set caches the professor aggregate with the configured TTL.
func (c *StatsCache) Set(ctx context.Context, stats *domain.ProfessorStats) error {
	key := statsKeyPrefix + stats.ProfessorID

	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set stats: %w", err)
	}

	return nil
}

// Invalidate drops the cached aggregate for the professor. It is called
// right after every recompute so readers never see an expired average for
// a full TTL window.
func (c *StatsCache) Invalidate(ctx context.Context, professorID string) error {
	key := statsKeyPrefix + professorID

	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del stats: %w", err)
	}

	return nil
}
