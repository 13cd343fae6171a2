package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xrickbrizz/FCEFyN-Planner-sub001/pkg/errors"

	"github.com/xrickbrizz/FCEFyN-Planner-sub001/internal/domain"
)

func setupTestCache(t *testing.T) (*StatsCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStatsCache(client, 5*time.Minute), mr
}

func cachedStats() *domain.ProfessorStats {
	return &domain.ProfessorStats{
		ProfessorID:   "prof_42",
		AvgTeaching:   4.2,
		AvgExams:      3.1,
		AvgTreatment:  4.8,
		AvgGeneral:    4.03,
		RatingCount:   12,
		CommentsCount: 5,
		UpdatedAt:     time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestStatsCache_SetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t)

	stats := cachedStats()
	require.NoError(t, cache.Set(context.Background(), stats))

	got, err := cache.Get(context.Background(), stats.ProfessorID)
	require.NoError(t, err)
	assert.Equal(t, stats.ProfessorID, got.ProfessorID)
	assert.Equal(t, stats.AvgGeneral, got.AvgGeneral)
	assert.Equal(t, stats.RatingCount, got.RatingCount)
}

func TestStatsCache_Get_Miss(t *testing.T) {
	cache, _ := setupTestCache(t)

	got, err := cache.Get(context.Background(), "prof_unknown")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound), "expected ErrNotFound, got: %v", err)
}

func TestStatsCache_Get_CorruptPayload(t *testing.T) {
	cache, mr := setupTestCache(t)

	require.NoError(t, mr.Set("stats:prof_42", "not json"))

	got, err := cache.Get(context.Background(), "prof_42")
	assert.Nil(t, got)
	assert.Error(t, err)
}

func TestStatsCache_Set_AppliesTTL(t *testing.T) {
	cache, mr := setupTestCache(t)

	stats := cachedStats()
	require.NoError(t, cache.Set(context.Background(), stats))

	mr.FastForward(6 * time.Minute)

	_, err := cache.Get(context.Background(), stats.ProfessorID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestStatsCache_Invalidate(t *testing.T) {
	cache, mr := setupTestCache(t)

	stats := cachedStats()
	data, err := json.Marshal(stats)
	require.NoError(t, err)
	require.NoError(t, mr.Set("stats:"+stats.ProfessorID, string(data)))

	require.NoError(t, cache.Invalidate(context.Background(), stats.ProfessorID))

	_, err = cache.Get(context.Background(), stats.ProfessorID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestStatsCache_Invalidate_MissingKey(t *testing.T) {
	cache, _ := setupTestCache(t)

	// Deleting a key that was never cached is not an error.
	assert.NoError(t, cache.Invalidate(context.Background(), "prof_unknown"))
}
