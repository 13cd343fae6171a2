package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/xrickbrizz/FCEFyN-Planner-sub001/pkg/errors"

	"github.com/xrickbrizz/FCEFyN-Planner-sub001/internal/cache"
	"github.com/xrickbrizz/FCEFyN-Planner-sub001/internal/domain"
	"github.com/xrickbrizz/FCEFyN-Planner-sub001/internal/repository"
)

// StatsService owns the professor_stats table: it is the only writer, and
// every write is a full recomputation from the current review set.
type StatsService struct {
	reviews repository.ReviewRepository
	stats   repository.StatsRepository
	cache   *cache.StatsCache
	logger  *slog.Logger
}

// NewStatsService creates a new stats service. cache may be nil, in which
// case every read goes to PostgreSQL.
func NewStatsService(reviews repository.ReviewRepository, stats repository.StatsRepository, statsCache *cache.StatsCache, logger *slog.Logger) *StatsService {
	return &StatsService{
		reviews: reviews,
		stats:   stats,
		cache:   statsCache,
		logger:  logger,
	}
}

// Recompute rebuilds the professor's aggregate from scratch by streaming the
// full current review set. It is a pure function of stored state, so
// concurrent invocations for the same professor converge: the last writer
// wins and a subsequent event recomputes the same totals. A blank professor
// id is a no-op.
func (s *StatsService) Recompute(ctx context.Context, professorID string) error {
	if strings.TrimSpace(professorID) == "" {
		return nil
	}

	var acc domain.StatsAccumulator
	err := s.reviews.ForEachByProfessor(ctx, professorID, func(rv domain.Review) error {
		acc.Observe(rv)
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan reviews for professor %s: %w", professorID, err)
	}

	stats := acc.Stats(professorID, time.Now().UTC())

	if err := s.stats.Upsert(ctx, &stats); err != nil {
		return fmt.Errorf("write stats for professor %s: %w", professorID, err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, professorID); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate stats cache",
				slog.String("professor_id", professorID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "professor stats recomputed",
		slog.String("professor_id", professorID),
		slog.Int("rating_count", stats.RatingCount),
		slog.Int("comments_count", stats.CommentsCount),
	)

	return nil
}

// Get returns the professor's aggregate, serving from the cache when warm.
// A professor with no aggregate row reads as the empty aggregate rather than
// an error: zero averages and zero counts are the defined state for a
// professor nobody has reviewed.
func (s *StatsService) Get(ctx context.Context, professorID string) (*domain.ProfessorStats, error) {
	professorID = strings.TrimSpace(professorID)
	if professorID == "" {
		return nil, apperrors.InvalidInput("professor id is required")
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, professorID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "stats cache read failed",
				slog.String("professor_id", professorID),
				slog.String("error", err.Error()),
			)
		}
	}

	stats, err := s.stats.Get(ctx, professorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			stats = &domain.ProfessorStats{ProfessorID: professorID}
		} else {
			return nil, fmt.Errorf("get stats: %w", err)
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, stats); err != nil {
			s.logger.WarnContext(ctx, "stats cache write failed",
				slog.String("professor_id", professorID),
				slog.String("error", err.Error()),
			)
		}
	}

	return stats, nil
}
