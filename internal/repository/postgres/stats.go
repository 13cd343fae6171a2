package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/xrickbrizz/FCEFyN-Planner-sub001/pkg/errors"

	"github.com/xrickbrizz/FCEFyN-Planner-sub001/internal/domain"
	"github.com/xrickbrizz/FCEFyN-Planner-sub001/pkg/database"
)

// StatsRepository implements repository.StatsRepository using PostgreSQL.
type StatsRepository struct {
	db database.DBTX
}

// NewStatsRepository creates a new PostgreSQL-backed stats repository.
func NewStatsRepository(db database.DBTX) *StatsRepository {
	return &StatsRepository{db: db}
}

// Upsert writes the professor's aggregate row. Only the named columns are
// touched, so columns added later keep their values on existing rows.
func (r *StatsRepository) Upsert(ctx context.Context, stats *domain.ProfessorStats) error {
	query := `
		INSERT INTO professor_stats (professor_id, avg_teaching, avg_exams, avg_treatment, avg_general, rating_count, comments_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (professor_id) DO UPDATE SET
			avg_teaching = EXCLUDED.avg_teaching,
			avg_exams = EXCLUDED.avg_exams,
			avg_treatment = EXCLUDED.avg_treatment,
			avg_general = EXCLUDED.avg_general,
			rating_count = EXCLUDED.rating_count,
			comments_count = EXCLUDED.comments_count,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		stats.ProfessorID,
		stats.AvgTeaching,
		stats.AvgExams,
		stats.AvgTreatment,
		stats.AvgGeneral,
		stats.RatingCount,
		stats.CommentsCount,
		stats.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert professor stats: %w", err)
	}

	return nil
}

// Get retrieves the aggregate row for the given professor.
func (r *StatsRepository) Get(ctx context.Context, professorID string) (*domain.ProfessorStats, error) {
	query := `
		SELECT professor_id, avg_teaching, avg_exams, avg_treatment, avg_general, rating_count, comments_count, updated_at
		FROM professor_stats
		WHERE professor_id = $1`

	var s domain.ProfessorStats
	err := r.db.QueryRow(ctx, query, professorID).Scan(
		&s.ProfessorID,
		&s.AvgTeaching,
		&s.AvgExams,
		&s.AvgTreatment,
		&s.AvgGeneral,
		&s.RatingCount,
		&s.CommentsCount,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan professor stats: %w", err)
	}

	return &s, nil
}
