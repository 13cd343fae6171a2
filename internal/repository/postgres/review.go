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

const reviewColumns = `id, professor_id, reviewer_id, teaching_quality, exam_difficulty, student_treatment, comment, anonymous, author_name, created_at, updated_at`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	db database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Upsert inserts the review or overwrites the mutable fields of an existing
// row with the same id. The stored created_at of an existing row wins over
// the incoming one.
func (r *ReviewRepository) Upsert(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (id, professor_id, reviewer_id, teaching_quality, exam_difficulty, student_treatment, comment, anonymous, author_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			teaching_quality = EXCLUDED.teaching_quality,
			exam_difficulty = EXCLUDED.exam_difficulty,
			student_treatment = EXCLUDED.student_treatment,
			comment = EXCLUDED.comment,
			anonymous = EXCLUDED.anonymous,
			author_name = EXCLUDED.author_name,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		review.ID,
		review.ProfessorID,
		review.ReviewerID,
		review.TeachingQuality,
		review.ExamDifficulty,
		review.StudentTreatment,
		review.Comment,
		review.Anonymous,
		review.AuthorName,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert review: %w", err)
	}

	return nil
}

// GetByID retrieves a review by its identifier.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE id = $1`

	var rv domain.Review
	err := r.db.QueryRow(ctx, query, id).Scan(
		&rv.ID,
		&rv.ProfessorID,
		&rv.ReviewerID,
		&rv.TeachingQuality,
		&rv.ExamDifficulty,
		&rv.StudentTreatment,
		&rv.Comment,
		&rv.Anonymous,
		&rv.AuthorName,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}

	return &rv, nil
}

// ListByProfessor returns one page of a professor's reviews, newest first by
// created_at, plus the professor's total review count.
func (r *ReviewRepository) ListByProfessor(ctx context.Context, professorID string, limit, offset int) ([]domain.Review, int, error) {
	var total int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM reviews WHERE professor_id = $1`,
		professorID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE professor_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, professorID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews, err := collectReviews(rows)
	if err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

// ListByReviewer returns all reviews written by the given reviewer, newest first.
func (r *ReviewRepository) ListByReviewer(ctx context.Context, reviewerID string) ([]domain.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE reviewer_id = $1
		ORDER BY created_at DESC, id`

	rows, err := r.db.Query(ctx, query, reviewerID)
	if err != nil {
		return nil, fmt.Errorf("list reviews by reviewer: %w", err)
	}
	defer rows.Close()

	return collectReviews(rows)
}

// Delete removes a review by its identifier.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}

	return nil
}

// ForEachByProfessor streams every review of the professor through fn in
// insertion order without holding the full set in memory.
func (r *ReviewRepository) ForEachByProfessor(ctx context.Context, professorID string, fn func(domain.Review) error) error {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE professor_id = $1`

	rows, err := r.db.Query(ctx, query, professorID)
	if err != nil {
		return fmt.Errorf("stream reviews: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return err
		}
		if err := fn(rv); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate review rows: %w", err)
	}

	return nil
}

func scanReview(rows pgx.Rows) (domain.Review, error) {
	var rv domain.Review
	if err := rows.Scan(
		&rv.ID,
		&rv.ProfessorID,
		&rv.ReviewerID,
		&rv.TeachingQuality,
		&rv.ExamDifficulty,
		&rv.StudentTreatment,
		&rv.Comment,
		&rv.Anonymous,
		&rv.AuthorName,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	); err != nil {
		return domain.Review{}, fmt.Errorf("scan review row: %w", err)
	}
	return rv, nil
}

func collectReviews(rows pgx.Rows) ([]domain.Review, error) {
	var reviews []domain.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}

	return reviews, nil
}
