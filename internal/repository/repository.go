package repository

import (
	"context"

	"github.com/xrickbrizz/FCEFyN-Planner-sub001/internal/domain"
)

// ReviewRepository defines the interface for canonical review persistence.
type ReviewRepository interface {
	// Upsert inserts the review or, when a review with the same id already
	// exists, overwrites its mutable fields. The original created_at of an
	// existing row is preserved.
	Upsert(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its deterministic identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// ListByProfessor returns one page of a professor's reviews, newest
	// first, together with the professor's total review count.
	ListByProfessor(ctx context.Context, professorID string, limit, offset int) ([]domain.Review, int, error)

	// ListByReviewer returns all reviews written by the given reviewer,
	// newest first.
	ListByReviewer(ctx context.Context, reviewerID string) ([]domain.Review, error)

	// Delete removes a review by its identifier.
	Delete(ctx context.Context, id string) error

	// ForEachByProfessor streams every review of the professor through fn
	// without materializing the full set. Iteration stops on the first
	// error fn returns.
	ForEachByProfessor(ctx context.Context, professorID string, fn func(domain.Review) error) error
}

// StatsRepository defines the interface for aggregated professor statistics.
type StatsRepository interface {
	// Upsert writes the professor's aggregate row, overwriting any
	// previous aggregate for the same professor.
	Upsert(ctx context.Context, stats *domain.ProfessorStats) error

	// Get retrieves the aggregate row for the given professor.
	Get(ctx context.Context, professorID string) (*domain.ProfessorStats, error)
}

// ProfileRepository defines the interface for reading user profiles.
type ProfileRepository interface {
	// GetByUserID retrieves the profile of the given user.
	GetByUserID(ctx context.Context, userID string) (*domain.UserProfile, error)
}

// LegacyReviewRepository defines the interface for the imported legacy review
// dump worked on by the deduplication migration.
type LegacyReviewRepository interface {
	// ListProfessorIDs returns the distinct professor ids present in the
	// legacy dump, in ascending order.
	ListProfessorIDs(ctx context.Context) ([]string, error)

	// ListByProfessor returns every legacy document stored for the
	// professor, ordered by document id.
	ListByProfessor(ctx context.Context, professorID string) ([]domain.LegacyReview, error)

	// Migrate upserts the canonical documents for one professor and then
	// deletes the listed originals, all in a single transaction.
	Migrate(ctx context.Context, professorID string, canonical []domain.LegacyReview, deleteDocIDs []string) error
}
