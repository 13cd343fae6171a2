package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/xrickbrizz/FCEFyN-Planner-sub001/pkg/errors"

	"github.com/xrickbrizz/FCEFyN-Planner-sub001/internal/domain"
	"github.com/xrickbrizz/FCEFyN-Planner-sub001/internal/event"
	"github.com/xrickbrizz/FCEFyN-Planner-sub001/internal/repository"
)

// Caller identifies the authenticated user submitting a request, as carried
// by the access token.
type Caller struct {
	UserID string
	Email  string
	Name   string
}

// SubmitReviewInput holds the raw submission payload. The rating, comment and
// anonymous fields are deliberately untyped: clients have historically sent
// numbers as strings and booleans as absent, and each field has a defined
// normalization rule rather than a decode-time rejection.
type SubmitReviewInput struct {
	ProfessorID      string `json:"professor_id"`
	TeachingQuality  any    `json:"teaching_quality"`
	ExamDifficulty   any    `json:"exam_difficulty"`
	StudentTreatment any    `json:"student_treatment"`
	Comment          any    `json:"comment"`
	Anonymous        any    `json:"anonymous"`
}

// ReviewService implements the business logic for review submission and
// retrieval.
type ReviewService struct {
	reviews  repository.ReviewRepository
	profiles repository.ProfileRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(reviews repository.ReviewRepository, profiles repository.ProfileRepository, producer *event.Producer, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		profiles: profiles,
		producer: producer,
		logger:   logger,
	}
}

// Submit validates and upserts one reviewer's review of one professor. The
// review id is derived from the professor and reviewer identities, so a
// repeat submission overwrites the prior review instead of adding a second
// one. A prior review's createdAt survives the overwrite.
func (s *ReviewService) Submit(ctx context.Context, caller Caller, input SubmitReviewInput) error {
	if caller.UserID == "" {
		return apperrors.Unauthorized("authentication required")
	}

	professorID := strings.TrimSpace(input.ProfessorID)
	if professorID == "" {
		return apperrors.InvalidInput("professor id is required")
	}

	teaching, ok := domain.NormalizeRating(input.TeachingQuality)
	if !ok {
		return apperrors.InvalidInput("teaching quality must be a number between 0 and 5")
	}
	exams, ok := domain.NormalizeRating(input.ExamDifficulty)
	if !ok {
		return apperrors.InvalidInput("exam difficulty must be a number between 0 and 5")
	}
	treatment, ok := domain.NormalizeRating(input.StudentTreatment)
	if !ok {
		return apperrors.InvalidInput("student treatment must be a number between 0 and 5")
	}

	comment := ""
	if c, isString := input.Comment.(string); isString {
		comment = strings.TrimSpace(c)
	}

	anonymous, _ := input.Anonymous.(bool)

	authorName := ""
	if !anonymous {
		authorName = s.resolveAuthorName(ctx, caller)
	}

	id := domain.ReviewID(professorID, caller.UserID)
	now := time.Now().UTC()

	before, err := s.reviews.GetByID(ctx, id)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.Internal(fmt.Errorf("load existing review: %w", err))
	}

	createdAt := now
	if before != nil {
		createdAt = before.CreatedAt
	}

	review := &domain.Review{
		ID:               id,
		ProfessorID:      professorID,
		ReviewerID:       caller.UserID,
		TeachingQuality:  teaching,
		ExamDifficulty:   exams,
		StudentTreatment: treatment,
		Comment:          comment,
		Anonymous:        anonymous,
		AuthorName:       authorName,
		CreatedAt:        createdAt,
		UpdatedAt:        now,
	}

	if err := s.reviews.Upsert(ctx, review); err != nil {
		return apperrors.Internal(fmt.Errorf("upsert review: %w", err))
	}

	// The write event drives stats recomputation. A publish failure must
	// not fail the submission: the aggregate converges on the next write.
	if err := s.producer.PublishReviewWritten(ctx, professorID, id, before, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.written event",
			slog.String("professor_id", professorID),
			slog.String("review_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review submitted",
		slog.String("professor_id", professorID),
		slog.String("reviewer_id", caller.UserID),
		slog.Bool("anonymous", anonymous),
	)

	return nil
}

// Delete removes the caller's own review of the given professor.
func (s *ReviewService) Delete(ctx context.Context, caller Caller, professorID string) error {
	if caller.UserID == "" {
		return apperrors.Unauthorized("authentication required")
	}

	professorID = strings.TrimSpace(professorID)
	if professorID == "" {
		return apperrors.InvalidInput("professor id is required")
	}

	id := domain.ReviewID(professorID, caller.UserID)

	before, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("review", id)
		}
		return apperrors.Internal(fmt.Errorf("load review: %w", err))
	}

	if err := s.reviews.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("review", id)
		}
		return apperrors.Internal(fmt.Errorf("delete review: %w", err))
	}

	if err := s.producer.PublishReviewWritten(ctx, professorID, id, before, nil); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.written event",
			slog.String("professor_id", professorID),
			slog.String("review_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("professor_id", professorID),
		slog.String("reviewer_id", caller.UserID),
	)

	return nil
}

// ListByProfessor returns one page of a professor's reviews, newest first,
// with the professor's total review count.
func (s *ReviewService) ListByProfessor(ctx context.Context, professorID string, limit, offset int) ([]domain.Review, int, error) {
	professorID = strings.TrimSpace(professorID)
	if professorID == "" {
		return nil, 0, apperrors.InvalidInput("professor id is required")
	}

	reviews, total, err := s.reviews.ListByProfessor(ctx, professorID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}

	return reviews, total, nil
}

// ListMine returns every review the caller has submitted, newest first.
func (s *ReviewService) ListMine(ctx context.Context, caller Caller) ([]domain.Review, error) {
	if caller.UserID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}

	reviews, err := s.reviews.ListByReviewer(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("list own reviews: %w", err)
	}

	return reviews, nil
}

// resolveAuthorName picks the display name stored on a non-anonymous review:
// the token's name claim, then the profile display name, then the token
// email, then a generic fallback.
func (s *ReviewService) resolveAuthorName(ctx context.Context, caller Caller) string {
	if name := strings.TrimSpace(caller.Name); name != "" {
		return name
	}

	profile, err := s.profiles.GetByUserID(ctx, caller.UserID)
	if err == nil && strings.TrimSpace(profile.DisplayName) != "" {
		return strings.TrimSpace(profile.DisplayName)
	}
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.WarnContext(ctx, "failed to load profile for author name",
			slog.String("user_id", caller.UserID),
			slog.String("error", err.Error()),
		)
	}

	if email := strings.TrimSpace(caller.Email); email != "" {
		return email
	}

	return domain.FallbackAuthorName
}
