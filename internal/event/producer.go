package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	pkgkafka "github.com/xrickbrizz/FCEFyN-Planner-sub001/pkg/kafka"

	"github.com/xrickbrizz/FCEFyN-Planner-sub001/internal/domain"
)

// TopicReviewWritten carries every write to the reviews collection: creates,
// overwrites and deletes alike.
var TopicReviewWritten = pkgkafka.Topic("review", "written")

// EventTypeReviewWritten is the event type stamped on review write events.
const EventTypeReviewWritten = "review.written"

// Aggregate type constant.
const AggregateTypeProfessor = "professor"

// SourceReviewService identifies events originating from the review service.
const SourceReviewService = "review-service"

// ReviewSnapshot is the state of a review embedded in a write event.
type ReviewSnapshot struct {
	ID               string    `json:"id"`
	ProfessorID      string    `json:"professor_id"`
	ReviewerID       string    `json:"reviewer_id"`
	TeachingQuality  float64   `json:"teaching_quality"`
	ExamDifficulty   float64   `json:"exam_difficulty"`
	StudentTreatment float64   `json:"student_treatment"`
	Comment          string    `json:"comment"`
	Anonymous        bool      `json:"anonymous"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ReviewWrittenData is the payload for a review.written event. Before is nil
// on first-time submissions, After is nil on deletions; they are never both
// nil.
type ReviewWrittenData struct {
	ProfessorID string          `json:"professor_id"`
	ReviewID    string          `json:"review_id"`
	Before      *ReviewSnapshot `json:"before,omitempty"`
	After       *ReviewSnapshot `json:"after,omitempty"`
}

func snapshot(rv *domain.Review) *ReviewSnapshot {
	if rv == nil {
		return nil
	}
	return &ReviewSnapshot{
		ID:               rv.ID,
		ProfessorID:      rv.ProfessorID,
		ReviewerID:       rv.ReviewerID,
		TeachingQuality:  rv.TeachingQuality,
		ExamDifficulty:   rv.ExamDifficulty,
		StudentTreatment: rv.StudentTreatment,
		Comment:          rv.Comment,
		Anonymous:        rv.Anonymous,
		UpdatedAt:        rv.UpdatedAt,
	}
}

// Producer publishes review domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the review service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishReviewWritten publishes a review.written event for any write to the
// review set. before is the prior state when the write replaced or removed an
// existing review; after is the resulting state, nil for deletions.
func (p *Producer) PublishReviewWritten(ctx context.Context, professorID, reviewID string, before, after *domain.Review) error {
	data := ReviewWrittenData{
		ProfessorID: professorID,
		ReviewID:    reviewID,
		Before:      snapshot(before),
		After:       snapshot(after),
	}

	event, err := pkgkafka.NewEvent(EventTypeReviewWritten, professorID, AggregateTypeProfessor, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create review.written event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewWritten, event); err != nil {
		return fmt.Errorf("publish review.written event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.written event",
		slog.String("professor_id", professorID),
		slog.String("review_id", reviewID),
	)

	return nil
}
