package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	pkgkafka "github.com/xrickbrizz/FCEFyN-Planner-sub001/pkg/kafka"
)

// StatsRecomputer defines the interface required by the event consumer.
type StatsRecomputer interface {
	Recompute(ctx context.Context, professorID string) error
}

// Consumer processes incoming review write events by recomputing the
// affected professor's aggregates.
type Consumer struct {
	logger  *slog.Logger
	service StatsRecomputer
}

// NewConsumer creates a new event consumer for the stats recompute worker.
func NewConsumer(service StatsRecomputer, logger *slog.Logger) *Consumer {
	return &Consumer{
		service: service,
		logger:  logger,
	}
}

// HandleReviewWritten processes a review.written event. The professor id is
// taken from the after snapshot when present, then the before snapshot, then
// the top-level field, so delete events (before-only) recompute too. Events
// carrying no professor id at all are acknowledged without work.
func (c *Consumer) HandleReviewWritten(ctx context.Context, event *pkgkafka.Event) error {
	var data ReviewWrittenData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal review.written data: %w", err)
	}

	professorID := c.professorID(data)
	if professorID == "" {
		c.logger.WarnContext(ctx, "review.written event without professor id, skipping",
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	c.logger.InfoContext(ctx, "processing review.written event",
		slog.String("professor_id", professorID),
		slog.String("review_id", data.ReviewID),
	)

	if err := c.service.Recompute(ctx, professorID); err != nil {
		return fmt.Errorf("recompute stats for professor %s: %w", professorID, err)
	}

	return nil
}

func (c *Consumer) professorID(data ReviewWrittenData) string {
	if data.After != nil && data.After.ProfessorID != "" {
		return data.After.ProfessorID
	}
	if data.Before != nil && data.Before.ProfessorID != "" {
		return data.Before.ProfessorID
	}
	return data.ProfessorID
}
