package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xrickbrizz/FCEFyN-Planner-sub001/internal/domain"
	"github.com/xrickbrizz/FCEFyN-Planner-sub001/internal/repository"
)

// DedupSummary tallies the work done (or, in dry-run mode, the work that
// would be done) by one deduplication run.
type DedupSummary struct {
	ProfessorsTouched int `json:"professors_touched"`
	Upserts           int `json:"upserts"`
	Deletions         int `json:"deletions"`
}

// professorPlan is the migration work for a single professor.
type professorPlan struct {
	upserts      []domain.LegacyReview
	deleteDocIDs []string
}

func (p professorPlan) empty() bool {
	return len(p.upserts) == 0 && len(p.deleteDocIDs) == 0
}

// DedupService collapses legacy review documents to one canonical document
// per reviewer. Legacy data accumulated multiple documents per reviewer under
// arbitrary doc ids; this restores the one-review-per-reviewer invariant in
// place.
type DedupService struct {
	legacy repository.LegacyReviewRepository
	logger *slog.Logger
}

// NewDedupService creates a new deduplication service.
func NewDedupService(legacy repository.LegacyReviewRepository, logger *slog.Logger) *DedupService {
	return &DedupService{
		legacy: legacy,
		logger: logger,
	}
}

// Run deduplicates every professor's legacy documents. With apply false it
// only plans and tallies; with apply true each professor's plan is committed
// in its own transaction, so an interrupted run leaves completed professors
// intact and is safe to re-run. A second apply run over repaired data reports
// all zeros.
func (s *DedupService) Run(ctx context.Context, apply bool) (DedupSummary, error) {
	var summary DedupSummary

	professorIDs, err := s.legacy.ListProfessorIDs(ctx)
	if err != nil {
		return summary, fmt.Errorf("list professors: %w", err)
	}

	now := time.Now().UTC()

	for _, professorID := range professorIDs {
		docs, err := s.legacy.ListByProfessor(ctx, professorID)
		if err != nil {
			return summary, fmt.Errorf("load documents for professor %s: %w", professorID, err)
		}
		if len(docs) == 0 {
			continue
		}

		plan := planProfessor(docs, now)
		if plan.empty() {
			continue
		}

		summary.ProfessorsTouched++
		summary.Upserts += len(plan.upserts)
		summary.Deletions += len(plan.deleteDocIDs)

		if !apply {
			s.logger.InfoContext(ctx, "dry-run: professor needs deduplication",
				slog.String("professor_id", professorID),
				slog.Int("upserts", len(plan.upserts)),
				slog.Int("deletions", len(plan.deleteDocIDs)),
			)
			continue
		}

		if err := s.legacy.Migrate(ctx, professorID, plan.upserts, plan.deleteDocIDs); err != nil {
			return summary, fmt.Errorf("migrate professor %s: %w", professorID, err)
		}

		s.logger.InfoContext(ctx, "professor deduplicated",
			slog.String("professor_id", professorID),
			slog.Int("upserts", len(plan.upserts)),
			slog.Int("deletions", len(plan.deleteDocIDs)),
		)
	}

	return summary, nil
}

// planProfessor computes one professor's deduplication plan. Documents with a
// blank reviewer id are unrecoverable and skipped. Per reviewer: the latest
// document wins, comparing updatedAt then createdAt with unparseable values
// sorting oldest; ties keep the earliest doc id, which is stable because the
// repository returns documents in doc-id order. A group that is already the
// single canonical document is left alone. Otherwise the winner is upserted
// under the reviewer's id and every other document deleted — including a
// canonical-id document that lost the latest comparison, which the following
// delete removes again after the upsert rewrote it.
func planProfessor(docs []domain.LegacyReview, now time.Time) professorPlan {
	groups := make(map[string][]domain.LegacyReview)
	var reviewerOrder []string
	for _, doc := range docs {
		if doc.ReviewerID == "" {
			continue
		}
		if _, seen := groups[doc.ReviewerID]; !seen {
			reviewerOrder = append(reviewerOrder, doc.ReviewerID)
		}
		groups[doc.ReviewerID] = append(groups[doc.ReviewerID], doc)
	}

	var plan professorPlan
	for _, reviewerID := range reviewerOrder {
		group := groups[reviewerID]

		if len(group) == 1 && group[0].DocID == reviewerID {
			continue
		}

		selected := group[0]
		for _, doc := range group[1:] {
			if doc.EffectiveTime().After(selected.EffectiveTime()) {
				selected = doc
			}
		}

		plan.upserts = append(plan.upserts, selected.CanonicalDocument(now))

		for _, doc := range group {
			if doc.DocID == reviewerID && doc.DocID == selected.DocID {
				continue
			}
			plan.deleteDocIDs = append(plan.deleteDocIDs, doc.DocID)
		}
	}

	return plan
}
