package postgres

import (
	"context"
	"fmt"

	"github.com/xrickbrizz/FCEFyN-Planner-sub001/internal/domain"
	"github.com/xrickbrizz/FCEFyN-Planner-sub001/pkg/database"
)

const legacyColumns = `professor_id, doc_id, reviewer_id, teaching_quality, exam_difficulty, student_treatment, comment, anonymous, author_name, created_at, updated_at`

// LegacyReviewRepository implements repository.LegacyReviewRepository using
// PostgreSQL. It works on the raw imported dump, where timestamps are text
// columns in whatever shape the export produced.
type LegacyReviewRepository struct {
	db database.DBTX
}

// NewLegacyReviewRepository creates a new PostgreSQL-backed legacy review repository.
func NewLegacyReviewRepository(db database.DBTX) *LegacyReviewRepository {
	return &LegacyReviewRepository{db: db}
}

// ListProfessorIDs returns the distinct professor ids present in the dump.
func (r *LegacyReviewRepository) ListProfessorIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT professor_id FROM legacy_reviews ORDER BY professor_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list legacy professor ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan professor id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate professor ids: %w", err)
	}

	return ids, nil
}

// ListByProfessor returns every legacy document stored for the professor.
// Document-id order keeps downstream tie-breaking deterministic.
func (r *LegacyReviewRepository) ListByProfessor(ctx context.Context, professorID string) ([]domain.LegacyReview, error) {
	query := `
		SELECT ` + legacyColumns + `
		FROM legacy_reviews
		WHERE professor_id = $1
		ORDER BY doc_id`

	rows, err := r.db.Query(ctx, query, professorID)
	if err != nil {
		return nil, fmt.Errorf("list legacy reviews: %w", err)
	}
	defer rows.Close()

	var docs []domain.LegacyReview
	for rows.Next() {
		var d domain.LegacyReview
		if err := rows.Scan(
			&d.ProfessorID,
			&d.DocID,
			&d.ReviewerID,
			&d.TeachingQuality,
			&d.ExamDifficulty,
			&d.StudentTreatment,
			&d.Comment,
			&d.Anonymous,
			&d.AuthorName,
			&d.CreatedAt,
			&d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan legacy review row: %w", err)
		}
		docs = append(docs, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate legacy review rows: %w", err)
	}

	return docs, nil
}

// Migrate applies one professor's deduplication plan atomically: canonical
// documents are upserted in place and the listed originals deleted in a
// single transaction, so a crash never leaves a professor half-migrated.
// Deletes run after the upserts.
func (r *LegacyReviewRepository) Migrate(ctx context.Context, professorID string, canonical []domain.LegacyReview, deleteDocIDs []string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	upsert := `
		INSERT INTO legacy_reviews (professor_id, doc_id, reviewer_id, teaching_quality, exam_difficulty, student_treatment, comment, anonymous, author_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (professor_id, doc_id) DO UPDATE SET
			reviewer_id = EXCLUDED.reviewer_id,
			teaching_quality = EXCLUDED.teaching_quality,
			exam_difficulty = EXCLUDED.exam_difficulty,
			student_treatment = EXCLUDED.student_treatment,
			comment = EXCLUDED.comment,
			anonymous = EXCLUDED.anonymous,
			author_name = EXCLUDED.author_name,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at`

	for i := range canonical {
		doc := &canonical[i]
		if _, err := tx.Exec(ctx, upsert,
			doc.ProfessorID,
			doc.DocID,
			doc.ReviewerID,
			doc.TeachingQuality,
			doc.ExamDifficulty,
			doc.StudentTreatment,
			doc.Comment,
			doc.Anonymous,
			doc.AuthorName,
			doc.CreatedAt,
			doc.UpdatedAt,
		); err != nil {
			return fmt.Errorf("upsert canonical document %s: %w", doc.DocID, err)
		}
	}

	for _, docID := range deleteDocIDs {
		if _, err := tx.Exec(ctx,
			`DELETE FROM legacy_reviews WHERE professor_id = $1 AND doc_id = $2`,
			professorID, docID,
		); err != nil {
			return fmt.Errorf("delete legacy document %s: %w", docID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
