package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xrickbrizz/FCEFyN-Planner-sub001/internal/domain"
)

// --- Mock legacy repository ---

type mockLegacyRepository struct {
	mock.Mock
}

func (m *mockLegacyRepository) ListProfessorIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockLegacyRepository) ListByProfessor(ctx context.Context, professorID string) ([]domain.LegacyReview, error) {
	args := m.Called(ctx, professorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LegacyReview), args.Error(1)
}

func (m *mockLegacyRepository) Migrate(ctx context.Context, professorID string, canonical []domain.LegacyReview, deleteDocIDs []string) error {
	args := m.Called(ctx, professorID, canonical, deleteDocIDs)
	return args.Error(0)
}

func legacyDoc(docID, reviewerID, updatedAt string) domain.LegacyReview {
	return domain.LegacyReview{
		ProfessorID: "prof_1",
		DocID:       docID,
		ReviewerID:  reviewerID,
		Comment:     "comment of " + docID,
		UpdatedAt:   updatedAt,
	}
}

// --- planProfessor ---

func TestPlanProfessor_LatestWins(t *testing.T) {
	now := time.Now().UTC()

	// Doc "abc" updated at T1, doc "u1" (already canonical) at T2 > T1:
	// "u1" is selected, "abc" deleted.
	docs := []domain.LegacyReview{
		legacyDoc("abc", "u1", "2024-01-01T00:00:00Z"),
		legacyDoc("u1", "u1", "2024-06-01T00:00:00Z"),
	}

	plan := planProfessor(docs, now)

	require.Len(t, plan.upserts, 1)
	assert.Equal(t, "u1", plan.upserts[0].DocID)
	assert.Equal(t, "comment of u1", plan.upserts[0].Comment)
	assert.Equal(t, []string{"abc"}, plan.deleteDocIDs)
}

func TestPlanProfessor_OpaqueDocWins_CanonicalRewritten(t *testing.T) {
	now := time.Now().UTC()

	// The opaque doc is newer, so its content is upserted under the
	// reviewer's id and both originals land on the delete list — the
	// stale canonical doc included.
	docs := []domain.LegacyReview{
		legacyDoc("abc", "u1", "2024-06-01T00:00:00Z"),
		legacyDoc("u1", "u1", "2024-01-01T00:00:00Z"),
	}

	plan := planProfessor(docs, now)

	require.Len(t, plan.upserts, 1)
	assert.Equal(t, "u1", plan.upserts[0].DocID)
	assert.Equal(t, "comment of abc", plan.upserts[0].Comment)
	assert.ElementsMatch(t, []string{"abc", "u1"}, plan.deleteDocIDs)
}

func TestPlanProfessor_SingleCanonicalDoc_Untouched(t *testing.T) {
	docs := []domain.LegacyReview{
		legacyDoc("u1", "u1", "2024-01-01T00:00:00Z"),
	}

	plan := planProfessor(docs, time.Now().UTC())

	assert.True(t, plan.empty())
}

func TestPlanProfessor_BlankReviewerSkipped(t *testing.T) {
	docs := []domain.LegacyReview{
		legacyDoc("orphan-1", "", "2024-01-01T00:00:00Z"),
		legacyDoc("orphan-2", "", "2024-02-01T00:00:00Z"),
	}

	plan := planProfessor(docs, time.Now().UTC())

	assert.True(t, plan.empty())
}

func TestPlanProfessor_MissingTimestampsSortOldest(t *testing.T) {
	docs := []domain.LegacyReview{
		legacyDoc("abc", "u1", ""),
		legacyDoc("def", "u1", "2024-01-01T00:00:00Z"),
	}

	plan := planProfessor(docs, time.Now().UTC())

	require.Len(t, plan.upserts, 1)
	assert.Equal(t, "comment of def", plan.upserts[0].Comment)
	assert.ElementsMatch(t, []string{"abc", "def"}, plan.deleteDocIDs)
}

func TestPlanProfessor_Ties_DeterministicFirstDocWins(t *testing.T) {
	docs := []domain.LegacyReview{
		legacyDoc("aaa", "u1", "2024-01-01T00:00:00Z"),
		legacyDoc("bbb", "u1", "2024-01-01T00:00:00Z"),
	}

	plan := planProfessor(docs, time.Now().UTC())

	require.Len(t, plan.upserts, 1)
	assert.Equal(t, "comment of aaa", plan.upserts[0].Comment)
}

func TestPlanProfessor_FallsBackToCreatedAt(t *testing.T) {
	docs := []domain.LegacyReview{
		{ProfessorID: "prof_1", DocID: "abc", ReviewerID: "u1", CreatedAt: "2024-06-01T00:00:00Z", Comment: "newer"},
		{ProfessorID: "prof_1", DocID: "def", ReviewerID: "u1", CreatedAt: "2024-01-01T00:00:00Z", Comment: "older"},
	}

	plan := planProfessor(docs, time.Now().UTC())

	require.Len(t, plan.upserts, 1)
	assert.Equal(t, "newer", plan.upserts[0].Comment)
}

func TestPlanProfessor_CanonicalFillsMissingTimestamps(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	docs := []domain.LegacyReview{
		legacyDoc("abc", "u1", ""),
		legacyDoc("def", "u1", ""),
	}

	plan := planProfessor(docs, now)

	require.Len(t, plan.upserts, 1)
	assert.Equal(t, now.Format(time.RFC3339Nano), plan.upserts[0].CreatedAt)
	assert.Equal(t, now.Format(time.RFC3339Nano), plan.upserts[0].UpdatedAt)
}

// --- Run ---

func TestRun_DryRun_NeverMigrates(t *testing.T) {
	legacy := new(mockLegacyRepository)
	svc := NewDedupService(legacy, newTestLogger())
	ctx := context.Background()

	legacy.On("ListProfessorIDs", ctx).Return([]string{"prof_1"}, nil)
	legacy.On("ListByProfessor", ctx, "prof_1").Return([]domain.LegacyReview{
		legacyDoc("abc", "u1", "2024-01-01T00:00:00Z"),
		legacyDoc("u1", "u1", "2024-06-01T00:00:00Z"),
	}, nil)

	summary, err := svc.Run(ctx, false)

	require.NoError(t, err)
	assert.Equal(t, DedupSummary{ProfessorsTouched: 1, Upserts: 1, Deletions: 1}, summary)
	legacy.AssertNotCalled(t, "Migrate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_Apply_MigratesPerProfessor(t *testing.T) {
	legacy := new(mockLegacyRepository)
	svc := NewDedupService(legacy, newTestLogger())
	ctx := context.Background()

	legacy.On("ListProfessorIDs", ctx).Return([]string{"prof_1", "prof_2"}, nil)
	legacy.On("ListByProfessor", ctx, "prof_1").Return([]domain.LegacyReview{
		legacyDoc("abc", "u1", "2024-01-01T00:00:00Z"),
		legacyDoc("u1", "u1", "2024-06-01T00:00:00Z"),
	}, nil)
	// prof_2 is already clean, no migration for it.
	legacy.On("ListByProfessor", ctx, "prof_2").Return([]domain.LegacyReview{
		{ProfessorID: "prof_2", DocID: "u9", ReviewerID: "u9", UpdatedAt: "2024-01-01T00:00:00Z"},
	}, nil)
	legacy.On("Migrate", ctx, "prof_1",
		mock.MatchedBy(func(upserts []domain.LegacyReview) bool {
			return len(upserts) == 1 && upserts[0].DocID == "u1" && upserts[0].Comment == "comment of u1"
		}),
		[]string{"abc"},
	).Return(nil)

	summary, err := svc.Run(ctx, true)

	require.NoError(t, err)
	assert.Equal(t, DedupSummary{ProfessorsTouched: 1, Upserts: 1, Deletions: 1}, summary)
	legacy.AssertExpectations(t)
}

func TestRun_SecondApplyRun_AllZeros(t *testing.T) {
	legacy := new(mockLegacyRepository)
	svc := NewDedupService(legacy, newTestLogger())
	ctx := context.Background()

	// State after a successful first run: one canonical doc per reviewer.
	legacy.On("ListProfessorIDs", ctx).Return([]string{"prof_1"}, nil)
	legacy.On("ListByProfessor", ctx, "prof_1").Return([]domain.LegacyReview{
		legacyDoc("u1", "u1", "2024-06-01T00:00:00Z"),
	}, nil)

	summary, err := svc.Run(ctx, true)

	require.NoError(t, err)
	assert.Equal(t, DedupSummary{}, summary)
	legacy.AssertNotCalled(t, "Migrate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_EmptyProfessorSkipped(t *testing.T) {
	legacy := new(mockLegacyRepository)
	svc := NewDedupService(legacy, newTestLogger())
	ctx := context.Background()

	legacy.On("ListProfessorIDs", ctx).Return([]string{"prof_1"}, nil)
	legacy.On("ListByProfessor", ctx, "prof_1").Return([]domain.LegacyReview{}, nil)

	summary, err := svc.Run(ctx, true)

	require.NoError(t, err)
	assert.Equal(t, DedupSummary{}, summary)
}

func TestRun_MigrateError_StopsWithError(t *testing.T) {
	legacy := new(mockLegacyRepository)
	svc := NewDedupService(legacy, newTestLogger())
	ctx := context.Background()

	legacy.On("ListProfessorIDs", ctx).Return([]string{"prof_1"}, nil)
	legacy.On("ListByProfessor", ctx, "prof_1").Return([]domain.LegacyReview{
		legacyDoc("abc", "u1", "2024-01-01T00:00:00Z"),
		legacyDoc("def", "u1", "2024-02-01T00:00:00Z"),
	}, nil)
	legacy.On("Migrate", ctx, "prof_1", mock.Anything, mock.Anything).Return(assert.AnError)

	_, err := svc.Run(ctx, true)

	assert.Error(t, err)
}
