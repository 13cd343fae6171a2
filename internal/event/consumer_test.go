package event

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	pkgkafka "github.com/xrickbrizz/FCEFyN-Planner-sub001/pkg/kafka"
)

// --- Mock StatsRecomputer ---

type mockStatsRecomputer struct {
	mock.Mock
}

func (m *mockStatsRecomputer) Recompute(ctx context.Context, professorID string) error {
	args := m.Called(ctx, professorID)
	return args.Error(0)
}

// --- Test helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestEvent(data any) *pkgkafka.Event {
	dataBytes, _ := json.Marshal(data)
	return &pkgkafka.Event{
		EventID:       "evt-test-123",
		EventType:     EventTypeReviewWritten,
		AggregateID:   "prof_42",
		AggregateType: AggregateTypeProfessor,
		Version:       1,
		Timestamp:     time.Now().UTC(),
		Source:        SourceReviewService,
		Data:          dataBytes,
	}
}

// --- Tests ---

func TestHandleReviewWritten_AfterSnapshot(t *testing.T) {
	svc := new(mockStatsRecomputer)
	consumer := NewConsumer(svc, newTestLogger())
	ctx := context.Background()

	event := newTestEvent(ReviewWrittenData{
		ProfessorID: "prof_42",
		ReviewID:    "prof_42_user-1",
		After:       &ReviewSnapshot{ID: "prof_42_user-1", ProfessorID: "prof_42"},
	})

	svc.On("Recompute", ctx, "prof_42").Return(nil)

	err := consumer.HandleReviewWritten(ctx, event)

	require.NoError(t, err)
	svc.AssertExpectations(t)
}

func TestHandleReviewWritten_DeleteEvent_UsesBeforeSnapshot(t *testing.T) {
	svc := new(mockStatsRecomputer)
	consumer := NewConsumer(svc, newTestLogger())
	ctx := context.Background()

	event := newTestEvent(ReviewWrittenData{
		ReviewID: "prof_42_user-1",
		Before:   &ReviewSnapshot{ID: "prof_42_user-1", ProfessorID: "prof_42"},
	})

	svc.On("Recompute", ctx, "prof_42").Return(nil)

	err := consumer.HandleReviewWritten(ctx, event)

	require.NoError(t, err)
	svc.AssertExpectations(t)
}

func TestHandleReviewWritten_TopLevelProfessorFallback(t *testing.T) {
	svc := new(mockStatsRecomputer)
	consumer := NewConsumer(svc, newTestLogger())
	ctx := context.Background()

	event := newTestEvent(ReviewWrittenData{ProfessorID: "prof_7"})

	svc.On("Recompute", ctx, "prof_7").Return(nil)

	err := consumer.HandleReviewWritten(ctx, event)

	require.NoError(t, err)
	svc.AssertExpectations(t)
}

func TestHandleReviewWritten_NoProfessorID_Acknowledged(t *testing.T) {
	svc := new(mockStatsRecomputer)
	consumer := NewConsumer(svc, newTestLogger())
	ctx := context.Background()

	event := newTestEvent(ReviewWrittenData{ReviewID: "orphan"})

	err := consumer.HandleReviewWritten(ctx, event)

	require.NoError(t, err)
	svc.AssertNotCalled(t, "Recompute", mock.Anything, mock.Anything)
}

func TestHandleReviewWritten_MalformedPayload(t *testing.T) {
	svc := new(mockStatsRecomputer)
	consumer := NewConsumer(svc, newTestLogger())

	event := newTestEvent(nil)
	event.Data = json.RawMessage(`{"professor_id": 42}`)

	err := consumer.HandleReviewWritten(context.Background(), event)

	assert.Error(t, err)
	svc.AssertNotCalled(t, "Recompute", mock.Anything, mock.Anything)
}

func TestHandleReviewWritten_RecomputeError_Propagates(t *testing.T) {
	svc := new(mockStatsRecomputer)
	consumer := NewConsumer(svc, newTestLogger())
	ctx := context.Background()

	event := newTestEvent(ReviewWrittenData{
		ProfessorID: "prof_42",
		After:       &ReviewSnapshot{ProfessorID: "prof_42"},
	})

	svc.On("Recompute", ctx, "prof_42").Return(errors.New("db down"))

	err := consumer.HandleReviewWritten(ctx, event)

	assert.Error(t, err)
	svc.AssertExpectations(t)
}
