package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/xrickbrizz/FCEFyN-Planner-sub001/pkg/errors"
	"github.com/xrickbrizz/FCEFyN-Planner-sub001/pkg/httputil"
	"github.com/xrickbrizz/FCEFyN-Planner-sub001/pkg/middleware"
	"github.com/xrickbrizz/FCEFyN-Planner-sub001/pkg/pagination"

	"github.com/xrickbrizz/FCEFyN-Planner-sub001/internal/domain"
	"github.com/xrickbrizz/FCEFyN-Planner-sub001/internal/service"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// ReviewResponse is the public shape of a review. Anonymous reviews withhold
// the reviewer identity and author name.
type ReviewResponse struct {
	ID               string    `json:"id"`
	ProfessorID      string    `json:"professor_id"`
	ReviewerID       string    `json:"reviewer_id,omitempty"`
	TeachingQuality  float64   `json:"teaching_quality"`
	ExamDifficulty   float64   `json:"exam_difficulty"`
	StudentTreatment float64   `json:"student_treatment"`
	Comment          string    `json:"comment"`
	Anonymous        bool      `json:"anonymous"`
	AuthorName       string    `json:"author_name,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// toReviewResponse maps a review for public display. When includeIdentity is
// false and the review is anonymous, identifying fields are dropped.
func toReviewResponse(rv domain.Review, includeIdentity bool) ReviewResponse {
	resp := ReviewResponse{
		ID:               rv.ID,
		ProfessorID:      rv.ProfessorID,
		ReviewerID:       rv.ReviewerID,
		TeachingQuality:  rv.TeachingQuality,
		ExamDifficulty:   rv.ExamDifficulty,
		StudentTreatment: rv.StudentTreatment,
		Comment:          rv.Comment,
		Anonymous:        rv.Anonymous,
		AuthorName:       rv.AuthorName,
		CreatedAt:        rv.CreatedAt,
		UpdatedAt:        rv.UpdatedAt,
	}
	if rv.Anonymous && !includeIdentity {
		resp.ID = ""
		resp.ReviewerID = ""
		resp.AuthorName = ""
	}
	return resp
}

func callerFromRequest(r *http.Request) service.Caller {
	ctx := r.Context()
	return service.Caller{
		UserID: middleware.UserIDFromContext(ctx),
		Email:  middleware.EmailFromContext(ctx),
		Name:   middleware.NameFromContext(ctx),
	}
}

// Submit handles POST /api/v1/reviews
func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input service.SubmitReviewInput
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&input); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	if err := h.service.Submit(r.Context(), callerFromRequest(r), input); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]bool{"ok": true}})
}

// Delete handles DELETE /api/v1/reviews/{professorID}
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	professorID := chi.URLParam(r, "professorID")

	if err := h.service.Delete(r.Context(), callerFromRequest(r), professorID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]bool{"ok": true}})
}

// ListByProfessor handles GET /api/v1/professors/{professorID}/reviews
func (h *ReviewHandler) ListByProfessor(w http.ResponseWriter, r *http.Request) {
	professorID := chi.URLParam(r, "professorID")
	params := pagination.FromRequest(r)

	reviews, total, err := h.service.ListByProfessor(r.Context(), professorID, params.PerPage, params.Offset)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	items := make([]ReviewResponse, 0, len(reviews))
	for _, rv := range reviews {
		items = append(items, toReviewResponse(rv, false))
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: pagination.NewResult(items, total, params),
	})
}

// ListMine handles GET /api/v1/users/me/reviews
func (h *ReviewHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ListMine(r.Context(), callerFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	items := make([]ReviewResponse, 0, len(reviews))
	for _, rv := range reviews {
		// The caller always sees their own identity.
		items = append(items, toReviewResponse(rv, true))
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: items})
}
