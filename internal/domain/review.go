package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// RatingMin and RatingMax bound every rating dimension.
const (
	RatingMin = 0.0
	RatingMax = 5.0
)

// FallbackAuthorName is stored when a non-anonymous submission carries no
// usable display name, profile name, or email.
const FallbackAuthorName = "Unknown student"

// Review represents one reviewer's submitted rating and comment for one
// professor. The ID is derived from the professor and reviewer identifiers,
// which enforces one review per reviewer per professor.
type Review struct {
	ID               string    `json:"id"`
	ProfessorID      string    `json:"professor_id"`
	ReviewerID       string    `json:"reviewer_id"`
	TeachingQuality  float64   `json:"teaching_quality"`
	ExamDifficulty   float64   `json:"exam_difficulty"`
	StudentTreatment float64   `json:"student_treatment"`
	Comment          string    `json:"comment"`
	Anonymous        bool      `json:"anonymous"`
	AuthorName       string    `json:"author_name"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ReviewID derives the deterministic review identifier for a professor and
// reviewer pair.
func ReviewID(professorID, reviewerID string) string {
	return professorID + "_" + reviewerID
}

// NormalizeRating converts a rating value of flexible JSON type (number,
// numeric string, json.Number) to a float64. It returns false when the value
// cannot be converted, is not finite, or falls outside [RatingMin, RatingMax].
func NormalizeRating(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	return f, ValidRating(f)
}

// ValidRating reports whether f is a finite number within [RatingMin, RatingMax].
func ValidRating(f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	return f >= RatingMin && f <= RatingMax
}

// HasValidRatings reports whether all three rating dimensions of the review
// are finite numbers in range. Reviews failing this check are excluded from
// aggregation entirely.
func (r Review) HasValidRatings() bool {
	return ValidRating(r.TeachingQuality) && ValidRating(r.ExamDifficulty) && ValidRating(r.StudentTreatment)
}

// HasComment reports whether the review carries a non-empty trimmed comment.
func (r Review) HasComment() bool {
	return strings.TrimSpace(r.Comment) != ""
}
