package domain

import "time"

// ProfessorStats is the denormalized aggregate of all valid reviews for a
// professor. It is derived data, owned exclusively by the stats recomputation
// service; no other writer may touch it.
type ProfessorStats struct {
	ProfessorID   string    `json:"professor_id"`
	AvgTeaching   float64   `json:"avg_teaching"`
	AvgExams      float64   `json:"avg_exams"`
	AvgTreatment  float64   `json:"avg_treatment"`
	AvgGeneral    float64   `json:"avg_general"`
	RatingCount   int       `json:"rating_count"`
	CommentsCount int       `json:"comments_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StatsAccumulator builds ProfessorStats from a single streaming pass over a
// professor's reviews. A review is included only when all three ratings are
// valid; partial records are fully excluded.
type StatsAccumulator struct {
	sumTeaching  float64
	sumExams     float64
	sumTreatment float64
	count        int
	comments     int
}

// Observe feeds one review into the accumulator. Reviews with any invalid
// rating are ignored entirely, including their comment.
func (a *StatsAccumulator) Observe(r Review) {
	if !r.HasValidRatings() {
		return
	}
	a.sumTeaching += r.TeachingQuality
	a.sumExams += r.ExamDifficulty
	a.sumTreatment += r.StudentTreatment
	a.count++
	if r.HasComment() {
		a.comments++
	}
}

// Count returns the number of reviews included so far.
func (a *StatsAccumulator) Count() int {
	return a.count
}

// Stats computes the final aggregate. All four averages are 0 when no review
// was included; this is a defined business rule, not an error. AvgGeneral is
// the mean of every included rating across all three dimensions.
func (a *StatsAccumulator) Stats(professorID string, now time.Time) ProfessorStats {
	s := ProfessorStats{
		ProfessorID:   professorID,
		RatingCount:   a.count,
		CommentsCount: a.comments,
		UpdatedAt:     now,
	}
	if a.count == 0 {
		return s
	}
	n := float64(a.count)
	s.AvgTeaching = a.sumTeaching / n
	s.AvgExams = a.sumExams / n
	s.AvgTreatment = a.sumTreatment / n
	s.AvgGeneral = (a.sumTeaching + a.sumExams + a.sumTreatment) / (3 * n)
	return s
}
