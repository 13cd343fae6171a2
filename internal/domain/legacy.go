package domain

import (
	"strconv"
	"strings"
	"time"
)

// LegacyReview is one row of the imported legacy review dump. Document ids
// are arbitrary (not reviewer-derived) and timestamps are stored as raw text
// in whatever representation the export produced, so a professor may carry
// several documents for the same reviewer.
type LegacyReview struct {
	ProfessorID      string
	DocID            string
	ReviewerID       string
	TeachingQuality  float64
	ExamDifficulty   float64
	StudentTreatment float64
	Comment          string
	Anonymous        bool
	AuthorName       string
	CreatedAt        string
	UpdatedAt        string
}

// legacyTimeLayouts are the textual timestamp representations observed in the
// legacy dump, tried in order.
var legacyTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseLegacyTime parses a legacy textual timestamp. It accepts the layouts
// above plus integer epoch values (seconds or milliseconds). Missing or
// unparseable values return the zero time and false; the zero time is the
// "oldest possible" sentinel used for latest-document comparison.
func ParseLegacyTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range legacyTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	// Epoch seconds or milliseconds. Thirteen or more digits means millis.
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
		if len(s) >= 13 {
			return time.UnixMilli(n).UTC(), true
		}
		return time.Unix(n, 0).UTC(), true
	}

	return time.Time{}, false
}

// EffectiveTime returns the document's comparison timestamp: updatedAt when
// parseable, otherwise createdAt, otherwise the zero-time sentinel.
func (lr LegacyReview) EffectiveTime() time.Time {
	if t, ok := ParseLegacyTime(lr.UpdatedAt); ok {
		return t
	}
	if t, ok := ParseLegacyTime(lr.CreatedAt); ok {
		return t
	}
	return time.Time{}
}

// CanonicalDocument returns the deduplicated form of this document: the doc
// id becomes the reviewer identity and the content is carried over unchanged.
// Missing or unparseable timestamps fall back to now, rendered as RFC 3339.
func (lr LegacyReview) CanonicalDocument(now time.Time) LegacyReview {
	canonical := lr
	canonical.DocID = lr.ReviewerID
	if _, ok := ParseLegacyTime(lr.CreatedAt); !ok {
		canonical.CreatedAt = now.UTC().Format(time.RFC3339Nano)
	}
	if _, ok := ParseLegacyTime(lr.UpdatedAt); !ok {
		canonical.UpdatedAt = now.UTC().Format(time.RFC3339Nano)
	}
	return canonical
}
