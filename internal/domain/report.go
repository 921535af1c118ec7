package domain

import (
	"encoding/json"
	"fmt"
	"time"

	apperrors "github.com/Oldhoon/accessible-journeys/pkg/errors"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// MaxReportImages caps the image references attached to one report.
const MaxReportImages = 10

// Rating is an accessibility score from 1 (poor) to 5 (excellent).
type Rating int

// NewRating validates v.
func NewRating(v int) (Rating, error) {
	if v < MinRating || v > MaxRating {
		return 0, apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d, got %d", MinRating, MaxRating, v))
	}
	return Rating(v), nil
}

// Int returns r as an int.
func (r Rating) Int() int { return int(r) }

// UnmarshalJSON rejects out-of-range values.
func (r *Rating) UnmarshalJSON(b []byte) error {
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("rating: %w", err)
	}
	parsed, err := NewRating(v)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Report is one user's accessibility assessment of a location. Reports are
// never updated after creation.
type Report struct {
	ID           string    `json:"id"`
	LocationID   string    `json:"location_id"`
	LocationName string    `json:"location_name"`
	Features     []Feature `json:"features"`
	Rating       Rating    `json:"rating"`
	Comments     string    `json:"comments,omitempty"`
	Images       []string  `json:"images"`
	Timestamp    time.Time `json:"timestamp"`
	UserID       string    `json:"user_id"`
}

// NewReportParams are the inputs to NewReport.
type NewReportParams struct {
	ID           string
	LocationID   string
	LocationName string
	Features     []Feature
	Rating       int
	Comments     string
	Images       []string
	Timestamp    time.Time
	UserID       string
}

// NewReport validates p and builds a Report. Duplicate features collapse and
// the timestamp is normalized to UTC.
func NewReport(p NewReportParams) (*Report, error) {
	if p.LocationID == "" {
		return nil, apperrors.InvalidInput("location_id is required")
	}
	if p.LocationName == "" {
		return nil, apperrors.InvalidInput("location name is required")
	}
	if p.UserID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}
	rating, err := NewRating(p.Rating)
	if err != nil {
		return nil, err
	}
	if len(p.Images) > MaxReportImages {
		return nil, apperrors.InvalidInput(fmt.Sprintf("at most %d images may be attached", MaxReportImages))
	}
	for _, f := range p.Features {
		if !f.Valid() {
			return nil, apperrors.InvalidInput(fmt.Sprintf("unknown accessibility feature %d", int(f)))
		}
	}

	images := make([]string, len(p.Images))
	copy(images, p.Images)

	return &Report{
		ID:           p.ID,
		LocationID:   p.LocationID,
		LocationName: p.LocationName,
		Features:     UniqueFeatures(p.Features),
		Rating:       rating,
		Comments:     p.Comments,
		Images:       images,
		Timestamp:    p.Timestamp.UTC(),
		UserID:       p.UserID,
	}, nil
}

// HasFeature reports whether the report lists f.
func (r *Report) HasFeature(f Feature) bool {
	for _, rf := range r.Features {
		if rf == f {
			return true
		}
	}
	return false
}
