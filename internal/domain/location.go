package domain

import (
	"fmt"
	"time"

	apperrors "github.com/Oldhoon/accessible-journeys/pkg/errors"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate checks the coordinate ranges.
func (c Coordinates) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return apperrors.InvalidInput(fmt.Sprintf("latitude %v out of range", c.Lat))
	}
	if c.Lng < -180 || c.Lng > 180 {
		return apperrors.InvalidInput(fmt.Sprintf("longitude %v out of range", c.Lng))
	}
	return nil
}

// Location is a place that can be reported on.
type Location struct {
	ID          string      `json:"id"`
	Slug        string      `json:"slug"`
	Name        string      `json:"name"`
	Address     string      `json:"address"`
	Coordinates Coordinates `json:"coordinates"`
	Types       []string    `json:"types"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Summary is derived from a location's reports and never stored with it.
type Summary struct {
	AverageRating float64   `json:"average_rating"`
	Features      []Feature `json:"features"`
	ReportCount   int       `json:"report_count"`
}

// Includes reports whether every feature in want is part of the summary's
// consensus set.
func (s Summary) Includes(want []Feature) bool {
	for _, w := range want {
		found := false
		for _, f := range s.Features {
			if f == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// LocationWithSummary pairs a location with its derived summary.
type LocationWithSummary struct {
	Location
	Summary Summary `json:"summary"`
}
