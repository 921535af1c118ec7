// Package accessibility derives location summaries from accessibility
// reports. Every function is pure: inputs are never mutated and results depend
// only on the multiset of reports, never their order.
package accessibility

import (
	"math"

	"github.com/Oldhoon/accessible-journeys/internal/domain"
)

// AverageRating returns the mean rating rounded to one decimal place, halves
// rounding away from zero. It returns 0 for no reports.
func AverageRating(reports []domain.Report) float64 {
	if len(reports) == 0 {
		return 0
	}

	sum := 0
	for i := range reports {
		sum += reports[i].Rating.Int()
	}

	return math.Round(float64(sum)/float64(len(reports))*10) / 10
}

// ConsensusFeatures returns the features listed by at least half of the
// reports, in canonical feature order. A feature repeated inside one report
// counts once for that report.
func ConsensusFeatures(reports []domain.Report) []domain.Feature {
	out := []domain.Feature{}
	if len(reports) == 0 {
		return out
	}

	counts := make(map[domain.Feature]int)
	for i := range reports {
		for _, f := range domain.UniqueFeatures(reports[i].Features) {
			counts[f]++
		}
	}

	threshold := float64(len(reports)) / 2
	for _, f := range domain.AllFeatures() {
		if float64(counts[f]) >= threshold {
			out = append(out, f)
		}
	}
	return out
}

// Summarize combines AverageRating and ConsensusFeatures.
func Summarize(reports []domain.Report) domain.Summary {
	return domain.Summary{
		AverageRating: AverageRating(reports),
		Features:      ConsensusFeatures(reports),
		ReportCount:   len(reports),
	}
}
