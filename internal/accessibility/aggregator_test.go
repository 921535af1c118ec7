package accessibility

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Oldhoon/accessible-journeys/internal/domain"
)

func report(rating int, features ...domain.Feature) domain.Report {
	return domain.Report{Rating: domain.Rating(rating), Features: features}
}

func randomReports(rng *rand.Rand, n int) []domain.Report {
	all := domain.AllFeatures()
	out := make([]domain.Report, n)
	for i := range out {
		var fs []domain.Feature
		for _, f := range all {
			if rng.IntN(3) == 0 {
				fs = append(fs, f)
			}
		}
		out[i] = report(1+rng.IntN(5), fs...)
	}
	return out
}

func shuffled(rng *rand.Rand, in []domain.Report) []domain.Report {
	out := make([]domain.Report, len(in))
	copy(out, in)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// ============================================================================
// AverageRating
// ============================================================================

func TestAverageRating_Empty(t *testing.T) {
	assert.Equal(t, 0.0, AverageRating(nil))
	assert.Equal(t, 0.0, AverageRating([]domain.Report{}))
}

func TestAverageRating_Scenarios(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    float64
	}{
		{"single", []int{3}, 3},
		{"four and five", []int{4, 5}, 4.5},
		{"repeating third", []int{1, 2, 2}, 1.7},
		{"two thirds", []int{4, 4, 5}, 4.3},
		{"exact quarter rounds half up", []int{1, 1, 1, 2}, 1.3},
		{"three quarters rounds half up", []int{4, 5, 5, 5}, 4.8},
		{"all fives", []int{5, 5, 5, 5}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reports := make([]domain.Report, len(tt.ratings))
			for i, r := range tt.ratings {
				reports[i] = report(r)
			}
			assert.Equal(t, tt.want, AverageRating(reports))
		})
	}
}

func TestAverageRating_WithinBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		reports := randomReports(rng, 1+rng.IntN(30))
		avg := AverageRating(reports)
		assert.GreaterOrEqual(t, avg, 1.0)
		assert.LessOrEqual(t, avg, 5.0)
	}
}

func TestAverageRating_OrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 100; i++ {
		reports := randomReports(rng, 1+rng.IntN(25))
		assert.Equal(t, AverageRating(reports), AverageRating(shuffled(rng, reports)))
	}
}

// ============================================================================
// ConsensusFeatures
// ============================================================================

func TestConsensusFeatures_Empty(t *testing.T) {
	got := ConsensusFeatures(nil)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestConsensusFeatures_HalfBoundaryIsInclusive(t *testing.T) {
	reports := []domain.Report{
		report(4, domain.FeatureWheelchair, domain.FeatureRamp),
		report(5, domain.FeatureWheelchair),
	}

	assert.Equal(t, 4.5, AverageRating(reports))
	assert.Equal(t, []domain.Feature{domain.FeatureWheelchair, domain.FeatureRamp}, ConsensusFeatures(reports))
}

func TestConsensusFeatures_BelowHalfExcluded(t *testing.T) {
	reports := []domain.Report{
		report(3, domain.FeatureToilet, domain.FeatureBraille),
		report(3, domain.FeatureToilet),
		report(3),
	}

	assert.Equal(t, []domain.Feature{domain.FeatureToilet}, ConsensusFeatures(reports))
}

func TestConsensusFeatures_DuplicateWithinReportCountsOnce(t *testing.T) {
	reports := []domain.Report{
		report(3, domain.FeatureRamp, domain.FeatureRamp, domain.FeatureRamp),
		report(3),
		report(3),
	}
	assert.Empty(t, ConsensusFeatures(reports))

	rng := rand.New(rand.NewPCG(5, 6))
	for i := 0; i < 100; i++ {
		base := randomReports(rng, 1+rng.IntN(20))
		doubled := make([]domain.Report, len(base))
		for j, r := range base {
			doubled[j] = r
			doubled[j].Features = append(append([]domain.Feature{}, r.Features...), r.Features...)
		}
		assert.Equal(t, ConsensusFeatures(base), ConsensusFeatures(doubled))
	}
}

func TestConsensusFeatures_OrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	for i := 0; i < 100; i++ {
		reports := randomReports(rng, 1+rng.IntN(25))
		assert.Equal(t, ConsensusFeatures(reports), ConsensusFeatures(shuffled(rng, reports)))
	}
}

func TestConsensusFeatures_CanonicalOrder(t *testing.T) {
	reports := []domain.Report{
		report(2, domain.FeatureWideEntrance, domain.FeatureAudio, domain.FeatureWheelchair),
	}
	assert.Equal(t, []domain.Feature{
		domain.FeatureWheelchair, domain.FeatureAudio, domain.FeatureWideEntrance,
	}, ConsensusFeatures(reports))
}

// ============================================================================
// Purity
// ============================================================================

func TestAggregator_IdempotentAndNonMutating(t *testing.T) {
	reports := []domain.Report{
		report(2, domain.FeatureParking, domain.FeatureElevator),
		report(5, domain.FeatureParking),
		report(4, domain.FeatureNoStairs, domain.FeatureParking),
	}
	before := make([]domain.Report, len(reports))
	for i, r := range reports {
		before[i] = r
		before[i].Features = append([]domain.Feature{}, r.Features...)
	}

	first := Summarize(reports)
	second := Summarize(reports)

	assert.Equal(t, first, second)
	assert.Equal(t, before, reports)
	assert.Equal(t, domain.Summary{
		AverageRating: 3.7,
		Features:      []domain.Feature{domain.FeatureParking},
		ReportCount:   3,
	}, first)
}
