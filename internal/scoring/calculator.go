package scoring

import (
	"context"

	"github.com/modelaudit/modelmeter/internal/types"
)

// Metric names, used as keys in NetScoreResult.Metrics.
const (
	MetricLicense         = "license"
	MetricRampUp          = "ramp_up_time"
	MetricBusFactor       = "bus_factor"
	MetricPerformance     = "performance_claims"
	MetricQuality         = "dataset_and_code_quality"
	MetricReproducibility = "reproducibility"
	MetricReviewedness    = "reviewedness"
	MetricSize            = "size_score"
	MetricTreescore       = "treescore"
)

// Calculator scores one quality dimension of an artifact. Implementations
// are stateless and safe for concurrent use. Values are always in [0,1].
type Calculator interface {
	Name() string
	// Neutral is the documented fallback substituted when Compute fails.
	Neutral() float64
	Compute(ctx context.Context, meta *types.ArtifactMetadata) (float64, error)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
