package scoring

import (
	"github.com/modelaudit/modelmeter/internal/types"
)

// metricWeights is the documented combination policy: a fixed-weight linear
// blend. Weights sum to 1, so the aggregate is monotonic in every input and
// stays in [0,1].
var metricWeights = map[string]float64{
	MetricLicense:         0.12,
	MetricRampUp:          0.10,
	MetricBusFactor:       0.12,
	MetricPerformance:     0.10,
	MetricQuality:         0.12,
	MetricReproducibility: 0.10,
	MetricReviewedness:    0.09,
	MetricSize:            0.10,
	MetricTreescore:       0.15,
}

// Aggregate combines per-metric results into the final NetScoreResult.
// Metrics without a configured weight are carried in the output but do not
// influence the net score; present weights are renormalized so a partial
// metric set still yields a [0,1] value.
func Aggregate(results []types.MetricResult, sizeScores map[string]float64) *types.NetScoreResult {
	metrics := make(map[string]float64, len(results))
	latencies := make(map[string]int64, len(results))

	weightedSum := 0.0
	weightTotal := 0.0
	for _, r := range results {
		metrics[r.Name] = r.Value
		latencies[r.Name] = r.LatencyMS

		if w, ok := metricWeights[r.Name]; ok {
			weightedSum += w * clamp01(r.Value)
			weightTotal += w
		}
	}

	netScore := 0.0
	if weightTotal > 0 {
		netScore = clamp01(weightedSum / weightTotal)
	}

	return &types.NetScoreResult{
		Metrics:   metrics,
		NetScore:  netScore,
		SizeScore: sizeScores,
		Latencies: latencies,
	}
}
