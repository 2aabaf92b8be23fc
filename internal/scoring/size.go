package scoring

import (
	"context"

	"github.com/modelaudit/modelmeter/internal/types"
)

// hardwareCapacities are the deployable parameter budgets per hardware
// class, in billions of parameters.
var hardwareCapacities = map[string]float64{
	"raspberry_pi": 0.5,
	"jetson_nano":  2,
	"desktop_pc":   16,
	"aws_server":   200,
}

// SizeCalculator scores how deployable the model is across hardware classes.
// Its headline value is the mean of the per-class scores; the full map is
// exposed through SizeScores for the size_score output.
type SizeCalculator struct{}

func (SizeCalculator) Name() string     { return MetricSize }
func (SizeCalculator) Neutral() float64 { return 0.5 }

// SizeScores returns a [0,1] score per hardware class. A model within a
// class's budget scores near 1; one far over it approaches 0. With no size
// signal at all, every class gets the neutral 0.5.
func (SizeCalculator) SizeScores(meta *types.ArtifactMetadata) map[string]float64 {
	params := modelParamsBillions(meta)

	scores := make(map[string]float64, len(hardwareCapacities))
	for class, capacity := range hardwareCapacities {
		if params == nil {
			scores[class] = 0.5
			continue
		}
		if *params <= 0 {
			scores[class] = 0.5
			continue
		}
		ratio := capacity / *params
		if ratio >= 1 {
			scores[class] = 1.0
		} else {
			scores[class] = clamp01(ratio)
		}
	}
	return scores
}

func (c SizeCalculator) Compute(_ context.Context, meta *types.ArtifactMetadata) (float64, error) {
	scores := c.SizeScores(meta)
	sum := 0.0
	for _, v := range scores {
		sum += v
	}
	return clamp01(sum / float64(len(scores))), nil
}

// modelParamsBillions extracts the parameter count, in billions, from the
// config or the residual metadata. Returns nil when unknown.
func modelParamsBillions(meta *types.ArtifactMetadata) *float64 {
	candidates := []float64{}

	if meta.Config != nil {
		for _, key := range []string{"num_parameters", "n_params", "total_params"} {
			if v, ok := meta.Config[key].(float64); ok && v > 0 {
				candidates = append(candidates, v)
			}
		}
	}
	if meta.Extra != nil {
		if v, ok := meta.Extra["num_parameters"].(float64); ok && v > 0 {
			candidates = append(candidates, v)
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	params := candidates[0]
	// Raw counts are absolute; normalize to billions.
	if params > 1e6 {
		params = params / 1e9
	}
	return &params
}
