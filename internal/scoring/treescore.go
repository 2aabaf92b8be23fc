package scoring

import (
	"context"

	"github.com/modelaudit/modelmeter/internal/lineage"
	"github.com/modelaudit/modelmeter/internal/types"
)

// TreescoreCalculator delegates to the lineage resolver. The resolver owns
// its own fallback chain and never fails, so Compute never returns an error.
type TreescoreCalculator struct {
	Resolver *lineage.Resolver
}

func (TreescoreCalculator) Name() string     { return MetricTreescore }
func (TreescoreCalculator) Neutral() float64 { return 0.5 }

func (c TreescoreCalculator) Compute(ctx context.Context, meta *types.ArtifactMetadata) (float64, error) {
	if c.Resolver == nil {
		return 0.5, nil
	}
	return c.Resolver.Treescore(ctx, meta), nil
}
