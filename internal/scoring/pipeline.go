package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/modelaudit/modelmeter/internal/errors"
	"github.com/modelaudit/modelmeter/internal/lineage"
	"github.com/modelaudit/modelmeter/internal/monitoring"
	"github.com/modelaudit/modelmeter/internal/types"
)

// Pipeline runs every registered calculator against one metadata snapshot
// and merges the results into a NetScoreResult. A failing calculator never
// aborts the run: its neutral default is substituted and the failure logged.
type Pipeline struct {
	calculators []Calculator
	size        SizeCalculator
	metrics     *monitoring.Metrics
}

// NewPipeline builds the default pipeline. The treescore calculator wraps
// the lineage resolver; metrics may be nil.
func NewPipeline(resolver *lineage.Resolver, metrics *monitoring.Metrics) *Pipeline {
	size := SizeCalculator{}
	return &Pipeline{
		calculators: []Calculator{
			LicenseCalculator{},
			RampUpCalculator{},
			BusFactorCalculator{},
			PerformanceClaimsCalculator{},
			QualityCalculator{},
			ReproducibilityCalculator{},
			ReviewednessCalculator{},
			size,
			TreescoreCalculator{Resolver: resolver},
		},
		size:    size,
		metrics: metrics,
	}
}

// Compute rates one artifact. Calculators run concurrently over the same
// metadata snapshot; there is no ordering dependency between them. Only
// failures outside the per-metric boundary return an error.
func (p *Pipeline) Compute(ctx context.Context, meta *types.ArtifactMetadata) (*types.NetScoreResult, error) {
	if meta == nil {
		return nil, apperrors.NewPipelineFailure("nil artifact metadata", nil)
	}
	if p.metrics != nil {
		p.metrics.IncrementPipelineExecution()
	}

	results := make([]types.MetricResult, len(p.calculators))
	var wg sync.WaitGroup
	for i, calc := range p.calculators {
		wg.Add(1)
		go func(i int, calc Calculator) {
			defer wg.Done()
			results[i] = p.runCalculator(ctx, calc, meta)
		}(i, calc)
	}
	wg.Wait()

	return Aggregate(results, p.size.SizeScores(meta)), nil
}

// runCalculator executes one calculator with the per-metric failure
// boundary: errors and panics both collapse to the metric's neutral value.
func (p *Pipeline) runCalculator(ctx context.Context, calc Calculator, meta *types.ArtifactMetadata) (result types.MetricResult) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err := apperrors.NewMetricError(calc.Name(), fmt.Errorf("panic: %v", r))
			slog.Warn("Metric calculator panicked", "metric", calc.Name(), "error", err)
			result = types.MetricResult{
				Name:      calc.Name(),
				Value:     calc.Neutral(),
				LatencyMS: time.Since(start).Milliseconds(),
			}
		}
	}()

	value, err := calc.Compute(ctx, meta)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		slog.Warn("Metric calculator failed",
			"metric", calc.Name(),
			"error", apperrors.NewMetricError(calc.Name(), err),
		)
		value = calc.Neutral()
	}

	return types.MetricResult{
		Name:      calc.Name(),
		Value:     clamp01(value),
		LatencyMS: latency,
	}
}
