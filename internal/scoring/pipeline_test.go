package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelaudit/modelmeter/internal/types"
)

// faultyCalculator always fails; the pipeline must substitute the neutral.
type faultyCalculator struct{ neutral float64 }

func (faultyCalculator) Name() string       { return "faulty" }
func (f faultyCalculator) Neutral() float64 { return f.neutral }
func (faultyCalculator) Compute(context.Context, *types.ArtifactMetadata) (float64, error) {
	return 0, errors.New("metric blew up")
}

// panickyCalculator panics; the pipeline must contain it too.
type panickyCalculator struct{}

func (panickyCalculator) Name() string     { return "panicky" }
func (panickyCalculator) Neutral() float64 { return 0.5 }
func (panickyCalculator) Compute(context.Context, *types.ArtifactMetadata) (float64, error) {
	panic("calculator panic")
}

func TestPipelineComputeProducesAllMetrics(t *testing.T) {
	p := NewPipeline(nil, nil)

	result, err := p.Compute(context.Background(), &types.ArtifactMetadata{
		Config:     map[string]interface{}{"license": "apache-2.0"},
		ReadmeText: "## Usage",
	})
	require.NoError(t, err)

	for _, name := range []string{
		MetricLicense, MetricRampUp, MetricBusFactor, MetricPerformance,
		MetricQuality, MetricReproducibility, MetricReviewedness,
		MetricSize, MetricTreescore,
	} {
		v, ok := result.Metrics[name]
		require.True(t, ok, name)
		assert.GreaterOrEqual(t, v, 0.0, name)
		assert.LessOrEqual(t, v, 1.0, name)
		assert.GreaterOrEqual(t, result.Latencies[name], int64(0), name)
	}
	assert.Len(t, result.SizeScore, 4)
}

func TestPipelineContainsCalculatorFailure(t *testing.T) {
	p := &Pipeline{calculators: []Calculator{
		faultyCalculator{neutral: 0.5},
		LicenseCalculator{},
	}}

	result, err := p.Compute(context.Background(), &types.ArtifactMetadata{
		Config: map[string]interface{}{"license": "mit"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.5, result.Metrics["faulty"])
	assert.Equal(t, 1.0, result.Metrics[MetricLicense])
}

func TestPipelineContainsCalculatorPanic(t *testing.T) {
	p := &Pipeline{calculators: []Calculator{panickyCalculator{}}}

	require.NotPanics(t, func() {
		result, err := p.Compute(context.Background(), &types.ArtifactMetadata{})
		require.NoError(t, err)
		assert.Equal(t, 0.5, result.Metrics["panicky"])
	})
}

func TestPipelineNilMetadataIsPipelineFailure(t *testing.T) {
	p := NewPipeline(nil, nil)

	_, err := p.Compute(context.Background(), nil)
	assert.Error(t, err)
}

func TestAggregateBoundsAndMonotonicity(t *testing.T) {
	low := Aggregate([]types.MetricResult{
		{Name: MetricLicense, Value: 0.2},
		{Name: MetricTreescore, Value: 0.2},
	}, nil)
	high := Aggregate([]types.MetricResult{
		{Name: MetricLicense, Value: 0.9},
		{Name: MetricTreescore, Value: 0.2},
	}, nil)

	assert.Less(t, low.NetScore, high.NetScore)
	assert.GreaterOrEqual(t, low.NetScore, 0.0)
	assert.LessOrEqual(t, high.NetScore, 1.0)
}

func TestAggregateAllPerfectIsOne(t *testing.T) {
	var results []types.MetricResult
	for name := range metricWeights {
		results = append(results, types.MetricResult{Name: name, Value: 1.0})
	}

	got := Aggregate(results, nil)
	assert.InDelta(t, 1.0, got.NetScore, 1e-9)
}

func TestAggregateEmptyResults(t *testing.T) {
	got := Aggregate(nil, nil)
	assert.Equal(t, 0.0, got.NetScore)
}

func TestAggregateCarriesUnweightedMetrics(t *testing.T) {
	got := Aggregate([]types.MetricResult{
		{Name: "experimental_metric", Value: 0.4},
		{Name: MetricLicense, Value: 0.8},
	}, nil)

	assert.Equal(t, 0.4, got.Metrics["experimental_metric"])
	assert.InDelta(t, 0.8, got.NetScore, 1e-9)
}
