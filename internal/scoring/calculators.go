package scoring

import (
	"context"
	"strings"

	"github.com/modelaudit/modelmeter/internal/types"
)

// permissiveLicenses map recognized license identifiers to compatibility
// scores. Unrecognized licenses score low rather than zero: absence of
// evidence is not a hard failure.
var permissiveLicenses = map[string]float64{
	"mit":          1.0,
	"apache-2.0":   1.0,
	"bsd-3-clause": 1.0,
	"bsd-2-clause": 1.0,
	"isc":          1.0,
	"unlicense":    1.0,
	"lgpl-2.1":     0.8,
	"lgpl-3.0":     0.8,
	"mpl-2.0":      0.7,
	"cc-by-4.0":    0.7,
	"openrail":     0.6,
	"gpl-2.0":      0.4,
	"gpl-3.0":      0.4,
	"agpl-3.0":     0.2,
}

// LicenseCalculator scores license clarity and compatibility.
type LicenseCalculator struct{}

func (LicenseCalculator) Name() string     { return MetricLicense }
func (LicenseCalculator) Neutral() float64 { return 0.0 }

func (LicenseCalculator) Compute(_ context.Context, meta *types.ArtifactMetadata) (float64, error) {
	license := configString(meta, "license")
	if license == "" {
		license = extraString(meta, "license")
	}
	if license != "" {
		key := strings.ToLower(strings.TrimSpace(license))
		if score, ok := permissiveLicenses[key]; ok {
			return score, nil
		}
		// Declared but unrecognized.
		return 0.3, nil
	}

	// Fall back to a license section in the readme.
	readme := strings.ToLower(meta.ReadmeText)
	if strings.Contains(readme, "## license") || strings.Contains(readme, "# license") {
		return 0.5, nil
	}
	return 0.0, nil
}

// RampUpCalculator scores how quickly a newcomer can start using the model,
// from documentation volume and structure.
type RampUpCalculator struct{}

func (RampUpCalculator) Name() string     { return MetricRampUp }
func (RampUpCalculator) Neutral() float64 { return 0.5 }

func (RampUpCalculator) Compute(_ context.Context, meta *types.ArtifactMetadata) (float64, error) {
	readme := meta.ReadmeText
	if readme == "" {
		if meta.Description == "" {
			return 0.0, nil
		}
		return 0.2, nil
	}

	score := 0.2 // has a readme at all
	lower := strings.ToLower(readme)
	for _, section := range []string{"usage", "example", "install", "quickstart", "getting started"} {
		if strings.Contains(lower, section) {
			score += 0.15
		}
	}
	if strings.Contains(readme, "```") {
		score += 0.15 // code samples
	}
	if len(readme) > 2000 {
		score += 0.1
	}
	return clamp01(score), nil
}

// BusFactorCalculator scores maintainer redundancy.
type BusFactorCalculator struct{}

func (BusFactorCalculator) Name() string     { return MetricBusFactor }
func (BusFactorCalculator) Neutral() float64 { return 0.5 }

func (BusFactorCalculator) Compute(_ context.Context, meta *types.ArtifactMetadata) (float64, error) {
	contributors := extraNumber(meta, "contributors")
	if contributors == nil {
		contributors = extraNumber(meta, "contributor_count")
	}
	if contributors == nil {
		// No contributor signal; an organization namespace suggests a team.
		if owner := extraString(meta, "author"); owner != "" && !strings.Contains(owner, " ") {
			return 0.3, nil
		}
		return 0.2, nil
	}

	n := *contributors
	switch {
	case n >= 10:
		return 1.0, nil
	case n >= 5:
		return 0.8, nil
	case n >= 3:
		return 0.6, nil
	case n >= 2:
		return 0.4, nil
	default:
		return 0.2, nil
	}
}

// PerformanceClaimsCalculator scores whether stated performance is backed by
// benchmark evidence.
type PerformanceClaimsCalculator struct{}

func (PerformanceClaimsCalculator) Name() string     { return MetricPerformance }
func (PerformanceClaimsCalculator) Neutral() float64 { return 0.0 }

func (PerformanceClaimsCalculator) Compute(_ context.Context, meta *types.ArtifactMetadata) (float64, error) {
	score := 0.0
	lower := strings.ToLower(meta.ReadmeText)

	benchmarks := 0
	for _, b := range []string{"mmlu", "glue", "squad", "hellaswag", "imagenet", "benchmark", "leaderboard"} {
		if strings.Contains(lower, b) {
			benchmarks++
		}
	}
	switch {
	case benchmarks >= 3:
		score = 0.8
	case benchmarks >= 1:
		score = 0.5
	}

	if meta.Config != nil {
		if _, ok := meta.Config["eval_results"]; ok {
			score += 0.2
		}
	}
	return clamp01(score), nil
}

// QualityCalculator scores dataset and code availability.
type QualityCalculator struct{}

func (QualityCalculator) Name() string     { return MetricQuality }
func (QualityCalculator) Neutral() float64 { return 0.5 }

func (QualityCalculator) Compute(_ context.Context, meta *types.ArtifactMetadata) (float64, error) {
	score := 0.0
	lower := strings.ToLower(meta.ReadmeText)

	if configString(meta, "dataset") != "" || extraString(meta, "dataset") != "" ||
		strings.Contains(lower, "dataset") {
		score += 0.4
	}
	if strings.Contains(lower, "github.com") || extraString(meta, "repository") != "" {
		score += 0.4
	}
	if strings.Contains(lower, "train") {
		score += 0.2
	}
	return clamp01(score), nil
}

// ReproducibilityCalculator scores whether the training setup is recoverable.
type ReproducibilityCalculator struct{}

func (ReproducibilityCalculator) Name() string     { return MetricReproducibility }
func (ReproducibilityCalculator) Neutral() float64 { return 0.5 }

func (ReproducibilityCalculator) Compute(_ context.Context, meta *types.ArtifactMetadata) (float64, error) {
	score := 0.0
	if len(meta.Config) > 0 {
		score += 0.3
		// Hyperparameters present in the config.
		for _, key := range []string{"learning_rate", "num_train_epochs", "per_device_train_batch_size", "seed"} {
			if _, ok := meta.Config[key]; ok {
				score += 0.1
			}
		}
	}
	lower := strings.ToLower(meta.ReadmeText)
	if strings.Contains(lower, "reproduce") || strings.Contains(lower, "training script") {
		score += 0.3
	}
	return clamp01(score), nil
}

// ReviewednessCalculator scores community vetting from usage signals.
type ReviewednessCalculator struct{}

func (ReviewednessCalculator) Name() string     { return MetricReviewedness }
func (ReviewednessCalculator) Neutral() float64 { return 0.0 }

func (ReviewednessCalculator) Compute(_ context.Context, meta *types.ArtifactMetadata) (float64, error) {
	score := 0.0
	if downloads := extraNumber(meta, "downloads"); downloads != nil {
		switch {
		case *downloads >= 100000:
			score += 0.6
		case *downloads >= 1000:
			score += 0.4
		case *downloads > 0:
			score += 0.2
		}
	}
	if likes := extraNumber(meta, "likes"); likes != nil {
		switch {
		case *likes >= 100:
			score += 0.4
		case *likes >= 10:
			score += 0.2
		case *likes > 0:
			score += 0.1
		}
	}
	return clamp01(score), nil
}

// configString reads a string value from the config map.
func configString(meta *types.ArtifactMetadata, key string) string {
	if meta.Config == nil {
		return ""
	}
	if v, ok := meta.Config[key].(string); ok {
		return v
	}
	return ""
}

// extraString reads a string value from the residual metadata map.
func extraString(meta *types.ArtifactMetadata, key string) string {
	if meta.Extra == nil {
		return ""
	}
	if v, ok := meta.Extra[key].(string); ok {
		return v
	}
	return ""
}

// extraNumber reads a numeric value from the residual metadata map. JSON
// numbers decode as float64.
func extraNumber(meta *types.ArtifactMetadata, key string) *float64 {
	if meta.Extra == nil {
		return nil
	}
	if v, ok := meta.Extra[key].(float64); ok {
		return &v
	}
	return nil
}
