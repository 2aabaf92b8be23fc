package lineage

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/modelaudit/modelmeter/internal/llm"
	"github.com/modelaudit/modelmeter/internal/monitoring"
	"github.com/modelaudit/modelmeter/internal/types"
)

// Registry is the read-only view of locally registered artifacts the
// resolver needs for parent score lookups.
type Registry interface {
	ListArtifacts(nameFilter string, limit int) ([]types.ArtifactSummary, error)
	GetScoreByName(name string) (*float64, error)
}

// TreescoreClient is the LLM collaborator surface used by the fallback path.
type TreescoreClient interface {
	Available() bool
	SuggestTreescore(ctx context.Context, req llm.Request) (float64, error)
}

// Resolver computes the supply-chain treescore of an artifact from its
// declared parent lineage. Resolution never fails: when no signal is
// available the neutral 0.5 is returned.
type Resolver struct {
	registry   Registry
	llm        TreescoreClient
	metrics    *monitoring.Metrics
	strategies []Strategy
}

// NewResolver creates a resolver. The llm client may be nil when no
// collaborator is configured; metrics may be nil.
func NewResolver(registry Registry, client TreescoreClient, metrics *monitoring.Metrics) *Resolver {
	r := &Resolver{registry: registry, llm: client, metrics: metrics}
	r.strategies = []Strategy{
		&localAverageStrategy{},
		&llmFallbackStrategy{resolver: r},
		&neutralDefaultStrategy{},
	}
	return r
}

// Treescore walks the strategy chain: local parent-score averaging, then the
// LLM-assisted fallback, then the neutral default. The result is always
// clamped to [0,1] and rounded to 2 decimals.
func (r *Resolver) Treescore(ctx context.Context, meta *types.ArtifactMetadata) float64 {
	parents := ExtractParents(meta)
	resolved := r.resolveScores(parents)

	in := &Input{Meta: meta, Parents: parents, Resolved: resolved}
	for _, s := range r.strategies {
		if value, ok := s.Treescore(ctx, in); ok {
			slog.Debug("Treescore resolved",
				"strategy", s.Name(),
				"parents", len(parents),
				"resolved", len(resolved),
				"value", value,
			)
			return round2(clamp01(value))
		}
	}

	// The neutral default strategy never declines; this is unreachable.
	return 0.5
}

// resolveScores resolves each extracted parent to a local net score where
// possible. Inline scores win; otherwise the registry is searched by exact
// normalized name, then fuzzily by the last path segment. Only values in
// [0,1] are accepted.
func (r *Resolver) resolveScores(parents []types.ParentReference) map[string]float64 {
	resolved := make(map[string]float64)

	for i, p := range parents {
		if p.Score != nil {
			resolved[resolvedKey(p, i)] = *p.Score
			continue
		}
		if p.ID == "" || r.registry == nil {
			continue
		}

		if score := r.lookupRegistry(p.ID); score != nil && *score >= 0 && *score <= 1 {
			resolved[p.ID] = *score
		}
	}

	return resolved
}

func (r *Resolver) lookupRegistry(id string) *float64 {
	if r.metrics != nil {
		r.metrics.IncrementRegistryLookup()
	}

	// Exact normalized-name match first.
	if score, err := r.registry.GetScoreByName(id); err == nil && score != nil {
		return score
	}

	// Fuzzy match on the last path segment.
	segment := LastSegment(id)
	if segment == "" {
		return nil
	}
	candidates, err := r.registry.ListArtifacts(segment, 25)
	if err != nil {
		slog.Warn("Registry lookup failed", "parent", id, "error", err)
		return nil
	}
	for _, c := range candidates {
		if strings.EqualFold(LastSegment(c.Name), segment) {
			if c.NetScore != nil {
				return c.NetScore
			}
			if score, err := r.registry.GetScoreByName(c.Name); err == nil && score != nil {
				return score
			}
		}
	}
	return nil
}

// resolvedKey names an anonymous inline-score parent so it is not collapsed
// with other anonymous entries in the resolved map.
func resolvedKey(p types.ParentReference, i int) string {
	if p.ID != "" {
		return p.ID
	}
	return "_inline_" + strconv.Itoa(i)
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

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
