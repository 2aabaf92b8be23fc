package lineage

import (
	"context"
	"log/slog"

	"github.com/modelaudit/modelmeter/internal/llm"
	"github.com/modelaudit/modelmeter/internal/types"
)

// Input carries everything a treescore strategy may consult.
type Input struct {
	Meta     *types.ArtifactMetadata
	Parents  []types.ParentReference
	Resolved map[string]float64 // parent key -> score, partial
}

// Strategy is one link of the treescore chain. The first strategy to report
// ok wins; the terminal neutral default never declines.
type Strategy interface {
	Name() string
	Treescore(ctx context.Context, in *Input) (float64, bool)
}

// localAverageStrategy averages the resolved parent scores.
type localAverageStrategy struct{}

func (s *localAverageStrategy) Name() string { return "local_average" }

func (s *localAverageStrategy) Treescore(_ context.Context, in *Input) (float64, bool) {
	if len(in.Resolved) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range in.Resolved {
		sum += v
	}
	return sum / float64(len(in.Resolved)), true
}

// llmFallbackStrategy asks the LLM collaborator to re-derive parents and a
// treescore when the rule-based path found nothing usable.
type llmFallbackStrategy struct {
	resolver *Resolver
}

func (s *llmFallbackStrategy) Name() string { return "llm_fallback" }

func (s *llmFallbackStrategy) Treescore(ctx context.Context, in *Input) (float64, bool) {
	client := s.resolver.llm
	if client == nil || !client.Available() {
		return 0, false
	}

	req := llm.Request{
		ParentScores: in.Resolved,
	}
	if in.Meta != nil {
		req.ConfigJSON = in.Meta.Config
	}
	if s.resolver.registry != nil {
		if artifacts, err := s.resolver.registry.ListArtifacts("", 100); err == nil {
			names := make([]string, 0, len(artifacts))
			for _, a := range artifacts {
				names = append(names, a.Name)
			}
			req.UploadedModelNames = names
		}
	}

	value, err := client.SuggestTreescore(ctx, req)
	if err != nil {
		slog.Info("LLM treescore fallback unavailable", "error", err)
		return 0, false
	}
	return value, true
}

// neutralDefaultStrategy is the terminal strategy: 0.5 means "insufficient
// signal", not a penalty.
type neutralDefaultStrategy struct{}

func (s *neutralDefaultStrategy) Name() string { return "neutral_default" }

func (s *neutralDefaultStrategy) Treescore(context.Context, *Input) (float64, bool) {
	return 0.5, true
}
