package types

import (
	"encoding/json"
	"fmt"
)

// ArtifactMetadata is the decoded metadata of an uploaded model artifact.
// All fields are optional; keys the decoder does not recognize are kept in
// Extra so callers never lose information from newer upload formats.
type ArtifactMetadata struct {
	Config          map[string]interface{} `json:"config,omitempty"`
	LineageMetadata *LineageMetadata       `json:"lineage_metadata,omitempty"`
	Parents         []ParentEntry          `json:"parents,omitempty"`
	Lineage         *LineageBlock          `json:"lineage,omitempty"`
	LineageParents  []string               `json:"lineage_parents,omitempty"`
	ReadmeText      string                 `json:"readme_text,omitempty"`
	Description     string                 `json:"description,omitempty"`

	Extra map[string]interface{} `json:"-"`
}

// LineageMetadata is the explicit lineage block some uploaders attach.
type LineageMetadata struct {
	BaseModel string `json:"base_model,omitempty"`
}

// LineageBlock accepts either {"parents": [...]} or a bare list of entries.
type LineageBlock struct {
	Parents []ParentEntry `json:"parents,omitempty"`
}

func (l *LineageBlock) UnmarshalJSON(data []byte) error {
	var dict struct {
		Parents []ParentEntry `json:"parents"`
	}
	if err := json.Unmarshal(data, &dict); err == nil {
		l.Parents = dict.Parents
		return nil
	}

	var list []ParentEntry
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("lineage is neither a dict nor a list: %w", err)
	}
	l.Parents = list
	return nil
}

// ParentEntry is one declared parent. Uploaders send either a bare string or
// an object keyed by id, name or model_id, optionally with an inline score.
type ParentEntry struct {
	ID    string
	Score *float64
}

func (p *ParentEntry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.ID = s
		return nil
	}

	var obj struct {
		ID      string   `json:"id"`
		Name    string   `json:"name"`
		ModelID string   `json:"model_id"`
		Score   *float64 `json:"score"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("parent entry is neither a string nor an object: %w", err)
	}

	switch {
	case obj.ID != "":
		p.ID = obj.ID
	case obj.Name != "":
		p.ID = obj.Name
	default:
		p.ID = obj.ModelID
	}
	p.Score = obj.Score
	return nil
}

// metadataAlias avoids recursing into UnmarshalJSON below.
type metadataAlias ArtifactMetadata

// UnmarshalJSON decodes the known fields and routes everything else to Extra.
func (m *ArtifactMetadata) UnmarshalJSON(data []byte) error {
	var alias metadataAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	known := map[string]bool{
		"config": true, "lineage_metadata": true, "parents": true,
		"lineage": true, "lineage_parents": true, "readme_text": true,
		"description": true,
	}
	for key, val := range raw {
		if known[key] {
			continue
		}
		var v interface{}
		if err := json.Unmarshal(val, &v); err != nil {
			continue
		}
		if alias.Extra == nil {
			alias.Extra = make(map[string]interface{})
		}
		alias.Extra[key] = v
	}

	*m = ArtifactMetadata(alias)
	return nil
}

// MetricResult is the outcome of one metric calculator. Immutable once built.
type MetricResult struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	LatencyMS int64   `json:"latency_ms"`
}

// NetScoreResult is the full rating of one artifact. It is published once by
// the rating pipeline and read-only afterwards, so it is safe to share by
// reference between concurrent callers.
type NetScoreResult struct {
	Metrics   map[string]float64 `json:"metrics"`
	NetScore  float64            `json:"net_score"`
	SizeScore map[string]float64 `json:"size_score"`
	Latencies map[string]int64   `json:"latencies_ms,omitempty"`
}

// ParentReference is a normalized parent id with its resolved score, if any.
// Produced by the lineage resolver, consumed only by treescore computation.
type ParentReference struct {
	ID    string
	Score *float64
}

// ArtifactSummary is one row returned by the registry's ListArtifacts.
type ArtifactSummary struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	NetScore *float64 `json:"net_score,omitempty"`
}

// RateRequest is the request body for the rate endpoint.
type RateRequest struct {
	ArtifactID string           `json:"artifact_id" binding:"required"`
	Metadata   ArtifactMetadata `json:"metadata"`
}
