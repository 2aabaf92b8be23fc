package lineage

import (
	"regexp"
	"strings"

	"github.com/modelaudit/modelmeter/internal/types"
)

// configParentFields is the ordered list of structured-config keys that may
// name a base model. Order matters: the first non-empty value per field is a
// candidate, and earlier fields take extraction priority.
var configParentFields = []string{
	"base_model_name_or_path",
	"_name_or_path",
	"parent_model",
	"pretrained_model_name_or_path",
	"checkpoint",
	"teacher_model",
	"base_model",
	"source_model",
}

var githubPattern = regexp.MustCompile(`github\.com/([^/\s]+)/([^/\s]+)`)

// NormalizeID canonicalizes a candidate parent identifier. GitHub URLs become
// owner/repo; HuggingFace host prefixes and whitespace are stripped.
func NormalizeID(raw string) string {
	id := strings.TrimSpace(raw)
	if id == "" {
		return ""
	}

	if m := githubPattern.FindStringSubmatch(id); m != nil {
		repo := strings.TrimSuffix(m[2], ".git")
		return m[1] + "/" + repo
	}

	for _, prefix := range []string{
		"https://huggingface.co/",
		"http://huggingface.co/",
		"huggingface.co/",
	} {
		if strings.HasPrefix(id, prefix) {
			id = strings.TrimPrefix(id, prefix)
			break
		}
	}

	return strings.Trim(strings.TrimSpace(id), "/")
}

// ExtractParents scans artifact metadata for declared parents, in priority
// order: structured config fields, the explicit lineage_metadata block, the
// parents array, the lineage block, and finally lineage_parents. Results are
// deduplicated by normalized id in stable first-seen order. Entries carrying
// only an inline score (no id) are kept as anonymous references.
func ExtractParents(meta *types.ArtifactMetadata) []types.ParentReference {
	if meta == nil {
		return nil
	}

	var out []types.ParentReference
	seen := make(map[string]bool)

	add := func(id string, score *float64) {
		normalized := NormalizeID(id)
		if normalized == "" && score == nil {
			return
		}
		if normalized != "" {
			if seen[normalized] {
				return
			}
			seen[normalized] = true
		}
		var accepted *float64
		if score != nil && *score >= 0 && *score <= 1 {
			v := *score
			accepted = &v
		}
		out = append(out, types.ParentReference{ID: normalized, Score: accepted})
	}

	// 1. Structured config fields, first non-empty string value per field.
	for _, field := range configParentFields {
		if meta.Config == nil {
			break
		}
		if v, ok := meta.Config[field]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				add(s, nil)
			}
		}
	}

	// 2. Explicit lineage_metadata.base_model.
	if meta.LineageMetadata != nil {
		add(meta.LineageMetadata.BaseModel, nil)
	}

	// 3. Explicit parents array.
	for _, p := range meta.Parents {
		add(p.ID, p.Score)
	}

	// 4. Explicit lineage block (dict with parents, or bare list).
	if meta.Lineage != nil {
		for _, p := range meta.Lineage.Parents {
			add(p.ID, p.Score)
		}
	}

	// 5. Explicit lineage_parents array.
	for _, id := range meta.LineageParents {
		add(id, nil)
	}

	return out
}

// LastSegment returns the final path segment of a normalized id, used for
// fuzzy registry matching.
func LastSegment(id string) string {
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		return id[idx+1:]
	}
	return id
}
