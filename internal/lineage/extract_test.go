package lineage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelaudit/modelmeter/internal/types"
)

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain huggingface path untouched",
			input:    "meta-llama/Llama-3-8B",
			expected: "meta-llama/Llama-3-8B",
		},
		{
			name:     "strips huggingface https host",
			input:    "https://huggingface.co/google/gemma-2b",
			expected: "google/gemma-2b",
		},
		{
			name:     "strips bare huggingface host",
			input:    "huggingface.co/google/gemma-2b",
			expected: "google/gemma-2b",
		},
		{
			name:     "github url becomes owner/repo",
			input:    "https://github.com/pytorch/fairseq",
			expected: "pytorch/fairseq",
		},
		{
			name:     "github url with .git suffix",
			input:    "github.com/pytorch/fairseq.git",
			expected: "pytorch/fairseq",
		},
		{
			name:     "surrounding whitespace stripped",
			input:    "  bert-base-uncased  ",
			expected: "bert-base-uncased",
		},
		{
			name:     "empty input",
			input:    "   ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeID(tt.input))
		})
	}
}

func TestExtractParentsPriorityOrder(t *testing.T) {
	meta := &types.ArtifactMetadata{
		Config: map[string]interface{}{
			"base_model_name_or_path": "org/base-a",
			"_name_or_path":           "org/base-b",
		},
		LineageMetadata: &types.LineageMetadata{BaseModel: "org/base-c"},
		Parents:         []types.ParentEntry{{ID: "org/base-d"}},
		LineageParents:  []string{"org/base-e"},
	}

	parents := ExtractParents(meta)
	require.Len(t, parents, 5)
	assert.Equal(t, "org/base-a", parents[0].ID)
	assert.Equal(t, "org/base-b", parents[1].ID)
	assert.Equal(t, "org/base-c", parents[2].ID)
	assert.Equal(t, "org/base-d", parents[3].ID)
	assert.Equal(t, "org/base-e", parents[4].ID)
}

func TestExtractParentsDeduplicatesByNormalizedID(t *testing.T) {
	meta := &types.ArtifactMetadata{
		Config: map[string]interface{}{
			"base_model_name_or_path": "https://huggingface.co/org/base",
		},
		Parents:        []types.ParentEntry{{ID: "org/base"}},
		LineageParents: []string{" org/base "},
	}

	parents := ExtractParents(meta)
	require.Len(t, parents, 1)
	assert.Equal(t, "org/base", parents[0].ID)
}

func TestExtractParentsKeepsInlineScores(t *testing.T) {
	score1, score2 := 0.7, 0.9
	meta := &types.ArtifactMetadata{
		Parents: []types.ParentEntry{
			{Score: &score1},
			{Score: &score2},
		},
	}

	parents := ExtractParents(meta)
	require.Len(t, parents, 2)
	require.NotNil(t, parents[0].Score)
	require.NotNil(t, parents[1].Score)
	assert.Equal(t, 0.7, *parents[0].Score)
	assert.Equal(t, 0.9, *parents[1].Score)
}

func TestExtractParentsRejectsOutOfRangeInlineScores(t *testing.T) {
	bad := 1.5
	meta := &types.ArtifactMetadata{
		Parents: []types.ParentEntry{{ID: "org/base", Score: &bad}},
	}

	parents := ExtractParents(meta)
	require.Len(t, parents, 1)
	assert.Nil(t, parents[0].Score)
}

func TestExtractParentsFromLineageBlockForms(t *testing.T) {
	var dictMeta types.ArtifactMetadata
	require.NoError(t, json.Unmarshal([]byte(`{"lineage": {"parents": ["org/a"]}}`), &dictMeta))
	parents := ExtractParents(&dictMeta)
	require.Len(t, parents, 1)
	assert.Equal(t, "org/a", parents[0].ID)

	var listMeta types.ArtifactMetadata
	require.NoError(t, json.Unmarshal([]byte(`{"lineage": ["org/b", {"model_id": "org/c"}]}`), &listMeta))
	parents = ExtractParents(&listMeta)
	require.Len(t, parents, 2)
	assert.Equal(t, "org/b", parents[0].ID)
	assert.Equal(t, "org/c", parents[1].ID)
}

func TestExtractParentsIgnoresEmptyAndNonString(t *testing.T) {
	meta := &types.ArtifactMetadata{
		Config: map[string]interface{}{
			"base_model_name_or_path": "",
			"parent_model":            42.0,
			"checkpoint":              "org/real",
		},
	}

	parents := ExtractParents(meta)
	require.Len(t, parents, 1)
	assert.Equal(t, "org/real", parents[0].ID)
}

func TestExtractParentsNilMetadata(t *testing.T) {
	assert.Empty(t, ExtractParents(nil))
}

func TestLastSegment(t *testing.T) {
	assert.Equal(t, "Llama-3-8B", LastSegment("meta-llama/Llama-3-8B"))
	assert.Equal(t, "bert", LastSegment("bert"))
}
