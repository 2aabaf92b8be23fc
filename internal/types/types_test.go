package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactMetadataUnmarshalKnownFields(t *testing.T) {
	raw := `{
		"config": {"base_model_name_or_path": "org/base", "license": "mit"},
		"lineage_metadata": {"base_model": "org/parent"},
		"readme_text": "# Model",
		"description": "a fine-tune"
	}`

	var meta ArtifactMetadata
	require.NoError(t, json.Unmarshal([]byte(raw), &meta))

	assert.Equal(t, "org/base", meta.Config["base_model_name_or_path"])
	require.NotNil(t, meta.LineageMetadata)
	assert.Equal(t, "org/parent", meta.LineageMetadata.BaseModel)
	assert.Equal(t, "# Model", meta.ReadmeText)
	assert.Equal(t, "a fine-tune", meta.Description)
	assert.Empty(t, meta.Extra)
}

func TestArtifactMetadataRoutesUnknownKeysToExtra(t *testing.T) {
	raw := `{"readme_text": "x", "downloads": 12345, "pipeline_tag": "text-generation"}`

	var meta ArtifactMetadata
	require.NoError(t, json.Unmarshal([]byte(raw), &meta))

	assert.Equal(t, "x", meta.ReadmeText)
	assert.Equal(t, 12345.0, meta.Extra["downloads"])
	assert.Equal(t, "text-generation", meta.Extra["pipeline_tag"])
}

func TestParentEntryForms(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantID    string
		wantScore *float64
	}{
		{name: "bare string", raw: `"org/base"`, wantID: "org/base"},
		{name: "id object", raw: `{"id": "org/a"}`, wantID: "org/a"},
		{name: "name object", raw: `{"name": "org/b"}`, wantID: "org/b"},
		{name: "model_id object", raw: `{"model_id": "org/c"}`, wantID: "org/c"},
		{name: "id wins over name", raw: `{"id": "org/a", "name": "org/b"}`, wantID: "org/a"},
		{name: "score only", raw: `{"score": 0.7}`, wantID: "", wantScore: ptr(0.7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p ParentEntry
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &p))
			assert.Equal(t, tt.wantID, p.ID)
			if tt.wantScore == nil {
				assert.Nil(t, p.Score)
			} else {
				require.NotNil(t, p.Score)
				assert.Equal(t, *tt.wantScore, *p.Score)
			}
		})
	}
}

func TestParentEntryRejectsInvalid(t *testing.T) {
	var p ParentEntry
	assert.Error(t, json.Unmarshal([]byte(`42`), &p))
}

func TestLineageBlockDictAndListForms(t *testing.T) {
	var dict LineageBlock
	require.NoError(t, json.Unmarshal([]byte(`{"parents": ["org/a"]}`), &dict))
	require.Len(t, dict.Parents, 1)
	assert.Equal(t, "org/a", dict.Parents[0].ID)

	var list LineageBlock
	require.NoError(t, json.Unmarshal([]byte(`["org/b", "org/c"]`), &list))
	require.Len(t, list.Parents, 2)
	assert.Equal(t, "org/b", list.Parents[0].ID)
}

func ptr(v float64) *float64 { return &v }
