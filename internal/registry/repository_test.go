package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelaudit/modelmeter/internal/types"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := NewMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db)
}

func TestUpsertAndGetScore(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.UpsertRating("org/model", "1.0.0", &types.NetScoreResult{
		NetScore: 0.82,
		Metrics:  map[string]float64{"license": 1.0},
	}))

	score, err := repo.GetScoreByName("org/model")
	require.NoError(t, err)
	require.NotNil(t, score)
	assert.Equal(t, 0.82, *score)
}

func TestGetScoreUnknownArtifact(t *testing.T) {
	repo := newTestRepo(t)

	score, err := repo.GetScoreByName("org/ghost")
	require.NoError(t, err)
	assert.Nil(t, score)
}

func TestUpsertReplacesExistingRating(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.UpsertRating("org/model", "1.0.0", &types.NetScoreResult{NetScore: 0.4}))
	require.NoError(t, repo.UpsertRating("org/model", "1.0.0", &types.NetScoreResult{NetScore: 0.9}))

	score, err := repo.GetScoreByName("org/model")
	require.NoError(t, err)
	require.NotNil(t, score)
	assert.Equal(t, 0.9, *score)

	artifacts, err := repo.ListArtifacts("org/model", 0)
	require.NoError(t, err)
	assert.Len(t, artifacts, 1)
}

func TestRegisterArtifactWithoutRating(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.RegisterArtifact("org/unrated", "1.0.0"))

	artifacts, err := repo.ListArtifacts("unrated", 10)
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Nil(t, artifacts[0].NetScore)

	score, err := repo.GetScoreByName("org/unrated")
	require.NoError(t, err)
	assert.Nil(t, score)
}

func TestListArtifactsFiltersByName(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.UpsertRating("org/llama-ft", "1.0.0", &types.NetScoreResult{NetScore: 0.7}))
	require.NoError(t, repo.UpsertRating("org/bert-base", "1.0.0", &types.NetScoreResult{NetScore: 0.6}))

	matches, err := repo.ListArtifacts("llama", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "org/llama-ft", matches[0].Name)

	all, err := repo.ListArtifacts("", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestScoreFromRawAliases(t *testing.T) {
	tests := []struct {
		name string
		blob string
		want *float64
	}{
		{name: "snake case", blob: `{"net_score": 0.7}`, want: ptr(0.7)},
		{name: "pascal case", blob: `{"NetScore": 0.6}`, want: ptr(0.6)},
		{name: "camel case", blob: `{"netScore": 0.5}`, want: ptr(0.5)},
		{name: "missing", blob: `{"other": 1}`, want: nil},
		{name: "non numeric", blob: `{"net_score": "high"}`, want: nil},
		{name: "not json", blob: `garbage`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreFromRaw([]byte(tt.blob))
			if tt.want == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tt.want, *got)
			}
		})
	}
}

func ptr(v float64) *float64 { return &v }
