package registry

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/modelaudit/modelmeter/internal/types"
)

// Repository is the artifact registry. The lineage resolver reads it to
// resolve parent scores; the orchestrator writes completed ratings back.
type Repository struct {
	db *DB
}

// NewRepository creates a repository over an open registry database.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// scoreAliases are the keys accepted for a stored net score. Imported score
// blobs are not produced by this service and use inconsistent casing.
var scoreAliases = []string{"net_score", "NetScore", "netScore"}

// UpsertRating stores (or refreshes) an artifact's rating.
func (r *Repository) UpsertRating(name, version string, result *types.NetScoreResult) error {
	var netScore sql.NullFloat64
	var scoresJSON sql.NullString

	if result != nil {
		netScore = sql.NullFloat64{Float64: result.NetScore, Valid: true}
		if blob, err := json.Marshal(result); err == nil {
			scoresJSON = sql.NullString{String: string(blob), Valid: true}
		}
	}

	now := time.Now().UTC()
	_, err := r.db.stmt("upsert_artifact").Exec(
		uuid.New().String(), name, version, netScore, scoresJSON, now, now,
	)
	return err
}

// RegisterArtifact records an uploaded artifact before it has a rating.
func (r *Repository) RegisterArtifact(name, version string) error {
	now := time.Now().UTC()
	_, err := r.db.stmt("upsert_artifact").Exec(
		uuid.New().String(), name, version, nil, nil, now, now,
	)
	return err
}

// ListArtifacts returns registered artifacts whose name contains nameFilter.
// An empty filter lists everything; limit <= 0 means no limit.
func (r *Repository) ListArtifacts(nameFilter string, limit int) ([]types.ArtifactSummary, error) {
	if limit <= 0 {
		limit = -1 // sqlite: LIMIT -1 is unlimited
	}

	rows, err := r.db.stmt("list_artifacts").Query("%"+nameFilter+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.ArtifactSummary
	for rows.Next() {
		var s types.ArtifactSummary
		var score sql.NullFloat64
		if err := rows.Scan(&s.Name, &s.Version, &score); err != nil {
			return nil, err
		}
		if score.Valid {
			v := score.Float64
			s.NetScore = &v
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetScoreByName returns the stored net score for an exact artifact name.
// The net_score column wins; otherwise the scores_json blob is consulted
// under the accepted key aliases. Returns (nil, nil) when unknown.
func (r *Repository) GetScoreByName(name string) (*float64, error) {
	var netScore sql.NullFloat64
	var scoresJSON sql.NullString

	err := r.db.stmt("get_by_name").QueryRow(name).Scan(&netScore, &scoresJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if netScore.Valid {
		v := netScore.Float64
		return &v, nil
	}
	if scoresJSON.Valid {
		return ScoreFromRaw([]byte(scoresJSON.String)), nil
	}
	return nil, nil
}

// ScoreFromRaw extracts a net score from a raw score blob, accepting the
// documented key aliases. Returns nil when absent or not a number.
func ScoreFromRaw(blob []byte) *float64 {
	var raw map[string]interface{}
	if err := json.Unmarshal(blob, &raw); err != nil {
		return nil
	}
	for _, key := range scoreAliases {
		if v, ok := raw[key]; ok {
			if f, ok := v.(float64); ok {
				return &f
			}
		}
	}
	return nil
}
