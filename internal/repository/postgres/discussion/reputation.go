package discussion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	models "polly/internal/domain/models/discussion"
	discRepo "polly/internal/domain/repositories/discussion"
	"polly/internal/repository/postgres"
)

// PostgresReputationRepository implements the ReputationStore interface
// over one JSONB trie per pseudonym. Increments go through the
// repute_increment SQL function inside a single upsert statement, so
// concurrent increments - same path or different paths of one record -
// all land.
type PostgresReputationRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewReputationStore creates a new reputation repository
func NewReputationStore(config *postgres.RepositoryConfig) discRepo.ReputationStore {
	return &PostgresReputationRepository{
		pool:   config.Pool,
		logger: config.Logger,
	}
}

const incrementCountQuery = `
	INSERT INTO reputations (pseudo, repute)
	VALUES ($1, repute_increment('{}'::jsonb, $2, $3))
	ON CONFLICT (pseudo) DO UPDATE
	SET repute = repute_increment(reputations.repute, $2, $3)
	RETURNING repute
`

// IncrementCount adds delta to the count nested at path inside pseudo's
// record, creating the record and intermediate levels as needed, and
// returns the updated record root.
func (r *PostgresReputationRepository) IncrementCount(ctx context.Context, pseudo string, path []string, delta int64) (*models.ReputationNode, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, incrementCountQuery, pseudo, path, delta).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("increment count for %q: %w", pseudo, err)
	}

	record := &models.ReputationNode{}
	if err := json.Unmarshal(raw, record); err != nil {
		return nil, fmt.Errorf("decode reputation record for %q: %w", pseudo, err)
	}
	return record, nil
}

const findSubtrieQuery = `
	SELECT repute #> $2
	FROM reputations
	WHERE pseudo = $1
`

// FindSubtrie returns the sub-record reached by following path from the
// record root, or nil when the pseudonym or any intermediate label is
// absent. The descent happens store-side via the #> operator; only the
// relevant sub-trie travels back.
func (r *PostgresReputationRepository) FindSubtrie(ctx context.Context, pseudo string, path []string) (*models.ReputationNode, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, findSubtrieQuery, pseudo, path).Scan(&raw)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find reputation for %q: %w", pseudo, err)
	}
	if raw == nil {
		return nil, nil // record exists, path does not
	}

	node := &models.ReputationNode{}
	if err := json.Unmarshal(raw, node); err != nil {
		return nil, fmt.Errorf("decode reputation sub-record for %q: %w", pseudo, err)
	}
	return node, nil
}
