package discussion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"polly/internal/domain"
	models "polly/internal/domain/models/discussion"
	discRepo "polly/internal/domain/repositories/discussion"
	"polly/internal/repository/postgres"
)

// PostgresSubtreeRepository implements the SubtreeStore interface over one
// JSONB document per subtree path. Every append is a single INSERT ... ON
// CONFLICT DO UPDATE statement, so the store serializes concurrent appends
// to the same path and array positions are claimed without a client-side
// counter.
type PostgresSubtreeRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewSubtreeStore creates a new subtree repository
func NewSubtreeStore(config *postgres.RepositoryConfig) discRepo.SubtreeStore {
	return &PostgresSubtreeRepository{
		pool:   config.Pool,
		logger: config.Logger,
	}
}

const appendBySubtreeIDQuery = `
	INSERT INTO subtrees (id, subtree_id, comments)
	VALUES ($1, $2, jsonb_build_array($3::jsonb))
	ON CONFLICT (subtree_id) DO UPDATE
	SET comments = subtrees.comments || excluded.comments
	RETURNING id::text, subtree_id, comments
`

// AppendBySubtreeID appends a comment to the subtree at subtreeID with no
// identity guard, creating the document under a fresh identity if absent.
// Only the privileged root append reaches this.
func (r *PostgresSubtreeRepository) AppendBySubtreeID(ctx context.Context, subtreeID string, c models.Comment) (*models.Subtree, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode comment: %w", err)
	}

	row := r.pool.QueryRow(ctx, appendBySubtreeIDQuery, uuid.New().String(), subtreeID, string(payload))
	node, err := scanSubtree(row)
	if err != nil {
		return nil, fmt.Errorf("append to subtree %q: %w", subtreeID, err)
	}
	return node, nil
}

const appendByIdentityQuery = `
	INSERT INTO subtrees (id, subtree_id, comments)
	VALUES ($1, $2, jsonb_build_array($3::jsonb))
	ON CONFLICT (subtree_id) DO UPDATE
	SET comments = subtrees.comments || excluded.comments
	WHERE subtrees.id = excluded.id
	RETURNING id::text, subtree_id, comments
`

// AppendByIdentity appends a comment to the subtree matching both id and
// subtreeID, upserting the document with that id when the path is new. When
// a document exists at the path under a different identity the guarded
// update matches nothing, nothing is written, and the mismatch surfaces as
// an IdentityForgeryError.
func (r *PostgresSubtreeRepository) AppendByIdentity(ctx context.Context, id uuid.UUID, subtreeID string, c models.Comment) (*models.Subtree, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode comment: %w", err)
	}

	row := r.pool.QueryRow(ctx, appendByIdentityQuery, id.String(), subtreeID, string(payload))
	node, err := scanSubtree(row)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, &domain.IdentityForgeryError{ParentID: id, SubtreeID: subtreeID}
		}
		return nil, fmt.Errorf("append to subtree %q: %w", subtreeID, err)
	}
	return node, nil
}

const findBySubtreeIDQuery = `
	SELECT id::text, subtree_id, comments
	FROM subtrees
	WHERE subtree_id = $1
`

// FindBySubtreeID returns the subtree document at subtreeID, or nil when
// the path has never been written to.
func (r *PostgresSubtreeRepository) FindBySubtreeID(ctx context.Context, subtreeID string) (*models.Subtree, error) {
	row := r.pool.QueryRow(ctx, findBySubtreeIDQuery, subtreeID)
	node, err := scanSubtree(row)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find subtree %q: %w", subtreeID, err)
	}
	return node, nil
}

const deleteByIDQuery = `DELETE FROM subtrees WHERE id = $1`

// DeleteByID removes a subtree document. An already-absent document is
// success: the rollback this backs must be idempotent.
func (r *PostgresSubtreeRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, deleteByIDQuery, id.String())
	if err != nil {
		return fmt.Errorf("delete subtree %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Debug("delete of absent subtree", "id", id)
	}
	return nil
}

// rowScanner covers pgx.Row for single-row scans.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubtree(row rowScanner) (*models.Subtree, error) {
	var (
		rawID    string
		node     models.Subtree
		comments []byte
	)
	if err := row.Scan(&rawID, &node.SubtreeID, &comments); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("decode subtree id: %w", err)
	}
	node.ID = id
	if err := json.Unmarshal(comments, &node.Comments); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}
	return &node, nil
}
