package discussion

import (
	"context"

	"github.com/google/uuid"

	models "polly/internal/domain/models/discussion"
)

// SubtreeStore defines the atomic document primitives the tree engine
// depends on. Correctness of the whole label scheme rests on each append
// being a single indivisible operation at the store: two concurrent appends
// to the same subtree must serialize there, never claim the same index.
type SubtreeStore interface {
	// AppendBySubtreeID atomically appends a comment to the subtree at
	// subtreeID, creating the document if absent. No identity guard; only
	// the privileged root append uses this. Returns the post-append
	// document.
	AppendBySubtreeID(ctx context.Context, subtreeID string, c models.Comment) (*models.Subtree, error)

	// AppendByIdentity atomically appends a comment to the subtree matching
	// both id and subtreeID, creating the document (with that id) if no
	// document exists at subtreeID. If a document exists at subtreeID under
	// a different identity, nothing is written and an IdentityForgeryError
	// is returned. Returns the post-append document.
	AppendByIdentity(ctx context.Context, id uuid.UUID, subtreeID string, c models.Comment) (*models.Subtree, error)

	// FindBySubtreeID returns the subtree document at subtreeID, or nil if
	// no comment has ever been written there.
	FindBySubtreeID(ctx context.Context, subtreeID string) (*models.Subtree, error)

	// DeleteByID removes a subtree document by its identity. Deleting an
	// already-absent document is success; this backs the best-effort
	// rollback after a failed ancestry validation.
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// ReputationStore defines the atomic primitives over per-pseudonym
// reputation records.
type ReputationStore interface {
	// IncrementCount atomically adds delta to the count nested at path
	// inside pseudo's record, creating the record and any intermediate
	// levels as needed. Concurrent increments at the same path must all be
	// applied; increments at different paths must not interfere. Returns
	// the updated record root.
	IncrementCount(ctx context.Context, pseudo string, path []string, delta int64) (*models.ReputationNode, error)

	// FindSubtrie returns the sub-record reached by following path from
	// pseudo's record root, or nil if the pseudonym or any intermediate
	// label is absent. An empty path returns the whole record.
	FindSubtrie(ctx context.Context, pseudo string, path []string) (*models.ReputationNode, error)
}
