package discussion

import (
	"context"

	"github.com/google/uuid"

	models "polly/internal/domain/models/discussion"
)

// AppendChildRequest carries everything a caller must present to attach a
// comment below an existing one. ParentID is the anti-forgery token handed
// out as ChildID on the comment being replied to.
type AppendChildRequest struct {
	ParentID        uuid.UUID `json:"parent_id"`
	ParentSubtreeID string    `json:"parent_subtree_id"`
	Pseudo          string    `json:"pseudo"`
	Title           string    `json:"title,omitempty"`
	Text            string    `json:"text"`
}

// AppendResult is the success payload of an append: the path a future reply
// to this comment will live at, and the stored comment itself.
type AppendResult struct {
	SubtreeID string         `json:"subtree_id"`
	Comment   models.Comment `json:"comment"`
}

// CommentView is one comment in an assembled tree view, annotated with the
// path of its reply subtree and any replies already fetched.
type CommentView struct {
	models.Comment
	SubtreeID string        `json:"subtree_id"`
	Replies   []CommentView `json:"replies,omitempty"`
}

// TreeView is a nested rendering of a subtree and its descendants.
type TreeView struct {
	SubtreeID string        `json:"subtree_id"`
	Comments  []CommentView `json:"comments"`
}

// TreeService is the tree mutation/query engine.
type TreeService interface {
	// GetSubtree returns the subtree at subtreeID, or nil when the path has
	// zero comments (a legitimate leaf state, not an error).
	GetSubtree(ctx context.Context, subtreeID string) (*models.Subtree, error)

	// AppendRootComment appends to (or creates) the designated root node.
	// Privileged: there is no parent to validate, so ancestry validation is
	// bypassed. Not meant for the public interface.
	AppendRootComment(ctx context.Context, text string) (*AppendResult, error)

	// AppendChildComment snapshots the author's reputation, atomically
	// appends the comment at the claimed parent, and - when the append
	// created a brand-new subtree - runs the ancestry validation protocol,
	// rolling the subtree back on failure.
	AppendChildComment(ctx context.Context, req *AppendChildRequest) (*AppendResult, error)

	// GetTree assembles the nested view rooted at subtreeID, descending at
	// most maxDepth levels below it.
	GetTree(ctx context.Context, subtreeID string, maxDepth int) (*TreeView, error)
}

// ReputationService manages per-pseudonym path-keyed reputation.
type ReputationService interface {
	// GetReputation returns the aggregate reputation of pseudo for
	// subtreeID: the sum of every count at or below that path in the
	// pseudonym's trie. Zero when nothing is recorded.
	GetReputation(ctx context.Context, pseudo, subtreeID string) (int64, error)

	// IncrementReputation atomically adds delta (possibly negative) to the
	// count at exactly subtreeID and returns the updated record.
	IncrementReputation(ctx context.Context, pseudo, subtreeID string, delta int64) (*models.ReputationNode, error)
}
