package discussion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"polly/internal/config"
	"polly/internal/domain"
	models "polly/internal/domain/models/discussion"
	discRepo "polly/internal/domain/repositories/discussion"
	discSvc "polly/internal/domain/services/discussion"
)

// treeService implements the TreeService interface.
type treeService struct {
	subtrees   discRepo.SubtreeStore
	reputation discSvc.ReputationService
	logger     *slog.Logger
}

// NewTreeService creates a new tree service.
func NewTreeService(
	subtrees discRepo.SubtreeStore,
	reputation discSvc.ReputationService,
	logger *slog.Logger,
) discSvc.TreeService {
	return &treeService{
		subtrees:   subtrees,
		reputation: reputation,
		logger:     logger,
	}
}

// GetSubtree returns the subtree document at subtreeID, or nil when no
// comment has ever been written there.
func (s *treeService) GetSubtree(ctx context.Context, subtreeID string) (*models.Subtree, error) {
	if _, err := PathLabels(subtreeID); err != nil {
		return nil, err
	}
	node, err := s.subtrees.FindBySubtreeID(ctx, subtreeID)
	if err != nil {
		return nil, fmt.Errorf("get subtree %q: %w", subtreeID, err)
	}
	return node, nil
}

// AppendRootComment appends to (or creates) the single designated root node.
// There is no parent to validate, so ancestry validation is bypassed. Root
// comments carry zero reputation and the reserved root pseudonym.
func (s *treeService) AppendRootComment(ctx context.Context, text string) (*discSvc.AppendResult, error) {
	if err := validateRootText(text); err != nil {
		return nil, err
	}

	comment := models.Comment{
		ChildID: uuid.New(),
		Pseudo:  models.RootPseudo,
		Repute:  0,
		Text:    text,
		Time:    time.Now().UTC(),
	}

	node, err := s.subtrees.AppendBySubtreeID(ctx, models.RootSubtreeID, comment)
	if err != nil {
		return nil, fmt.Errorf("append root comment: %w", err)
	}

	childID, err := ChildPath(models.RootSubtreeID, len(node.Comments)-1)
	if err != nil {
		return nil, err
	}

	s.logger.Info("root comment appended", "subtree_id", childID)

	return &discSvc.AppendResult{SubtreeID: childID, Comment: comment}, nil
}

// AppendChildComment attaches a comment below the comment identified by
// (ParentID, ParentSubtreeID). The append is issued first and validated
// after: the common case is a legitimate write to an existing subtree, and
// it should not pay a pre-check round trip. Only when the append created a
// brand-new subtree does the ancestry validation protocol run, rolling the
// subtree back if the claimed parent turns out to be fabricated.
func (s *treeService) AppendChildComment(ctx context.Context, req *discSvc.AppendChildRequest) (*discSvc.AppendResult, error) {
	if err := validateAppendChild(req); err != nil {
		return nil, err
	}

	// Snapshot the author's aggregate reputation for the parent path. The
	// snapshot is stored on the comment and never recomputed afterwards.
	repute, err := s.reputation.GetReputation(ctx, req.Pseudo, req.ParentSubtreeID)
	if err != nil {
		return nil, fmt.Errorf("reputation snapshot for %q at %q: %w", req.Pseudo, req.ParentSubtreeID, err)
	}

	comment := models.Comment{
		ChildID: uuid.New(),
		Pseudo:  req.Pseudo,
		Repute:  repute,
		Title:   req.Title,
		Text:    req.Text,
		Time:    time.Now().UTC(),
	}

	node, err := s.subtrees.AppendByIdentity(ctx, req.ParentID, req.ParentSubtreeID, comment)
	if err != nil {
		var forgery *domain.IdentityForgeryError
		if errors.As(err, &forgery) {
			s.logger.Warn("possible hack attempt: append with mismatched parent identity",
				"parent_id", req.ParentID,
				"parent_subtree_id", req.ParentSubtreeID,
				"pseudo", req.Pseudo,
			)
			return nil, err
		}
		return nil, fmt.Errorf("append comment to subtree %q: %w", req.ParentSubtreeID, err)
	}

	// A single comment means the append upserted a brand-new subtree. This
	// is the TOCTOU-sensitive moment: until now nothing proved the claimed
	// (identity, path) pair corresponds to a real comment in a real
	// grandparent. Existing subtrees already proved ancestry with their
	// first comment and are never re-validated.
	if len(node.Comments) == 1 {
		if verr := s.validateAncestry(ctx, req.ParentID, req.ParentSubtreeID); verr != nil {
			return nil, s.rollback(ctx, node, req, verr)
		}
	}

	childID, err := ChildPath(req.ParentSubtreeID, len(node.Comments)-1)
	if err != nil {
		return nil, err
	}

	return &discSvc.AppendResult{SubtreeID: childID, Comment: comment}, nil
}

// validateAncestry checks that parentSubtreeID genuinely hangs off an
// existing comment: the grandparent subtree must exist, and its comment at
// the position encoded by the final label must carry parentID as its child
// identity.
func (s *treeService) validateAncestry(ctx context.Context, parentID uuid.UUID, parentSubtreeID string) error {
	prefix, label, ok := SplitPath(parentSubtreeID)
	if !ok {
		// A path with no separator is root-level; only the privileged root
		// append may create those.
		return &domain.OrphanedSubtreeError{
			SubtreeID: parentSubtreeID,
			Detail:    "root-level subtrees are created by the root append only",
		}
	}
	index, err := DecodeLabel(label)
	if err != nil {
		return &domain.OrphanedSubtreeError{SubtreeID: parentSubtreeID, Detail: "malformed final label"}
	}

	grandparent, err := s.subtrees.FindBySubtreeID(ctx, prefix)
	if err != nil {
		return &domain.ValidationStoreError{SubtreeID: parentSubtreeID, Err: err}
	}
	if grandparent == nil {
		return &domain.OrphanedSubtreeError{SubtreeID: parentSubtreeID}
	}
	if index >= len(grandparent.Comments) || grandparent.Comments[index].ChildID != parentID {
		return &domain.IdentityForgeryError{ParentID: parentID, SubtreeID: parentSubtreeID}
	}
	return nil
}

// rollback deletes the just-created, unvalidated subtree and surfaces the
// validation failure. The delete is best-effort: if it fails too, the
// validation failure stays primary with the delete failure attached - an
// unvalidated node left behind is a labeled failure mode, never masked as
// success.
func (s *treeService) rollback(ctx context.Context, node *models.Subtree, req *discSvc.AppendChildRequest, verr error) error {
	var storeErr *domain.ValidationStoreError
	if errors.As(verr, &storeErr) {
		s.logger.Error("store failure during ancestry validation",
			"parent_subtree_id", req.ParentSubtreeID,
			"error", verr,
		)
	} else {
		s.logger.Warn("possible hack attempt: ancestry validation rejected new subtree",
			"parent_id", req.ParentID,
			"parent_subtree_id", req.ParentSubtreeID,
			"pseudo", req.Pseudo,
			"error", verr,
		)
	}

	if rerr := s.subtrees.DeleteByID(ctx, node.ID); rerr != nil {
		s.logger.Error("rollback of unvalidated subtree failed",
			"id", node.ID,
			"subtree_id", node.SubtreeID,
			"error", rerr,
		)
		return &domain.RollbackError{Cause: verr, Rollback: rerr}
	}
	return verr
}

// GetTree assembles a nested view of the subtree at subtreeID, descending at
// most maxDepth levels of replies below it. Each level is one store read;
// depth is clamped so a single request cannot walk the whole forest.
func (s *treeService) GetTree(ctx context.Context, subtreeID string, maxDepth int) (*discSvc.TreeView, error) {
	if _, err := PathLabels(subtreeID); err != nil {
		return nil, err
	}
	if maxDepth < 0 || maxDepth > config.MaxTreeViewDepth {
		maxDepth = config.MaxTreeViewDepth
	}
	return s.buildView(ctx, subtreeID, maxDepth)
}

func (s *treeService) buildView(ctx context.Context, subtreeID string, depth int) (*discSvc.TreeView, error) {
	view := &discSvc.TreeView{SubtreeID: subtreeID, Comments: []discSvc.CommentView{}}

	node, err := s.subtrees.FindBySubtreeID(ctx, subtreeID)
	if err != nil {
		return nil, fmt.Errorf("get subtree %q: %w", subtreeID, err)
	}
	if node == nil {
		return view, nil // leaf
	}

	for i, comment := range node.Comments {
		childID, err := ChildPath(subtreeID, i)
		if err != nil {
			return nil, err
		}
		cv := discSvc.CommentView{Comment: comment, SubtreeID: childID}
		if depth > 0 {
			child, err := s.buildView(ctx, childID, depth-1)
			if err != nil {
				return nil, err
			}
			cv.Replies = child.Comments
		}
		view.Comments = append(view.Comments, cv)
	}
	return view, nil
}
