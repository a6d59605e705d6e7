package discussion

import (
	"context"
	"fmt"
	"log/slog"

	"polly/internal/config"
	models "polly/internal/domain/models/discussion"
	discRepo "polly/internal/domain/repositories/discussion"
	discSvc "polly/internal/domain/services/discussion"
)

// reputationService implements the ReputationService interface.
type reputationService struct {
	store  discRepo.ReputationStore
	logger *slog.Logger
}

// NewReputationService creates a new reputation service.
func NewReputationService(store discRepo.ReputationStore, logger *slog.Logger) discSvc.ReputationService {
	return &reputationService{
		store:  store,
		logger: logger,
	}
}

// GetReputation accumulates the reputation of pseudo for subtreeID and every
// path below it. The store descends to the sub-trie; summation happens here
// at read time - writes only ever touch the one node earning reputation.
func (s *reputationService) GetReputation(ctx context.Context, pseudo, subtreeID string) (int64, error) {
	labels, err := PathLabels(subtreeID)
	if err != nil {
		return 0, err
	}

	root, err := s.store.FindSubtrie(ctx, pseudo, labels)
	if err != nil {
		return 0, fmt.Errorf("find reputation for %q at %q: %w", pseudo, subtreeID, err)
	}
	if root == nil {
		return 0, nil // no record, no reputation
	}

	return sumCounts(root), nil
}

// IncrementReputation atomically adds delta to the count at exactly
// subtreeID inside pseudo's record, creating intermediate levels as needed.
// Ancestor aggregates are never touched; they are recomputed on read.
func (s *reputationService) IncrementReputation(ctx context.Context, pseudo, subtreeID string, delta int64) (*models.ReputationNode, error) {
	if err := validateIncrement(pseudo, delta); err != nil {
		return nil, err
	}
	labels, err := PathLabels(subtreeID)
	if err != nil {
		return nil, err
	}

	record, err := s.store.IncrementCount(ctx, pseudo, labels, delta)
	if err != nil {
		return nil, fmt.Errorf("increment reputation for %q at %q: %w", pseudo, subtreeID, err)
	}

	s.logger.Debug("reputation incremented",
		"pseudo", pseudo,
		"subtree_id", subtreeID,
		"delta", delta,
	)

	return record, nil
}

// sumCounts adds every count at or below root. Iterative with an explicit
// stack and a depth cap: the trie's depth is attacker-influenced through the
// paths it mirrors, so recursion depth must not be.
func sumCounts(root *models.ReputationNode) int64 {
	type frame struct {
		node  *models.ReputationNode
		depth int
	}

	total := int64(0)
	stack := []frame{{node: root, depth: 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		total += f.node.Count
		if f.depth >= config.MaxPathDepth {
			continue
		}
		for _, child := range f.node.Children {
			if child == nil {
				continue
			}
			stack = append(stack, frame{node: child, depth: f.depth + 1})
		}
	}
	return total
}
