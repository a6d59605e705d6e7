package discussion

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"polly/internal/domain"
	models "polly/internal/domain/models/discussion"
)

// fakeSubtreeStore is an in-memory SubtreeStore. A single mutex stands in
// for the store's atomic append: everything inside one call is indivisible,
// which is exactly the contract the engine relies on.
type fakeSubtreeStore struct {
	mu     sync.Mutex
	byPath map[string]*models.Subtree

	findErr   map[string]error // injected FindBySubtreeID failures
	deleteErr error            // injected DeleteByID failure
}

func newFakeSubtreeStore() *fakeSubtreeStore {
	return &fakeSubtreeStore{
		byPath:  make(map[string]*models.Subtree),
		findErr: make(map[string]error),
	}
}

func (f *fakeSubtreeStore) AppendBySubtreeID(_ context.Context, subtreeID string, c models.Comment) (*models.Subtree, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	node, ok := f.byPath[subtreeID]
	if !ok {
		node = &models.Subtree{ID: uuid.New(), SubtreeID: subtreeID}
		f.byPath[subtreeID] = node
	}
	node.Comments = append(node.Comments, c)
	return copySubtree(node), nil
}

func (f *fakeSubtreeStore) AppendByIdentity(_ context.Context, id uuid.UUID, subtreeID string, c models.Comment) (*models.Subtree, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	node, ok := f.byPath[subtreeID]
	if !ok {
		node = &models.Subtree{ID: id, SubtreeID: subtreeID}
		f.byPath[subtreeID] = node
	} else if node.ID != id {
		return nil, &domain.IdentityForgeryError{ParentID: id, SubtreeID: subtreeID}
	}
	node.Comments = append(node.Comments, c)
	return copySubtree(node), nil
}

func (f *fakeSubtreeStore) FindBySubtreeID(_ context.Context, subtreeID string) (*models.Subtree, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.findErr[subtreeID]; err != nil {
		return nil, err
	}
	node, ok := f.byPath[subtreeID]
	if !ok {
		return nil, nil
	}
	return copySubtree(node), nil
}

func (f *fakeSubtreeStore) DeleteByID(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return f.deleteErr
	}
	for path, node := range f.byPath {
		if node.ID == id {
			delete(f.byPath, path)
			return nil
		}
	}
	return nil
}

func (f *fakeSubtreeStore) has(subtreeID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byPath[subtreeID]
	return ok
}

func copySubtree(node *models.Subtree) *models.Subtree {
	out := &models.Subtree{ID: node.ID, SubtreeID: node.SubtreeID}
	out.Comments = append(out.Comments, node.Comments...)
	return out
}

// fakeReputationStore is an in-memory ReputationStore built on the model's
// own trie operations.
type fakeReputationStore struct {
	mu      sync.Mutex
	records map[string]*models.ReputationNode
}

func newFakeReputationStore() *fakeReputationStore {
	return &fakeReputationStore{records: make(map[string]*models.ReputationNode)}
}

func (f *fakeReputationStore) IncrementCount(_ context.Context, pseudo string, path []string, delta int64) (*models.ReputationNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, ok := f.records[pseudo]
	if !ok {
		record = &models.ReputationNode{}
		f.records[pseudo] = record
	}
	record.Add(path, delta)
	return record, nil
}

func (f *fakeReputationStore) FindSubtrie(_ context.Context, pseudo string, path []string) (*models.ReputationNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	node := f.records[pseudo]
	for _, label := range path {
		if node == nil {
			return nil, nil
		}
		node = node.Child(label)
	}
	return node, nil
}
