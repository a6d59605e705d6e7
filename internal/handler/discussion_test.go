package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"polly/internal/domain"
	models "polly/internal/domain/models/discussion"
	discSvc "polly/internal/domain/services/discussion"
)

type stubTreeService struct {
	appendChild func(context.Context, *discSvc.AppendChildRequest) (*discSvc.AppendResult, error)
	appendRoot  func(context.Context, string) (*discSvc.AppendResult, error)
	getSubtree  func(context.Context, string) (*models.Subtree, error)
	getTree     func(context.Context, string, int) (*discSvc.TreeView, error)
}

func (s *stubTreeService) GetSubtree(ctx context.Context, subtreeID string) (*models.Subtree, error) {
	return s.getSubtree(ctx, subtreeID)
}

func (s *stubTreeService) AppendRootComment(ctx context.Context, text string) (*discSvc.AppendResult, error) {
	return s.appendRoot(ctx, text)
}

func (s *stubTreeService) AppendChildComment(ctx context.Context, req *discSvc.AppendChildRequest) (*discSvc.AppendResult, error) {
	return s.appendChild(ctx, req)
}

func (s *stubTreeService) GetTree(ctx context.Context, subtreeID string, maxDepth int) (*discSvc.TreeView, error) {
	return s.getTree(ctx, subtreeID, maxDepth)
}

type stubReputationService struct {
	get       func(context.Context, string, string) (int64, error)
	increment func(context.Context, string, string, int64) (*models.ReputationNode, error)
}

func (s *stubReputationService) GetReputation(ctx context.Context, pseudo, subtreeID string) (int64, error) {
	return s.get(ctx, pseudo, subtreeID)
}

func (s *stubReputationService) IncrementReputation(ctx context.Context, pseudo, subtreeID string, delta int64) (*models.ReputationNode, error) {
	return s.increment(ctx, pseudo, subtreeID, delta)
}

func newStubHandler(tree discSvc.TreeService, reputation discSvc.ReputationService) *DiscussionHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDiscussionHandler(tree, reputation, logger)
}

func TestAppendComment(t *testing.T) {
	parentID := uuid.New()

	tests := []struct {
		name       string
		body       string
		result     *discSvc.AppendResult
		err        error
		wantStatus int
	}{
		{
			name:       "created",
			body:       `{"parent_id":"` + parentID.String() + `","parent_subtree_id":"a.a","pseudo":"AndrewD","text":"hi"}`,
			result:     &discSvc.AppendResult{SubtreeID: "a.a.a"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "identity forgery",
			body:       `{"parent_id":"` + parentID.String() + `","parent_subtree_id":"a.a","pseudo":"mallory","text":"hi"}`,
			err:        &domain.IdentityForgeryError{ParentID: parentID, SubtreeID: "a.a"},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "orphaned parent",
			body:       `{"parent_id":"` + parentID.String() + `","parent_subtree_id":"a.z.a","pseudo":"mallory","text":"hi"}`,
			err:        &domain.OrphanedSubtreeError{SubtreeID: "a.z.a"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "validation failure",
			body:       `{"parent_id":"` + parentID.String() + `","parent_subtree_id":"a.a","pseudo":"","text":"hi"}`,
			err:        domain.ErrValidation,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			body:       `{"parent_id":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := &stubTreeService{
				appendChild: func(_ context.Context, _ *discSvc.AppendChildRequest) (*discSvc.AppendResult, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return tt.result, nil
				},
			}
			h := newStubHandler(tree, &stubReputationService{})

			req := httptest.NewRequest(http.MethodPost, "/api/comments", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			h.AppendComment(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusCreated {
				var result discSvc.AppendResult
				if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
					t.Fatalf("decode response: %v", err)
				}
				if result.SubtreeID != tt.result.SubtreeID {
					t.Errorf("subtree_id = %q, want %q", result.SubtreeID, tt.result.SubtreeID)
				}
			} else if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Errorf("error content type = %q", ct)
			}
		})
	}
}

func TestGetSubtreeAbsentIsEmpty(t *testing.T) {
	tree := &stubTreeService{
		getSubtree: func(_ context.Context, _ string) (*models.Subtree, error) {
			return nil, nil
		},
	}
	h := newStubHandler(tree, &stubReputationService{})

	req := httptest.NewRequest(http.MethodGet, "/api/subtrees/a.b.c", nil)
	req.SetPathValue("subtree_id", "a.b.c")
	rec := httptest.NewRecorder()

	h.GetSubtree(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var node models.Subtree
	if err := json.Unmarshal(rec.Body.Bytes(), &node); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if node.SubtreeID != "a.b.c" || node.Comments == nil || len(node.Comments) != 0 {
		t.Errorf("empty subtree response = %+v", node)
	}
}

func TestGetTreeRejectsBadDepth(t *testing.T) {
	h := newStubHandler(&stubTreeService{}, &stubReputationService{})

	req := httptest.NewRequest(http.MethodGet, "/api/tree?depth=lots", nil)
	rec := httptest.NewRecorder()

	h.GetTree(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetTreeDefaultsToRoot(t *testing.T) {
	var gotSubtreeID string
	tree := &stubTreeService{
		getTree: func(_ context.Context, subtreeID string, _ int) (*discSvc.TreeView, error) {
			gotSubtreeID = subtreeID
			return &discSvc.TreeView{SubtreeID: subtreeID, Comments: []discSvc.CommentView{}}, nil
		},
	}
	h := newStubHandler(tree, &stubReputationService{})

	req := httptest.NewRequest(http.MethodGet, "/api/tree", nil)
	rec := httptest.NewRecorder()

	h.GetTree(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotSubtreeID != models.RootSubtreeID {
		t.Errorf("defaulted subtree_id = %q, want %q", gotSubtreeID, models.RootSubtreeID)
	}
}

func TestGetReputation(t *testing.T) {
	reputation := &stubReputationService{
		get: func(_ context.Context, pseudo, subtreeID string) (int64, error) {
			if pseudo != "AndrewD" || subtreeID != "a.b" {
				t.Errorf("service called with (%q, %q)", pseudo, subtreeID)
			}
			return 43, nil
		},
	}
	h := newStubHandler(&stubTreeService{}, reputation)

	req := httptest.NewRequest(http.MethodGet, "/api/reputation?pseudo=AndrewD&subtree_id=a.b", nil)
	rec := httptest.NewRecorder()

	h.GetReputation(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var body struct {
		Repute int64 `json:"repute"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Repute != 43 {
		t.Errorf("repute = %d, want 43", body.Repute)
	}
}

func TestGetReputationMissingParams(t *testing.T) {
	h := newStubHandler(&stubTreeService{}, &stubReputationService{})

	req := httptest.NewRequest(http.MethodGet, "/api/reputation?pseudo=AndrewD", nil)
	rec := httptest.NewRecorder()

	h.GetReputation(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestIncrementReputation(t *testing.T) {
	reputation := &stubReputationService{
		increment: func(_ context.Context, pseudo, subtreeID string, delta int64) (*models.ReputationNode, error) {
			record := &models.ReputationNode{}
			record.Add([]string{"a", "b"}, delta)
			return record, nil
		},
	}
	h := newStubHandler(&stubTreeService{}, reputation)

	body := `{"pseudo":"AndrewD","subtree_id":"a.b","delta":5}`
	req := httptest.NewRequest(http.MethodPost, "/api/reputation", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.IncrementReputation(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
}
