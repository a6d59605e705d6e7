package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	models "polly/internal/domain/models/discussion"
	discSvc "polly/internal/domain/services/discussion"
	"polly/internal/httputil"
)

// DiscussionHandler handles HTTP requests for the comment tree and the
// reputation records keyed by its paths.
type DiscussionHandler struct {
	tree       discSvc.TreeService
	reputation discSvc.ReputationService
	logger     *slog.Logger
}

// NewDiscussionHandler creates a new discussion handler
func NewDiscussionHandler(
	tree discSvc.TreeService,
	reputation discSvc.ReputationService,
	logger *slog.Logger,
) *DiscussionHandler {
	return &DiscussionHandler{
		tree:       tree,
		reputation: reputation,
		logger:     logger,
	}
}

// HealthCheck returns 200 when the service is up.
func (h *DiscussionHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// AppendComment attaches a comment below an existing one. The caller must
// present the child identity handed out on the comment being replied to.
func (h *DiscussionHandler) AppendComment(w http.ResponseWriter, r *http.Request) {
	var req discSvc.AppendChildRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.tree.AppendChildComment(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, result)
}

type appendRootRequest struct {
	Text string `json:"text"`
}

// AppendRootComment appends a comment at the root level. Bootstrapping
// path; deployments front it with a gateway rather than exposing it.
func (h *DiscussionHandler) AppendRootComment(w http.ResponseWriter, r *http.Request) {
	var req appendRootRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.tree.AppendRootComment(r.Context(), req.Text)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, result)
}

// GetSubtree returns the comments at one path. A path nothing was ever
// written to is a legitimate leaf, answered with an empty comment list
// rather than 404.
func (h *DiscussionHandler) GetSubtree(w http.ResponseWriter, r *http.Request) {
	subtreeID := r.PathValue("subtree_id")

	node, err := h.tree.GetSubtree(r.Context(), subtreeID)
	if err != nil {
		handleError(w, err)
		return
	}
	if node == nil {
		node = &models.Subtree{SubtreeID: subtreeID, Comments: []models.Comment{}}
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// GetTree returns the nested view below a subtree, depth-capped.
func (h *DiscussionHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	subtreeID := r.URL.Query().Get("subtree_id")
	if subtreeID == "" {
		subtreeID = models.RootSubtreeID
	}

	depth := -1 // service clamps to its maximum
	if raw := r.URL.Query().Get("depth"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "depth must be an integer")
			return
		}
		depth = parsed
	}

	view, err := h.tree.GetTree(r.Context(), subtreeID, depth)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, view)
}

// GetReputation returns the aggregate reputation of a pseudonym for a path.
func (h *DiscussionHandler) GetReputation(w http.ResponseWriter, r *http.Request) {
	pseudo := r.URL.Query().Get("pseudo")
	subtreeID := r.URL.Query().Get("subtree_id")
	if pseudo == "" || subtreeID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "pseudo and subtree_id are required")
		return
	}

	repute, err := h.reputation.GetReputation(r.Context(), pseudo, subtreeID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"pseudo":     pseudo,
		"subtree_id": subtreeID,
		"repute":     repute,
	})
}

type incrementRequest struct {
	Pseudo    string `json:"pseudo"`
	SubtreeID string `json:"subtree_id"`
	Delta     int64  `json:"delta"`
}

// IncrementReputation adjusts a pseudonym's reputation at exactly one path.
func (h *DiscussionHandler) IncrementReputation(w http.ResponseWriter, r *http.Request) {
	var req incrementRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.reputation.IncrementReputation(r.Context(), req.Pseudo, req.SubtreeID, req.Delta)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"pseudo": req.Pseudo,
		"repute": record,
	})
}
