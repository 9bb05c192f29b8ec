package fleet

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/camhub/camhub/internal/apierr"
	"github.com/camhub/camhub/pkg/models"
	"github.com/camhub/camhub/pkg/plugin"
	"go.uber.org/zap"
)

// Routes implements plugin.HTTPProvider. Paths are mounted under /api.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/nodes", Handler: m.handleListNodes},
		{Method: "POST", Path: "/nodes", Handler: m.handleCreateNode},
		{Method: "GET", Path: "/nodes/{id}", Handler: m.handleGetNode},
		{Method: "PUT", Path: "/nodes/{id}", Handler: m.handleUpdateNode},
		{Method: "DELETE", Path: "/nodes/{id}", Handler: m.handleDeleteNode},
	}
}

// NodeListResponse is the response for GET /api/nodes.
type NodeListResponse struct {
	Nodes []models.Node `json:"nodes"`
}

// handleListNodes returns all registered nodes.
//
//	@Summary		List nodes
//	@Description	Returns all registered camera nodes in insertion order.
//	@Tags			fleet
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	NodeListResponse
//	@Router			/nodes [get]
func (m *Module) handleListNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := m.ListNodes(r.Context())
	if err != nil {
		m.logger.Error("list nodes failed", zap.Error(err))
		apierr.InternalError(w, "failed to list nodes")
		return
	}
	if nodes == nil {
		nodes = []models.Node{}
	}
	writeJSON(w, http.StatusOK, NodeListResponse{Nodes: nodes})
}

// handleCreateNode registers a new node.
//
//	@Summary		Register node
//	@Description	Registers a new camera node. A missing id is assigned a UUID.
//	@Tags			fleet
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			node	body		models.Node	true	"Node to register"
//	@Success		201		{object}	models.Node
//	@Failure		400		{object}	apierr.ErrorEnvelope
//	@Router			/nodes [post]
func (m *Module) handleCreateNode(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		apierr.ValidationError(w, "cannot read request body", nil)
		return
	}

	var n models.Node
	if err := unmarshalStrict(body, &n); err != nil {
		apierr.ValidationError(w, "invalid node payload", map[string]any{"body": err.Error()})
		return
	}

	created, err := m.CreateNode(r.Context(), n)
	if err != nil {
		m.writeNodeError(w, n.ID, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleGetNode returns a single node by id.
//
//	@Summary		Get node
//	@Description	Returns a registered node by id.
//	@Tags			fleet
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Node ID"
//	@Success		200	{object}	models.Node
//	@Failure		404	{object}	apierr.ErrorEnvelope
//	@Router			/nodes/{id} [get]
func (m *Module) handleGetNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	n, err := m.GetNode(r.Context(), id)
	if err != nil {
		m.writeNodeError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// handleUpdateNode applies a partial update to a node.
//
//	@Summary		Update node
//	@Description	Merges the given fields into an existing node and re-validates it. The id is immutable.
//	@Tags			fleet
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string		true	"Node ID"
//	@Param			node	body		models.Node	true	"Fields to update"
//	@Success		200		{object}	models.Node
//	@Failure		400		{object}	apierr.ErrorEnvelope
//	@Failure		404		{object}	apierr.ErrorEnvelope
//	@Router			/nodes/{id} [put]
func (m *Module) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		apierr.ValidationError(w, "cannot read request body", nil)
		return
	}

	updated, err := m.UpdateNode(r.Context(), id, body)
	if err != nil {
		m.writeNodeError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteNode removes a node from the registry.
//
//	@Summary		Delete node
//	@Description	Removes a node. Returns 404 if the node does not exist.
//	@Tags			fleet
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Node ID"
//	@Success		204
//	@Failure		404	{object}	apierr.ErrorEnvelope
//	@Router			/nodes/{id} [delete]
func (m *Module) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := m.DeleteNode(r.Context(), id); err != nil {
		m.writeNodeError(w, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeNodeError maps registry errors onto the API error envelope.
func (m *Module) writeNodeError(w http.ResponseWriter, id string, err error) {
	var verrs models.ValidationErrors
	switch {
	case errors.Is(err, ErrNotFound):
		apierr.NotFound(w, id)
	case errors.Is(err, ErrDuplicateID):
		apierr.WriteError(w, http.StatusBadRequest, apierr.APIError{
			Code:    apierr.CodeValidationError,
			Message: "node id already exists",
			NodeID:  id,
			Details: map[string]any{"id": "already exists"},
		})
	case errors.As(err, &verrs):
		apierr.ValidationError(w, "invalid node", verrs.Fields())
	default:
		m.logger.Error("node operation failed", zap.String("node_id", id), zap.Error(err))
		apierr.InternalError(w, "node operation failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
