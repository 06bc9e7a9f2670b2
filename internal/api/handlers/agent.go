package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cloo-solutions/agentrag/internal/api"
	"github.com/cloo-solutions/agentrag/internal/domain"
)

type AgentService interface {
	Create(ctx context.Context, ownerID, name, description string) (*domain.Agent, error)
	List(ctx context.Context, ownerID string) ([]*domain.Agent, error)
}

type AgentHandler struct {
	svc AgentService
}

func NewAgentHandler(svc AgentService) *AgentHandler {
	return &AgentHandler{svc: svc}
}

type CreateAgentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *AgentHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	agent, err := h.svc.Create(r.Context(), owner, req.Name, req.Description)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, agentToResponse(agent))
}

func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	agents, err := h.svc.List(r.Context(), owner)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	out := make([]*AgentResponse, len(agents))
	for i, a := range agents {
		out[i] = agentToResponse(a)
	}
	api.Success(w, http.StatusOK, out)
}
