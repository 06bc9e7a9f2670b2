package handlers

import (
	"context"
	"net/http"

	"github.com/cloo-solutions/agentrag/internal/api"
	"github.com/cloo-solutions/agentrag/internal/domain"
	"github.com/go-chi/chi/v5"
)

type TrainingService interface {
	Train(ctx context.Context, owner, agentID string) (*domain.TrainResult, error)
	Enqueue(ctx context.Context, owner, agentID string) (*domain.TrainingJob, bool, error)
	Get(ctx context.Context, owner, agentID, jobID string) (*domain.TrainingJob, error)
}

type TrainingHandler struct {
	svc TrainingService
}

func NewTrainingHandler(svc TrainingService) *TrainingHandler {
	return &TrainingHandler{svc: svc}
}

// Train runs a training pass inline. A run that reports failure is still a
// 200; the outcome is in the body.
func (h *TrainingHandler) Train(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Train(r.Context(), owner, chi.URLParam(r, "agentID"))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, result)
}

// Enqueue answers 202 for a new job and 200 when the agent already had one in flight.
func (h *TrainingHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	job, created, err := h.svc.Enqueue(r.Context(), owner, chi.URLParam(r, "agentID"))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusAccepted
	}
	api.Success(w, status, jobToResponse(job))
}

func (h *TrainingHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	job, err := h.svc.Get(r.Context(), owner, chi.URLParam(r, "agentID"), chi.URLParam(r, "jobID"))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, jobToResponse(job))
}
