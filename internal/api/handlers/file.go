package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cloo-solutions/agentrag/internal/api"
	"github.com/cloo-solutions/agentrag/internal/domain"
	"github.com/cloo-solutions/agentrag/internal/pagination"
	"github.com/cloo-solutions/agentrag/internal/service"
	"github.com/go-chi/chi/v5"
)

type FileService interface {
	CreateFile(ctx context.Context, owner, agentID string, in service.FileInput) (*domain.AgentFile, error)
	AddText(ctx context.Context, owner, agentID, title, content string) (*domain.AgentFile, error)
	AddQA(ctx context.Context, owner, agentID, question, answer string) (*domain.AgentFile, error)
	List(ctx context.Context, owner, agentID, cursor string, limit int) (pagination.PageResult[*domain.AgentFile], error)
	Delete(ctx context.Context, owner, agentID, fileID string) error
}

type FileHandler struct {
	svc FileService
}

func NewFileHandler(svc FileService) *FileHandler {
	return &FileHandler{svc: svc}
}

type CreateFileRequest struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	Content  string `json:"content"`
	Size     int64  `json:"size"`
}

type AddTextRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type AddQARequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type FileListResponse struct {
	Items   []*FileResponse `json:"items"`
	Cursor  string          `json:"cursor,omitempty"`
	HasMore bool            `json:"has_more"`
}

func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	page, err := h.svc.List(r.Context(), owner, chi.URLParam(r, "agentID"), r.URL.Query().Get("cursor"), parseLimit(r))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, FileListResponse{
		Items:   filesToResponse(page.Items),
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
	})
}

func (h *FileHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req CreateFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	file, err := h.svc.CreateFile(r.Context(), owner, chi.URLParam(r, "agentID"), service.FileInput{
		FileName: req.FileName,
		FileType: req.FileType,
		Content:  req.Content,
		Size:     req.Size,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, fileToResponse(file))
}

func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), owner, chi.URLParam(r, "agentID"), chi.URLParam(r, "fileID")); err != nil {
		api.HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *FileHandler) AddText(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req AddTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	file, err := h.svc.AddText(r.Context(), owner, chi.URLParam(r, "agentID"), req.Title, req.Content)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, fileToResponse(file))
}

func (h *FileHandler) AddQA(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req AddQARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	file, err := h.svc.AddQA(r.Context(), owner, chi.URLParam(r, "agentID"), req.Question, req.Answer)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, fileToResponse(file))
}
