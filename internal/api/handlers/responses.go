package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cloo-solutions/agentrag/internal/api"
	"github.com/cloo-solutions/agentrag/internal/api/middleware"
	"github.com/cloo-solutions/agentrag/internal/domain"
)

const (
	defaultListLimit = 20
	timeLayout       = "2006-01-02T15:04:05Z"
)

type AgentResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func agentToResponse(a *domain.Agent) *AgentResponse {
	return &AgentResponse{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		CreatedAt:   a.CreatedAt.UTC().Format(timeLayout),
	}
}

// FileResponse leaves out the content body.
type FileResponse struct {
	ID        string `json:"id"`
	AgentID   string `json:"agent_id"`
	FileName  string `json:"file_name"`
	FileType  string `json:"file_type"`
	Size      int64  `json:"size"`
	Trained   bool   `json:"trained"`
	Indexed   bool   `json:"indexed"`
	CreatedAt string `json:"created_at"`
}

func fileToResponse(f *domain.AgentFile) *FileResponse {
	return &FileResponse{
		ID:        f.ID,
		AgentID:   f.AgentID,
		FileName:  f.FileName,
		FileType:  f.FileType,
		Size:      f.Size,
		Trained:   f.Trained,
		Indexed:   f.Indexed,
		CreatedAt: f.CreatedAt.UTC().Format(timeLayout),
	}
}

func filesToResponse(files []*domain.AgentFile) []*FileResponse {
	out := make([]*FileResponse, len(files))
	for i, f := range files {
		out[i] = fileToResponse(f)
	}
	return out
}

type JobResponse struct {
	ID            string  `json:"id"`
	AgentID       string  `json:"agent_id"`
	Status        string  `json:"status"`
	Retries       int32   `json:"retries"`
	ChunksTrained int     `json:"chunks_trained"`
	Message       string  `json:"message,omitempty"`
	Error         string  `json:"error,omitempty"`
	CreatedAt     string  `json:"created_at"`
	ProcessedAt   *string `json:"processed_at,omitempty"`
}

func jobToResponse(j *domain.TrainingJob) *JobResponse {
	if j == nil {
		return nil
	}
	resp := &JobResponse{
		ID:            j.ID,
		AgentID:       j.AgentID,
		Status:        string(j.Status),
		Retries:       j.Retries,
		ChunksTrained: j.ChunksTrained,
		Message:       j.Message,
		Error:         j.Error,
		CreatedAt:     j.CreatedAt.UTC().Format(timeLayout),
	}
	if j.ProcessedAt != nil {
		ts := j.ProcessedAt.UTC().Format(time.RFC3339)
		resp.ProcessedAt = &ts
	}
	return resp
}

// requireOwner returns the authenticated owner, writing a 401 when there is none.
func requireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := middleware.GetOwnerID(r.Context())
	if owner == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return owner, true
}

func parseLimit(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultListLimit
}
