package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/cloo-solutions/agentrag/internal/api"
	"github.com/cloo-solutions/agentrag/internal/crawler"
	"github.com/cloo-solutions/agentrag/internal/domain"
	"github.com/cloo-solutions/agentrag/internal/extract"
	"github.com/cloo-solutions/agentrag/internal/service"
)

const multipartMemory = 8 << 20

type IngestService interface {
	Extract(ctx context.Context, owner string, up service.Upload) (*service.UploadResult, error)
	Crawl(ctx context.Context, owner string, req service.CrawlRequest) (*service.CrawlResult, error)
}

type IngestHandler struct {
	svc IngestService
}

func NewIngestHandler(svc IngestService) *IngestHandler {
	return &IngestHandler{svc: svc}
}

type ExtractResponse struct {
	*extract.Result
	File       *FileResponse `json:"file,omitempty"`
	Job        *JobResponse  `json:"job,omitempty"`
	ArchiveKey string        `json:"archiveKey,omitempty"`
}

type CrawlResponse struct {
	Pages  []crawler.Page `json:"pages"`
	Total  int            `json:"total"`
	Stored int            `json:"stored"`
	Job    *JobResponse   `json:"job,omitempty"`
}

// Extract takes a multipart upload in the "file" field. The optional form
// fields agentId and train store the text as an agent file.
func (h *IngestHandler) Extract(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.HandleError(w, err)
			return
		}
		api.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		api.HandleError(w, domain.ErrEmptyUpload)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	train, _ := strconv.ParseBool(r.FormValue("train"))
	result, err := h.svc.Extract(r.Context(), owner, service.Upload{
		AgentID:     r.FormValue("agentId"),
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
		Train:       train,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := ExtractResponse{
		Result:     result.Extracted,
		Job:        jobToResponse(result.Job),
		ArchiveKey: result.ArchiveKey,
	}
	if result.File != nil {
		resp.File = fileToResponse(result.File)
	}
	api.Success(w, http.StatusOK, resp)
}

// Crawl decodes a crawl request, filling unset limits with the crawler defaults.
func (h *IngestHandler) Crawl(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	req := service.CrawlRequest{Options: crawler.DefaultOptions()}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.Crawl(r.Context(), owner, req)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	pages := result.Pages
	if pages == nil {
		pages = []crawler.Page{}
	}
	api.Success(w, http.StatusOK, CrawlResponse{
		Pages:  pages,
		Total:  result.Total,
		Stored: result.Stored,
		Job:    jobToResponse(result.Job),
	})
}
