package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cloo-solutions/agentrag/internal/crawler"
	"github.com/cloo-solutions/agentrag/internal/domain"
	"github.com/cloo-solutions/agentrag/internal/extract"
	"github.com/cloo-solutions/agentrag/internal/storage"
)

// UploadArchive keeps a copy of raw uploads.
type UploadArchive interface {
	PutObject(ctx context.Context, key, contentType string, data []byte) error
}

// PageCrawler walks a website.
type PageCrawler interface {
	Crawl(ctx context.Context, opts crawler.Options) ([]crawler.Page, error)
}

// FileStore persists batches of agent files.
type FileStore interface {
	StoreFiles(ctx context.Context, owner, agentID string, inputs []FileInput, train bool) (*StoreResult, error)
}

// Upload is one file received from a caller.
type Upload struct {
	AgentID     string
	Name        string
	ContentType string
	Data        []byte
	Train       bool
}

type UploadResult struct {
	Extracted  *extract.Result     `json:"extracted"`
	File       *domain.AgentFile   `json:"file,omitempty"`
	Job        *domain.TrainingJob `json:"job,omitempty"`
	ArchiveKey string              `json:"archiveKey,omitempty"`
}

// CrawlRequest is a crawl plus where to store its pages.
type CrawlRequest struct {
	crawler.Options
	AgentID string `json:"agentId"`
	Train   bool   `json:"train"`
}

type CrawlResult struct {
	Pages  []crawler.Page      `json:"pages"`
	Total  int                 `json:"total"`
	Stored int                 `json:"stored"`
	Job    *domain.TrainingJob `json:"job,omitempty"`
}

// IngestService turns uploads and websites into agent files.
type IngestService struct {
	files   FileStore
	agents  AgentAuthorizer
	crawler PageCrawler
	archive UploadArchive
	uuidGen UUIDGenerator
	logger  *slog.Logger
}

// NewIngestService creates an IngestService. A nil archive disables raw upload archiving.
func NewIngestService(files FileStore, agents AgentAuthorizer, pageCrawler PageCrawler, archive UploadArchive) *IngestService {
	return &IngestService{
		files:   files,
		agents:  agents,
		crawler: pageCrawler,
		archive: archive,
		uuidGen: &DefaultUUIDGenerator{},
		logger:  slog.Default().With("component", "ingest"),
	}
}

func (s *IngestService) WithUUIDGenerator(gen UUIDGenerator) *IngestService {
	s.uuidGen = gen
	return s
}

// Extract pulls text out of an upload. Without an agent ID the text is only
// returned; with one it is stored as an agent file.
func (s *IngestService) Extract(ctx context.Context, owner string, up Upload) (*UploadResult, error) {
	if up.AgentID != "" {
		if _, err := s.agents.Authorize(ctx, owner, up.AgentID); err != nil {
			return nil, err
		}
	}

	extracted, err := extract.Extract(ctx, up.Name, up.ContentType, up.Data)
	if err != nil {
		return nil, err
	}
	result := &UploadResult{Extracted: extracted}
	if up.AgentID == "" {
		return result, nil
	}
	if strings.TrimSpace(extracted.Content) == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "No text could be extracted from file")
	}

	if s.archive != nil {
		key := storage.UploadKey(owner, up.AgentID, s.uuidGen.NewString(), extracted.Name)
		if err := s.archive.PutObject(ctx, key, extracted.Type, up.Data); err != nil {
			s.logger.Warn("failed to archive upload", "agent_id", up.AgentID, "key", key, "error", err)
		} else {
			result.ArchiveKey = key
		}
	}

	stored, err := s.files.StoreFiles(ctx, owner, up.AgentID, []FileInput{{
		FileName: extracted.Name,
		FileType: extracted.Type,
		Content:  extracted.Content,
		Size:     extracted.Size,
	}}, up.Train)
	if err != nil {
		return nil, err
	}
	result.File = stored.Files[0]
	result.Job = stored.Job
	return result, nil
}

// Crawl crawls a website and, when an agent ID is given, stores every page
// that produced text as a website file.
func (s *IngestService) Crawl(ctx context.Context, owner string, req CrawlRequest) (*CrawlResult, error) {
	if req.AgentID != "" {
		if _, err := s.agents.Authorize(ctx, owner, req.AgentID); err != nil {
			return nil, err
		}
	}

	pages, err := s.crawler.Crawl(ctx, req.Options)
	if err != nil {
		return nil, err
	}
	result := &CrawlResult{Pages: pages, Total: len(pages)}
	if req.AgentID == "" {
		s.logger.Info("crawl finished without agent, pages not stored", "base_url", req.BaseURL, "pages", len(pages))
		return result, nil
	}

	inputs := make([]FileInput, 0, len(pages))
	for _, p := range pages {
		if p.Error != "" || p.Content == "" {
			continue
		}
		inputs = append(inputs, FileInput{
			FileName: p.URL,
			FileType: domain.FileTypeWebsite,
			Content:  p.Content,
			Size:     int64(len(p.Content)),
		})
	}
	if len(inputs) == 0 {
		return result, nil
	}

	stored, err := s.files.StoreFiles(ctx, owner, req.AgentID, inputs, req.Train)
	if err != nil {
		return nil, err
	}
	result.Stored = len(stored.Files)
	result.Job = stored.Job
	return result, nil
}
