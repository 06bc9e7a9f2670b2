package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloo-solutions/agentrag/internal/domain"
	"github.com/cloo-solutions/agentrag/internal/pagination"
)

type AgentFileRepositoryInterface interface {
	Create(ctx context.Context, f *domain.AgentFile) error
	GetByID(ctx context.Context, id string) (*domain.AgentFile, error)
	ListByAgentAndOwner(ctx context.Context, agentID, owner string, cursor *pagination.Cursor, limit int) (pagination.PageResult[*domain.AgentFile], error)
	Delete(ctx context.Context, id, owner string) error
}

// AgentAuthorizer checks agent ownership.
type AgentAuthorizer interface {
	Authorize(ctx context.Context, ownerID, agentID string) (*domain.Agent, error)
}

// FileInput is the raw material for one agent file.
type FileInput struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	Content  string `json:"content"`
	Size     int64  `json:"size"`
}

// StoreResult lists the files written by StoreFiles and the training job
// queued with them, if any.
type StoreResult struct {
	Files []*domain.AgentFile  `json:"files"`
	Job   *domain.TrainingJob `json:"job,omitempty"`
}

// AgentFileService creates and manages the documents an agent is trained on.
type AgentFileService struct {
	files    AgentFileRepositoryInterface
	agents   AgentAuthorizer
	txRunner TxRunner
	uuidGen  UUIDGenerator
	now      func() time.Time
}

func NewAgentFileService(files AgentFileRepositoryInterface, agents AgentAuthorizer, txRunner TxRunner) *AgentFileService {
	return &AgentFileService{
		files:    files,
		agents:   agents,
		txRunner: txRunner,
		uuidGen:  &DefaultUUIDGenerator{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *AgentFileService) WithUUIDGenerator(gen UUIDGenerator) *AgentFileService {
	s.uuidGen = gen
	return s
}

// CreateFile stores a file as given. Every field is required and size must be positive.
func (s *AgentFileService) CreateFile(ctx context.Context, owner, agentID string, in FileInput) (*domain.AgentFile, error) {
	if _, err := s.agents.Authorize(ctx, owner, agentID); err != nil {
		return nil, err
	}
	f, err := s.newFile(owner, agentID, in)
	if err != nil {
		return nil, err
	}
	if err := s.files.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// AddText stores a titled block of plain text.
func (s *AgentFileService) AddText(ctx context.Context, owner, agentID, title, content string) (*domain.AgentFile, error) {
	title = strings.TrimSpace(title)
	if title == "" || strings.TrimSpace(content) == "" {
		return nil, domain.ErrMissingRequiredField
	}
	return s.CreateFile(ctx, owner, agentID, FileInput{
		FileName: title,
		FileType: domain.FileTypeText,
		Content:  content,
		Size:     int64(len(content)),
	})
}

// AddQA stores a question and its answer as one document.
func (s *AgentFileService) AddQA(ctx context.Context, owner, agentID, question, answer string) (*domain.AgentFile, error) {
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if question == "" || answer == "" {
		return nil, domain.ErrMissingRequiredField
	}
	content := domain.NewQAContent(question, answer)
	return s.CreateFile(ctx, owner, agentID, FileInput{
		FileName: question,
		FileType: domain.FileTypeQA,
		Content:  content,
		Size:     int64(len(content)),
	})
}

// StoreFiles writes a batch of files atomically and optionally queues a
// training job in the same transaction.
func (s *AgentFileService) StoreFiles(ctx context.Context, owner, agentID string, inputs []FileInput, train bool) (*StoreResult, error) {
	if _, err := s.agents.Authorize(ctx, owner, agentID); err != nil {
		return nil, err
	}

	files := make([]*domain.AgentFile, 0, len(inputs))
	for _, in := range inputs {
		f, err := s.newFile(owner, agentID, in)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	result := &StoreResult{Files: files}
	err := s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		for _, f := range files {
			if err := repos.AgentFiles().Create(ctx, f); err != nil {
				return err
			}
		}
		if !train || len(files) == 0 {
			return nil
		}
		job, _, err := repos.TrainingJobs().Enqueue(ctx, newPendingJob(s.uuidGen.NewString(), agentID, owner, s.now()))
		if err != nil {
			return err
		}
		result.Job = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *AgentFileService) List(ctx context.Context, owner, agentID, cursor string, limit int) (pagination.PageResult[*domain.AgentFile], error) {
	var empty pagination.PageResult[*domain.AgentFile]
	if _, err := s.agents.Authorize(ctx, owner, agentID); err != nil {
		return empty, err
	}
	c, err := pagination.DecodeCursor(cursor)
	if err != nil {
		return empty, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
	}
	return s.files.ListByAgentAndOwner(ctx, agentID, owner, c, limit)
}

// Delete removes a file. Files of other agents are reported as not found.
func (s *AgentFileService) Delete(ctx context.Context, owner, agentID, fileID string) error {
	if _, err := s.agents.Authorize(ctx, owner, agentID); err != nil {
		return err
	}
	if !isUUID(fileID) {
		return domain.ErrAgentFileNotFound
	}
	f, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, domain.ErrAgentFileNotFound) {
			return domain.ErrAgentFileNotFound
		}
		return err
	}
	if f.AgentID != agentID || f.Owner != owner {
		return domain.ErrAgentFileNotFound
	}
	return s.files.Delete(ctx, fileID, owner)
}

func (s *AgentFileService) newFile(owner, agentID string, in FileInput) (*domain.AgentFile, error) {
	in.FileName = domain.SanitizeText(in.FileName)
	in.Content = domain.SanitizeText(in.Content)
	if strings.TrimSpace(in.FileName) == "" || strings.TrimSpace(in.FileType) == "" || in.Content == "" || in.Size <= 0 {
		return nil, domain.ErrMissingRequiredField
	}
	now := s.now()
	f := &domain.AgentFile{
		ID:         s.uuidGen.NewString(),
		AgentID:    agentID,
		Owner:      owner,
		FileName:   in.FileName,
		FileType:   in.FileType,
		Content:    in.Content,
		Size:       in.Size,
		UploadedAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := domain.ValidateAgentFile(f); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid agent file", err)
	}
	return f, nil
}
