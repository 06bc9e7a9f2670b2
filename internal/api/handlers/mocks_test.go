package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/cloo-solutions/agentrag/internal/api/middleware"
	"github.com/cloo-solutions/agentrag/internal/domain"
	"github.com/cloo-solutions/agentrag/internal/pagination"
	"github.com/cloo-solutions/agentrag/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
)

type MockAgentService struct {
	mock.Mock
}

func (m *MockAgentService) Create(ctx context.Context, ownerID, name, description string) (*domain.Agent, error) {
	args := m.Called(ctx, ownerID, name, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agent), args.Error(1)
}

func (m *MockAgentService) List(ctx context.Context, ownerID string) ([]*domain.Agent, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Agent), args.Error(1)
}

type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) CreateFile(ctx context.Context, owner, agentID string, in service.FileInput) (*domain.AgentFile, error) {
	args := m.Called(ctx, owner, agentID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AgentFile), args.Error(1)
}

func (m *MockFileService) AddText(ctx context.Context, owner, agentID, title, content string) (*domain.AgentFile, error) {
	args := m.Called(ctx, owner, agentID, title, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AgentFile), args.Error(1)
}

func (m *MockFileService) AddQA(ctx context.Context, owner, agentID, question, answer string) (*domain.AgentFile, error) {
	args := m.Called(ctx, owner, agentID, question, answer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AgentFile), args.Error(1)
}

func (m *MockFileService) List(ctx context.Context, owner, agentID, cursor string, limit int) (pagination.PageResult[*domain.AgentFile], error) {
	args := m.Called(ctx, owner, agentID, cursor, limit)
	return args.Get(0).(pagination.PageResult[*domain.AgentFile]), args.Error(1)
}

func (m *MockFileService) Delete(ctx context.Context, owner, agentID, fileID string) error {
	args := m.Called(ctx, owner, agentID, fileID)
	return args.Error(0)
}

type MockTrainingService struct {
	mock.Mock
}

func (m *MockTrainingService) Train(ctx context.Context, owner, agentID string) (*domain.TrainResult, error) {
	args := m.Called(ctx, owner, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrainResult), args.Error(1)
}

func (m *MockTrainingService) Enqueue(ctx context.Context, owner, agentID string) (*domain.TrainingJob, bool, error) {
	args := m.Called(ctx, owner, agentID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.TrainingJob), args.Bool(1), args.Error(2)
}

func (m *MockTrainingService) Get(ctx context.Context, owner, agentID, jobID string) (*domain.TrainingJob, error) {
	args := m.Called(ctx, owner, agentID, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrainingJob), args.Error(1)
}

type MockIngestService struct {
	mock.Mock
}

func (m *MockIngestService) Extract(ctx context.Context, owner string, up service.Upload) (*service.UploadResult, error) {
	args := m.Called(ctx, owner, up)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UploadResult), args.Error(1)
}

func (m *MockIngestService) Crawl(ctx context.Context, owner string, req service.CrawlRequest) (*service.CrawlResult, error) {
	args := m.Called(ctx, owner, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CrawlResult), args.Error(1)
}

// newRequest builds a request authenticated as owner with the given chi URL params.
func newRequest(method, target, body, owner string, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	return newRequestFrom(method, target, reader, owner, params)
}

func newRequestFrom(method, target string, body io.Reader, owner string, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	ctx := req.Context()
	if owner != "" {
		ctx = middleware.WithOwnerID(ctx, owner)
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}
