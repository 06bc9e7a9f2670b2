package service

import (
	"context"

	"github.com/cloo-solutions/agentrag/internal/crawler"
	"github.com/cloo-solutions/agentrag/internal/domain"
	"github.com/cloo-solutions/agentrag/internal/pagination"
	"github.com/stretchr/testify/mock"
)

type MockUUIDGenerator struct {
	uuids     []string
	callCount int
}

func NewMockUUIDGenerator(uuids ...string) *MockUUIDGenerator {
	return &MockUUIDGenerator{uuids: uuids}
}

func (m *MockUUIDGenerator) NewString() string {
	if m.callCount < len(m.uuids) {
		uuid := m.uuids[m.callCount]
		m.callCount++
		return uuid
	}
	return "default-uuid"
}

type MockOwnerRepository struct {
	mock.Mock
}

func (m *MockOwnerRepository) Create(ctx context.Context, owner *domain.Owner) error {
	args := m.Called(ctx, owner)
	return args.Error(0)
}

func (m *MockOwnerRepository) GetByID(ctx context.Context, id string) (*domain.Owner, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Owner), args.Error(1)
}

func (m *MockOwnerRepository) GetByName(ctx context.Context, name string) (*domain.Owner, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Owner), args.Error(1)
}

func (m *MockOwnerRepository) List(ctx context.Context) ([]*domain.Owner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Owner), args.Error(1)
}

type MockAPIKeyRepository struct {
	mock.Mock
}

func (m *MockAPIKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockAPIKeyRepository) GetByID(ctx context.Context, id string) (*domain.APIKey, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) GetByHash(ctx context.Context, hash string) (*domain.APIKey, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) ListByOwnerWithCursor(ctx context.Context, ownerID string, cursor *pagination.Cursor, limit int) (pagination.PageResult[*domain.APIKey], error) {
	args := m.Called(ctx, ownerID, cursor, limit)
	return args.Get(0).(pagination.PageResult[*domain.APIKey]), args.Error(1)
}

func (m *MockAPIKeyRepository) Revoke(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockAgentRepository struct {
	mock.Mock
}

func (m *MockAgentRepository) Create(ctx context.Context, agent *domain.Agent) error {
	args := m.Called(ctx, agent)
	return args.Error(0)
}

func (m *MockAgentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agent), args.Error(1)
}

func (m *MockAgentRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Agent, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Agent), args.Error(1)
}

type MockAgentAuthorizer struct {
	mock.Mock
}

func (m *MockAgentAuthorizer) Authorize(ctx context.Context, ownerID, agentID string) (*domain.Agent, error) {
	args := m.Called(ctx, ownerID, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agent), args.Error(1)
}

type MockAgentFileRepository struct {
	mock.Mock
}

func (m *MockAgentFileRepository) Create(ctx context.Context, f *domain.AgentFile) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockAgentFileRepository) GetByID(ctx context.Context, id string) (*domain.AgentFile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AgentFile), args.Error(1)
}

func (m *MockAgentFileRepository) ListByAgentAndOwner(ctx context.Context, agentID, owner string, cursor *pagination.Cursor, limit int) (pagination.PageResult[*domain.AgentFile], error) {
	args := m.Called(ctx, agentID, owner, cursor, limit)
	return args.Get(0).(pagination.PageResult[*domain.AgentFile]), args.Error(1)
}

func (m *MockAgentFileRepository) Delete(ctx context.Context, id, owner string) error {
	args := m.Called(ctx, id, owner)
	return args.Error(0)
}

type MockTrainingJobRepository struct {
	mock.Mock
}

func (m *MockTrainingJobRepository) Enqueue(ctx context.Context, job *domain.TrainingJob) (*domain.TrainingJob, bool, error) {
	args := m.Called(ctx, job)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.TrainingJob), args.Bool(1), args.Error(2)
}

func (m *MockTrainingJobRepository) GetByID(ctx context.Context, id string) (*domain.TrainingJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrainingJob), args.Error(1)
}

type MockAgentTrainer struct {
	mock.Mock
}

func (m *MockAgentTrainer) TrainAgent(ctx context.Context, agentID string) *domain.TrainResult {
	args := m.Called(ctx, agentID)
	return args.Get(0).(*domain.TrainResult)
}

type MockFileStore struct {
	mock.Mock
}

func (m *MockFileStore) StoreFiles(ctx context.Context, owner, agentID string, inputs []FileInput, train bool) (*StoreResult, error) {
	args := m.Called(ctx, owner, agentID, inputs, train)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*StoreResult), args.Error(1)
}

type MockPageCrawler struct {
	mock.Mock
}

func (m *MockPageCrawler) Crawl(ctx context.Context, opts crawler.Options) ([]crawler.Page, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]crawler.Page), args.Error(1)
}

type MockUploadArchive struct {
	mock.Mock
}

func (m *MockUploadArchive) PutObject(ctx context.Context, key, contentType string, data []byte) error {
	args := m.Called(ctx, key, contentType, data)
	return args.Error(0)
}

type testTxRepos struct {
	agentFiles   AgentFileRepositoryInterface
	trainingJobs TrainingJobRepositoryInterface
}

func (t *testTxRepos) AgentFiles() AgentFileRepositoryInterface {
	return t.agentFiles
}

func (t *testTxRepos) TrainingJobs() TrainingJobRepositoryInterface {
	return t.trainingJobs
}

type testTxRunner struct {
	repos  TxRepositories
	called bool
}

func (t *testTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	t.called = true
	return fn(t.repos)
}
