package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloo-solutions/agentrag/internal/domain"
)

type AgentRepository interface {
	Create(ctx context.Context, agent *domain.Agent) error
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Agent, error)
}

// AgentService manages agents and answers ownership questions for the other services.
type AgentService struct {
	repo    AgentRepository
	uuidGen UUIDGenerator
}

func NewAgentService(repo AgentRepository) *AgentService {
	return &AgentService{repo: repo, uuidGen: &DefaultUUIDGenerator{}}
}

func NewAgentServiceWithUUIDGen(repo AgentRepository, uuidGen UUIDGenerator) *AgentService {
	return &AgentService{repo: repo, uuidGen: uuidGen}
}

func (s *AgentService) Create(ctx context.Context, ownerID, name, description string) (*domain.Agent, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrMissingRequiredField
	}

	agent := domain.NewAgent(s.uuidGen.NewString(), ownerID, name, strings.TrimSpace(description), time.Now().UTC())
	if err := domain.ValidateAgent(agent); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid agent", err)
	}

	if err := s.repo.Create(ctx, agent); err != nil {
		return nil, err
	}
	return agent, nil
}

func (s *AgentService) List(ctx context.Context, ownerID string) ([]*domain.Agent, error) {
	agents, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if agents == nil {
		agents = []*domain.Agent{}
	}
	return agents, nil
}

// Authorize loads the agent and checks that ownerID owns it.
func (s *AgentService) Authorize(ctx context.Context, ownerID, agentID string) (*domain.Agent, error) {
	if agentID == "" {
		return nil, domain.ErrMissingAgentID
	}
	if !isUUID(agentID) {
		return nil, domain.ErrAgentNotFound
	}
	agent, err := s.repo.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, domain.ErrAgentNotFound) {
			return nil, domain.ErrAgentNotFound
		}
		return nil, err
	}
	if agent.OwnerID != ownerID {
		return nil, domain.ErrAgentNotOwned
	}
	return agent, nil
}
