package repository

import (
	"context"
	"errors"

	"github.com/cloo-solutions/agentrag/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AgentRepository struct {
	pool *pgxpool.Pool
}

func NewAgentRepository(pool *pgxpool.Pool) *AgentRepository {
	return &AgentRepository{pool: pool}
}

func (r *AgentRepository) Create(ctx context.Context, agent *domain.Agent) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO agents (id, owner_id, name, description, created_at) VALUES ($1, $2, $3, $4, $5)`,
		agent.ID, agent.OwnerID, agent.Name, agent.Description, agent.CreatedAt,
	)
	return err
}

func (r *AgentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	var a domain.Agent
	err := r.pool.QueryRow(ctx,
		`SELECT id, owner_id, name, description, created_at FROM agents WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.OwnerID, &a.Name, &a.Description, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAgentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AgentRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Agent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, owner_id, name, description, created_at FROM agents WHERE owner_id = $1 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []*domain.Agent
	for rows.Next() {
		var a domain.Agent
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Name, &a.Description, &a.CreatedAt); err != nil {
			return nil, err
		}
		agents = append(agents, &a)
	}
	return agents, rows.Err()
}
