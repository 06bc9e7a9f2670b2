package domain

import (
	"fmt"
	"time"
)

// Agent is the unit of tenancy in the vector index
type Agent struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	CreatedAt   time.Time
}

// NewAgent creates a new Agent instance
func NewAgent(id, ownerID, name, description string, createdAt time.Time) *Agent {
	return &Agent{
		ID:          id,
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		CreatedAt:   createdAt,
	}
}

// ValidateAgent validates an Agent instance
func ValidateAgent(a *Agent) error {
	if a == nil {
		return fmt.Errorf("agent cannot be nil")
	}

	if a.ID == "" {
		return fmt.Errorf("agent ID is required")
	}

	if a.OwnerID == "" {
		return fmt.Errorf("agent OwnerID is required")
	}

	if a.Name == "" {
		return fmt.Errorf("agent Name is required")
	}

	return nil
}
