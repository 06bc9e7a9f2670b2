package domain

import (
	"fmt"
	"time"
)

// Owner is an authenticated tenant that owns agents and their files
type Owner struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// ValidateOwner validates an Owner instance
func ValidateOwner(o *Owner) error {
	if o == nil {
		return fmt.Errorf("owner cannot be nil")
	}

	if o.ID == "" {
		return fmt.Errorf("owner ID is required")
	}

	if o.Name == "" {
		return fmt.Errorf("owner Name is required")
	}

	return nil
}
