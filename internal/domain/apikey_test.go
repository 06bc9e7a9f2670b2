package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIKey_IsRevoked(t *testing.T) {
	now := time.Now()
	key := &APIKey{ID: "key1", OwnerID: "owner1", Name: "ci", KeyHash: "hash", CreatedAt: now}
	assert.False(t, key.IsRevoked())

	key.RevokedAt = &now
	assert.True(t, key.IsRevoked())
}

func TestValidateAPIKey(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		apiKey  *APIKey
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid api key",
			apiKey: &APIKey{ID: "key1", OwnerID: "owner1", Name: "ci", KeyHash: "hash", CreatedAt: now},
		},
		{
			name:    "nil api key",
			apiKey:  nil,
			wantErr: true,
			errMsg:  "api key cannot be nil",
		},
		{
			name:    "missing ID",
			apiKey:  &APIKey{OwnerID: "owner1", Name: "ci", KeyHash: "hash"},
			wantErr: true,
			errMsg:  "api key ID is required",
		},
		{
			name:    "missing owner",
			apiKey:  &APIKey{ID: "key1", Name: "ci", KeyHash: "hash"},
			wantErr: true,
			errMsg:  "api key OwnerID is required",
		},
		{
			name:    "missing name",
			apiKey:  &APIKey{ID: "key1", OwnerID: "owner1", KeyHash: "hash"},
			wantErr: true,
			errMsg:  "api key Name is required",
		},
		{
			name:    "missing hash",
			apiKey:  &APIKey{ID: "key1", OwnerID: "owner1", Name: "ci"},
			wantErr: true,
			errMsg:  "api key KeyHash is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAPIKey(tt.apiKey)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.errMsg, err.Error())
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateOwner(t *testing.T) {
	assert.Error(t, ValidateOwner(nil))
	assert.EqualError(t, ValidateOwner(&Owner{Name: "acme"}), "owner ID is required")
	assert.EqualError(t, ValidateOwner(&Owner{ID: "o1"}), "owner Name is required")
	assert.NoError(t, ValidateOwner(&Owner{ID: "o1", Name: "acme"}))
}

func TestValidateAgent(t *testing.T) {
	now := time.Now()
	assert.Error(t, ValidateAgent(nil))
	assert.EqualError(t, ValidateAgent(NewAgent("", "o1", "support", "answers tickets", now)), "agent ID is required")
	assert.EqualError(t, ValidateAgent(NewAgent("a1", "", "support", "answers tickets", now)), "agent OwnerID is required")
	assert.EqualError(t, ValidateAgent(NewAgent("a1", "o1", "", "answers tickets", now)), "agent Name is required")
	assert.EqualError(t, ValidateAgent(NewAgent("a1", "o1", "support", "", now)), "agent Description is required")
	assert.NoError(t, ValidateAgent(NewAgent("a1", "o1", "support", "answers tickets", now)))
}
