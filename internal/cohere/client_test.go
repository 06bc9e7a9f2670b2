package cohere

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/cloo-solutions/agentrag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEmbeddingAPI struct {
	mock.Mock
}

func (m *MockEmbeddingAPI) EmbedDocuments(ctx context.Context, model string, texts []string) ([][]float64, error) {
	args := m.Called(ctx, model, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float64), args.Error(1)
}

func TestClient_EmbedDocuments_PreservesOrder(t *testing.T) {
	api := new(MockEmbeddingAPI)
	client := newClient(api, Config{})

	texts := []string{"one", "two", "three"}
	api.On("EmbedDocuments", mock.Anything, DefaultEmbeddingModel, texts).
		Return([][]float64{{1, 1}, {2, 2}, {3, 3}}, nil).Once()

	vectors, err := client.EmbedDocuments(context.Background(), texts)

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 1}, {2, 2}, {3, 3}}, vectors)
	api.AssertExpectations(t)
}

func TestClient_EmbedDocuments_CustomModel(t *testing.T) {
	api := new(MockEmbeddingAPI)
	client := newClient(api, Config{Model: "embed-english-v3.0"})
	api.On("EmbedDocuments", mock.Anything, "embed-english-v3.0", []string{"x"}).Return([][]float64{{0.5}}, nil)

	vectors, err := client.EmbedDocuments(context.Background(), []string{"x"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.5}}, vectors)
}

func TestClient_EmbedDocuments_EmptyBatch(t *testing.T) {
	api := new(MockEmbeddingAPI)
	client := newClient(api, Config{})

	vectors, err := client.EmbedDocuments(context.Background(), []string{})

	assert.NoError(t, err)
	assert.Nil(t, vectors)
	api.AssertNotCalled(t, "EmbedDocuments", mock.Anything, mock.Anything, mock.Anything)
}

func TestClient_EmbedDocuments_ProviderErrors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantAuth    bool
		wantLimited bool
	}{
		{
			name:       "unauthorized",
			err:        &StatusError{StatusCode: http.StatusUnauthorized, Err: errors.New("invalid api token")},
			wantStatus: http.StatusUnauthorized,
			wantAuth:   true,
		},
		{
			name:        "rate limited",
			err:         &StatusError{StatusCode: http.StatusTooManyRequests, Err: errors.New("too many requests")},
			wantStatus:  http.StatusTooManyRequests,
			wantLimited: true,
		},
		{
			name: "network",
			err:  errors.New("connection reset by peer"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(MockEmbeddingAPI)
			client := newClient(api, Config{})
			api.On("EmbedDocuments", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			vectors, err := client.EmbedDocuments(context.Background(), []string{"x"})

			assert.Nil(t, vectors)
			pe, ok := domain.AsProviderError(err)
			require.True(t, ok)
			assert.Equal(t, "cohere", pe.Provider)
			assert.Equal(t, tt.wantStatus, pe.StatusCode)
			assert.Equal(t, tt.wantAuth, pe.IsAuth())
			assert.Equal(t, tt.wantLimited, pe.IsRateLimited())
		})
	}
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	client, err := NewClient(Config{})

	assert.Nil(t, client)
	assert.Equal(t, ErrNoAPIKey, err)
}
