package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/cloo-solutions/agentrag/internal/domain"
	"github.com/cloo-solutions/agentrag/internal/pagination"
)

const apiKeyPrefix = "agr_"

type OwnerRepository interface {
	Create(ctx context.Context, owner *domain.Owner) error
	GetByID(ctx context.Context, id string) (*domain.Owner, error)
	GetByName(ctx context.Context, name string) (*domain.Owner, error)
	List(ctx context.Context) ([]*domain.Owner, error)
}

type APIKeyRepository interface {
	Create(ctx context.Context, key *domain.APIKey) error
	GetByID(ctx context.Context, id string) (*domain.APIKey, error)
	GetByHash(ctx context.Context, hash string) (*domain.APIKey, error)
	ListByOwnerWithCursor(ctx context.Context, ownerID string, cursor *pagination.Cursor, limit int) (pagination.PageResult[*domain.APIKey], error)
	Revoke(ctx context.Context, id string) error
}

type AuthService struct {
	ownerRepo OwnerRepository
	keyRepo   APIKeyRepository
	uuidGen   UUIDGenerator
}

func NewAuthService(ownerRepo OwnerRepository, keyRepo APIKeyRepository, uuidGen UUIDGenerator) *AuthService {
	return &AuthService{
		ownerRepo: ownerRepo,
		keyRepo:   keyRepo,
		uuidGen:   uuidGen,
	}
}

func (s *AuthService) CreateOwner(ctx context.Context, name string) (*domain.Owner, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "owner name is required")
	}

	owner := &domain.Owner{
		ID:        s.uuidGen.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	if err := domain.ValidateOwner(owner); err != nil {
		return nil, err
	}

	if err := s.ownerRepo.Create(ctx, owner); err != nil {
		return nil, err
	}

	return owner, nil
}

// EnsureOwner returns the owner with the given name, creating it when missing.
func (s *AuthService) EnsureOwner(ctx context.Context, name string) (*domain.Owner, error) {
	owner, err := s.ownerRepo.GetByName(ctx, name)
	if err == nil {
		return owner, nil
	}
	if !errors.Is(err, domain.ErrOwnerNotFound) {
		return nil, err
	}

	owner, err = s.CreateOwner(ctx, name)
	if errors.Is(err, domain.ErrOwnerAlreadyExists) {
		return s.ownerRepo.GetByName(ctx, name)
	}
	return owner, err
}

func (s *AuthService) ListOwners(ctx context.Context) ([]*domain.Owner, error) {
	return s.ownerRepo.List(ctx)
}

// CreateAPIKey issues a new token for the owner. Only the hash is stored, so
// the returned token cannot be recovered later.
func (s *AuthService) CreateAPIKey(ctx context.Context, ownerID, name string) (string, error) {
	token, err := generateAPIToken()
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to generate API key", err)
	}
	if err := s.storeAPIKey(ctx, ownerID, name, token); err != nil {
		return "", err
	}
	return token, nil
}

// CreateAPIKeyWithToken registers a caller-supplied token, used to bootstrap
// a known key on first start.
func (s *AuthService) CreateAPIKeyWithToken(ctx context.Context, ownerID, name, token string) error {
	if !IsValidAPIToken(token) {
		return domain.NewDomainError(domain.ErrCodeValidation, "invalid API key format (expected agr_<64 hex chars>)")
	}
	return s.storeAPIKey(ctx, ownerID, name, token)
}

func (s *AuthService) storeAPIKey(ctx context.Context, ownerID, name, token string) error {
	if ownerID == "" {
		return domain.NewDomainError(domain.ErrCodeValidation, "owner ID is required")
	}
	if name == "" {
		return domain.NewDomainError(domain.ErrCodeValidation, "API key name is required")
	}

	if _, err := s.ownerRepo.GetByID(ctx, ownerID); err != nil {
		return err
	}

	key := &domain.APIKey{
		ID:        s.uuidGen.NewString(),
		OwnerID:   ownerID,
		Name:      name,
		KeyHash:   hashToken(token),
		CreatedAt: time.Now().UTC(),
	}

	if err := domain.ValidateAPIKey(key); err != nil {
		return err
	}

	return s.keyRepo.Create(ctx, key)
}

// ValidateAPIKey resolves a bearer token to its owner ID.
func (s *AuthService) ValidateAPIKey(ctx context.Context, token string) (string, error) {
	if !IsValidAPIToken(token) {
		return "", domain.ErrInvalidAPIKey
	}

	key, err := s.keyRepo.GetByHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrAPIKeyNotFound) {
			return "", domain.ErrInvalidAPIKey
		}
		return "", err
	}

	if key.IsRevoked() {
		return "", domain.ErrAPIKeyRevoked
	}

	return key.OwnerID, nil
}

func (s *AuthService) RevokeAPIKey(ctx context.Context, keyID string) error {
	if keyID == "" {
		return domain.NewDomainError(domain.ErrCodeValidation, "API key ID is required")
	}

	return s.keyRepo.Revoke(ctx, keyID)
}

func (s *AuthService) ListAPIKeys(ctx context.Context, ownerID, cursor string, limit int) (pagination.PageResult[*domain.APIKey], error) {
	if ownerID == "" {
		return pagination.PageResult[*domain.APIKey]{}, domain.NewDomainError(domain.ErrCodeValidation, "owner ID is required")
	}

	c, err := pagination.DecodeCursor(cursor)
	if err != nil {
		return pagination.PageResult[*domain.APIKey]{}, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
	}

	return s.keyRepo.ListByOwnerWithCursor(ctx, ownerID, c, limit)
}

func generateAPIToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return apiKeyPrefix + hex.EncodeToString(bytes), nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

func IsValidAPIToken(token string) bool {
	hexPart, ok := strings.CutPrefix(token, apiKeyPrefix)
	if !ok || len(hexPart) != 64 {
		return false
	}
	_, err := hex.DecodeString(hexPart)
	return err == nil
}
