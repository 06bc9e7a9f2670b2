package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/cloo-solutions/agentrag/internal/api"
	"github.com/cloo-solutions/agentrag/internal/domain"
)

type contextKey string

const (
	OwnerIDKey   contextKey = "owner_id"
	ownerSinkKey contextKey = "owner_sink"
)

type AuthValidator interface {
	ValidateAPIKey(ctx context.Context, token string) (string, error)
}

// APIKeyAuth resolves the bearer token to an owner and stores it in the request context.
func APIKeyAuth(validator AuthValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				api.Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				api.Error(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			ownerID, err := validator.ValidateAPIKey(r.Context(), strings.TrimSpace(token))
			if err != nil {
				var domainErr *domain.DomainError
				if errors.As(err, &domainErr) && domainErr.Code == domain.ErrCodeUnauthorized {
					api.Error(w, http.StatusUnauthorized, domainErr.Message)
					return
				}
				api.HandleError(w, err)
				return
			}

			ctx := WithOwnerID(r.Context(), ownerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithOwnerID stores ownerID in ctx and reports it to any outer middleware
// that registered a sink.
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	if sink, ok := ctx.Value(ownerSinkKey).(*string); ok {
		*sink = ownerID
	}
	return context.WithValue(ctx, OwnerIDKey, ownerID)
}

// ownerSink returns the request's owner sink, installing one if needed.
// It is filled once authentication succeeds further down the chain.
func ownerSink(ctx context.Context) (context.Context, *string) {
	if sink, ok := ctx.Value(ownerSinkKey).(*string); ok {
		return ctx, sink
	}
	sink := new(string)
	return context.WithValue(ctx, ownerSinkKey, sink), sink
}

func GetOwnerID(ctx context.Context) string {
	ownerID, _ := ctx.Value(OwnerIDKey).(string)
	return ownerID
}
