package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrUnauthenticated is returned when no tenant is bound to the context.
var ErrUnauthenticated = errors.New("no tenant bound to context")

type contextKey struct{}

// WithTenant binds the tenant identifier to the context for the duration
// of one request. The binding lives and dies with the request context, so
// a reused worker never observes a previous request's tenant.
func WithTenant(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, contextKey{}, tenantID)
}

// FromContext resolves the tenant identifier bound to the context.
func FromContext(ctx context.Context) (uuid.UUID, error) {
	tenantID, ok := ctx.Value(contextKey{}).(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrUnauthenticated
	}

	return tenantID, nil
}
