package tenant

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext_ReturnsBoundTenant(t *testing.T) {
	tenantID := uuid.New()
	ctx := WithTenant(context.Background(), tenantID)

	got, err := FromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, tenantID, got)
}

func TestFromContext_Unbound(t *testing.T) {
	_, err := FromContext(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestFromContext_DoesNotLeakAcrossContexts(t *testing.T) {
	bound := WithTenant(context.Background(), uuid.New())
	_ = bound

	_, err := FromContext(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
