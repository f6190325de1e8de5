package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func TestContextResolverAnonymous(t *testing.T) {
	identity, err := ContextResolver{}.Resolve(context.Background())
	require.NoError(t, err)
	require.Nil(t, identity)
}

func TestContextResolverReturnsStoredIdentity(t *testing.T) {
	userID := uuid.New()
	ctx := WithIdentity(context.Background(), IdentityFromClaims(&AccessTokenClaims{
		UserID: userID,
		Email:  "shopper@example.com",
		Role:   enums.UserRoleCustomer,
	}))

	identity, err := ContextResolver{}.Resolve(ctx)
	require.NoError(t, err)
	require.NotNil(t, identity)
	require.Equal(t, userID, identity.UserID)
	require.Equal(t, "shopper@example.com", identity.Email)
}

func TestIdentityFromContextIgnoresNilUser(t *testing.T) {
	ctx := WithIdentity(context.Background(), Identity{Email: "ghost@example.com"})
	_, ok := IdentityFromContext(ctx)
	require.False(t, ok)
}
