package authz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodledger/internal/donation/models"
	dErrors "bloodledger/pkg/domain-errors"
	"bloodledger/pkg/requestcontext"
)

const (
	testKey      = "test-approval-key"
	testIssuer   = "bloodledger"
	testAudience = "bloodledger-registry"
)

func signFor(t *testing.T, identity models.Identity, ttl time.Duration) string {
	t.Helper()
	token, err := NewSigner(testKey, testIssuer, testAudience).Sign(identity, ttl)
	require.NoError(t, err)
	return token
}

func TestAuthorizer_RequireAuth(t *testing.T) {
	authorizer := NewAuthorizer(testKey, testIssuer, testAudience)
	donor := models.Identity("GDONORA")

	t.Run("valid approval for identity passes", func(t *testing.T) {
		ctx := requestcontext.WithApprovals(context.Background(), signFor(t, donor, time.Minute))
		assert.NoError(t, authorizer.RequireAuth(ctx, donor))
	})

	t.Run("any matching approval among several passes", func(t *testing.T) {
		ctx := requestcontext.WithApprovals(context.Background(),
			signFor(t, "GOTHER", time.Minute),
			signFor(t, donor, time.Minute),
		)
		assert.NoError(t, authorizer.RequireAuth(ctx, donor))
	})

	t.Run("no approvals is unauthorized", func(t *testing.T) {
		err := authorizer.RequireAuth(context.Background(), donor)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.True(t, errors.Is(err, models.ErrUnauthorized))
	})

	t.Run("approval for another identity is unauthorized", func(t *testing.T) {
		ctx := requestcontext.WithApprovals(context.Background(), signFor(t, "GOTHER", time.Minute))
		err := authorizer.RequireAuth(ctx, donor)
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrUnauthorized))
	})

	t.Run("token signed with another key is unauthorized", func(t *testing.T) {
		forged, err := NewSigner("other-key", testIssuer, testAudience).Sign(donor, time.Minute)
		require.NoError(t, err)
		ctx := requestcontext.WithApprovals(context.Background(), forged)
		assert.Error(t, authorizer.RequireAuth(ctx, donor))
	})

	t.Run("wrong audience is unauthorized", func(t *testing.T) {
		token, err := NewSigner(testKey, testIssuer, "someone-else").Sign(donor, time.Minute)
		require.NoError(t, err)
		ctx := requestcontext.WithApprovals(context.Background(), token)
		assert.Error(t, authorizer.RequireAuth(ctx, donor))
	})

	t.Run("garbage token is unauthorized", func(t *testing.T) {
		ctx := requestcontext.WithApprovals(context.Background(), "not-a-jwt")
		assert.Error(t, authorizer.RequireAuth(ctx, donor))
	})

	t.Run("empty identity is rejected", func(t *testing.T) {
		err := authorizer.RequireAuth(context.Background(), "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrInvalidIdentity))
	})
}

func TestAuthorizer_ExpiredApproval(t *testing.T) {
	token := signFor(t, "GDONORA", time.Minute)
	later := func() time.Time { return time.Now().Add(time.Hour) }
	authorizer := NewAuthorizer(testKey, testIssuer, testAudience, WithNow(later))

	ctx := requestcontext.WithApprovals(context.Background(), token)
	err := authorizer.RequireAuth(ctx, "GDONORA")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}
