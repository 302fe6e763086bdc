package authz_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindforum/internal/authz"
	"mindforum/internal/core"
	"mindforum/internal/core/coretest"
)

func newResolver(t *testing.T, store *coretest.Store) *authz.Resolver {
	t.Helper()

	resolver := &authz.Resolver{
		Logger:      slog.Default(),
		Communities: store.CommunityRepo(),
	}
	require.NoError(t, resolver.Init(t.Context()))
	return resolver
}

func TestIsPrivileged(t *testing.T) {
	t.Parallel()

	store := coretest.NewStore()
	owner := store.AddUser(&core.User{Name: "owner"})
	admin := store.AddUser(&core.User{Name: "admin"})
	member := store.AddUser(&core.User{Name: "member"})
	community := store.AddCommunity(&core.Community{
		Name:    "gardening",
		OwnerID: owner.ID,
		Admins:  []*core.User{admin},
	})

	resolver := newResolver(t, store)

	privileged, err := resolver.IsPrivileged(t.Context(), owner.ID, community.ID)
	require.NoError(t, err)
	assert.True(t, privileged)

	privileged, err = resolver.IsPrivileged(t.Context(), admin.ID, community.ID)
	require.NoError(t, err)
	assert.True(t, privileged)

	privileged, err = resolver.IsPrivileged(t.Context(), member.ID, community.ID)
	require.NoError(t, err)
	assert.False(t, privileged)
}

func TestIsPrivilegedMissingCommunity(t *testing.T) {
	t.Parallel()

	resolver := newResolver(t, coretest.NewStore())

	_, err := resolver.IsPrivileged(t.Context(), 1, 42)
	assert.ErrorIs(t, err, core.ErrCommunityNotFound)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
