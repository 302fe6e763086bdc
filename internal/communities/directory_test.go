package communities_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindforum/internal/communities"
	"mindforum/internal/core"
	"mindforum/internal/core/coretest"
)

func newDirectory(t *testing.T, store *coretest.Store) *communities.Directory {
	t.Helper()

	directory := &communities.Directory{
		Logger:      slog.Default(),
		Communities: store.CommunityRepo(),
		Users:       store.UserRepo(),
	}
	require.NoError(t, directory.Init(t.Context()))
	return directory
}

func TestCreate(t *testing.T) {
	t.Parallel()

	store := coretest.NewStore()
	owner := store.AddUser(&core.User{Name: "sam"})
	directory := newDirectory(t, store)

	view, err := directory.Create(t.Context(), core.CreateCommunity{
		Name:             "woodworking",
		Description:      "joinery and finishes",
		AutoPublishPosts: true,
	}, owner.ID)
	require.NoError(t, err)

	assert.Equal(t, "woodworking", view.Name)
	assert.True(t, view.AutoPublishPosts)
	assert.Zero(t, view.FollowerCount)
	assert.Zero(t, view.AverageRating)
}

func TestCreateSecondCommunityConflicts(t *testing.T) {
	t.Parallel()

	store := coretest.NewStore()
	owner := store.AddUser(&core.User{Name: "sam"})
	store.AddCommunity(&core.Community{Name: "first", OwnerID: owner.ID})
	directory := newDirectory(t, store)

	_, err := directory.Create(t.Context(), core.CreateCommunity{Name: "second"}, owner.ID)
	assert.ErrorIs(t, err, core.ErrOwnerHasCommunity)
	assert.ErrorIs(t, err, core.ErrConflict)
}

func TestGetProjectsRatingAndFollowers(t *testing.T) {
	t.Parallel()

	store := coretest.NewStore()
	owner := store.AddUser(&core.User{Name: "sam"})
	follower := store.AddUser(&core.User{Name: "kim"})
	community := store.AddCommunity(&core.Community{
		Name:      "ceramics",
		OwnerID:   owner.ID,
		Followers: []*core.User{follower},
	})
	p1 := store.AddPost(&core.Post{CommunityID: community.ID, AuthorID: owner.ID})
	p2 := store.AddPost(&core.Post{CommunityID: community.ID, AuthorID: owner.ID})
	store.AddRating(follower.ID, p1.ID, 1)
	store.AddRating(owner.ID, p1.ID, 1)
	store.AddRating(follower.ID, p2.ID, 2)

	directory := newDirectory(t, store)

	view, err := directory.Get(t.Context(), community.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, view.FollowerCount)
	assert.Equal(t, 1.33, view.AverageRating)

	_, err = directory.Get(t.Context(), 9999)
	assert.ErrorIs(t, err, core.ErrCommunityNotFound)
}

func TestUpdateMergePatch(t *testing.T) {
	t.Parallel()

	store := coretest.NewStore()
	owner := store.AddUser(&core.User{Name: "sam"})
	community := store.AddCommunity(&core.Community{
		Name:        "ceramics",
		Description: "glazes",
		OwnerID:     owner.ID,
	})
	directory := newDirectory(t, store)

	name := "pottery"
	require.NoError(t, directory.Update(t.Context(), community.ID, core.UpdateCommunity{Name: &name}))

	assert.Equal(t, "pottery", store.Communities[community.ID].Name)
	// Absent fields stay untouched.
	assert.Equal(t, "glazes", store.Communities[community.ID].Description)

	// An all-nil patch writes nothing and succeeds.
	require.NoError(t, directory.Update(t.Context(), community.ID, core.UpdateCommunity{}))
}

func TestFollowUnfollow(t *testing.T) {
	t.Parallel()

	store := coretest.NewStore()
	owner := store.AddUser(&core.User{Name: "sam"})
	follower := store.AddUser(&core.User{Name: "kim"})
	community := store.AddCommunity(&core.Community{Name: "ceramics", OwnerID: owner.ID})
	directory := newDirectory(t, store)

	require.NoError(t, directory.Follow(t.Context(), community.ID, follower.ID))
	require.NoError(t, directory.Follow(t.Context(), community.ID, follower.ID))
	assert.Len(t, store.Communities[community.ID].Followers, 1)

	require.NoError(t, directory.Unfollow(t.Context(), community.ID, follower.ID))
	assert.Empty(t, store.Communities[community.ID].Followers)

	assert.ErrorIs(t, directory.Follow(t.Context(), 9999, follower.ID), core.ErrCommunityNotFound)
	assert.ErrorIs(t, directory.Unfollow(t.Context(), 9999, follower.ID), core.ErrCommunityNotFound)
}

func TestAdmins(t *testing.T) {
	t.Parallel()

	store := coretest.NewStore()
	owner := store.AddUser(&core.User{Name: "sam"})
	a := store.AddUser(&core.User{Name: "ada"})
	b := store.AddUser(&core.User{Name: "bo"})
	community := store.AddCommunity(&core.Community{
		Name:    "ceramics",
		OwnerID: owner.ID,
		Admins:  []*core.User{a, b},
	})
	directory := newDirectory(t, store)

	admins, err := directory.Admins(t.Context(), community.ID)
	require.NoError(t, err)

	// Owner is always first regardless of admin insertion order.
	require.Len(t, admins, 3)
	assert.Equal(t, owner.ID, admins[0].ID)
	assert.Equal(t, "sam", admins[0].Name)

	require.NoError(t, directory.AddAdmin(t.Context(), community.ID, "bo"))
	assert.Len(t, store.Communities[community.ID].Admins, 2)

	err = directory.AddAdmin(t.Context(), community.ID, "nobody")
	assert.ErrorIs(t, err, core.ErrUserNotFound)

	// Removing a non-member is a no-op, not an error.
	require.NoError(t, directory.RemoveAdmin(t.Context(), community.ID, 12345))
	require.NoError(t, directory.RemoveAdmin(t.Context(), community.ID, a.ID))
	assert.Len(t, store.Communities[community.ID].Admins, 1)
}

func TestListFollowed(t *testing.T) {
	t.Parallel()

	store := coretest.NewStore()
	owner := store.AddUser(&core.User{Name: "sam"})
	follower := store.AddUser(&core.User{Name: "kim"})
	other := store.AddUser(&core.User{Name: "lee"})
	followed := store.AddCommunity(&core.Community{
		Name:      "ceramics",
		OwnerID:   owner.ID,
		Followers: []*core.User{follower},
	})
	store.AddCommunity(&core.Community{Name: "metalwork", OwnerID: other.ID})

	directory := newDirectory(t, store)

	views, err := directory.ListFollowed(t.Context(), follower.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, followed.ID, views[0].ID)
}
