package moderation_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindforum/internal/authz"
	"mindforum/internal/core"
	"mindforum/internal/core/coretest"
	"mindforum/internal/moderation"
)

// guardStub records Topic Guard calls and can be told to fail.
type guardStub struct {
	rebuilds      map[int64][]string
	scores        []string
	scoreResult   core.TopicScore
	scoreErr      error
	rebuildErr    error
	rebuildCalled int
}

func newGuardStub() *guardStub {
	return &guardStub{
		rebuilds:    map[int64][]string{},
		scoreResult: core.TopicScore{Match: true, Score: 0.9},
	}
}

func (g *guardStub) RebuildCentroid(_ context.Context, communityID int64, texts []string) error {
	g.rebuildCalled++
	if g.rebuildErr != nil {
		return g.rebuildErr
	}
	g.rebuilds[communityID] = texts
	return nil
}

func (g *guardStub) Score(_ context.Context, _ int64, text string) (core.TopicScore, error) {
	g.scores = append(g.scores, text)
	if g.scoreErr != nil {
		return core.TopicScore{}, g.scoreErr
	}
	return g.scoreResult, nil
}

type fixture struct {
	store   *coretest.Store
	guard   *guardStub
	manager *moderation.Manager

	owner  *core.User
	admin  *core.User
	member *core.User

	community *core.Community
}

func newFixture(t *testing.T, autoPublish bool) *fixture {
	t.Helper()

	store := coretest.NewStore()
	guard := newGuardStub()

	f := &fixture{
		store:  store,
		guard:  guard,
		owner:  store.AddUser(&core.User{Name: "owner"}),
		admin:  store.AddUser(&core.User{Name: "admin"}),
		member: store.AddUser(&core.User{Name: "member"}),
	}
	f.community = store.AddCommunity(&core.Community{
		Name:             "astronomy",
		OwnerID:          f.owner.ID,
		Admins:           []*core.User{f.admin},
		AutoPublishPosts: autoPublish,
	})

	resolver := &authz.Resolver{Logger: slog.Default(), Communities: store.CommunityRepo()}
	require.NoError(t, resolver.Init(t.Context()))

	f.manager = &moderation.Manager{
		Logger:      slog.Default(),
		Communities: store.CommunityRepo(),
		Posts:       store.PostRepo(),
		Ratings:     store.RatingRepo(),
		Comments:    store.CommentRepo(),
		Authz:       resolver,
		TopicGuard:  guard,
	}
	require.NoError(t, f.manager.Init(t.Context()))

	return f
}

func TestCreatePostVerificationBit(t *testing.T) {
	t.Parallel()

	// autoPublishPosts must not leak into the stored verification bit.
	f := newFixture(t, true)

	adminPost, err := f.manager.CreatePost(t.Context(), core.CreatePost{Title: "rules", ParentNodeID: core.RootNodeID}, f.community.ID, f.admin.ID)
	require.NoError(t, err)
	assert.True(t, adminPost.IsVerified)

	ownerPost, err := f.manager.CreatePost(t.Context(), core.CreatePost{Title: "welcome", ParentNodeID: core.RootNodeID}, f.community.ID, f.owner.ID)
	require.NoError(t, err)
	assert.True(t, ownerPost.IsVerified)

	memberPost, err := f.manager.CreatePost(t.Context(), core.CreatePost{Title: "hello", ParentNodeID: core.RootNodeID}, f.community.ID, f.member.ID)
	require.NoError(t, err)
	assert.False(t, memberPost.IsVerified)

	_, err = f.manager.CreatePost(t.Context(), core.CreatePost{Title: "x"}, 9999, f.member.ID)
	assert.ErrorIs(t, err, core.ErrCommunityNotFound)
}

func TestVerifyPostRebuildsCentroid(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.store.AddPost(&core.Post{
		CommunityID: f.community.ID,
		AuthorID:    f.member.ID,
		Content:     "<p>galaxies</p>",
		IsVerified:  true,
	})
	pending := f.store.AddPost(&core.Post{
		CommunityID: f.community.ID,
		AuthorID:    f.member.ID,
		Content:     "<p>nebulae</p>",
	})
	// Whitespace-only content never feeds the centroid.
	f.store.AddPost(&core.Post{
		CommunityID: f.community.ID,
		AuthorID:    f.member.ID,
		Content:     "<p>  </p>",
		IsVerified:  true,
	})

	post, err := f.manager.VerifyPost(t.Context(), pending.ID)
	require.NoError(t, err)
	assert.True(t, post.IsVerified)

	assert.ElementsMatch(t, []string{"galaxies", "nebulae"}, f.guard.rebuilds[f.community.ID])

	_, err = f.manager.VerifyPost(t.Context(), 9999)
	assert.ErrorIs(t, err, core.ErrPostNotFound)
}

func TestVerifyPostSwallowsRebuildFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.guard.rebuildErr = errors.New("scorer down")
	pending := f.store.AddPost(&core.Post{
		CommunityID: f.community.ID,
		AuthorID:    f.member.ID,
		Content:     "<p>comets</p>",
	})

	post, err := f.manager.VerifyPost(t.Context(), pending.ID)
	require.NoError(t, err)
	assert.True(t, post.IsVerified)
	assert.Equal(t, 1, f.guard.rebuildCalled)
}

func TestPostsByCommunityAutoPublish(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	f.store.AddPost(&core.Post{CommunityID: f.community.ID, AuthorID: f.member.ID})
	f.store.AddPost(&core.Post{CommunityID: f.community.ID, AuthorID: f.member.ID, IsVerified: true})

	// Everything is visible to everyone, anonymous included.
	views, err := f.manager.PostsByCommunity(t.Context(), f.community.ID, nil)
	require.NoError(t, err)
	assert.Len(t, views, 2)

	views, err = f.manager.PostsByCommunity(t.Context(), f.community.ID, &f.member.ID)
	require.NoError(t, err)
	assert.Len(t, views, 2)
}

func TestPostsByCommunityThreeTierVisibility(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	other := f.store.AddUser(&core.User{Name: "other"})

	verified := f.store.AddPost(&core.Post{CommunityID: f.community.ID, AuthorID: other.ID, IsVerified: true})
	memberDraft := f.store.AddPost(&core.Post{CommunityID: f.community.ID, AuthorID: f.member.ID})
	otherDraft := f.store.AddPost(&core.Post{CommunityID: f.community.ID, AuthorID: other.ID})

	ids := func(views []core.PostView) []int64 {
		out := make([]int64, len(views))
		for i, v := range views {
			out[i] = v.ID
		}
		return out
	}

	// Anonymous: verified subset only.
	views, err := f.manager.PostsByCommunity(t.Context(), f.community.ID, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{verified.ID}, ids(views))

	// Authenticated non-privileged: verified plus own unverified.
	views, err = f.manager.PostsByCommunity(t.Context(), f.community.ID, &f.member.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{verified.ID, memberDraft.ID}, ids(views))

	// Privileged: everything.
	views, err = f.manager.PostsByCommunity(t.Context(), f.community.ID, &f.admin.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{verified.ID, memberDraft.ID, otherDraft.ID}, ids(views))

	_, err = f.manager.PostsByCommunity(t.Context(), 9999, nil)
	assert.ErrorIs(t, err, core.ErrCommunityNotFound)
}

func TestUnverifiedPosts(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.store.AddPost(&core.Post{CommunityID: f.community.ID, AuthorID: f.member.ID, IsVerified: true})
	draft := f.store.AddPost(&core.Post{Title: "draft", CommunityID: f.community.ID, AuthorID: f.member.ID})

	views, err := f.manager.UnverifiedPosts(t.Context(), f.community.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, draft.ID, views[0].ID)
	assert.Equal(t, "member", views[0].AuthorUsername)

	_, err = f.manager.UnverifiedPosts(t.Context(), 9999)
	assert.ErrorIs(t, err, core.ErrCommunityNotFound)
}

func TestRemovePermissions(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)

	// An author can remove their own unverified post.
	draft := f.store.AddPost(&core.Post{CommunityID: f.community.ID, AuthorID: f.member.ID})
	require.NoError(t, f.manager.Remove(t.Context(), draft.ID, f.member.ID))

	// An author can never remove their own verified post.
	published := f.store.AddPost(&core.Post{CommunityID: f.community.ID, AuthorID: f.member.ID, IsVerified: true})
	err := f.manager.Remove(t.Context(), published.ID, f.member.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	// A bystander cannot remove someone else's post at all.
	other := f.store.AddUser(&core.User{Name: "other"})
	err = f.manager.Remove(t.Context(), published.ID, other.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	// A privileged actor removes anything.
	require.NoError(t, f.manager.Remove(t.Context(), published.ID, f.admin.ID))

	assert.ErrorIs(t, f.manager.Remove(t.Context(), 9999, f.admin.ID), core.ErrPostNotFound)
}

func TestRemoveCascade(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)

	root := f.store.AddPost(&core.Post{CommunityID: f.community.ID, AuthorID: f.member.ID})
	child1 := f.store.AddPost(&core.Post{CommunityID: f.community.ID, AuthorID: f.member.ID, ParentNodeID: root.NodeID()})
	child2 := f.store.AddPost(&core.Post{CommunityID: f.community.ID, AuthorID: f.member.ID, ParentNodeID: root.NodeID()})
	grandchild := f.store.AddPost(&core.Post{CommunityID: f.community.ID, AuthorID: f.member.ID, ParentNodeID: child1.NodeID()})
	survivor := f.store.AddPost(&core.Post{CommunityID: f.community.ID, AuthorID: f.member.ID})

	f.store.AddRating(f.admin.ID, child1.ID, 5)
	f.store.AddComment(&core.Comment{PostID: grandchild.ID, AuthorID: f.admin.ID, Content: "nice"})

	require.NoError(t, f.manager.Remove(t.Context(), root.ID, f.admin.ID))

	// Exactly N+1 post deletions, each preceded by its own cleanup.
	assert.ElementsMatch(t, []int64{root.ID, child1.ID, child2.ID, grandchild.ID}, f.store.DeletedPosts)
	assert.ElementsMatch(t, f.store.DeletedPosts, f.store.RatingsDeletedByPost)
	assert.ElementsMatch(t, f.store.DeletedPosts, f.store.CommentsDeletedByPost)

	assert.Contains(t, f.store.Posts, survivor.ID)
	assert.Empty(t, f.store.Ratings)
	assert.Empty(t, f.store.Comments)
}

func TestRemoveCascadeScopedByCommunity(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	otherOwner := f.store.AddUser(&core.User{Name: "neighbor"})
	otherCommunity := f.store.AddCommunity(&core.Community{Name: "biology", OwnerID: otherOwner.ID})

	doomed := f.store.AddPost(&core.Post{CommunityID: f.community.ID, AuthorID: f.member.ID})
	// Same parent-pointer text, different community: must not be swept.
	unrelated := f.store.AddPost(&core.Post{CommunityID: otherCommunity.ID, AuthorID: otherOwner.ID, ParentNodeID: doomed.NodeID()})

	require.NoError(t, f.manager.Remove(t.Context(), doomed.ID, f.admin.ID))

	assert.Contains(t, f.store.Posts, unrelated.ID)
	assert.ElementsMatch(t, []int64{doomed.ID}, f.store.DeletedPosts)
}

func TestCheckTopicMatch(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)

	// Empty extraction short-circuits without touching the scorer.
	result, err := f.manager.CheckTopicMatch(t.Context(), f.community.ID, "<p>   </p>")
	require.NoError(t, err)
	assert.Equal(t, core.TopicMatchResult{Matches: true, Score: 1}, result)
	assert.Empty(t, f.guard.scores)

	f.guard.scoreResult = core.TopicScore{Match: false, Score: 0.12}
	result, err = f.manager.CheckTopicMatch(t.Context(), f.community.ID, "<p>cooking recipes</p>")
	require.NoError(t, err)
	assert.Equal(t, core.TopicMatchResult{Matches: false, Score: 0.12}, result)
	assert.Equal(t, []string{"cooking recipes"}, f.guard.scores)
}

func TestCheckTopicMatchFailsOpen(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.guard.scoreErr = errors.New("connection refused")

	result, err := f.manager.CheckTopicMatch(t.Context(), f.community.ID, "<p>black holes</p>")
	require.NoError(t, err)
	assert.Equal(t, core.TopicMatchResult{Matches: true, Score: 0.5}, result)
}

func TestRateAndUserRating(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	post := f.store.AddPost(&core.Post{CommunityID: f.community.ID, AuthorID: f.member.ID, IsVerified: true})

	require.NoError(t, f.manager.Rate(t.Context(), post.ID, f.member.ID, 3))
	// Re-rating overwrites.
	require.NoError(t, f.manager.Rate(t.Context(), post.ID, f.member.ID, 5))

	value, err := f.manager.UserRating(t.Context(), post.ID, f.member.ID)
	require.NoError(t, err)
	require.NotNil(t, value)
	assert.Equal(t, 5, *value)

	value, err = f.manager.UserRating(t.Context(), post.ID, f.admin.ID)
	require.NoError(t, err)
	assert.Nil(t, value)

	assert.ErrorIs(t, f.manager.Rate(t.Context(), 9999, f.member.ID, 4), core.ErrPostNotFound)
}

// Full moderation pass: member drafts, admin reviews and verifies, the
// post becomes publicly visible and the centroid rebuild is attempted.
func TestModerationFlow(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)

	post, err := f.manager.CreatePost(t.Context(), core.CreatePost{
		Title:        "observing log",
		Content:      "<p>saturn at opposition</p>",
		ParentNodeID: core.RootNodeID,
	}, f.community.ID, f.member.ID)
	require.NoError(t, err)
	require.False(t, post.IsVerified)

	queue, err := f.manager.UnverifiedPosts(t.Context(), f.community.ID)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, post.ID, queue[0].ID)

	_, err = f.manager.VerifyPost(t.Context(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.guard.rebuildCalled)

	views, err := f.manager.PostsByCommunity(t.Context(), f.community.ID, nil)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, post.ID, views[0].ID)
	assert.True(t, views[0].IsVerified)
}
