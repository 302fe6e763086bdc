// Package moderation owns the per-community forest of posts: creation with
// verification-state assignment, verification transitions, visibility
// filtering, topic gating and cascading removal.
package moderation

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/lo"

	"mindforum/internal/core"
	"mindforum/internal/rating"
)

var (
	postsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindforum_posts_created_total",
		Help: "The total number of created posts.",
	}, []string{"verified"})

	postsVerified = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mindforum_posts_verified_total",
		Help: "The total number of verification transitions.",
	})

	postsRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mindforum_posts_removed_total",
		Help: "The total number of removed posts, cascade nodes included.",
	})

	rebuildFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mindforum_topic_rebuild_failures_total",
		Help: "The total number of swallowed centroid rebuild failures.",
	})

	scoreFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mindforum_topic_score_failures_total",
		Help: "The total number of topic score calls that failed open.",
	})
)

type Manager struct {
	Logger      *slog.Logger
	Communities core.CommunityRepository
	Posts       core.PostRepository
	Ratings     core.RatingRepository
	Comments    core.CommentRepository
	Authz       core.AuthzResolver
	TopicGuard  core.TopicGuard
}

func (m *Manager) Init(_ context.Context) error {
	m.Logger = m.Logger.With("component", "moderation.Manager")
	return nil
}

// CreatePost stores a new post. A privileged author's post is verified at
// creation; everyone else's starts unverified. The community's
// autoPublishPosts flag affects visibility only, never the stored bit.
func (m *Manager) CreatePost(ctx context.Context, in core.CreatePost, communityID, authorID int64) (*core.Post, error) {
	if _, err := m.Communities.Get(ctx, communityID); err != nil {
		return nil, err
	}

	privileged, err := m.Authz.IsPrivileged(ctx, authorID, communityID)
	if err != nil {
		return nil, err
	}

	post := &core.Post{
		Title:        in.Title,
		Content:      in.Content,
		CreatedAt:    time.Now(),
		AuthorID:     authorID,
		CommunityID:  communityID,
		ParentNodeID: in.ParentNodeID,
		IsVerified:   privileged,
	}

	if err := m.Posts.Create(ctx, post); err != nil {
		return nil, err
	}

	postsCreated.WithLabelValues(strconv.FormatBool(privileged)).Inc()

	return post, nil
}

// VerifyPost publishes the post and rebuilds the community's topic centroid
// from all currently verified posts. The rebuild is best-effort: its failure
// is logged and swallowed, never surfaced to the caller.
func (m *Manager) VerifyPost(ctx context.Context, postID int64) (*core.Post, error) {
	post, err := m.Posts.MarkVerified(ctx, postID)
	if err != nil {
		return nil, err
	}

	postsVerified.Inc()

	m.rebuildCentroid(ctx, post.CommunityID)

	return post, nil
}

// DiscardPost drops a single rejected post. No cascade: moderation discards
// only apply to unverified leaves-to-be; subtree removal goes through Remove.
func (m *Manager) DiscardPost(ctx context.Context, postID int64) error {
	return m.Posts.Delete(ctx, postID)
}

// UnverifiedPosts lists the community's moderation queue.
func (m *Manager) UnverifiedPosts(ctx context.Context, communityID int64) ([]core.PostView, error) {
	if _, err := m.Communities.Get(ctx, communityID); err != nil {
		return nil, err
	}

	posts, err := m.Posts.ListByCommunity(ctx, communityID)
	if err != nil {
		return nil, err
	}

	unverified := lo.Filter(posts, func(post core.Post, _ int) bool {
		return !post.IsVerified
	})

	return lo.Map(unverified, func(post core.Post, _ int) core.PostView {
		return View(post)
	}), nil
}

// PostsByCommunity applies the three-tier visibility rule. When the
// community auto-publishes, everything is visible and no privilege lookup
// happens at all. Otherwise an anonymous viewer sees the verified subset,
// an authenticated viewer additionally sees their own unverified posts, and
// a privileged viewer sees everything.
func (m *Manager) PostsByCommunity(ctx context.Context, communityID int64, viewerID *int64) ([]core.PostView, error) {
	community, err := m.Communities.Get(ctx, communityID)
	if err != nil {
		return nil, err
	}

	posts, err := m.Posts.ListByCommunity(ctx, communityID)
	if err != nil {
		return nil, err
	}

	if !community.AutoPublishPosts {
		privileged := false
		if viewerID != nil {
			privileged, err = m.Authz.IsPrivileged(ctx, *viewerID, communityID)
			if err != nil {
				return nil, err
			}
		}

		if !privileged {
			posts = lo.Filter(posts, func(post core.Post, _ int) bool {
				return post.IsVerified || (viewerID != nil && post.AuthorID == *viewerID)
			})
		}
	}

	return lo.Map(posts, func(post core.Post, _ int) core.PostView {
		return View(post)
	}), nil
}

// ListAll lists every post across communities, rating-annotated.
func (m *Manager) ListAll(ctx context.Context) ([]core.PostView, error) {
	posts, err := m.Posts.List(ctx)
	if err != nil {
		return nil, err
	}

	return lo.Map(posts, func(post core.Post, _ int) core.PostView {
		return View(post)
	}), nil
}

// CheckTopicMatch scores candidate content against the community centroid.
// Empty or whitespace-only extractions never fail topic gating and never
// reach the scorer; scorer failure fails open.
func (m *Manager) CheckTopicMatch(ctx context.Context, communityID int64, richText string) (core.TopicMatchResult, error) {
	text := extractText(richText)
	if strings.TrimSpace(text) == "" {
		return core.TopicMatchResult{Matches: true, Score: 1}, nil
	}

	score, err := m.TopicGuard.Score(ctx, communityID, text)
	if err != nil {
		scoreFailures.Inc()
		m.Logger.Error("topic score failed, failing open", "community_id", communityID, "error", err)
		return core.TopicMatchResult{Matches: true, Score: 0.5}, nil
	}

	return core.TopicMatchResult{Matches: score.Match, Score: score.Score}, nil
}

// Remove deletes a post and its whole subtree, including each node's
// ratings and comments. Allowed for community admins unconditionally, and
// for the author only while the post is unverified.
//
// The traversal is an explicit worklist, not call recursion, so tree depth
// is unbounded. It is not transactional: a failure partway through leaves a
// partially-deleted subtree and surfaces the failing step's error.
func (m *Manager) Remove(ctx context.Context, postID, actorID int64) error {
	post, err := m.Posts.Get(ctx, postID)
	if err != nil {
		return err
	}

	privileged, err := m.Authz.IsPrivileged(ctx, actorID, post.CommunityID)
	if err != nil {
		return err
	}

	if !privileged && !(post.AuthorID == actorID && !post.IsVerified) {
		return core.ErrVerifiedPostDelete
	}

	removed := 0
	stack := []core.Post{*post}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// A node's ratings and comments go before the node itself.
		if err := m.Ratings.DeleteByPost(ctx, current.ID); err != nil {
			return err
		}
		if err := m.Comments.DeleteByPost(ctx, current.ID); err != nil {
			return err
		}
		if err := m.Posts.Delete(ctx, current.ID); err != nil {
			return err
		}

		removed++
		postsRemoved.Inc()

		children, err := m.Posts.Children(ctx, current.CommunityID, current.NodeID())
		if err != nil {
			return err
		}
		stack = append(stack, children...)
	}

	m.Logger.Info("post subtree removed", "post_id", postID, "actor_id", actorID, "nodes", removed)

	return nil
}

// Rate records the actor's 1-5 rating of a post; re-rating overwrites.
func (m *Manager) Rate(ctx context.Context, postID, userID int64, value int) error {
	if _, err := m.Posts.Get(ctx, postID); err != nil {
		return err
	}
	return m.Ratings.Upsert(ctx, userID, postID, value)
}

// UserRating returns the viewer's own rating of the post, nil if none.
func (m *Manager) UserRating(ctx context.Context, postID, userID int64) (*int, error) {
	if _, err := m.Posts.Get(ctx, postID); err != nil {
		return nil, err
	}

	postRating, err := m.Ratings.Get(ctx, userID, postID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &postRating.Rating, nil
}

func (m *Manager) rebuildCentroid(ctx context.Context, communityID int64) {
	contents, err := m.Posts.VerifiedContents(ctx, communityID)
	if err != nil {
		rebuildFailures.Inc()
		m.Logger.Error("centroid rebuild skipped", "community_id", communityID, "error", err)
		return
	}

	texts := lo.FilterMap(contents, func(content string, _ int) (string, bool) {
		text := extractText(content)
		return text, strings.TrimSpace(text) != ""
	})

	if len(texts) == 0 {
		return
	}

	if err := m.TopicGuard.RebuildCentroid(ctx, communityID, texts); err != nil {
		rebuildFailures.Inc()
		m.Logger.Error("centroid rebuild failed", "community_id", communityID, "error", err)
	}
}

// View projects a post into its transport shape.
func View(post core.Post) core.PostView {
	view := core.PostView{
		ID:            post.ID,
		Title:         post.Title,
		Content:       post.Content,
		CreatedAt:     post.CreatedAt,
		CommunityID:   post.CommunityID,
		IsVerified:    post.IsVerified,
		ParentNodeID:  post.ParentNodeID,
		AverageRating: rating.PostAverage(post),
	}
	if post.Author != nil {
		view.AuthorUsername = post.Author.Name
		view.AuthorProfilePicture = post.Author.ProfilePicture
	}
	return view
}
