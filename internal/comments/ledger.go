// Package comments owns comments attached to posts. Deletion authorization
// mirrors post removal (author-or-admin) but the structure is flat.
package comments

import (
	"context"
	"log/slog"
	"time"

	"mindforum/internal/core"
)

type Ledger struct {
	Logger   *slog.Logger
	Posts    core.PostRepository
	Comments core.CommentRepository
	Authz    core.AuthzResolver
}

func (l *Ledger) Init(_ context.Context) error {
	l.Logger = l.Logger.With("component", "comments.Ledger")
	return nil
}

// Create attaches a comment to an existing post. CanDelete in the returned
// view is always false; it is computed relative to a viewing actor at list
// time, not the creator.
func (l *Ledger) Create(ctx context.Context, postID, authorID int64, content string) (*core.CommentView, error) {
	if _, err := l.Posts.Get(ctx, postID); err != nil {
		return nil, err
	}

	comment := &core.Comment{
		Content:   content,
		CreatedAt: time.Now(),
		AuthorID:  authorID,
		PostID:    postID,
	}

	if err := l.Comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	view := toView(*comment, false)
	return &view, nil
}

// ListByPost returns the post's comments newest first. CanDelete is
// computed per comment for the viewer; anonymous viewers short-circuit to
// false without any privilege lookup.
func (l *Ledger) ListByPost(ctx context.Context, postID int64, viewerID *int64) ([]core.CommentView, error) {
	if _, err := l.Posts.Get(ctx, postID); err != nil {
		return nil, err
	}

	comments, err := l.Comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	views := make([]core.CommentView, 0, len(comments))
	for _, comment := range comments {
		canDelete := false
		if viewerID != nil {
			canDelete, err = l.canDelete(ctx, comment, *viewerID)
			if err != nil {
				return nil, err
			}
		}
		views = append(views, toView(comment, canDelete))
	}

	return views, nil
}

// Delete removes a comment. Allowed for its author and for admins of the
// community the comment's post belongs to.
func (l *Ledger) Delete(ctx context.Context, commentID, actorID int64) error {
	comment, err := l.Comments.Get(ctx, commentID)
	if err != nil {
		return err
	}

	allowed, err := l.canDelete(ctx, *comment, actorID)
	if err != nil {
		return err
	}
	if !allowed {
		return core.ErrCommentDelete
	}

	return l.Comments.Delete(ctx, commentID)
}

func (l *Ledger) canDelete(ctx context.Context, comment core.Comment, actorID int64) (bool, error) {
	if comment.AuthorID == actorID {
		return true, nil
	}
	return l.Authz.IsPrivileged(ctx, actorID, comment.Post.CommunityID)
}

func toView(comment core.Comment, canDelete bool) core.CommentView {
	view := core.CommentView{
		ID:        comment.ID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
		PostID:    comment.PostID,
		CanDelete: canDelete,
	}
	if comment.Author != nil {
		view.AuthorUsername = comment.Author.Name
		view.AuthorProfilePicture = comment.Author.ProfilePicture
	}
	return view
}
