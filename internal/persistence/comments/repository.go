package comments

import (
	"context"

	"mindforum/internal/core"
	"mindforum/internal/persistence/pgerrors"
)

type Repository struct {
	DB core.DB
}

func (r *Repository) Get(ctx context.Context, id int64) (*core.Comment, error) {
	var comment core.Comment
	err := r.DB.Model(&core.Comment{}).
		WithContext(ctx).
		Preload("Post").
		First(&comment, id).Error
	return &comment, pgerrors.Translate(err, core.ErrCommentNotFound)
}

func (r *Repository) ListByPost(ctx context.Context, postID int64) ([]core.Comment, error) {
	var comments []core.Comment
	err := r.DB.Model(&core.Comment{}).
		WithContext(ctx).
		Where("post_id = ?", postID).
		Preload("Author").
		Preload("Post").
		Order("created_at DESC, id DESC").
		Find(&comments).Error
	return comments, err
}

func (r *Repository) Create(ctx context.Context, comment *core.Comment) error {
	if err := r.DB.Model(&core.Comment{}).
		WithContext(ctx).
		Create(comment).Error; err != nil {
		return err
	}

	// The view projection needs the author's name and picture.
	return r.DB.Model(&core.Comment{}).
		WithContext(ctx).
		Preload("Author").
		First(comment, comment.ID).Error
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	result := r.DB.Model(&core.Comment{}).
		WithContext(ctx).
		Delete(&core.Comment{}, id)
	if result.Error != nil {
		return pgerrors.Translate(result.Error, core.ErrCommentNotFound)
	}
	if result.RowsAffected == 0 {
		return core.ErrCommentNotFound
	}
	return nil
}

func (r *Repository) DeleteByPost(ctx context.Context, postID int64) error {
	return r.DB.Model(&core.Comment{}).
		WithContext(ctx).
		Where("post_id = ?", postID).
		Delete(&core.Comment{}).Error
}
