package posts

import (
	"context"

	"mindforum/internal/core"
	"mindforum/internal/persistence/pgerrors"
)

type Repository struct {
	DB core.DB
}

func (r *Repository) Get(ctx context.Context, id int64) (*core.Post, error) {
	var post core.Post
	err := r.DB.Model(&core.Post{}).
		WithContext(ctx).
		First(&post, id).Error
	return &post, pgerrors.Translate(err, core.ErrPostNotFound)
}

func (r *Repository) List(ctx context.Context) ([]core.Post, error) {
	var posts []core.Post
	err := r.DB.Model(&core.Post{}).
		WithContext(ctx).
		Preload("Author").
		Preload("Ratings").
		Find(&posts).Error
	return posts, err
}

func (r *Repository) ListByCommunity(ctx context.Context, communityID int64) ([]core.Post, error) {
	var posts []core.Post
	err := r.DB.Model(&core.Post{}).
		WithContext(ctx).
		Where("community_id = ?", communityID).
		Preload("Author").
		Preload("Ratings").
		Find(&posts).Error
	return posts, err
}

func (r *Repository) VerifiedContents(ctx context.Context, communityID int64) ([]string, error) {
	var contents []string
	err := r.DB.Model(&core.Post{}).
		WithContext(ctx).
		Where("community_id = ? AND is_verified", communityID).
		Pluck("content", &contents).Error
	return contents, err
}

func (r *Repository) Children(ctx context.Context, communityID int64, parentNodeID string) ([]core.Post, error) {
	var posts []core.Post
	err := r.DB.Model(&core.Post{}).
		WithContext(ctx).
		Where("community_id = ? AND parent_node_id = ?", communityID, parentNodeID).
		Find(&posts).Error
	return posts, err
}

func (r *Repository) Create(ctx context.Context, post *core.Post) error {
	return r.DB.Model(&core.Post{}).
		WithContext(ctx).
		Create(post).Error
}

func (r *Repository) MarkVerified(ctx context.Context, id int64) (*core.Post, error) {
	result := r.DB.Model(&core.Post{}).
		WithContext(ctx).
		Where("id = ?", id).
		Update("is_verified", true)
	if result.Error != nil {
		return nil, pgerrors.Translate(result.Error, core.ErrPostNotFound)
	}
	if result.RowsAffected == 0 {
		return nil, core.ErrPostNotFound
	}

	return r.Get(ctx, id)
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	result := r.DB.Model(&core.Post{}).
		WithContext(ctx).
		Delete(&core.Post{}, id)
	if result.Error != nil {
		return pgerrors.Translate(result.Error, core.ErrPostNotFound)
	}
	if result.RowsAffected == 0 {
		return core.ErrPostNotFound
	}
	return nil
}
