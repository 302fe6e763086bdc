package communities

import (
	"context"

	"mindforum/internal/core"
	"mindforum/internal/persistence/pgerrors"
)

type Repository struct {
	DB core.DB
}

func (r *Repository) Get(ctx context.Context, id int64) (*core.Community, error) {
	var community core.Community
	err := r.DB.Model(&core.Community{}).
		WithContext(ctx).
		First(&community, id).Error
	return &community, pgerrors.Translate(err, core.ErrCommunityNotFound)
}

func (r *Repository) GetWithAdmins(ctx context.Context, id int64) (*core.Community, error) {
	var community core.Community
	err := r.DB.Model(&core.Community{}).
		WithContext(ctx).
		Preload("Admins").
		First(&community, id).Error
	return &community, pgerrors.Translate(err, core.ErrCommunityNotFound)
}

func (r *Repository) GetDetailed(ctx context.Context, id int64) (*core.Community, error) {
	var community core.Community
	err := r.DB.Model(&core.Community{}).
		WithContext(ctx).
		Preload("Owner").
		Preload("Admins").
		Preload("Followers").
		Preload("Posts.Ratings").
		First(&community, id).Error
	return &community, pgerrors.Translate(err, core.ErrCommunityNotFound)
}

func (r *Repository) List(ctx context.Context) ([]core.Community, error) {
	var communities []core.Community
	err := r.DB.Model(&core.Community{}).
		WithContext(ctx).
		Preload("Owner").
		Preload("Admins").
		Preload("Followers").
		Preload("Posts.Ratings").
		Find(&communities).Error
	return communities, err
}

func (r *Repository) ListFollowedBy(ctx context.Context, userID int64) ([]core.Community, error) {
	var communities []core.Community
	err := r.DB.Model(&core.Community{}).
		WithContext(ctx).
		Joins("JOIN community_followers cf ON cf.community_id = communities.id").
		Where("cf.user_id = ?", userID).
		Preload("Owner").
		Preload("Followers").
		Preload("Posts.Ratings").
		Find(&communities).Error
	return communities, err
}

func (r *Repository) FirstOwnedBy(ctx context.Context, userID int64) (*core.Community, error) {
	var community core.Community
	err := r.DB.Model(&core.Community{}).
		WithContext(ctx).
		Where("owner_id = ?", userID).
		First(&community).Error
	return &community, pgerrors.Translate(err, core.ErrCommunityNotFound)
}

func (r *Repository) Create(ctx context.Context, community *core.Community) error {
	err := r.DB.Model(&core.Community{}).
		WithContext(ctx).
		Create(community).Error
	return pgerrors.Translate(err, core.ErrCommunityNotFound)
}

func (r *Repository) Update(ctx context.Context, id int64, fields map[string]any) error {
	result := r.DB.Model(&core.Community{}).
		WithContext(ctx).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return pgerrors.Translate(result.Error, core.ErrCommunityNotFound)
	}
	if result.RowsAffected == 0 {
		return core.ErrCommunityNotFound
	}
	return nil
}

func (r *Repository) AddFollower(ctx context.Context, communityID, userID int64) error {
	err := r.DB.Model(&core.Community{ID: communityID}).
		WithContext(ctx).
		Omit("Followers.*").
		Association("Followers").
		Append(&core.User{ID: userID})
	return pgerrors.Translate(err, core.ErrCommunityNotFound)
}

func (r *Repository) RemoveFollower(ctx context.Context, communityID, userID int64) error {
	err := r.DB.Model(&core.Community{ID: communityID}).
		WithContext(ctx).
		Association("Followers").
		Delete(&core.User{ID: userID})
	return pgerrors.Translate(err, core.ErrCommunityNotFound)
}

func (r *Repository) AddAdmin(ctx context.Context, communityID, userID int64) error {
	err := r.DB.Model(&core.Community{ID: communityID}).
		WithContext(ctx).
		Omit("Admins.*").
		Association("Admins").
		Append(&core.User{ID: userID})
	return pgerrors.Translate(err, core.ErrCommunityNotFound)
}

func (r *Repository) RemoveAdmin(ctx context.Context, communityID, userID int64) error {
	err := r.DB.Model(&core.Community{ID: communityID}).
		WithContext(ctx).
		Association("Admins").
		Delete(&core.User{ID: userID})
	return pgerrors.Translate(err, core.ErrCommunityNotFound)
}
