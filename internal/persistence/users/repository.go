package users

import (
	"context"

	"mindforum/internal/core"
	"mindforum/internal/persistence/pgerrors"
)

type Repository struct {
	DB core.DB
}

func (r *Repository) Get(ctx context.Context, id int64) (*core.User, error) {
	var user core.User
	err := r.DB.Model(&core.User{}).
		WithContext(ctx).
		First(&user, id).Error
	return &user, pgerrors.Translate(err, core.ErrUserNotFound)
}

func (r *Repository) GetByName(ctx context.Context, name string) (*core.User, error) {
	var user core.User
	err := r.DB.Model(&core.User{}).
		WithContext(ctx).
		Where("name = ?", name).
		First(&user).Error
	return &user, pgerrors.Translate(err, core.ErrUserNotFound)
}

func (r *Repository) Update(ctx context.Context, id int64, fields map[string]any) error {
	result := r.DB.Model(&core.User{}).
		WithContext(ctx).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return pgerrors.Translate(result.Error, core.ErrUserNotFound)
	}
	if result.RowsAffected == 0 {
		return core.ErrUserNotFound
	}
	return nil
}
