package ratings

import (
	"context"

	"gorm.io/gorm/clause"

	"mindforum/internal/core"
	"mindforum/internal/persistence/pgerrors"
)

type Repository struct {
	DB core.DB
}

// Upsert records the rating, overwriting a previous one by the same user
// for the same post.
func (r *Repository) Upsert(ctx context.Context, userID, postID int64, value int) error {
	rating := core.PostRating{UserID: userID, PostID: postID, Rating: value}
	return r.DB.Model(&core.PostRating{}).
		WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating"}),
		}).
		Create(&rating).Error
}

func (r *Repository) Get(ctx context.Context, userID, postID int64) (*core.PostRating, error) {
	var rating core.PostRating
	err := r.DB.Model(&core.PostRating{}).
		WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		First(&rating).Error
	return &rating, pgerrors.Translate(err, core.ErrRatingNotFound)
}

func (r *Repository) DeleteByPost(ctx context.Context, postID int64) error {
	return r.DB.Model(&core.PostRating{}).
		WithContext(ctx).
		Where("post_id = ?", postID).
		Delete(&core.PostRating{}).Error
}
