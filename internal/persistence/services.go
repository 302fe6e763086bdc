package persistence

import (
	"github.com/zhulik/pal"

	"mindforum/internal/core"
	"mindforum/internal/persistence/comments"
	"mindforum/internal/persistence/communities"
	"mindforum/internal/persistence/posts"
	"mindforum/internal/persistence/ratings"
	"mindforum/internal/persistence/users"
)

// Provide wires the store: the gorm wrapper and every repository.
func Provide() pal.ServiceDef {
	return pal.ProvideList(
		pal.Provide[core.DB](&DB{}),
		pal.Provide[core.CommunityRepository](&communities.Repository{}),
		pal.Provide[core.PostRepository](&posts.Repository{}),
		pal.Provide[core.RatingRepository](&ratings.Repository{}),
		pal.Provide[core.CommentRepository](&comments.Repository{}),
		pal.Provide[core.UserRepository](&users.Repository{}),
	)
}
