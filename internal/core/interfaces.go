package core

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

type DB interface {
	Model(value any) *gorm.DB
	EstimatedCount(table string) (int64, error)
	DB() (*sql.DB, error)
}

type Migrator interface {
	Up(ctx context.Context) error
	Down(ctx context.Context) error
}

type CommunityRepository interface {
	// Get loads the bare record.
	Get(ctx context.Context, id int64) (*Community, error)
	// GetWithAdmins preloads the admin set, enough for privilege checks.
	GetWithAdmins(ctx context.Context, id int64) (*Community, error)
	// GetDetailed preloads owner, admins, followers and posts with ratings.
	GetDetailed(ctx context.Context, id int64) (*Community, error)
	List(ctx context.Context) ([]Community, error)
	ListFollowedBy(ctx context.Context, userID int64) ([]Community, error)
	// FirstOwnedBy returns ErrCommunityNotFound when the user owns none.
	FirstOwnedBy(ctx context.Context, userID int64) (*Community, error)
	Create(ctx context.Context, community *Community) error
	// Update writes only the given columns.
	Update(ctx context.Context, id int64, fields map[string]any) error
	AddFollower(ctx context.Context, communityID, userID int64) error
	RemoveFollower(ctx context.Context, communityID, userID int64) error
	AddAdmin(ctx context.Context, communityID, userID int64) error
	RemoveAdmin(ctx context.Context, communityID, userID int64) error
}

type PostRepository interface {
	Get(ctx context.Context, id int64) (*Post, error)
	// List and ListByCommunity preload author and ratings.
	List(ctx context.Context) ([]Post, error)
	ListByCommunity(ctx context.Context, communityID int64) ([]Post, error)
	// VerifiedContents returns the raw content of every verified post in
	// the community, the centroid rebuild input.
	VerifiedContents(ctx context.Context, communityID int64) ([]string, error)
	// Children is scoped by community: a post in another community that
	// happens to reuse the same node id must never be swept into a cascade.
	Children(ctx context.Context, communityID int64, parentNodeID string) ([]Post, error)
	Create(ctx context.Context, post *Post) error
	MarkVerified(ctx context.Context, id int64) (*Post, error)
	Delete(ctx context.Context, id int64) error
}

type RatingRepository interface {
	Upsert(ctx context.Context, userID, postID int64, rating int) error
	Get(ctx context.Context, userID, postID int64) (*PostRating, error)
	DeleteByPost(ctx context.Context, postID int64) error
}

type CommentRepository interface {
	// Get preloads the comment's post.
	Get(ctx context.Context, id int64) (*Comment, error)
	// ListByPost preloads authors, newest first.
	ListByPost(ctx context.Context, postID int64) ([]Comment, error)
	Create(ctx context.Context, comment *Comment) error
	Delete(ctx context.Context, id int64) error
	DeleteByPost(ctx context.Context, postID int64) error
}

type UserRepository interface {
	Get(ctx context.Context, id int64) (*User, error)
	GetByName(ctx context.Context, name string) (*User, error)
	Update(ctx context.Context, id int64, fields map[string]any) error
}

// AuthzResolver is the single privilege primitive. A missing community is
// ErrCommunityNotFound, not false: callers must distinguish the two.
type AuthzResolver interface {
	IsPrivileged(ctx context.Context, userID, communityID int64) (bool, error)
}

// TopicGuard is the external semantic scorer. Both calls may fail; callers
// treat failures as ignorable and substitute safe defaults.
type TopicGuard interface {
	RebuildCentroid(ctx context.Context, communityID int64, texts []string) error
	Score(ctx context.Context, communityID int64, text string) (TopicScore, error)
}

// ImageStore turns uploaded bytes into a stable URL. Only the URL string is
// kept by this service.
type ImageStore interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}
