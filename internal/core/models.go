package core

import (
	"strconv"
	"time"
)

// RootNodeID is the parent marker of top-level posts. The root node itself
// is not a Post record; every community has exactly one implicit root.
const RootNodeID = "root"

type User struct {
	ID        int64 `gorm:"primaryKey"`
	Name      string
	Email     string
	CreatedAt time.Time

	ProfilePicture *string

	FollowedCommunities []*Community `gorm:"many2many:community_followers"`
}

func (User) TableName() string {
	return "users"
}

type Community struct {
	ID          int64 `gorm:"primaryKey"`
	Name        string
	Description string
	CreatedAt   time.Time

	// A user owns at most one community, backed by a unique index.
	OwnerID int64
	Owner   *User

	AutoPublishPosts bool

	BannerImage *string
	IconImage   *string

	Admins    []*User `gorm:"many2many:community_admins"`
	Followers []*User `gorm:"many2many:community_followers"`
	Posts     []Post
}

func (Community) TableName() string {
	return "communities"
}

type Post struct {
	ID        int64 `gorm:"primaryKey"`
	Title     string
	Content   string
	CreatedAt time.Time

	AuthorID int64
	Author   *User

	CommunityID int64

	IsVerified bool

	// Either RootNodeID or another post's id rendered as text. Together
	// with CommunityID this forms a forest, one tree root per community.
	ParentNodeID string

	Ratings []PostRating
}

func (Post) TableName() string {
	return "posts"
}

// NodeID renders the post's identity the way child posts reference it
// through ParentNodeID.
func (p Post) NodeID() string {
	return strconv.FormatInt(p.ID, 10)
}

type PostRating struct {
	UserID int64 `gorm:"primaryKey"`
	PostID int64 `gorm:"primaryKey"`

	Rating int
}

func (PostRating) TableName() string {
	return "post_ratings"
}

type Comment struct {
	ID        int64 `gorm:"primaryKey"`
	Content   string
	CreatedAt time.Time

	AuthorID int64
	Author   *User

	PostID int64
	Post   *Post
}

func (Comment) TableName() string {
	return "comments"
}
