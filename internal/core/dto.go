package core

import "time"

type CommunityView struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	CreatedAt        time.Time `json:"createdAt"`
	FollowerCount    int       `json:"followerCount"`
	AutoPublishPosts bool      `json:"autoPublishPosts"`
	AverageRating    float64   `json:"averageRating"`
	BannerImage      *string   `json:"bannerImage"`
	IconImage        *string   `json:"iconImage"`
}

type PostView struct {
	ID                   int64     `json:"id"`
	Title                string    `json:"title"`
	Content              string    `json:"content"`
	CreatedAt            time.Time `json:"createdAt"`
	AuthorUsername       string    `json:"authorUsername"`
	AuthorProfilePicture *string   `json:"authorProfilePicture"`
	CommunityID          int64     `json:"communityId"`
	IsVerified           bool      `json:"isVerified"`
	ParentNodeID         string    `json:"parentNodeId"`
	AverageRating        float64   `json:"averageRating"`
}

type CommentView struct {
	ID                   int64     `json:"id"`
	Content              string    `json:"content"`
	CreatedAt            time.Time `json:"createdAt"`
	AuthorUsername       string    `json:"authorUsername"`
	AuthorProfilePicture *string   `json:"authorProfilePicture"`
	PostID               int64     `json:"postId"`

	// Computed relative to the viewing actor at list time, always false
	// in the projection returned right after creation.
	CanDelete bool `json:"canDelete"`
}

type AdminView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type UserView struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	ProfilePicture *string `json:"profilePicture"`
}

type CreateCommunity struct {
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	AutoPublishPosts bool    `json:"autoPublishPosts"`
	IconImage        *string `json:"iconImage"`
	BannerImage      *string `json:"bannerImage"`
}

// UpdateCommunity is a merge-patch: nil fields are left untouched.
type UpdateCommunity struct {
	Name             *string `json:"name"`
	Description      *string `json:"description"`
	AutoPublishPosts *bool   `json:"autoPublishPosts"`
	BannerImage      *string `json:"bannerImage"`
	IconImage        *string `json:"iconImage"`
}

type CreatePost struct {
	Title        string `json:"title"`
	Content      string `json:"content"`
	ParentNodeID string `json:"parentNodeId"`
}

type UpdateUser struct {
	Name           *string `json:"name"`
	ProfilePicture *string `json:"profilePicture"`
}

// TopicScore is the external scorer's verdict for one text.
type TopicScore struct {
	Match bool    `json:"match"`
	Score float64 `json:"score"`
}

type TopicMatchResult struct {
	Matches bool    `json:"matches"`
	Score   float64 `json:"score"`
}
