// Package coretest provides in-memory repository implementations for unit
// tests of the service layer.
package coretest

import (
	"context"
	"sort"
	"sync"

	"github.com/samber/lo"

	"mindforum/internal/core"
)

type ratingKey struct {
	UserID int64
	PostID int64
}

// Store holds all entities behind the repository interfaces. It also keeps
// deletion journals so cascade tests can assert cleanup ordering per node.
type Store struct {
	mu sync.Mutex

	Users       map[int64]*core.User
	Communities map[int64]*core.Community
	Posts       map[int64]*core.Post
	Ratings     map[ratingKey]*core.PostRating
	Comments    map[int64]*core.Comment

	DeletedPosts          []int64
	RatingsDeletedByPost  []int64
	CommentsDeletedByPost []int64

	nextID int64
}

func NewStore() *Store {
	return &Store{
		Users:       map[int64]*core.User{},
		Communities: map[int64]*core.Community{},
		Posts:       map[int64]*core.Post{},
		Ratings:     map[ratingKey]*core.PostRating{},
		Comments:    map[int64]*core.Comment{},
		nextID:      1000,
	}
}

func (s *Store) nextIdentity() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) AddUser(user *core.User) *core.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == 0 {
		user.ID = s.nextIdentity()
	}
	s.Users[user.ID] = user
	return user
}

func (s *Store) AddCommunity(community *core.Community) *core.Community {
	s.mu.Lock()
	defer s.mu.Unlock()
	if community.ID == 0 {
		community.ID = s.nextIdentity()
	}
	s.Communities[community.ID] = community
	return community
}

func (s *Store) AddPost(post *core.Post) *core.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	if post.ID == 0 {
		post.ID = s.nextIdentity()
	}
	if post.ParentNodeID == "" {
		post.ParentNodeID = core.RootNodeID
	}
	if post.Author == nil {
		post.Author = s.Users[post.AuthorID]
	}
	s.Posts[post.ID] = post
	return post
}

func (s *Store) AddComment(comment *core.Comment) *core.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if comment.ID == 0 {
		comment.ID = s.nextIdentity()
	}
	if comment.Author == nil {
		comment.Author = s.Users[comment.AuthorID]
	}
	if comment.Post == nil {
		comment.Post = s.Posts[comment.PostID]
	}
	s.Comments[comment.ID] = comment
	return comment
}

func (s *Store) AddRating(userID, postID int64, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Ratings[ratingKey{userID, postID}] = &core.PostRating{UserID: userID, PostID: postID, Rating: value}
}

func (s *Store) CommunityRepo() core.CommunityRepository { return &communityRepo{s} }
func (s *Store) PostRepo() core.PostRepository           { return &postRepo{s} }
func (s *Store) RatingRepo() core.RatingRepository       { return &ratingRepo{s} }
func (s *Store) CommentRepo() core.CommentRepository     { return &commentRepo{s} }
func (s *Store) UserRepo() core.UserRepository           { return &userRepo{s} }

type communityRepo struct{ s *Store }

func (r *communityRepo) Get(_ context.Context, id int64) (*core.Community, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	community, ok := r.s.Communities[id]
	if !ok {
		return nil, core.ErrCommunityNotFound
	}
	clone := *community
	return &clone, nil
}

func (r *communityRepo) GetWithAdmins(ctx context.Context, id int64) (*core.Community, error) {
	return r.Get(ctx, id)
}

func (r *communityRepo) GetDetailed(ctx context.Context, id int64) (*core.Community, error) {
	community, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	community.Owner = r.s.Users[community.OwnerID]
	community.Posts = r.s.communityPosts(id)
	return community, nil
}

func (r *communityRepo) List(_ context.Context) ([]core.Community, error) {
	r.s.mu.Lock()
	ids := lo.Keys(r.s.Communities)
	r.s.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return lo.Map(ids, func(id int64, _ int) core.Community {
		community, _ := r.GetDetailed(context.Background(), id)
		return *community
	}), nil
}

func (r *communityRepo) ListFollowedBy(ctx context.Context, userID int64) ([]core.Community, error) {
	all, _ := r.List(ctx)
	return lo.Filter(all, func(community core.Community, _ int) bool {
		return lo.ContainsBy(community.Followers, func(u *core.User) bool { return u.ID == userID })
	}), nil
}

func (r *communityRepo) FirstOwnedBy(_ context.Context, userID int64) (*core.Community, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, community := range r.s.Communities {
		if community.OwnerID == userID {
			clone := *community
			return &clone, nil
		}
	}
	return nil, core.ErrCommunityNotFound
}

func (r *communityRepo) Create(_ context.Context, community *core.Community) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.Communities {
		if existing.OwnerID == community.OwnerID {
			return core.ErrOwnerHasCommunity
		}
	}
	if community.ID == 0 {
		community.ID = r.s.nextIdentity()
	}
	r.s.Communities[community.ID] = community
	return nil
}

func (r *communityRepo) Update(_ context.Context, id int64, fields map[string]any) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	community, ok := r.s.Communities[id]
	if !ok {
		return core.ErrCommunityNotFound
	}
	for column, value := range fields {
		switch column {
		case "name":
			community.Name = value.(string)
		case "description":
			community.Description = value.(string)
		case "auto_publish_posts":
			community.AutoPublishPosts = value.(bool)
		case "banner_image":
			v := value.(string)
			community.BannerImage = &v
		case "icon_image":
			v := value.(string)
			community.IconImage = &v
		}
	}
	return nil
}

func (r *communityRepo) AddFollower(_ context.Context, communityID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	community, ok := r.s.Communities[communityID]
	if !ok {
		return core.ErrCommunityNotFound
	}
	if !lo.ContainsBy(community.Followers, func(u *core.User) bool { return u.ID == userID }) {
		community.Followers = append(community.Followers, r.s.Users[userID])
	}
	return nil
}

func (r *communityRepo) RemoveFollower(_ context.Context, communityID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	community, ok := r.s.Communities[communityID]
	if !ok {
		return core.ErrCommunityNotFound
	}
	community.Followers = lo.Reject(community.Followers, func(u *core.User, _ int) bool { return u.ID == userID })
	return nil
}

func (r *communityRepo) AddAdmin(_ context.Context, communityID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	community, ok := r.s.Communities[communityID]
	if !ok {
		return core.ErrCommunityNotFound
	}
	if !lo.ContainsBy(community.Admins, func(u *core.User) bool { return u.ID == userID }) {
		community.Admins = append(community.Admins, r.s.Users[userID])
	}
	return nil
}

func (r *communityRepo) RemoveAdmin(_ context.Context, communityID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	community, ok := r.s.Communities[communityID]
	if !ok {
		return core.ErrCommunityNotFound
	}
	community.Admins = lo.Reject(community.Admins, func(u *core.User, _ int) bool { return u.ID == userID })
	return nil
}

func (s *Store) communityPosts(communityID int64) []core.Post {
	var posts []core.Post
	for _, post := range s.Posts {
		if post.CommunityID != communityID {
			continue
		}
		clone := *post
		clone.Ratings = s.postRatings(post.ID)
		posts = append(posts, clone)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	return posts
}

func (s *Store) postRatings(postID int64) []core.PostRating {
	var ratings []core.PostRating
	for _, r := range s.Ratings {
		if r.PostID == postID {
			ratings = append(ratings, *r)
		}
	}
	return ratings
}

type postRepo struct{ s *Store }

func (r *postRepo) Get(_ context.Context, id int64) (*core.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	post, ok := r.s.Posts[id]
	if !ok {
		return nil, core.ErrPostNotFound
	}
	clone := *post
	return &clone, nil
}

func (r *postRepo) List(_ context.Context) ([]core.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var posts []core.Post
	for _, post := range r.s.Posts {
		clone := *post
		clone.Ratings = r.s.postRatings(post.ID)
		posts = append(posts, clone)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	return posts, nil
}

func (r *postRepo) ListByCommunity(_ context.Context, communityID int64) ([]core.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.communityPosts(communityID), nil
}

func (r *postRepo) VerifiedContents(_ context.Context, communityID int64) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var contents []string
	for _, post := range r.s.communityPosts(communityID) {
		if post.IsVerified {
			contents = append(contents, post.Content)
		}
	}
	return contents, nil
}

func (r *postRepo) Children(_ context.Context, communityID int64, parentNodeID string) ([]core.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var children []core.Post
	for _, post := range r.s.Posts {
		if post.CommunityID == communityID && post.ParentNodeID == parentNodeID {
			children = append(children, *post)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].ID < children[j].ID })
	return children, nil
}

func (r *postRepo) Create(_ context.Context, post *core.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if post.ID == 0 {
		post.ID = r.s.nextIdentity()
	}
	if post.Author == nil {
		post.Author = r.s.Users[post.AuthorID]
	}
	r.s.Posts[post.ID] = post
	return nil
}

func (r *postRepo) MarkVerified(_ context.Context, id int64) (*core.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	post, ok := r.s.Posts[id]
	if !ok {
		return nil, core.ErrPostNotFound
	}
	post.IsVerified = true
	clone := *post
	return &clone, nil
}

func (r *postRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.Posts[id]; !ok {
		return core.ErrPostNotFound
	}
	delete(r.s.Posts, id)
	r.s.DeletedPosts = append(r.s.DeletedPosts, id)
	return nil
}

type ratingRepo struct{ s *Store }

func (r *ratingRepo) Upsert(_ context.Context, userID, postID int64, value int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Ratings[ratingKey{userID, postID}] = &core.PostRating{UserID: userID, PostID: postID, Rating: value}
	return nil
}

func (r *ratingRepo) Get(_ context.Context, userID, postID int64) (*core.PostRating, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rating, ok := r.s.Ratings[ratingKey{userID, postID}]
	if !ok {
		return nil, core.ErrRatingNotFound
	}
	clone := *rating
	return &clone, nil
}

func (r *ratingRepo) DeleteByPost(_ context.Context, postID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for key := range r.s.Ratings {
		if key.PostID == postID {
			delete(r.s.Ratings, key)
		}
	}
	r.s.RatingsDeletedByPost = append(r.s.RatingsDeletedByPost, postID)
	return nil
}

type commentRepo struct{ s *Store }

func (r *commentRepo) Get(_ context.Context, id int64) (*core.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	comment, ok := r.s.Comments[id]
	if !ok {
		return nil, core.ErrCommentNotFound
	}
	clone := *comment
	if clone.Post == nil {
		clone.Post = r.s.Posts[clone.PostID]
	}
	return &clone, nil
}

func (r *commentRepo) ListByPost(_ context.Context, postID int64) ([]core.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var comments []core.Comment
	for _, comment := range r.s.Comments {
		if comment.PostID == postID {
			clone := *comment
			if clone.Post == nil {
				clone.Post = r.s.Posts[clone.PostID]
			}
			comments = append(comments, clone)
		}
	}
	// Newest first, id order as tiebreaker for equal timestamps.
	sort.Slice(comments, func(i, j int) bool {
		if comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].ID > comments[j].ID
		}
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})
	return comments, nil
}

func (r *commentRepo) Create(_ context.Context, comment *core.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if comment.ID == 0 {
		comment.ID = r.s.nextIdentity()
	}
	if comment.Author == nil {
		comment.Author = r.s.Users[comment.AuthorID]
	}
	r.s.Comments[comment.ID] = comment
	return nil
}

func (r *commentRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.Comments[id]; !ok {
		return core.ErrCommentNotFound
	}
	delete(r.s.Comments, id)
	return nil
}

func (r *commentRepo) DeleteByPost(_ context.Context, postID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, comment := range r.s.Comments {
		if comment.PostID == postID {
			delete(r.s.Comments, id)
		}
	}
	r.s.CommentsDeletedByPost = append(r.s.CommentsDeletedByPost, postID)
	return nil
}

type userRepo struct{ s *Store }

func (r *userRepo) Get(_ context.Context, id int64) (*core.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.Users[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *userRepo) GetByName(_ context.Context, name string) (*core.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, user := range r.s.Users {
		if user.Name == name {
			clone := *user
			return &clone, nil
		}
	}
	return nil, core.ErrUserNotFound
}

func (r *userRepo) Update(_ context.Context, id int64, fields map[string]any) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.Users[id]
	if !ok {
		return core.ErrUserNotFound
	}
	for column, value := range fields {
		switch column {
		case "name":
			user.Name = value.(string)
		case "profile_picture":
			v := value.(string)
			user.ProfilePicture = &v
		}
	}
	return nil
}
