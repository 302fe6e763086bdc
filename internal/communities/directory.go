// Package communities owns community records, ownership, followers and the
// admin set.
package communities

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"mindforum/internal/core"
	"mindforum/internal/rating"
)

type Directory struct {
	Logger      *slog.Logger
	Communities core.CommunityRepository
	Users       core.UserRepository
}

func (d *Directory) Init(_ context.Context) error {
	d.Logger = d.Logger.With("component", "communities.Directory")
	return nil
}

// Create persists a new community. A user owns at most one community.
func (d *Directory) Create(ctx context.Context, in core.CreateCommunity, ownerID int64) (*core.CommunityView, error) {
	if _, err := d.OwnedCommunityID(ctx, ownerID); err == nil {
		return nil, core.ErrOwnerHasCommunity
	} else if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	community := &core.Community{
		Name:             in.Name,
		Description:      in.Description,
		CreatedAt:        time.Now(),
		OwnerID:          ownerID,
		AutoPublishPosts: in.AutoPublishPosts,
		IconImage:        in.IconImage,
		BannerImage:      in.BannerImage,
	}

	if err := d.Communities.Create(ctx, community); err != nil {
		return nil, err
	}

	d.Logger.Info("community created", "community_id", community.ID, "owner_id", ownerID)

	view := toView(*community)
	return &view, nil
}

func (d *Directory) List(ctx context.Context) ([]core.CommunityView, error) {
	communities, err := d.Communities.List(ctx)
	if err != nil {
		return nil, err
	}

	return lo.Map(communities, func(community core.Community, _ int) core.CommunityView {
		return toView(community)
	}), nil
}

func (d *Directory) Get(ctx context.Context, id int64) (*core.CommunityView, error) {
	community, err := d.Communities.GetDetailed(ctx, id)
	if err != nil {
		return nil, err
	}

	view := toView(*community)
	return &view, nil
}

// Update is a merge-patch: nil fields in the input are left untouched.
func (d *Directory) Update(ctx context.Context, id int64, in core.UpdateCommunity) error {
	fields := map[string]any{}
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.AutoPublishPosts != nil {
		fields["auto_publish_posts"] = *in.AutoPublishPosts
	}
	if in.BannerImage != nil {
		fields["banner_image"] = *in.BannerImage
	}
	if in.IconImage != nil {
		fields["icon_image"] = *in.IconImage
	}

	if len(fields) == 0 {
		return nil
	}

	return d.Communities.Update(ctx, id, fields)
}

func (d *Directory) ListFollowed(ctx context.Context, userID int64) ([]core.CommunityView, error) {
	communities, err := d.Communities.ListFollowedBy(ctx, userID)
	if err != nil {
		return nil, err
	}

	return lo.Map(communities, func(community core.Community, _ int) core.CommunityView {
		return toView(community)
	}), nil
}

func (d *Directory) Follow(ctx context.Context, communityID, userID int64) error {
	if _, err := d.Communities.Get(ctx, communityID); err != nil {
		return err
	}
	return d.Communities.AddFollower(ctx, communityID, userID)
}

func (d *Directory) Unfollow(ctx context.Context, communityID, userID int64) error {
	if _, err := d.Communities.Get(ctx, communityID); err != nil {
		return err
	}
	return d.Communities.RemoveFollower(ctx, communityID, userID)
}

// OwnedCommunityID returns ErrCommunityNotFound when the user owns none.
func (d *Directory) OwnedCommunityID(ctx context.Context, userID int64) (int64, error) {
	community, err := d.Communities.FirstOwnedBy(ctx, userID)
	if err != nil {
		return 0, err
	}
	return community.ID, nil
}

// AddAdmin resolves the username first so a missing user surfaces as
// ErrUserNotFound, not a silent no-op.
func (d *Directory) AddAdmin(ctx context.Context, communityID int64, username string) error {
	user, err := d.Users.GetByName(ctx, username)
	if err != nil {
		return err
	}
	return d.Communities.AddAdmin(ctx, communityID, user.ID)
}

// RemoveAdmin is idempotent: removing a user who is not an admin succeeds.
func (d *Directory) RemoveAdmin(ctx context.Context, communityID, userID int64) error {
	if _, err := d.Communities.Get(ctx, communityID); err != nil {
		return err
	}
	return d.Communities.RemoveAdmin(ctx, communityID, userID)
}

// Admins lists the owner first, then the admin set in stored order.
func (d *Directory) Admins(ctx context.Context, communityID int64) ([]core.AdminView, error) {
	community, err := d.Communities.GetDetailed(ctx, communityID)
	if err != nil {
		return nil, err
	}

	admins := []core.AdminView{{ID: community.Owner.ID, Name: community.Owner.Name}}

	return append(admins, lo.Map(community.Admins, func(admin *core.User, _ int) core.AdminView {
		return core.AdminView{ID: admin.ID, Name: admin.Name}
	})...), nil
}

func toView(community core.Community) core.CommunityView {
	return core.CommunityView{
		ID:               community.ID,
		Name:             community.Name,
		Description:      community.Description,
		CreatedAt:        community.CreatedAt,
		FollowerCount:    len(community.Followers),
		AutoPublishPosts: community.AutoPublishPosts,
		AverageRating:    rating.PostsAverage(community.Posts),
		BannerImage:      community.BannerImage,
		IconImage:        community.IconImage,
	}
}
