// Package authz decides whether an actor holds community privilege.
package authz

import (
	"context"
	"log/slog"

	"github.com/samber/lo"

	"mindforum/internal/core"
)

// Resolver answers the owner-or-admin question. It is the only privilege
// primitive in the service; post removal, comment deletion, visibility
// filtering and admin-set mutation all go through it.
type Resolver struct {
	Logger      *slog.Logger
	Communities core.CommunityRepository
}

func (r *Resolver) Init(_ context.Context) error {
	r.Logger = r.Logger.With("component", "authz.Resolver")
	return nil
}

// IsPrivileged reports whether the user owns the community or sits in its
// admin set. A missing community surfaces as ErrCommunityNotFound rather
// than false.
func (r *Resolver) IsPrivileged(ctx context.Context, userID, communityID int64) (bool, error) {
	community, err := r.Communities.GetWithAdmins(ctx, communityID)
	if err != nil {
		return false, err
	}

	if community.OwnerID == userID {
		return true, nil
	}

	return lo.ContainsBy(community.Admins, func(admin *core.User) bool {
		return admin.ID == userID
	}), nil
}
