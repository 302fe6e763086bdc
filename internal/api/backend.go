package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"mindforum/internal/comments"
	"mindforum/internal/communities"
	"mindforum/internal/core"
	"mindforum/internal/moderation"
)

const maxImageSize = 10 << 20

type Backend struct {
	Logger *slog.Logger

	Directory  *communities.Directory
	Moderation *moderation.Manager
	Comments   *comments.Ledger
	Users      core.UserRepository
	Authz      core.AuthzResolver
	Images     core.ImageStore
}

func (b *Backend) Init(context.Context) error {
	b.Logger = b.Logger.With("component", "api.Backend")
	return nil
}

func (b *Backend) Mount(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Route("/communities", func(r chi.Router) {
			r.Get("/", b.listCommunities)
			r.Post("/", b.createCommunity)
			r.Get("/followed", b.listFollowedCommunities)

			r.Route("/{communityID}", func(r chi.Router) {
				r.Get("/", b.getCommunity)
				r.Patch("/", b.updateCommunity)
				r.Post("/banner", b.uploadBanner)
				r.Post("/icon", b.uploadIcon)
				r.Post("/follow", b.followCommunity)
				r.Delete("/follow", b.unfollowCommunity)

				r.Get("/admins", b.listAdmins)
				r.Post("/admins", b.addAdmin)
				r.Delete("/admins/{userID}", b.removeAdmin)

				r.Get("/posts", b.listCommunityPosts)
				r.Post("/posts", b.createPost)
				r.Get("/posts/unverified", b.listUnverifiedPosts)
				r.Post("/posts/{postID}/verify", b.verifyPost)
				r.Delete("/posts/{postID}", b.discardPost)

				r.Post("/topic-check", b.checkTopic)
			})
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", b.listAllPosts)

			r.Route("/{postID}", func(r chi.Router) {
				r.Delete("/", b.removePost)
				r.Put("/rating", b.ratePost)
				r.Get("/rating", b.getUserRating)
				r.Get("/comments", b.listComments)
				r.Post("/comments", b.createComment)
			})
		})

		r.Delete("/comments/{commentID}", b.deleteComment)

		r.Get("/users/{userID}", b.getUser)
		r.Patch("/users/me", b.updateUser)
	})
}

// Communities

func (b *Backend) createCommunity(w http.ResponseWriter, r *http.Request) {
	actor, ok := b.requireViewer(w, r)
	if !ok {
		return
	}

	var in core.CreateCommunity
	if !b.decode(w, r, &in) {
		return
	}

	view, err := b.Directory.Create(r.Context(), in, actor)
	if err != nil {
		b.writeError(w, r, err)
		return
	}
	b.writeJSON(w, r, http.StatusCreated, view)
}

func (b *Backend) listCommunities(w http.ResponseWriter, r *http.Request) {
	views, err := b.Directory.List(r.Context())
	if err != nil {
		b.writeError(w, r, err)
		return
	}
	b.writeJSON(w, r, http.StatusOK, views)
}

func (b *Backend) listFollowedCommunities(w http.ResponseWriter, r *http.Request) {
	actor, ok := b.requireViewer(w, r)
	if !ok {
		return
	}

	views, err := b.Directory.ListFollowed(r.Context(), actor)
	if err != nil {
		b.writeError(w, r, err)
		return
	}
	b.writeJSON(w, r, http.StatusOK, views)
}

func (b *Backend) getCommunity(w http.ResponseWriter, r *http.Request) {
	communityID, ok := b.pathID(w, r, "communityID")
	if !ok {
		return
	}

	view, err := b.Directory.Get(r.Context(), communityID)
	if err != nil {
		b.writeError(w, r, err)
		return
	}
	b.writeJSON(w, r, http.StatusOK, view)
}

func (b *Backend) updateCommunity(w http.ResponseWriter, r *http.Request) {
	communityID, ok := b.requireAdmin(w, r)
	if !ok {
		return
	}

	var in core.UpdateCommunity
	if !b.decode(w, r, &in) {
		return
	}

	if err := b.Directory.Update(r.Context(), communityID, in); err != nil {
		b.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) uploadBanner(w http.ResponseWriter, r *http.Request) {
	b.uploadCommunityImage(w, r, func(url string) core.UpdateCommunity {
		return core.UpdateCommunity{BannerImage: &url}
	})
}

func (b *Backend) uploadIcon(w http.ResponseWriter, r *http.Request) {
	b.uploadCommunityImage(w, r, func(url string) core.UpdateCommunity {
		return core.UpdateCommunity{IconImage: &url}
	})
}

func (b *Backend) uploadCommunityImage(w http.ResponseWriter, r *http.Request, patch func(url string) core.UpdateCommunity) {
	communityID, ok := b.requireAdmin(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		b.writeMessage(w, r, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		b.writeMessage(w, r, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize))
	if err != nil {
		b.writeError(w, r, err)
		return
	}

	url, err := b.Images.Upload(r.Context(), header.Filename, data)
	if err != nil {
		b.writeError(w, r, err)
		return
	}

	if err := b.Directory.Update(r.Context(), communityID, patch(url)); err != nil {
		b.writeError(w, r, err)
		return
	}

	b.writeJSON(w, r, http.StatusOK, map[string]string{"url": url})
}

func (b *Backend) followCommunity(w http.ResponseWriter, r *http.Request) {
	b.toggleFollow(w, r, b.Directory.Follow)
}

func (b *Backend) unfollowCommunity(w http.ResponseWriter, r *http.Request) {
	b.toggleFollow(w, r, b.Directory.Unfollow)
}

func (b *Backend) toggleFollow(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, communityID, userID int64) error) {
	actor, ok := b.requireViewer(w, r)
	if !ok {
		return
	}
	communityID, ok := b.pathID(w, r, "communityID")
	if !ok {
		return
	}

	if err := op(r.Context(), communityID, actor); err != nil {
		b.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Admin set

func (b *Backend) listAdmins(w http.ResponseWriter, r *http.Request) {
	communityID, ok := b.requireAdmin(w, r)
	if !ok {
		return
	}

	admins, err := b.Directory.Admins(r.Context(), communityID)
	if err != nil {
		b.writeError(w, r, err)
		return
	}
	b.writeJSON(w, r, http.StatusOK, admins)
}

func (b *Backend) addAdmin(w http.ResponseWriter, r *http.Request) {
	communityID, ok := b.requireAdmin(w, r)
	if !ok {
		return
	}

	var in struct {
		Username string `json:"username"`
	}
	if !b.decode(w, r, &in) {
		return
	}

	if err := b.Directory.AddAdmin(r.Context(), communityID, in.Username); err != nil {
		b.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) removeAdmin(w http.ResponseWriter, r *http.Request) {
	communityID, ok := b.requireAdmin(w, r)
	if !ok {
		return
	}
	userID, ok := b.pathID(w, r, "userID")
	if !ok {
		return
	}

	if err := b.Directory.RemoveAdmin(r.Context(), communityID, userID); err != nil {
		b.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Posts

func (b *Backend) listCommunityPosts(w http.ResponseWriter, r *http.Request) {
	communityID, ok := b.pathID(w, r, "communityID")
	if !ok {
		return
	}

	views, err := b.Moderation.PostsByCommunity(r.Context(), communityID, viewerID(r))
	if err != nil {
		b.writeError(w, r, err)
		return
	}
	b.writeJSON(w, r, http.StatusOK, views)
}

func (b *Backend) createPost(w http.ResponseWriter, r *http.Request) {
	actor, ok := b.requireViewer(w, r)
	if !ok {
		return
	}
	communityID, ok := b.pathID(w, r, "communityID")
	if !ok {
		return
	}

	var in core.CreatePost
	if !b.decode(w, r, &in) {
		return
	}
	if in.ParentNodeID == "" {
		in.ParentNodeID = core.RootNodeID
	}

	post, err := b.Moderation.CreatePost(r.Context(), in, communityID, actor)
	if err != nil {
		b.writeError(w, r, err)
		return
	}
	b.writeJSON(w, r, http.StatusCreated, moderation.View(*post))
}

func (b *Backend) listUnverifiedPosts(w http.ResponseWriter, r *http.Request) {
	communityID, ok := b.requireAdmin(w, r)
	if !ok {
		return
	}

	views, err := b.Moderation.UnverifiedPosts(r.Context(), communityID)
	if err != nil {
		b.writeError(w, r, err)
		return
	}
	b.writeJSON(w, r, http.StatusOK, views)
}

func (b *Backend) verifyPost(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.requireAdmin(w, r); !ok {
		return
	}
	postID, ok := b.pathID(w, r, "postID")
	if !ok {
		return
	}

	post, err := b.Moderation.VerifyPost(r.Context(), postID)
	if err != nil {
		b.writeError(w, r, err)
		return
	}
	b.writeJSON(w, r, http.StatusOK, moderation.View(*post))
}

func (b *Backend) discardPost(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.requireAdmin(w, r); !ok {
		return
	}
	postID, ok := b.pathID(w, r, "postID")
	if !ok {
		return
	}

	if err := b.Moderation.DiscardPost(r.Context(), postID); err != nil {
		b.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) checkTopic(w http.ResponseWriter, r *http.Request) {
	communityID, ok := b.pathID(w, r, "communityID")
	if !ok {
		return
	}

	var in struct {
		Content string `json:"content"`
	}
	if !b.decode(w, r, &in) {
		return
	}

	result, err := b.Moderation.CheckTopicMatch(r.Context(), communityID, in.Content)
	if err != nil {
		b.writeError(w, r, err)
		return
	}
	b.writeJSON(w, r, http.StatusOK, result)
}

func (b *Backend) listAllPosts(w http.ResponseWriter, r *http.Request) {
	views, err := b.Moderation.ListAll(r.Context())
	if err != nil {
		b.writeError(w, r, err)
		return
	}
	b.writeJSON(w, r, http.StatusOK, views)
}

func (b *Backend) removePost(w http.ResponseWriter, r *http.Request) {
	actor, ok := b.requireViewer(w, r)
	if !ok {
		return
	}
	postID, ok := b.pathID(w, r, "postID")
	if !ok {
		return
	}

	if err := b.Moderation.Remove(r.Context(), postID, actor); err != nil {
		b.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) ratePost(w http.ResponseWriter, r *http.Request) {
	actor, ok := b.requireViewer(w, r)
	if !ok {
		return
	}
	postID, ok := b.pathID(w, r, "postID")
	if !ok {
		return
	}

	var in struct {
		Rating int `json:"rating"`
	}
	if !b.decode(w, r, &in) {
		return
	}
	if in.Rating < 1 || in.Rating > 5 {
		b.writeMessage(w, r, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	if err := b.Moderation.Rate(r.Context(), postID, actor, in.Rating); err != nil {
		b.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) getUserRating(w http.ResponseWriter, r *http.Request) {
	actor, ok := b.requireViewer(w, r)
	if !ok {
		return
	}
	postID, ok := b.pathID(w, r, "postID")
	if !ok {
		return
	}

	value, err := b.Moderation.UserRating(r.Context(), postID, actor)
	if err != nil {
		b.writeError(w, r, err)
		return
	}
	b.writeJSON(w, r, http.StatusOK, map[string]*int{"rating": value})
}

// Comments

func (b *Backend) listComments(w http.ResponseWriter, r *http.Request) {
	postID, ok := b.pathID(w, r, "postID")
	if !ok {
		return
	}

	views, err := b.Comments.ListByPost(r.Context(), postID, viewerID(r))
	if err != nil {
		b.writeError(w, r, err)
		return
	}
	b.writeJSON(w, r, http.StatusOK, views)
}

func (b *Backend) createComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := b.requireViewer(w, r)
	if !ok {
		return
	}
	postID, ok := b.pathID(w, r, "postID")
	if !ok {
		return
	}

	var in struct {
		Content string `json:"content"`
	}
	if !b.decode(w, r, &in) {
		return
	}

	view, err := b.Comments.Create(r.Context(), postID, actor, in.Content)
	if err != nil {
		b.writeError(w, r, err)
		return
	}
	b.writeJSON(w, r, http.StatusCreated, view)
}

func (b *Backend) deleteComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := b.requireViewer(w, r)
	if !ok {
		return
	}
	commentID, ok := b.pathID(w, r, "commentID")
	if !ok {
		return
	}

	if err := b.Comments.Delete(r.Context(), commentID, actor); err != nil {
		b.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Users

func (b *Backend) getUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := b.pathID(w, r, "userID")
	if !ok {
		return
	}

	user, err := b.Users.Get(r.Context(), userID)
	if err != nil {
		b.writeError(w, r, err)
		return
	}

	b.writeJSON(w, r, http.StatusOK, core.UserView{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		ProfilePicture: user.ProfilePicture,
	})
}

func (b *Backend) updateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := b.requireViewer(w, r)
	if !ok {
		return
	}

	var in core.UpdateUser
	if !b.decode(w, r, &in) {
		return
	}

	fields := map[string]any{}
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.ProfilePicture != nil {
		fields["profile_picture"] = *in.ProfilePicture
	}

	if len(fields) > 0 {
		if err := b.Users.Update(r.Context(), actor, fields); err != nil {
			b.writeError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// Helpers

// requireViewer rejects anonymous callers.
func (b *Backend) requireViewer(w http.ResponseWriter, r *http.Request) (int64, bool) {
	viewer := viewerID(r)
	if viewer == nil {
		b.writeMessage(w, r, http.StatusUnauthorized, "authentication required")
		return 0, false
	}
	return *viewer, true
}

// requireAdmin gates community-management endpoints on owner-or-admin
// privilege for the {communityID} in the path.
func (b *Backend) requireAdmin(w http.ResponseWriter, r *http.Request) (int64, bool) {
	actor, ok := b.requireViewer(w, r)
	if !ok {
		return 0, false
	}
	communityID, ok := b.pathID(w, r, "communityID")
	if !ok {
		return 0, false
	}

	privileged, err := b.Authz.IsPrivileged(r.Context(), actor, communityID)
	if err != nil {
		b.writeError(w, r, err)
		return 0, false
	}
	if !privileged {
		b.writeMessage(w, r, http.StatusUnauthorized, "only community administrators can perform this action")
		return 0, false
	}
	return communityID, true
}

func (b *Backend) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		b.writeMessage(w, r, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func (b *Backend) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		b.writeMessage(w, r, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (b *Backend) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		b.Logger.Error("failed to encode response", "path", r.URL.Path, "error", err)
	}
}

func (b *Backend) writeMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	b.writeJSON(w, r, status, map[string]string{"message": message})
}

func (b *Backend) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, core.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, core.ErrUnauthorized):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		b.Logger.Error("request failed", "path", r.URL.Path, "error", err)
		b.writeMessage(w, r, status, "Internal Server Error")
		return
	}
	b.writeMessage(w, r, status, err.Error())
}
