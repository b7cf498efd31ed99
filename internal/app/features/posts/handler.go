// internal/app/features/posts/handler.go
package posts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	membershipstore "github.com/dalemusser/workhive/internal/app/store/memberships"
	postlinkstore "github.com/dalemusser/workhive/internal/app/store/postlinks"
	poststore "github.com/dalemusser/workhive/internal/app/store/posts"
	workspacestore "github.com/dalemusser/workhive/internal/app/store/workspaces"
	"github.com/dalemusser/workhive/internal/app/system/apierror"
	"github.com/dalemusser/workhive/internal/app/system/auth"
	"github.com/dalemusser/workhive/internal/app/system/htmlsanitize"
	"github.com/dalemusser/workhive/internal/app/system/timeouts"
	"github.com/dalemusser/workhive/internal/domain/models"
)

type Handler struct {
	DB          *mongo.Database
	Log         *zap.Logger
	Posts       *poststore.Store
	Links       *postlinkstore.Store
	Workspaces  *workspacestore.Store
	Memberships *membershipstore.Store

	errs *apierror.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:          db,
		Log:         logger,
		Posts:       poststore.New(db),
		Links:       postlinkstore.New(db),
		Workspaces:  workspacestore.New(db),
		Memberships: membershipstore.New(db),
		errs:        apierror.NewLogger(logger),
	}
}

// requireMember checks that the workspace row exists and that the
// caller is a member before any post read or write proceeds. A deleted
// workspace reports not found even when stale links remain.
func (h *Handler) requireMember(ctx context.Context, w http.ResponseWriter, r *http.Request, workspaceID, userID primitive.ObjectID) bool {
	if _, err := h.Workspaces.GetByID(ctx, workspaceID); err != nil {
		if errors.Is(err, workspacestore.ErrNotFound) {
			apierror.Write(w, apierror.NotFound("workspace not found"))
			return false
		}
		h.errs.ServerError(w, r, "load workspace", err)
		return false
	}
	if _, err := h.Memberships.Get(ctx, workspaceID, userID); err != nil {
		if errors.Is(err, membershipstore.ErrNotFound) {
			apierror.Write(w, apierror.Forbidden("not a member of this workspace"))
			return false
		}
		h.errs.ServerError(w, r, "load membership", err)
		return false
	}
	return true
}

// ServeListForWorkspace handles GET /workspaces/{workspaceID}/posts.
func (h *Handler) ServeListForWorkspace(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentPrincipal(r)

	workspaceID, ok := workspaceIDParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if !h.requireMember(ctx, w, r, workspaceID, p.ID) {
		return
	}

	links, err := h.Links.ListForWorkspace(ctx, workspaceID)
	if err != nil {
		h.errs.ServerError(w, r, "list post links", err)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.PostID)
	}

	posts, err := h.Posts.GetByIDs(ctx, ids)
	if err != nil {
		h.errs.ServerError(w, r, "load posts", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

// ServeCreate handles POST /workspaces/{workspaceID}/posts.
//
// Like workspace creation, the post row and its workspace link are one
// logical unit; a failed link insert deletes the post row again.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentPrincipal(r)

	workspaceID, ok := workspaceIDParam(w, r)
	if !ok {
		return
	}

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		apierror.Write(w, apierror.BadRequest("post title is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if !h.requireMember(ctx, w, r, workspaceID, p.ID) {
		return
	}

	post, err := h.Posts.Create(ctx, models.Post{
		OwnerID: p.ID,
		Title:   req.Title,
		Content: htmlsanitize.Sanitize(req.Content),
	})
	if err != nil {
		h.errs.ServerError(w, r, "create post", err)
		return
	}

	if _, err := h.Links.Create(ctx, post.ID, workspaceID); err != nil {
		if _, delErr := h.Posts.Delete(ctx, post.ID); delErr != nil {
			h.Log.Error("failed to compensate post after link error",
				zap.String("post_id", post.ID.Hex()), zap.Error(delErr))
		}
		h.errs.ServerError(w, r, "link post to workspace", err)
		return
	}

	h.Log.Info("post created",
		zap.String("post_id", post.ID.Hex()),
		zap.String("workspace_id", workspaceID.Hex()),
		zap.String("owner_id", p.ID.Hex()))
	writeJSON(w, http.StatusCreated, post)
}

// ServeUpdate handles PATCH /posts/{postID}. Only the post's owner may
// edit it; fields left empty keep their stored values.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentPrincipal(r)

	postID, ok := postIDParam(w, r)
	if !ok {
		return
	}

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" && req.Content == "" {
		apierror.Write(w, apierror.BadRequest("nothing to update"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	post, ok := h.loadOwnedPost(ctx, w, r, postID, p.ID)
	if !ok {
		return
	}

	if err := h.Posts.Update(ctx, post.ID, models.Post{
		Title:   req.Title,
		Content: htmlsanitize.Sanitize(req.Content),
	}); err != nil {
		if errors.Is(err, poststore.ErrNotFound) {
			apierror.Write(w, apierror.NotFound("post not found"))
			return
		}
		h.errs.ServerError(w, r, "update post", err)
		return
	}

	updated, err := h.Posts.GetByID(ctx, post.ID)
	if err != nil {
		h.errs.ServerError(w, r, "reload post", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// ServeDelete handles DELETE /posts/{postID}. Only the post's owner may
// delete it; the workspace link goes with the row.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentPrincipal(r)

	postID, ok := postIDParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	post, ok := h.loadOwnedPost(ctx, w, r, postID, p.ID)
	if !ok {
		return
	}

	if _, err := h.Posts.Delete(ctx, post.ID); err != nil {
		h.errs.ServerError(w, r, "delete post", err)
		return
	}
	if _, err := h.Links.DeleteByPost(ctx, post.ID); err != nil {
		h.errs.ServerError(w, r, "delete post link", err)
		return
	}

	h.Log.Info("post deleted",
		zap.String("post_id", post.ID.Hex()),
		zap.String("owner_id", p.ID.Hex()))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Post deleted."})
}

// loadOwnedPost fetches the post and rejects callers who do not own it.
func (h *Handler) loadOwnedPost(ctx context.Context, w http.ResponseWriter, r *http.Request, postID, userID primitive.ObjectID) (models.Post, bool) {
	post, err := h.Posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, poststore.ErrNotFound) {
			apierror.Write(w, apierror.NotFound("post not found"))
			return models.Post{}, false
		}
		h.errs.ServerError(w, r, "load post", err)
		return models.Post{}, false
	}
	if post.OwnerID != userID {
		apierror.Write(w, apierror.Forbidden("only the post owner may do that"))
		return models.Post{}, false
	}
	return post, true
}

func workspaceIDParam(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "workspaceID"))
	if err != nil {
		apierror.Write(w, apierror.BadRequest("invalid workspace id"))
		return primitive.NilObjectID, false
	}
	return id, true
}

func postIDParam(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "postID"))
	if err != nil {
		apierror.Write(w, apierror.BadRequest("invalid post id"))
		return primitive.NilObjectID, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
