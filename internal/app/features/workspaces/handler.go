// internal/app/features/workspaces/handler.go
package workspaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	membershipstore "github.com/dalemusser/workhive/internal/app/store/memberships"
	"github.com/dalemusser/workhive/internal/app/store/queries/workspacecascade"
	userstore "github.com/dalemusser/workhive/internal/app/store/users"
	workspacestore "github.com/dalemusser/workhive/internal/app/store/workspaces"
	"github.com/dalemusser/workhive/internal/app/system/apierror"
	"github.com/dalemusser/workhive/internal/app/system/auth"
	"github.com/dalemusser/workhive/internal/app/system/invitetoken"
	"github.com/dalemusser/workhive/internal/app/system/normalize"
	"github.com/dalemusser/workhive/internal/app/system/timeouts"
	"github.com/dalemusser/workhive/internal/domain/models"
)

type Handler struct {
	DB          *mongo.Database
	Log         *zap.Logger
	Workspaces  *workspacestore.Store
	Memberships *membershipstore.Store
	Users       *userstore.Store

	errs *apierror.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:          db,
		Log:         logger,
		Workspaces:  workspacestore.New(db),
		Memberships: membershipstore.New(db),
		Users:       userstore.New(db),
		errs:        apierror.NewLogger(logger),
	}
}

// workspaceWithRole pairs a workspace with the caller's role in it.
type workspaceWithRole struct {
	models.Workspace
	Role string `json:"role"`
}

// ServeCreate handles POST /workspaces.
//
// The workspace row and the creator's owner membership are one logical
// unit. There are no transactions, so if the membership insert fails
// the workspace row is deleted again rather than left ownerless.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentPrincipal(r)

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		ImageURL    string `json:"image_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	if normalize.Name(req.Name) == "" {
		apierror.Write(w, apierror.BadRequest("workspace name is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ws, err := h.Workspaces.Create(ctx, models.Workspace{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     p.ID,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		h.errs.ServerError(w, r, "create workspace", err)
		return
	}

	if _, err := h.Memberships.Add(ctx, ws.ID, p.ID, models.RoleOwner); err != nil {
		if _, delErr := h.Workspaces.Delete(ctx, ws.ID); delErr != nil {
			h.Log.Error("failed to compensate workspace after membership error",
				zap.String("workspace_id", ws.ID.Hex()), zap.Error(delErr))
		}
		h.errs.ServerError(w, r, "create owner membership", err)
		return
	}

	h.Log.Info("workspace created",
		zap.String("workspace_id", ws.ID.Hex()),
		zap.String("owner_id", p.ID.Hex()))
	writeJSON(w, http.StatusCreated, workspaceWithRole{Workspace: ws, Role: models.RoleOwner})
}

// ServeList handles GET /workspaces: the caller's workspaces with
// their role in each. Memberships pointing at a workspace row that no
// longer exists are leftovers of a partial delete and are silently
// skipped.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentPrincipal(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	members, err := h.Memberships.ListForUser(ctx, p.ID)
	if err != nil {
		h.errs.ServerError(w, r, "list memberships", err)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(members))
	roleByWS := make(map[primitive.ObjectID]string, len(members))
	for _, m := range members {
		ids = append(ids, m.WorkspaceID)
		roleByWS[m.WorkspaceID] = m.Role
	}

	found, err := h.Workspaces.GetByIDs(ctx, ids)
	if err != nil {
		h.errs.ServerError(w, r, "load workspaces", err)
		return
	}

	list := make([]workspaceWithRole, 0, len(found))
	for _, ws := range found {
		list = append(list, workspaceWithRole{Workspace: ws, Role: roleByWS[ws.ID]})
	}

	writeJSON(w, http.StatusOK, map[string]any{"workspaces": list})
}

// ServeUpdate handles PATCH /workspaces/{workspaceID}. Owners and
// admins only. Empty fields are left unchanged, so a body with nothing
// to change is rejected up front.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentPrincipal(r)

	wsID, ok := workspaceIDParam(w, r)
	if !ok {
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		ImageURL    string `json:"image_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	if normalize.Name(req.Name) == "" && req.Description == "" && req.ImageURL == "" {
		apierror.Write(w, apierror.BadRequest("nothing to update"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	m, err := h.Memberships.Get(ctx, wsID, p.ID)
	if err != nil {
		if err == membershipstore.ErrNotFound {
			apierror.Write(w, apierror.Forbidden("You are not a member of this workspace."))
			return
		}
		h.errs.ServerError(w, r, "load membership for update", err)
		return
	}
	if !models.CanManage(m.Role) {
		apierror.Write(w, apierror.Forbidden("Only owners and admins can edit the workspace."))
		return
	}

	upd := models.Workspace{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}
	if err := h.Workspaces.Update(ctx, wsID, upd); err != nil {
		if err == workspacestore.ErrNotFound {
			apierror.Write(w, apierror.NotFound("Workspace not found."))
			return
		}
		h.errs.ServerError(w, r, "update workspace", err)
		return
	}

	ws, err := h.Workspaces.GetByID(ctx, wsID)
	if err != nil {
		h.errs.ServerError(w, r, "reload workspace after update", err)
		return
	}

	h.Log.Info("workspace updated",
		zap.String("workspace_id", wsID.Hex()),
		zap.String("by_user_id", p.ID.Hex()))
	writeJSON(w, http.StatusOK, workspaceWithRole{Workspace: ws, Role: m.Role})
}

// memberProfile is a roster entry: the member's public profile plus
// their role and join date in this workspace.
type memberProfile struct {
	models.User
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// ServeMembers handles GET /workspaces/{workspaceID}/members. Any
// member may see the roster. Memberships whose user row no longer
// exists are skipped.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentPrincipal(r)

	wsID, ok := workspaceIDParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Workspaces.GetByID(ctx, wsID); err != nil {
		if err == workspacestore.ErrNotFound {
			apierror.Write(w, apierror.NotFound("Workspace not found."))
			return
		}
		h.errs.ServerError(w, r, "load workspace for roster", err)
		return
	}

	if _, err := h.Memberships.Get(ctx, wsID, p.ID); err != nil {
		if err == membershipstore.ErrNotFound {
			apierror.Write(w, apierror.Forbidden("You are not a member of this workspace."))
			return
		}
		h.errs.ServerError(w, r, "load membership for roster", err)
		return
	}

	members, err := h.Memberships.ListForWorkspace(ctx, wsID)
	if err != nil {
		h.errs.ServerError(w, r, "list workspace members", err)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	users, err := h.Users.GetByIDs(ctx, ids)
	if err != nil {
		h.errs.ServerError(w, r, "load member profiles", err)
		return
	}
	userByID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		userByID[u.ID] = u
	}

	roster := make([]memberProfile, 0, len(members))
	for _, m := range members {
		u, ok := userByID[m.UserID]
		if !ok {
			continue
		}
		roster = append(roster, memberProfile{User: u, Role: m.Role, JoinedAt: m.CreatedAt})
	}

	writeJSON(w, http.StatusOK, map[string]any{"members": roster})
}

// ServeInvite handles POST /workspaces/{workspaceID}/invite. Owners
// and admins only. A new token always replaces the previous one, so a
// workspace never has more than one live invite.
func (h *Handler) ServeInvite(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentPrincipal(r)

	wsID, ok := workspaceIDParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	m, err := h.Memberships.Get(ctx, wsID, p.ID)
	if err != nil {
		if err == membershipstore.ErrNotFound {
			apierror.Write(w, apierror.Forbidden("You are not a member of this workspace."))
			return
		}
		h.errs.ServerError(w, r, "load membership for invite", err)
		return
	}
	if !models.CanInvite(m.Role) {
		apierror.Write(w, apierror.Forbidden("Only owners and admins can create invites."))
		return
	}

	tok, err := invitetoken.Generate()
	if err != nil {
		h.errs.ServerError(w, r, "generate invite token", err)
		return
	}

	if err := h.Workspaces.SetInvite(ctx, wsID, tok.Value, tok.ExpiresAt); err != nil {
		if err == workspacestore.ErrNotFound {
			apierror.Write(w, apierror.NotFound("Workspace not found."))
			return
		}
		h.errs.ServerError(w, r, "store invite token", err)
		return
	}

	h.Log.Info("invite token generated",
		zap.String("workspace_id", wsID.Hex()),
		zap.String("by_user_id", p.ID.Hex()))
	writeJSON(w, http.StatusCreated, map[string]any{
		"token":     tok.Value,
		"expiresAt": tok.ExpiresAt.Format(time.RFC3339),
	})
}

// ServeJoin handles POST /workspaces/join.
//
// An expired token is tombstoned the moment a redemption attempt sees
// it: the token fields are nulled so later attempts get 404 instead of
// another expiry check. Valid tokens stay redeemable by anyone holding
// them until they expire.
func (h *Handler) ServeJoin(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentPrincipal(r)

	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || normalize.InviteToken(req.Token) == "" {
		apierror.Write(w, apierror.BadRequest("token is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ws, err := h.Workspaces.GetByInviteToken(ctx, req.Token)
	if err != nil {
		if err == workspacestore.ErrInviteNotFound {
			apierror.Write(w, apierror.NotFound("Invite token not found."))
			return
		}
		h.errs.ServerError(w, r, "look up invite token", err)
		return
	}

	if !ws.HasActiveInvite(time.Now().UTC()) {
		if err := h.Workspaces.ClearInvite(ctx, ws.ID, req.Token); err != nil {
			h.Log.Warn("failed to tombstone expired invite",
				zap.String("workspace_id", ws.ID.Hex()), zap.Error(err))
		}
		apierror.Write(w, apierror.InviteExpired())
		return
	}

	if _, err := h.Memberships.Add(ctx, ws.ID, p.ID, models.RoleMember); err != nil {
		if err == membershipstore.ErrDuplicate {
			apierror.Write(w, apierror.Conflict("You are already a member of this workspace."))
			return
		}
		h.errs.ServerError(w, r, "add membership on join", err)
		return
	}

	h.Log.Info("user joined workspace",
		zap.String("workspace_id", ws.ID.Hex()),
		zap.String("user_id", p.ID.Hex()))
	writeJSON(w, http.StatusCreated, workspaceWithRole{Workspace: ws, Role: models.RoleMember})
}

// ServeLeave handles DELETE /workspaces/{workspaceID}/membership.
// Owners cannot leave their own workspace; they delete it instead.
func (h *Handler) ServeLeave(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentPrincipal(r)

	wsID, ok := workspaceIDParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	m, err := h.Memberships.Get(ctx, wsID, p.ID)
	if err == nil && m.Role == models.RoleOwner {
		apierror.Write(w, apierror.Forbidden("Owners cannot leave their workspace; delete it instead."))
		return
	}
	if err != nil && err != membershipstore.ErrNotFound {
		h.errs.ServerError(w, r, "load membership for leave", err)
		return
	}

	removed, err := h.Memberships.Remove(ctx, wsID, p.ID)
	if err != nil {
		h.errs.ServerError(w, r, "remove membership", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

// ServeDelete handles DELETE /workspaces/{workspaceID}. Owner only.
// The cascade runs in stages; a stage failure reports which stage so
// the client can retry the same call to finish the job.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentPrincipal(r)

	wsID, ok := workspaceIDParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	m, err := h.Memberships.Get(ctx, wsID, p.ID)
	if err != nil {
		if err == membershipstore.ErrNotFound {
			apierror.Write(w, apierror.NotFound("Workspace not found."))
			return
		}
		h.errs.ServerError(w, r, "load membership for delete", err)
		return
	}
	if m.Role != models.RoleOwner {
		apierror.Write(w, apierror.Forbidden("Only the owner can delete a workspace."))
		return
	}

	res, err := workspacecascade.Delete(ctx, h.DB, wsID)
	if err != nil {
		var stageErr *workspacecascade.StageError
		if errors.As(err, &stageErr) {
			h.Log.Error("workspace delete stopped mid-cascade",
				zap.String("workspace_id", wsID.Hex()),
				zap.String("stage", stageErr.Stage),
				zap.Error(stageErr.Err))
			apierror.Write(w, apierror.Partial(stageErr.Stage))
			return
		}
		h.errs.ServerError(w, r, "delete workspace", err)
		return
	}

	h.Log.Info("workspace deleted",
		zap.String("workspace_id", wsID.Hex()),
		zap.Int64("posts_deleted", res.PostsDeleted),
		zap.Int64("memberships_deleted", res.MembershipsDeleted))
	writeJSON(w, http.StatusOK, map[string]any{"message": "Workspace deleted."})
}

// workspaceIDParam parses the {workspaceID} URL parameter, writing a
// 400 when it is not a valid ObjectID.
func workspaceIDParam(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "workspaceID"))
	if err != nil {
		apierror.Write(w, apierror.BadRequest("invalid workspace id"))
		return primitive.NilObjectID, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
