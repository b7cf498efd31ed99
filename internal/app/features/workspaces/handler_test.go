package workspaces_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/workhive/internal/app/features/workspaces"
	membershipstore "github.com/dalemusser/workhive/internal/app/store/memberships"
	workspacestore "github.com/dalemusser/workhive/internal/app/store/workspaces"
	"github.com/dalemusser/workhive/internal/domain/models"
	"github.com/dalemusser/workhive/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*workspaces.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return workspaces.NewHandler(db, zap.NewNop()), db
}

func errCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error body: %v (%s)", err, rec.Body.String())
	}
	return body.Code
}

func TestServeCreate(t *testing.T) {
	h, db := newTestHandler(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "Founder", "founder@example.com", "hash")

	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/workspaces",
		strings.NewReader(`{"name":"Design Team","description":"where designs happen"}`), u)
	rec := httptest.NewRecorder()
	h.ServeCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201 (%s)", rec.Code, rec.Body.String())
	}

	var body struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Role string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Name != "Design Team" {
		t.Errorf("name: got %q", body.Name)
	}
	if body.Role != models.RoleOwner {
		t.Errorf("role: got %q, want owner", body.Role)
	}

	// The owner membership must exist.
	wsID, err := primitive.ObjectIDFromHex(body.ID)
	if err != nil {
		t.Fatalf("bad workspace id in response: %v", err)
	}
	m, err := membershipstore.New(db).Get(ctx, wsID, u.ID)
	if err != nil {
		t.Fatalf("expected owner membership: %v", err)
	}
	if m.Role != models.RoleOwner {
		t.Errorf("membership role: got %q, want owner", m.Role)
	}
}

func TestServeCreate_MissingName(t *testing.T) {
	h, db := newTestHandler(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "Founder", "founder@example.com", "hash")

	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/workspaces",
		strings.NewReader(`{"name":"   "}`), u)
	rec := httptest.NewRecorder()
	h.ServeCreate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}

func TestServeList_FiltersTombstones(t *testing.T) {
	h, db := newTestHandler(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "Member", "member@example.com", "hash")
	live := fx.CreateWorkspace(ctx, "Live", u.ID)
	fx.CreateMembership(ctx, live.ID, u.ID, models.RoleOwner)

	// A membership whose workspace row was removed by a partial delete.
	fx.CreateMembership(ctx, primitive.NewObjectID(), u.ID, models.RoleMember)

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/workspaces", nil, u)
	rec := httptest.NewRecorder()
	h.ServeList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rec.Code, rec.Body.String())
	}

	var body struct {
		Workspaces []struct {
			ID   string `json:"id"`
			Role string `json:"role"`
		} `json:"workspaces"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Workspaces) != 1 {
		t.Fatalf("expected 1 workspace, got %d", len(body.Workspaces))
	}
	if body.Workspaces[0].ID != live.ID.Hex() {
		t.Error("expected the live workspace")
	}
	if body.Workspaces[0].Role != models.RoleOwner {
		t.Errorf("role: got %q, want owner", body.Workspaces[0].Role)
	}
}

func TestServeInvite(t *testing.T) {
	h, db := newTestHandler(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "Owner", "owner@example.com", "hash")
	ws := fx.CreateWorkspace(ctx, "Inviting", owner.ID)
	fx.CreateMembership(ctx, ws.ID, owner.ID, models.RoleOwner)

	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/workspaces/"+ws.ID.Hex()+"/invite", nil, owner)
	req = testutil.WithChiURLParam(req, "workspaceID", ws.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServeInvite(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201 (%s)", rec.Code, rec.Body.String())
	}

	var body struct {
		Token     string `json:"token"`
		ExpiresAt string `json:"expiresAt"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Token) != 12 {
		t.Errorf("token length: got %d, want 12", len(body.Token))
	}
	for _, c := range body.Token {
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			t.Errorf("token contains invalid character %q", c)
		}
	}
	exp, err := time.Parse(time.RFC3339, body.ExpiresAt)
	if err != nil {
		t.Fatalf("bad expiresAt: %v", err)
	}
	until := time.Until(exp)
	if until < 23*time.Hour || until > 25*time.Hour {
		t.Errorf("expected ~24h expiry, got %v", until)
	}

	// The token is stored on the workspace document.
	stored, err := workspacestore.New(db).GetByInviteToken(ctx, body.Token)
	if err != nil {
		t.Fatalf("GetByInviteToken failed: %v", err)
	}
	if stored.ID != ws.ID {
		t.Error("expected token to resolve to the workspace")
	}
}

func TestServeInvite_MemberForbidden(t *testing.T) {
	h, db := newTestHandler(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "Owner", "owner@example.com", "hash")
	member := fx.CreateUser(ctx, "Member", "member@example.com", "hash")
	outsider := fx.CreateUser(ctx, "Outsider", "outsider@example.com", "hash")
	ws := fx.CreateWorkspace(ctx, "Guarded", owner.ID)
	fx.CreateMembership(ctx, ws.ID, owner.ID, models.RoleOwner)
	fx.CreateMembership(ctx, ws.ID, member.ID, models.RoleMember)

	for _, u := range []models.User{member, outsider} {
		req := testutil.NewAuthenticatedRequest(http.MethodPost, "/workspaces/"+ws.ID.Hex()+"/invite", nil, u)
		req = testutil.WithChiURLParam(req, "workspaceID", ws.ID.Hex())
		rec := httptest.NewRecorder()
		h.ServeInvite(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("%s: status got %d, want 403", u.Email, rec.Code)
		}
	}
}

func TestServeInvite_AdminAllowed(t *testing.T) {
	h, db := newTestHandler(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "Owner", "owner@example.com", "hash")
	admin := fx.CreateUser(ctx, "Admin", "admin@example.com", "hash")
	ws := fx.CreateWorkspace(ctx, "Shared", owner.ID)
	fx.CreateMembership(ctx, ws.ID, owner.ID, models.RoleOwner)
	fx.CreateMembership(ctx, ws.ID, admin.ID, models.RoleAdmin)

	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/workspaces/"+ws.ID.Hex()+"/invite", nil, admin)
	req = testutil.WithChiURLParam(req, "workspaceID", ws.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServeInvite(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status: got %d, want 201", rec.Code)
	}
}

func TestServeInvite_ReplacesPrevious(t *testing.T) {
	h, db := newTestHandler(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "Owner", "owner@example.com", "hash")
	ws := fx.CreateWorkspaceWithInvite(ctx, "Rotating", owner.ID, "OLDTOKEN1234", time.Now().Add(time.Hour))
	fx.CreateMembership(ctx, ws.ID, owner.ID, models.RoleOwner)

	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/workspaces/"+ws.ID.Hex()+"/invite", nil, owner)
	req = testutil.WithChiURLParam(req, "workspaceID", ws.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServeInvite(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201", rec.Code)
	}

	if _, err := workspacestore.New(db).GetByInviteToken(ctx, "OLDTOKEN1234"); err != workspacestore.ErrInviteNotFound {
		t.Errorf("expected old token to be replaced, got %v", err)
	}
}

func joinRequest(u models.User, token string) *http.Request {
	return testutil.NewAuthenticatedRequest(http.MethodPost, "/workspaces/join",
		strings.NewReader(fmt.Sprintf(`{"token":%q}`, token)), u)
}

func TestServeJoin(t *testing.T) {
	h, db := newTestHandler(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "Owner", "owner@example.com", "hash")
	joiner := fx.CreateUser(ctx, "Joiner", "joiner@example.com", "hash")
	ws := fx.CreateWorkspaceWithInvite(ctx, "Open Door", owner.ID, "JOINTOKEN123", time.Now().Add(time.Hour))
	fx.CreateMembership(ctx, ws.ID, owner.ID, models.RoleOwner)

	rec := httptest.NewRecorder()
	h.ServeJoin(rec, joinRequest(joiner, "JOINTOKEN123"))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201 (%s)", rec.Code, rec.Body.String())
	}

	m, err := membershipstore.New(db).Get(ctx, ws.ID, joiner.ID)
	if err != nil {
		t.Fatalf("expected membership: %v", err)
	}
	if m.Role != models.RoleMember {
		t.Errorf("role: got %q, want member", m.Role)
	}

	// The token survives redemption; a second user can still join.
	second := fx.CreateUser(ctx, "Second", "second@example.com", "hash")
	rec = httptest.NewRecorder()
	h.ServeJoin(rec, joinRequest(second, "JOINTOKEN123"))
	if rec.Code != http.StatusCreated {
		t.Errorf("second join: got %d, want 201", rec.Code)
	}
}

func TestServeJoin_DoubleJoinConflict(t *testing.T) {
	h, db := newTestHandler(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "Owner", "owner@example.com", "hash")
	joiner := fx.CreateUser(ctx, "Joiner", "joiner@example.com", "hash")
	ws := fx.CreateWorkspaceWithInvite(ctx, "Once Only", owner.ID, "JOINTOKEN123", time.Now().Add(time.Hour))
	fx.CreateMembership(ctx, ws.ID, owner.ID, models.RoleOwner)
	fx.CreateMembership(ctx, ws.ID, joiner.ID, models.RoleMember)

	rec := httptest.NewRecorder()
	h.ServeJoin(rec, joinRequest(joiner, "JOINTOKEN123"))

	if rec.Code != http.StatusConflict {
		t.Errorf("status: got %d, want 409", rec.Code)
	}
}

func TestServeJoin_ExpiredTombstones(t *testing.T) {
	h, db := newTestHandler(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "Owner", "owner@example.com", "hash")
	joiner := fx.CreateUser(ctx, "Joiner", "joiner@example.com", "hash")
	ws := fx.CreateWorkspaceWithInvite(ctx, "Stale", owner.ID, "EXPIREDTOK12", time.Now().Add(-time.Minute))
	fx.CreateMembership(ctx, ws.ID, owner.ID, models.RoleOwner)

	rec := httptest.NewRecorder()
	h.ServeJoin(rec, joinRequest(joiner, "EXPIREDTOK12"))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401 (%s)", rec.Code, rec.Body.String())
	}
	if code := errCode(t, rec); code != "invite_expired" {
		t.Errorf("code: got %q, want invite_expired", code)
	}

	// The token fields are nulled, so the next attempt is a plain 404.
	stored, err := workspacestore.New(db).GetByID(ctx, ws.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.InviteToken != nil || stored.InviteExpiresAt != nil {
		t.Error("expected invite fields to be tombstoned")
	}

	rec = httptest.NewRecorder()
	h.ServeJoin(rec, joinRequest(joiner, "EXPIREDTOK12"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("retry status: got %d, want 404", rec.Code)
	}
}

func TestServeJoin_UnknownToken(t *testing.T) {
	h, db := newTestHandler(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	joiner := fx.CreateUser(ctx, "Joiner", "joiner@example.com", "hash")

	rec := httptest.NewRecorder()
	h.ServeJoin(rec, joinRequest(joiner, "NOSUCHTOKEN1"))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}

func TestServeLeave(t *testing.T) {
	h, db := newTestHandler(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "Owner", "owner@example.com", "hash")
	member := fx.CreateUser(ctx, "Member", "member@example.com", "hash")
	ws := fx.CreateWorkspace(ctx, "Leavable", owner.ID)
	fx.CreateMembership(ctx, ws.ID, owner.ID, models.RoleOwner)
	fx.CreateMembership(ctx, ws.ID, member.ID, models.RoleMember)

	req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/workspaces/"+ws.ID.Hex()+"/membership", nil, member)
	req = testutil.WithChiURLParam(req, "workspaceID", ws.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServeLeave(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	var body struct {
		Removed bool `json:"removed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !body.Removed {
		t.Error("expected removed=true")
	}

	// Leaving again reports removed=false.
	req = testutil.NewAuthenticatedRequest(http.MethodDelete, "/workspaces/"+ws.ID.Hex()+"/membership", nil, member)
	req = testutil.WithChiURLParam(req, "workspaceID", ws.ID.Hex())
	rec = httptest.NewRecorder()
	h.ServeLeave(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("repeat status: got %d, want 200", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Removed {
		t.Error("expected removed=false on repeat")
	}
}

func TestServeLeave_OwnerForbidden(t *testing.T) {
	h, db := newTestHandler(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "Owner", "owner@example.com", "hash")
	ws := fx.CreateWorkspace(ctx, "Stuck", owner.ID)
	fx.CreateMembership(ctx, ws.ID, owner.ID, models.RoleOwner)

	req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/workspaces/"+ws.ID.Hex()+"/membership", nil, owner)
	req = testutil.WithChiURLParam(req, "workspaceID", ws.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServeLeave(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rec.Code)
	}
}

func TestServeDelete(t *testing.T) {
	h, db := newTestHandler(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "Owner", "owner@example.com", "hash")
	member := fx.CreateUser(ctx, "Member", "member@example.com", "hash")
	ws := fx.CreateWorkspace(ctx, "Doomed", owner.ID)
	fx.CreateMembership(ctx, ws.ID, owner.ID, models.RoleOwner)
	fx.CreateMembership(ctx, ws.ID, member.ID, models.RoleMember)
	p := fx.CreatePost(ctx, member.ID, "Post", "body")
	fx.CreatePostLink(ctx, p.ID, ws.ID)

	req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/workspaces/"+ws.ID.Hex(), nil, owner)
	req = testutil.WithChiURLParam(req, "workspaceID", ws.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServeDelete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rec.Code, rec.Body.String())
	}

	if _, err := workspacestore.New(db).GetByID(ctx, ws.ID); err != workspacestore.ErrNotFound {
		t.Errorf("expected workspace gone, got %v", err)
	}
	if _, err := membershipstore.New(db).Get(ctx, ws.ID, member.ID); err != membershipstore.ErrNotFound {
		t.Errorf("expected memberships gone, got %v", err)
	}
}

func TestServeDelete_NonOwnerForbidden(t *testing.T) {
	h, db := newTestHandler(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "Owner", "owner@example.com", "hash")
	admin := fx.CreateUser(ctx, "Admin", "admin@example.com", "hash")
	ws := fx.CreateWorkspace(ctx, "Guarded", owner.ID)
	fx.CreateMembership(ctx, ws.ID, owner.ID, models.RoleOwner)
	fx.CreateMembership(ctx, ws.ID, admin.ID, models.RoleAdmin)

	req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/workspaces/"+ws.ID.Hex(), nil, admin)
	req = testutil.WithChiURLParam(req, "workspaceID", ws.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServeDelete(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rec.Code)
	}
}

func TestServeDelete_BadID(t *testing.T) {
	h, db := newTestHandler(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "Anyone", "anyone@example.com", "hash")

	req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/workspaces/not-an-id", nil, u)
	req = testutil.WithChiURLParam(req, "workspaceID", "not-an-id")
	rec := httptest.NewRecorder()
	h.ServeDelete(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}

func updateRequest(u models.User, wsID primitive.ObjectID, body string) *http.Request {
	req := testutil.NewAuthenticatedRequest(http.MethodPatch,
		fmt.Sprintf("/workspaces/%s", wsID.Hex()), strings.NewReader(body), u)
	return testutil.WithChiURLParam(req, "workspaceID", wsID.Hex())
}

func TestServeUpdate(t *testing.T) {
	h, db := newTestHandler(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "Owner", "owner-upd@example.com", "hash")
	ws := fx.CreateWorkspace(ctx, "Old Name", owner.ID)
	fx.CreateMembership(ctx, ws.ID, owner.ID, models.RoleOwner)

	rec := httptest.NewRecorder()
	h.ServeUpdate(rec, updateRequest(owner, ws.ID, `{"name":"New Name","image_url":"https://img.example/ws.png"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	var body struct {
		Name     string `json:"name"`
		ImageURL string `json:"image_url"`
		Role     string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Name != "New Name" {
		t.Errorf("name: got %q, want New Name", body.Name)
	}
	if body.ImageURL != "https://img.example/ws.png" {
		t.Errorf("image_url: got %q", body.ImageURL)
	}
	if body.Role != models.RoleOwner {
		t.Errorf("role: got %q, want owner", body.Role)
	}

	stored, err := workspacestore.New(db).GetByID(ctx, ws.ID)
	if err != nil {
		t.Fatalf("reloading workspace: %v", err)
	}
	if stored.Name != "New Name" {
		t.Errorf("stored name: got %q, want New Name", stored.Name)
	}
}

func TestServeUpdate_PartialKeepsOtherFields(t *testing.T) {
	h, db := newTestHandler(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "Owner", "owner-upd2@example.com", "hash")
	ws := fx.CreateWorkspace(ctx, "Keep Me", owner.ID)
	fx.CreateMembership(ctx, ws.ID, owner.ID, models.RoleOwner)

	rec := httptest.NewRecorder()
	h.ServeUpdate(rec, updateRequest(owner, ws.ID, `{"description":"now with a description"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	stored, err := workspacestore.New(db).GetByID(ctx, ws.ID)
	if err != nil {
		t.Fatalf("reloading workspace: %v", err)
	}
	if stored.Name != "Keep Me" {
		t.Errorf("name changed: got %q, want Keep Me", stored.Name)
	}
	if stored.Description != "now with a description" {
		t.Errorf("description: got %q", stored.Description)
	}
}

func TestServeUpdate_AdminAllowed(t *testing.T) {
	h, db := newTestHandler(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "Owner", "owner-upd3@example.com", "hash")
	admin := fx.CreateUser(ctx, "Admin", "admin-upd@example.com", "hash")
	ws := fx.CreateWorkspace(ctx, "Team", owner.ID)
	fx.CreateMembership(ctx, ws.ID, owner.ID, models.RoleOwner)
	fx.CreateMembership(ctx, ws.ID, admin.ID, models.RoleAdmin)

	rec := httptest.NewRecorder()
	h.ServeUpdate(rec, updateRequest(admin, ws.ID, `{"name":"Team Renamed"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	var body struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Role != models.RoleAdmin {
		t.Errorf("role: got %q, want admin", body.Role)
	}
}

func TestServeUpdate_Rejections(t *testing.T) {
	h, db := newTestHandler(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "Owner", "owner-upd4@example.com", "hash")
	member := fx.CreateUser(ctx, "Member", "member-upd@example.com", "hash")
	outsider := fx.CreateUser(ctx, "Outsider", "outsider-upd@example.com", "hash")
	ws := fx.CreateWorkspace(ctx, "Locked", owner.ID)
	fx.CreateMembership(ctx, ws.ID, owner.ID, models.RoleOwner)
	fx.CreateMembership(ctx, ws.ID, member.ID, models.RoleMember)

	rec := httptest.NewRecorder()
	h.ServeUpdate(rec, updateRequest(member, ws.ID, `{"name":"Hijacked"}`))
	if rec.Code != http.StatusForbidden {
		t.Errorf("member edit: got %d, want 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeUpdate(rec, updateRequest(outsider, ws.ID, `{"name":"Hijacked"}`))
	if rec.Code != http.StatusForbidden {
		t.Errorf("outsider edit: got %d, want 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeUpdate(rec, updateRequest(owner, ws.ID, `{}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty body: got %d, want 400", rec.Code)
	}

	stored, err := workspacestore.New(db).GetByID(ctx, ws.ID)
	if err != nil {
		t.Fatalf("reloading workspace: %v", err)
	}
	if stored.Name != "Locked" {
		t.Errorf("name changed by rejected edit: got %q", stored.Name)
	}
}

func membersRequest(u models.User, wsID primitive.ObjectID) *http.Request {
	req := testutil.NewAuthenticatedRequest(http.MethodGet,
		fmt.Sprintf("/workspaces/%s/members", wsID.Hex()), nil, u)
	return testutil.WithChiURLParam(req, "workspaceID", wsID.Hex())
}

func TestServeMembers(t *testing.T) {
	h, db := newTestHandler(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "Owner", "owner-roster@example.com", "topsecrethash")
	member := fx.CreateUser(ctx, "Member", "member-roster@example.com", "topsecrethash")
	ws := fx.CreateWorkspace(ctx, "Crew", owner.ID)
	fx.CreateMembership(ctx, ws.ID, owner.ID, models.RoleOwner)
	fx.CreateMembership(ctx, ws.ID, member.ID, models.RoleMember)

	rec := httptest.NewRecorder()
	h.ServeMembers(rec, membersRequest(member, ws.ID))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	var body struct {
		Members []struct {
			ID       string `json:"id"`
			FullName string `json:"full_name"`
			Email    string `json:"email"`
			Role     string `json:"role"`
		} `json:"members"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Members) != 2 {
		t.Fatalf("members: got %d, want 2", len(body.Members))
	}
	roles := map[string]string{}
	for _, m := range body.Members {
		roles[m.Email] = m.Role
	}
	if roles["owner-roster@example.com"] != models.RoleOwner {
		t.Errorf("owner role: got %q", roles["owner-roster@example.com"])
	}
	if roles["member-roster@example.com"] != models.RoleMember {
		t.Errorf("member role: got %q", roles["member-roster@example.com"])
	}

	// Credential material never leaves the server.
	raw := rec.Body.String()
	if strings.Contains(raw, "password_hash") || strings.Contains(raw, "topsecrethash") {
		t.Errorf("roster leaks password hash: %s", raw)
	}
	if strings.Contains(raw, "refresh_fingerprint") {
		t.Errorf("roster leaks refresh fingerprint: %s", raw)
	}
}

func TestServeMembers_Rejections(t *testing.T) {
	h, db := newTestHandler(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "Owner", "owner-roster2@example.com", "hash")
	outsider := fx.CreateUser(ctx, "Outsider", "outsider-roster@example.com", "hash")
	ws := fx.CreateWorkspace(ctx, "Private", owner.ID)
	fx.CreateMembership(ctx, ws.ID, owner.ID, models.RoleOwner)

	rec := httptest.NewRecorder()
	h.ServeMembers(rec, membersRequest(outsider, ws.ID))
	if rec.Code != http.StatusForbidden {
		t.Errorf("outsider: got %d, want 403", rec.Code)
	}
	if code := errCode(t, rec); code != "forbidden" {
		t.Errorf("outsider code: got %q, want forbidden", code)
	}

	rec = httptest.NewRecorder()
	h.ServeMembers(rec, membersRequest(owner, primitive.NewObjectID()))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown workspace: got %d, want 404", rec.Code)
	}
}
