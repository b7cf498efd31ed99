// internal/domain/models/membership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership roles. The creator of a workspace holds "owner"; invite
// redemption always grants "member". "admin" can generate invites but
// cannot delete the workspace.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Membership is the authoritative join between users and workspaces.
// Exactly one document per (workspace_id, user_id); role is a scalar.
type Membership struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role        string             `bson:"role" json:"role"` // owner | admin | member
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// IsValidRole checks a membership role value.
func IsValidRole(r string) bool {
	return r == RoleOwner || r == RoleAdmin || r == RoleMember
}

// CanInvite reports whether a role may generate invite tokens.
func CanInvite(r string) bool {
	return r == RoleOwner || r == RoleAdmin
}

// CanManage reports whether a role may edit workspace details.
func CanManage(r string) bool {
	return r == RoleOwner || r == RoleAdmin
}
