package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Workspace is a shared container of posts with an owner and members.
//
// The invite token lives on the workspace document itself: at most one
// token per workspace, valid until InviteExpiresAt. Generating a new
// token overwrites the previous one; an expired token is nulled out the
// first time a redemption attempt sees it.
type Workspace struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"` // Case-insensitive for search
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	OwnerID     primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	ImageURL    string             `bson:"image_url,omitempty" json:"image_url,omitempty"`

	InviteToken     *string    `bson:"invite_token,omitempty" json:"-"`
	InviteExpiresAt *time.Time `bson:"invite_expires_at,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasActiveInvite reports whether the workspace carries an invite token
// that has not yet expired at the given instant.
func (w Workspace) HasActiveInvite(now time.Time) bool {
	return w.InviteToken != nil && w.InviteExpiresAt != nil && w.InviteExpiresAt.After(now)
}
