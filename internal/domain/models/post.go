package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is a piece of content owned by a user. A post does not carry its
// workspace directly; the workspace_posts link collection holds the
// association (exactly one link per post in steady state).
type Post struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	Title   string             `bson:"title" json:"title"`
	Content string             `bson:"content" json:"content"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// WorkspacePost links a post to the workspace it was published in.
type WorkspacePost struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PostID      primitive.ObjectID `bson:"post_id" json:"post_id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
}
