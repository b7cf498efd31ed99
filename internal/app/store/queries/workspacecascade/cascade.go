// Package workspacecascade removes a workspace and everything hanging
// off it without multi-document transactions. The work runs in fixed
// stages, each idempotent, so a failed delete can be retried and will
// pick up where it stopped:
//
//  1. posts: delete the workspace's posts and their link records
//  2. workspace: delete the workspace document (invite token goes with it)
//  3. memberships: delete all membership records
//
// Memberships go last so that a partially deleted workspace is still
// reachable through its members' listings and the retry can find it.
package workspacecascade

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	membershipstore "github.com/dalemusser/workhive/internal/app/store/memberships"
	postlinkstore "github.com/dalemusser/workhive/internal/app/store/postlinks"
	poststore "github.com/dalemusser/workhive/internal/app/store/posts"
	workspacestore "github.com/dalemusser/workhive/internal/app/store/workspaces"
)

// Stage names reported on failure.
const (
	StagePosts       = "posts"
	StageWorkspace   = "workspace"
	StageMemberships = "memberships"
)

// StageError reports which cascade stage failed. Stages before it have
// completed; stages after it have not run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("workspace delete failed at stage %q: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Result counts what each completed stage removed.
type Result struct {
	PostsDeleted       int64
	LinksDeleted       int64
	WorkspaceDeleted   bool
	MembershipsDeleted int64
}

// Delete runs the cascade for the given workspace. Re-running after a
// partial failure is safe; already-cleared stages delete nothing.
func Delete(ctx context.Context, db *mongo.Database, workspaceID primitive.ObjectID) (Result, error) {
	var res Result

	posts := poststore.New(db)
	links := postlinkstore.New(db)
	workspaces := workspacestore.New(db)
	memberships := membershipstore.New(db)

	// Stage 1: posts and their links.
	linkRecs, err := links.ListForWorkspace(ctx, workspaceID)
	if err != nil {
		return res, &StageError{Stage: StagePosts, Err: err}
	}
	postIDs := make([]primitive.ObjectID, 0, len(linkRecs))
	for _, l := range linkRecs {
		postIDs = append(postIDs, l.PostID)
	}
	if res.PostsDeleted, err = posts.DeleteByIDs(ctx, postIDs); err != nil {
		return res, &StageError{Stage: StagePosts, Err: err}
	}
	if res.LinksDeleted, err = links.DeleteForWorkspace(ctx, workspaceID); err != nil {
		return res, &StageError{Stage: StagePosts, Err: err}
	}

	// Stage 2: the workspace document.
	n, err := workspaces.Delete(ctx, workspaceID)
	if err != nil {
		return res, &StageError{Stage: StageWorkspace, Err: err}
	}
	res.WorkspaceDeleted = n > 0

	// Stage 3: memberships.
	if res.MembershipsDeleted, err = memberships.DeleteForWorkspace(ctx, workspaceID); err != nil {
		return res, &StageError{Stage: StageMemberships, Err: err}
	}

	return res, nil
}
