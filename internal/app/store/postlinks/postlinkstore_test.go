package postlinkstore_test

import (
	"testing"

	postlinkstore "github.com/dalemusser/workhive/internal/app/store/postlinks"
	"github.com/dalemusser/workhive/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := postlinkstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	postID := primitive.NewObjectID()
	wsID := primitive.NewObjectID()

	link, err := store.Create(ctx, postID, wsID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if link.PostID != postID || link.WorkspaceID != wsID {
		t.Error("expected link to record post and workspace")
	}
}

func TestStore_Create_SecondPlacementRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := postlinkstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	postID := primitive.NewObjectID()

	if _, err := store.Create(ctx, postID, primitive.NewObjectID()); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	_, err := store.Create(ctx, postID, primitive.NewObjectID())
	if err != postlinkstore.ErrDuplicate {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestStore_GetByPost(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := postlinkstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	postID := primitive.NewObjectID()
	wsID := primitive.NewObjectID()

	if _, err := store.Create(ctx, postID, wsID); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	link, err := store.GetByPost(ctx, postID)
	if err != nil {
		t.Fatalf("GetByPost failed: %v", err)
	}
	if link.WorkspaceID != wsID {
		t.Error("expected link to resolve to the workspace")
	}
}

func TestStore_GetByPost_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := postlinkstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.GetByPost(ctx, primitive.NewObjectID())
	if err != postlinkstore.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ListForWorkspace(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := postlinkstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	wsID := primitive.NewObjectID()
	for i := 0; i < 3; i++ {
		if _, err := store.Create(ctx, primitive.NewObjectID(), wsID); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	if _, err := store.Create(ctx, primitive.NewObjectID(), primitive.NewObjectID()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	links, err := store.ListForWorkspace(ctx, wsID)
	if err != nil {
		t.Fatalf("ListForWorkspace failed: %v", err)
	}
	if len(links) != 3 {
		t.Errorf("expected 3 links, got %d", len(links))
	}
}

func TestStore_DeleteForWorkspace(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := postlinkstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	wsID := primitive.NewObjectID()
	for i := 0; i < 2; i++ {
		if _, err := store.Create(ctx, primitive.NewObjectID(), wsID); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	deleted, err := store.DeleteForWorkspace(ctx, wsID)
	if err != nil {
		t.Fatalf("DeleteForWorkspace failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}

	deleted, err = store.DeleteForWorkspace(ctx, wsID)
	if err != nil {
		t.Fatalf("repeat DeleteForWorkspace failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("expected 0 deleted on repeat, got %d", deleted)
	}
}
