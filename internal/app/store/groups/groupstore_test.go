// internal/app/store/groups/groupstore_test.go
package groupstore

import (
	"testing"

	"github.com/ugcampus/grouphub/internal/domain/models"
	"github.com/ugcampus/grouphub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestCreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)

	created, err := store.Create(ctx, models.Group{
		Name:          "Chess Club",
		Description:   "Weekly games in the student union.",
		Accessibility: models.AccessibilityPublic,
		WhoCanPublish: models.WhoCanPublishEveryone,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID.IsZero() {
		t.Fatal("id not assigned")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatal("timestamps not set")
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Chess Club" {
		t.Fatalf("name = %q, want Chess Club", got.Name)
	}
}

func TestGetMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); err != mongo.ErrNoDocuments {
		t.Fatalf("err = %v, want ErrNoDocuments", err)
	}
}

func TestUpdateInfoPartial(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := testutil.TestContext(t)
	store := New(db)

	group := fx.CreateGroup(ctx, "Chess Club", models.AccessibilityPublic)

	desc := "Now with a beginners' track."
	color := "#2d6cdf"
	if err := store.UpdateInfo(ctx, group.ID, InfoPatch{Description: &desc, GroupColor: &color}); err != nil {
		t.Fatalf("UpdateInfo: %v", err)
	}

	got, err := store.GetByID(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Description != desc {
		t.Fatalf("description = %q, want %q", got.Description, desc)
	}
	if got.GroupColor != color {
		t.Fatalf("color = %q, want %q", got.GroupColor, color)
	}
	if got.Name != "Chess Club" {
		t.Fatalf("name = %q, want unchanged", got.Name)
	}
}

func TestListByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := testutil.TestContext(t)
	store := New(db)

	a := fx.CreateGroup(ctx, "Chess Club", models.AccessibilityPublic)
	b := fx.CreateGroup(ctx, "Book Club", models.AccessibilityPrivate)
	fx.CreateGroup(ctx, "Film Society", models.AccessibilityPublic)

	groups, err := store.ListByIDs(ctx, []primitive.ObjectID{a.ID, b.ID})
	if err != nil {
		t.Fatalf("ListByIDs: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}

	empty, err := store.ListByIDs(ctx, nil)
	if err != nil {
		t.Fatalf("ListByIDs(nil): %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("groups = %d, want 0", len(empty))
	}
}

func TestDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := testutil.TestContext(t)
	store := New(db)

	group := fx.CreateGroup(ctx, "Chess Club", models.AccessibilityPublic)

	n, err := store.Delete(ctx, group.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n != 1 {
		t.Fatalf("deleted = %d, want 1", n)
	}
	if _, err := store.GetByID(ctx, group.ID); err != mongo.ErrNoDocuments {
		t.Fatalf("err = %v, want ErrNoDocuments", err)
	}
}
