// internal/app/store/pendingusers/pendingstore_test.go
package pendingstore

import (
	"testing"
	"time"

	"github.com/ugcampus/grouphub/internal/domain/models"
	"github.com/ugcampus/grouphub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestReplaceSupersedesDraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)

	first := models.PendingUser{
		FirstName:    "Dana",
		LastName:     "Booker",
		Password:     "$2a$10$firstdigest",
		Verification: models.EmailVerification{Email: "dana@example.edu"},
	}
	if _, err := store.Replace(ctx, first); err != nil {
		t.Fatalf("first Replace: %v", err)
	}

	second := first
	second.FirstName = "Dee"
	second.Password = "$2a$10$seconddigest"
	if _, err := store.Replace(ctx, second); err != nil {
		t.Fatalf("second Replace: %v", err)
	}

	got, err := store.GetByEmail(ctx, "dana@example.edu")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.FirstName != "Dee" {
		t.Fatalf("first name = %q, want Dee (old draft should be gone)", got.FirstName)
	}

	// Exactly one draft remains.
	n, err := db.Collection("pending_users").CountDocuments(ctx, bson.M{
		"verification.email": "dana@example.edu",
	})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if n != 1 {
		t.Fatalf("drafts = %d, want 1", n)
	}
}

func TestReplaceNormalizesEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)

	p, err := store.Replace(ctx, models.PendingUser{
		FirstName:    " Dana ",
		LastName:     "Booker",
		Verification: models.EmailVerification{Email: "  Dana@Example.EDU "},
	})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if p.Verification.Email != "dana@example.edu" {
		t.Fatalf("email = %q, want normalized lowercase", p.Verification.Email)
	}
	if p.FirstName != "Dana" {
		t.Fatalf("first name = %q, want trimmed", p.FirstName)
	}
	if p.DraftedAt.IsZero() {
		t.Fatal("DraftedAt not set")
	}

	if _, err := store.GetByEmail(ctx, "DANA@example.edu"); err != nil {
		t.Fatalf("GetByEmail with mixed case: %v", err)
	}
}

func TestSetCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := testutil.TestContext(t)
	store := New(db)

	fx.CreatePendingUser(ctx, "dana@example.edu", "AAAAAA", time.Now().Add(-10*time.Minute))

	issuedAt := time.Now().UTC().Truncate(time.Millisecond)
	if err := store.SetCode(ctx, "dana@example.edu", "Zx9Qk2", issuedAt); err != nil {
		t.Fatalf("SetCode: %v", err)
	}

	got, err := store.GetByEmail(ctx, "dana@example.edu")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.Verification.Code == nil || *got.Verification.Code != "Zx9Qk2" {
		t.Fatalf("code = %v, want Zx9Qk2", got.Verification.Code)
	}
	if got.Verification.CodeIssuedAt == nil || !got.Verification.CodeIssuedAt.Equal(issuedAt) {
		t.Fatalf("issuedAt = %v, want %v", got.Verification.CodeIssuedAt, issuedAt)
	}
}

func TestSetCodeNoDraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)

	err := store.SetCode(ctx, "nobody@example.edu", "Zx9Qk2", time.Now())
	if err != mongo.ErrNoDocuments {
		t.Fatalf("err = %v, want ErrNoDocuments", err)
	}
}

func TestDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := testutil.TestContext(t)
	store := New(db)

	fx.CreatePendingUser(ctx, "dana@example.edu", "AAAAAA", time.Now())

	if err := store.Delete(ctx, "dana@example.edu"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.GetByEmail(ctx, "dana@example.edu"); err != mongo.ErrNoDocuments {
		t.Fatalf("err = %v, want ErrNoDocuments", err)
	}

	// Deleting again is a no-op, not an error.
	if err := store.Delete(ctx, "dana@example.edu"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}
