package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ugcampus/grouphub/internal/app/system/normalize"
	"github.com/ugcampus/grouphub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a verified user with the given name and email.
func (f *Fixtures) CreateUser(ctx context.Context, firstName, lastName, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:        primitive.NewObjectID(),
		FirstName: firstName,
		LastName:  lastName,
		Email:     normalize.Email(email),
		Password:  "$2a$10$fixturefixturefixturefixturefixturefixturefixturefixtu", // not a real digest
		UserType:  models.UserTypeStudent,
		Division:  "Engineering",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreatePendingUser inserts a signup draft for the given email. When code is
// non-empty it is stored with the given issue time, as if already sent.
func (f *Fixtures) CreatePendingUser(ctx context.Context, email, code string, issuedAt time.Time) models.PendingUser {
	f.t.Helper()

	p := models.PendingUser{
		ID:        primitive.NewObjectID(),
		FirstName: "Draft",
		LastName:  "User",
		Password:  "$2a$10$fixturefixturefixturefixturefixturefixturefixturefixtu",
		UserType:  models.UserTypeStudent,
		Division:  "Engineering",
		Verification: models.EmailVerification{
			Email: normalize.Email(email),
		},
		DraftedAt: time.Now().UTC(),
	}
	if code != "" {
		p.Verification.Code = &code
		p.Verification.CodeIssuedAt = &issuedAt
	}

	if _, err := f.db.Collection("pending_users").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test pending user: %v", err)
	}
	return p
}

// CreateGroup inserts a group with the given name and accessibility.
func (f *Fixtures) CreateGroup(ctx context.Context, name, accessibility string) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	g := models.Group{
		ID:            primitive.NewObjectID(),
		Name:          name,
		Description:   "Test group",
		Accessibility: accessibility,
		WhoCanPublish: models.WhoCanPublishEveryone,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := f.db.Collection("groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return g
}

// CreateMembership inserts a membership document with the given role.
func (f *Fixtures) CreateMembership(ctx context.Context, groupID, userID primitive.ObjectID, role string) models.GroupMembership {
	f.t.Helper()

	m := models.GroupMembership{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := f.db.Collection("group_memberships").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return m
}

// CreateResetToken inserts a password reset token for the given email.
func (f *Fixtures) CreateResetToken(ctx context.Context, value, email string, expiresAt time.Time) models.PasswordResetToken {
	f.t.Helper()

	tok := models.PasswordResetToken{
		ID:        primitive.NewObjectID(),
		Value:     value,
		UserEmail: normalize.Email(email),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := f.db.Collection("password_reset_tokens").InsertOne(ctx, tok); err != nil {
		f.t.Fatalf("failed to create test reset token: %v", err)
	}
	return tok
}
