// internal/app/features/registration/passwordreset_test.go
package registration

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ugcampus/grouphub/internal/app/system/auth"
	"github.com/ugcampus/grouphub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type fakeUsers struct {
	users   map[string]*models.User
	digests map[string]string
}

func newFakeUsers(emails ...string) *fakeUsers {
	f := &fakeUsers{users: make(map[string]*models.User), digests: make(map[string]string)}
	for _, e := range emails {
		f.users[e] = &models.User{ID: primitive.NewObjectID(), Email: e}
	}
	return f
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, email, digest string) error {
	if _, ok := f.users[email]; !ok {
		return mongo.ErrNoDocuments
	}
	f.digests[email] = digest
	return nil
}

type fakeTokens struct {
	byEmail map[string]models.PasswordResetToken
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{byEmail: make(map[string]models.PasswordResetToken)}
}

func (f *fakeTokens) GetByEmail(_ context.Context, email string) (*models.PasswordResetToken, error) {
	tok, ok := f.byEmail[email]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &tok, nil
}

func (f *fakeTokens) GetByValue(_ context.Context, value string) (*models.PasswordResetToken, error) {
	for _, tok := range f.byEmail {
		if tok.Value == value {
			copied := tok
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeTokens) Replace(_ context.Context, tok models.PasswordResetToken) error {
	if tok.ID.IsZero() {
		tok.ID = primitive.NewObjectID()
	}
	f.byEmail[tok.UserEmail] = tok
	return nil
}

func (f *fakeTokens) Delete(_ context.Context, id primitive.ObjectID) error {
	for email, tok := range f.byEmail {
		if tok.ID == id {
			delete(f.byEmail, email)
		}
	}
	return nil
}

// undeletableTokens refuses every Delete, as a store outage would.
type undeletableTokens struct {
	*fakeTokens
	deleteErr error
}

func (f *undeletableTokens) Delete(_ context.Context, _ primitive.ObjectID) error {
	return f.deleteErr
}

func newTestResetManager(users *fakeUsers, tokens *fakeTokens, sender *fakeSender, at time.Time) *ResetManager {
	m := NewResetManager(users, tokens, sender, "GroupHub", "https://grouphub.example.edu", zap.NewNop())
	m.now = func() time.Time { return at }
	return m
}

func TestRequestNoUser(t *testing.T) {
	m := newTestResetManager(newFakeUsers(), newFakeTokens(), &fakeSender{}, time.Now())

	if err := m.Request(context.Background(), "nobody@example.edu"); !errors.Is(err, ErrNoUser) {
		t.Fatalf("err = %v, want ErrNoUser", err)
	}
}

func TestRequestIssuesTokenAndMailsLink(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	users := newFakeUsers("dana@example.edu")
	tokens := newFakeTokens()
	sender := &fakeSender{}
	m := newTestResetManager(users, tokens, sender, now)

	if err := m.Request(context.Background(), "dana@example.edu"); err != nil {
		t.Fatalf("Request: %v", err)
	}

	tok, ok := tokens.byEmail["dana@example.edu"]
	if !ok {
		t.Fatal("token not stored")
	}
	if tok.Value == "" {
		t.Fatal("token value empty")
	}
	if !tok.ExpiresAt.Equal(now.Add(ResetTokenTTL)) {
		t.Fatalf("ExpiresAt = %v, want %v", tok.ExpiresAt, now.Add(ResetTokenTTL))
	}

	if len(sender.sent) != 1 {
		t.Fatalf("emails sent = %d, want 1", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.To != "dana@example.edu" {
		t.Fatalf("To = %q", msg.To)
	}
	if !strings.Contains(msg.TextBody, tok.Value) {
		t.Fatal("email body does not carry the reset link token")
	}
}

func TestRequestWhileTokenLive(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	users := newFakeUsers("dana@example.edu")
	tokens := newFakeTokens()
	m := newTestResetManager(users, tokens, &fakeSender{}, now)

	if err := m.Request(context.Background(), "dana@example.edu"); err != nil {
		t.Fatalf("first Request: %v", err)
	}

	err := m.Request(context.Background(), "dana@example.edu")
	var tooSoon *ResetTooSoonError
	if !errors.As(err, &tooSoon) {
		t.Fatalf("err = %v, want ResetTooSoonError", err)
	}
	if !tooSoon.AvailableAt.Equal(now.Add(ResetTokenTTL)) {
		t.Fatalf("AvailableAt = %v, want %v", tooSoon.AvailableAt, now.Add(ResetTokenTTL))
	}
}

func TestRequestReplacesExpiredToken(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	users := newFakeUsers("dana@example.edu")
	tokens := newFakeTokens()
	tokens.byEmail["dana@example.edu"] = models.PasswordResetToken{
		ID:        primitive.NewObjectID(),
		Value:     "stale",
		UserEmail: "dana@example.edu",
		ExpiresAt: now.Add(-time.Minute),
	}
	m := newTestResetManager(users, tokens, &fakeSender{}, now)

	if err := m.Request(context.Background(), "dana@example.edu"); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if tokens.byEmail["dana@example.edu"].Value == "stale" {
		t.Fatal("expired token should be replaced")
	}
}

func TestConsumeUnknownToken(t *testing.T) {
	m := newTestResetManager(newFakeUsers(), newFakeTokens(), &fakeSender{}, time.Now())

	if err := m.Consume(context.Background(), "missing", "newpass"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("err = %v, want ErrResetTokenInvalid", err)
	}
}

func TestConsumeExpiredTokenDeletesIt(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	users := newFakeUsers("dana@example.edu")
	tokens := newFakeTokens()
	tokens.byEmail["dana@example.edu"] = models.PasswordResetToken{
		ID:        primitive.NewObjectID(),
		Value:     "expired",
		UserEmail: "dana@example.edu",
		ExpiresAt: now.Add(-time.Second),
	}
	m := newTestResetManager(users, tokens, &fakeSender{}, now)

	if err := m.Consume(context.Background(), "expired", "newpass"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("err = %v, want ErrResetTokenInvalid", err)
	}
	if _, ok := tokens.byEmail["dana@example.edu"]; ok {
		t.Fatal("expired token should be deleted on sight")
	}
}

func TestConsumeIsSingleUse(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	users := newFakeUsers("dana@example.edu")
	tokens := newFakeTokens()
	sender := &fakeSender{}
	m := newTestResetManager(users, tokens, sender, now)

	if err := m.Request(context.Background(), "dana@example.edu"); err != nil {
		t.Fatalf("Request: %v", err)
	}
	value := tokens.byEmail["dana@example.edu"].Value

	if err := m.Consume(context.Background(), value, "brand-new-password"); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	digest := users.digests["dana@example.edu"]
	if digest == "" {
		t.Fatal("password not updated")
	}
	if !auth.CheckPassword("brand-new-password", digest) {
		t.Fatal("stored digest does not match the new password")
	}

	// A second redemption of the same token must fail.
	if err := m.Consume(context.Background(), value, "another"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("second Consume err = %v, want ErrResetTokenInvalid", err)
	}
}

func TestConsumeFailsWhenDeleteFails(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	users := newFakeUsers("dana@example.edu")
	inner := newFakeTokens()
	inner.byEmail["dana@example.edu"] = models.PasswordResetToken{
		ID:        primitive.NewObjectID(),
		Value:     "cap-123",
		UserEmail: "dana@example.edu",
		ExpiresAt: now.Add(time.Minute),
	}
	deleteErr := errors.New("write unavailable")
	tokens := &undeletableTokens{fakeTokens: inner, deleteErr: deleteErr}

	m := NewResetManager(users, tokens, &fakeSender{}, "GroupHub", "https://grouphub.example.edu", zap.NewNop())
	m.now = func() time.Time { return now }

	// While the token is still redeemable, success must not be reported.
	if err := m.Consume(context.Background(), "cap-123", "brand-new-password"); !errors.Is(err, deleteErr) {
		t.Fatalf("Consume err = %v, want the delete failure", err)
	}
	if err := m.Consume(context.Background(), "cap-123", "brand-new-password"); err == nil {
		t.Fatal("token still stored; a repeat Consume must not report success")
	}
}
