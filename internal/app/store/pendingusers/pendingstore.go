// internal/app/store/pendingusers/pendingstore.go
package pendingstore

import (
	"context"
	"time"

	"github.com/ugcampus/grouphub/internal/app/system/normalize"
	"github.com/ugcampus/grouphub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store manages signup drafts in the pending_users collection. At most one
// draft exists per email; Replace enforces this by deleting any previous
// draft before inserting.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("pending_users")}
}

// GetByEmail loads the draft for an email.
// Returns mongo.ErrNoDocuments if none exists.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.PendingUser, error) {
	var p models.PendingUser
	err := s.c.FindOne(ctx, bson.M{"verification.email": normalize.Email(email)}).Decode(&p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Replace deletes any existing draft for the same email and inserts p.
// A repeated signup before verification silently supersedes the old draft.
func (s *Store) Replace(ctx context.Context, p models.PendingUser) (models.PendingUser, error) {
	p.ID = primitive.NewObjectID()
	p.FirstName = normalize.Name(p.FirstName)
	p.LastName = normalize.Name(p.LastName)
	p.Verification.Email = normalize.Email(p.Verification.Email)
	if p.DraftedAt.IsZero() {
		p.DraftedAt = time.Now().UTC()
	}

	if _, err := s.c.DeleteMany(ctx, bson.M{"verification.email": p.Verification.Email}); err != nil {
		return models.PendingUser{}, err
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.PendingUser{}, err
	}
	return p, nil
}

// SetCode stores a freshly issued verification code and its issue time on
// the draft for email. Returns mongo.ErrNoDocuments if no draft exists.
func (s *Store) SetCode(ctx context.Context, email, code string, issuedAt time.Time) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"verification.email": normalize.Email(email)},
		bson.M{"$set": bson.M{
			"verification.code":           code,
			"verification.code_issued_at": issuedAt,
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes the draft for email. Deleting an absent draft is not an error.
func (s *Store) Delete(ctx context.Context, email string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"verification.email": normalize.Email(email)})
	return err
}
