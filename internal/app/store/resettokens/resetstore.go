// internal/app/store/resettokens/resetstore.go
package resetstore

import (
	"context"
	"time"

	"github.com/ugcampus/grouphub/internal/app/system/normalize"
	"github.com/ugcampus/grouphub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store persists password reset tokens. At most one token exists per user
// email (unique index); Replace swaps any prior token for a fresh one.
// Expired tokens are removed lazily when looked up or replaced, not by a
// background sweep.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("password_reset_tokens")}
}

// GetByEmail returns the token issued for the email, if any.
// Returns mongo.ErrNoDocuments when none exists.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.PasswordResetToken, error) {
	var tok models.PasswordResetToken
	err := s.c.FindOne(ctx, bson.M{"user_email": normalize.Email(email)}).Decode(&tok)
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

// GetByValue returns the token with the given opaque value.
// Returns mongo.ErrNoDocuments when none exists.
func (s *Store) GetByValue(ctx context.Context, value string) (*models.PasswordResetToken, error) {
	var tok models.PasswordResetToken
	err := s.c.FindOne(ctx, bson.M{"value": value}).Decode(&tok)
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

// Replace deletes any token for the email and inserts the given one.
func (s *Store) Replace(ctx context.Context, tok models.PasswordResetToken) error {
	tok.UserEmail = normalize.Email(tok.UserEmail)
	if tok.ID.IsZero() {
		tok.ID = primitive.NewObjectID()
	}
	if tok.CreatedAt.IsZero() {
		tok.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.DeleteMany(ctx, bson.M{"user_email": tok.UserEmail}); err != nil {
		return err
	}
	_, err := s.c.InsertOne(ctx, tok)
	return err
}

// Delete removes the token by its id.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// DeleteByEmail removes any token issued for the email.
func (s *Store) DeleteByEmail(ctx context.Context, email string) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"user_email": normalize.Email(email)})
	return err
}
