// internal/domain/models/resettoken.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PasswordResetToken is a single-use capability to reset one account's
// password. At most one token exists per user email (unique index); an
// expired token is deleted lazily on the next request that touches it.
type PasswordResetToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Value     string             `bson:"value" json:"-"` // random capability string
	UserEmail string             `bson:"user_email" json:"userEmail"`
	ExpiresAt time.Time          `bson:"expires_at" json:"expiresAt"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// Expired reports whether the token is past its validity window at now.
func (t PasswordResetToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
