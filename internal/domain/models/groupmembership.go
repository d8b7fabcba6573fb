// internal/domain/models/groupmembership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership roles. A user holds at most one role per group; the unique
// (group_id, user_id) index makes holding two roles unrepresentable.
const (
	RoleAdmin       = "admin"
	RoleMember      = "member"
	RoleJoinRequest = "join_request"
)

// GroupMembership is the authoritative join between users and groups.
// Exactly one document per (user_id, group_id); role is a scalar
// ("admin" | "member" | "join_request").
type GroupMembership struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID   primitive.ObjectID `bson:"group_id" json:"group_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role      string             `bson:"role" json:"role"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
