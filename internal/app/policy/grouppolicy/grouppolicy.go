// internal/app/policy/grouppolicy/grouppolicy.go
package grouppolicy

import (
	"context"

	"github.com/ugcampus/grouphub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// IsAdmin returns true if the given user is an admin of the given group
// according to the authoritative group_memberships collection.
func IsAdmin(ctx context.Context, db *mongo.Database, groupID, userID primitive.ObjectID) (bool, error) {
	c := db.Collection("group_memberships")
	n, err := c.CountDocuments(ctx, bson.M{
		"group_id": groupID,
		"user_id":  userID,
		"role":     models.RoleAdmin,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CanViewMembers reports whether the user may see a group's member and admin
// lists: any admin or member of the group qualifies, applicants do not.
// Returns an error if the database check fails, allowing callers to
// distinguish between "not authorized" (false, nil) and "database error"
// (false, err).
func CanViewMembers(ctx context.Context, db *mongo.Database, groupID, userID primitive.ObjectID) (bool, error) {
	c := db.Collection("group_memberships")
	n, err := c.CountDocuments(ctx, bson.M{
		"group_id": groupID,
		"user_id":  userID,
		"role":     bson.M{"$in": []string{models.RoleAdmin, models.RoleMember}},
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
