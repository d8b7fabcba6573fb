// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/ugcampus/grouphub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrAlreadyAssociated is returned when a joining user already holds a
	// role (admin, member, or pending request) in the group.
	ErrAlreadyAssociated = errors.New("user already belongs to this group or has requested to join")
	// ErrNotAdmin is returned when the acting user is not an admin of the group.
	ErrNotAdmin = errors.New("action reserved for group admins")
	// ErrNotFound is returned when no membership matches the transition's precondition.
	ErrNotFound = errors.New("no matching membership")
	// ErrLastAdmin is returned when a transition would leave the group without admins.
	ErrLastAdmin = errors.New("group cannot be left without admins")
)

// Store manages the group_memberships collection: one document per
// (group, user) with a scalar role. The unique (user_id, group_id) index
// keeps a user out of two roles at once; the transition methods below keep
// every group with at least one admin.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("group_memberships")}
}

// RoleOf returns the role the user holds in the group, or "" when none.
func (s *Store) RoleOf(ctx context.Context, groupID, userID primitive.ObjectID) (string, error) {
	var m models.GroupMembership
	err := s.c.FindOne(ctx, bson.M{"group_id": groupID, "user_id": userID}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return m.Role, nil
}

// IsAdmin reports whether the user holds the admin role in the group.
func (s *Store) IsAdmin(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{
		"group_id": groupID,
		"user_id":  userID,
		"role":     models.RoleAdmin,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AddAdmin inserts an admin membership without preconditions. Used when a
// group is created with its creator as sole admin.
func (s *Store) AddAdmin(ctx context.Context, groupID, userID primitive.ObjectID) error {
	return s.insert(ctx, groupID, userID, models.RoleAdmin)
}

// Join moves a user from no association into the group: directly to member
// for public groups, to a pending join request for private ones. Returns
// the role granted, or ErrAlreadyAssociated if the user already holds one.
func (s *Store) Join(ctx context.Context, group models.Group, userID primitive.ObjectID) (string, error) {
	role := models.RoleJoinRequest
	if group.Accessibility == models.AccessibilityPublic {
		role = models.RoleMember
	}

	// The unique index turns a lost race here into a duplicate-key error,
	// so the existence check cannot admit a double role.
	existing, err := s.RoleOf(ctx, group.ID, userID)
	if err != nil {
		return "", err
	}
	if existing != "" {
		return "", ErrAlreadyAssociated
	}

	if err := s.insert(ctx, group.ID, userID, role); err != nil {
		return "", err
	}
	return role, nil
}

// ApproveRequest transitions the target from join_request to member.
// The acting user must be an admin of the group.
func (s *Store) ApproveRequest(ctx context.Context, groupID, adminID, targetID primitive.ObjectID) error {
	if err := s.requireAdmin(ctx, groupID, adminID); err != nil {
		return err
	}
	return s.changeRole(ctx, groupID, targetID, models.RoleJoinRequest, models.RoleMember)
}

// Promote transitions the target from member to admin.
// The acting user must be an admin of the group.
func (s *Store) Promote(ctx context.Context, groupID, adminID, targetID primitive.ObjectID) error {
	if err := s.requireAdmin(ctx, groupID, adminID); err != nil {
		return err
	}
	return s.changeRole(ctx, groupID, targetID, models.RoleMember, models.RoleAdmin)
}

// Leave removes the user's own membership. Members may always leave; an
// admin may leave only while another admin remains.
func (s *Store) Leave(ctx context.Context, groupID, userID primitive.ObjectID) error {
	role, err := s.RoleOf(ctx, groupID, userID)
	if err != nil {
		return err
	}
	switch role {
	case models.RoleMember:
		return s.delete(ctx, groupID, userID)
	case models.RoleAdmin:
		if err := s.requireAnotherAdmin(ctx, groupID, userID); err != nil {
			return err
		}
		return s.delete(ctx, groupID, userID)
	default:
		// No membership, or only a pending request — nothing to leave.
		return ErrNotFound
	}
}

// Remove expels the target (member or admin) from the group. The acting
// user must be an admin. Removing an admin honors the same last-admin
// protection as Leave: the invariant that admins never empty out is
// unconditional, whichever path shrinks the set.
func (s *Store) Remove(ctx context.Context, groupID, adminID, targetID primitive.ObjectID) error {
	if err := s.requireAdmin(ctx, groupID, adminID); err != nil {
		return err
	}

	role, err := s.RoleOf(ctx, groupID, targetID)
	if err != nil {
		return err
	}
	switch role {
	case models.RoleMember:
		return s.delete(ctx, groupID, targetID)
	case models.RoleAdmin:
		if err := s.requireAnotherAdmin(ctx, groupID, targetID); err != nil {
			return err
		}
		return s.delete(ctx, groupID, targetID)
	default:
		return ErrNotFound
	}
}

// ListByGroupRole returns the memberships for a group with the given role.
func (s *Store) ListByGroupRole(ctx context.Context, groupID primitive.ObjectID, role string) ([]models.GroupMembership, error) {
	cur, err := s.c.Find(ctx, bson.M{"group_id": groupID, "role": role})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var memberships []models.GroupMembership
	if err := cur.All(ctx, &memberships); err != nil {
		return nil, err
	}
	return memberships, nil
}

// UserIDsByGroupRole returns the user IDs holding role in the group.
func (s *Store) UserIDsByGroupRole(ctx context.Context, groupID primitive.ObjectID, role string) ([]primitive.ObjectID, error) {
	memberships, err := s.ListByGroupRole(ctx, groupID, role)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.UserID)
	}
	return ids, nil
}

// GroupIDsByUserRole returns the groups in which the user holds role.
func (s *Store) GroupIDsByUserRole(ctx context.Context, userID primitive.ObjectID, role string) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID, "role": role})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var memberships []models.GroupMembership
	if err := cur.All(ctx, &memberships); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.GroupID)
	}
	return ids, nil
}

// CountByGroupRole returns the count of memberships with role in the group.
func (s *Store) CountByGroupRole(ctx context.Context, groupID primitive.ObjectID, role string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"group_id": groupID, "role": role})
}

// DeleteByGroup removes all memberships for a group (group deletion).
// Returns the number of documents deleted.
func (s *Store) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) insert(ctx context.Context, groupID, userID primitive.ObjectID, role string) error {
	doc := bson.M{
		"group_id":   groupID,
		"user_id":    userID,
		"role":       role,
		"created_at": time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrAlreadyAssociated
		}
		return err
	}
	return nil
}

// changeRole flips the role on the (group, user) document, matching only
// when the current role equals from; a miss means the precondition failed.
func (s *Store) changeRole(ctx context.Context, groupID, userID primitive.ObjectID, from, to string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"group_id": groupID, "user_id": userID, "role": from},
		bson.M{"$set": bson.M{"role": to}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) delete(ctx context.Context, groupID, userID primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"group_id": groupID, "user_id": userID})
	return err
}

func (s *Store) requireAdmin(ctx context.Context, groupID, userID primitive.ObjectID) error {
	ok, err := s.IsAdmin(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAdmin
	}
	return nil
}

// requireAnotherAdmin fails with ErrLastAdmin unless an admin other than
// leavingID remains in the group.
func (s *Store) requireAnotherAdmin(ctx context.Context, groupID, leavingID primitive.ObjectID) error {
	n, err := s.c.CountDocuments(ctx, bson.M{
		"group_id": groupID,
		"role":     models.RoleAdmin,
		"user_id":  bson.M{"$ne": leavingID},
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLastAdmin
	}
	return nil
}
