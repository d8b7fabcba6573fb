// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"time"

	"github.com/ugcampus/grouphub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

// GetByID loads a group. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// Create inserts a new group.
func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.CreatedAt = now
	g.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// InfoPatch carries the updatable group metadata fields. Nil pointers leave
// the stored value untouched.
type InfoPatch struct {
	Name         *string
	Description  *string
	GroupImage   *string
	GroupColor   *string
	ExternalLink *string
}

// UpdateInfo applies a partial metadata update.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, patch InfoPatch) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.GroupImage != nil {
		set["group_image"] = *patch.GroupImage
	}
	if patch.GroupColor != nil {
		set["group_color"] = *patch.GroupColor
	}
	if patch.ExternalLink != nil {
		set["external_link"] = *patch.ExternalLink
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// ListByIDs loads the groups for the given IDs, in no particular order.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Group, error) {
	if len(ids) == 0 {
		return []models.Group{}, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var groups []models.Group
	if err := cur.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// Delete removes a group by ID. Returns the number of documents deleted (0 or 1).
// Membership cleanup is the caller's concern (membershipstore.DeleteByGroup).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
