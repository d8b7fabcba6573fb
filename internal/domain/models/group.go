// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group accessibility.
const (
	AccessibilityPublic  = "public"
	AccessibilityPrivate = "private"
)

// Publishing policy for a group's feed.
const (
	WhoCanPublishEveryone = "everyone"
	WhoCanPublishAdmins   = "admins"
)

// Group represents a social group.
//
// NOTE:
//   - Admin/member/join-request lists are not embedded on Group.
//     All membership is stored in the group_memberships collection,
//     one document per (group, user) with a single role tag.
type Group struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Description   string             `bson:"description" json:"description"`
	GroupImage    string             `bson:"group_image,omitempty" json:"groupImage,omitempty"`
	GroupColor    string             `bson:"group_color,omitempty" json:"groupColor,omitempty"`
	ExternalLink  string             `bson:"external_link,omitempty" json:"externalLink,omitempty"`
	Accessibility string             `bson:"accessibility" json:"accessibility"`   // public | private
	WhoCanPublish string             `bson:"who_can_publish" json:"whoCanPublish"` // everyone | admins

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
