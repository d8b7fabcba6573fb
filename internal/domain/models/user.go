// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User types.
const (
	UserTypeStudent   = "student"
	UserTypeProfessor = "professor"
	UserTypeStaff     = "staff"
)

// Academic levels for student accounts.
const (
	AcademicLevelHighSchool    = "high_school"
	AcademicLevelUndergraduate = "undergraduate"
	AcademicLevelPostgraduate  = "postgraduate"
)

// User represents a verified account.
//
// NOTE:
//   - Users are only ever created by promoting a PendingUser after the
//     email verification code is accepted.
//   - Group membership is not embedded on User. Use the group_memberships
//     collection to discover a user's groups.
type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName     string             `bson:"first_name" json:"firstName"`
	LastName      string             `bson:"last_name" json:"lastName"`
	Email         string             `bson:"email" json:"email"` // lowercase, unique index
	Password      string             `bson:"password" json:"-"`  // bcrypt digest
	ProfileImage  string             `bson:"profile_image,omitempty" json:"profileImage,omitempty"`
	Bio           string             `bson:"bio,omitempty" json:"bio,omitempty"`
	UserType      string             `bson:"user_type" json:"userType"` // student | professor | staff
	Division      string             `bson:"division" json:"division"`
	AcademicLevel string             `bson:"academic_level,omitempty" json:"academicLevel,omitempty"`
	DegreeName    string             `bson:"degree_name,omitempty" json:"degreeName,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
