// internal/domain/models/pendinguser.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EmailVerification is the verification state embedded on a PendingUser.
// Code is nil until the first code is issued; once issued, Code and
// CodeIssuedAt are always set together.
type EmailVerification struct {
	Email        string     `bson:"email" json:"email"` // lowercase, unique index
	Code         *string    `bson:"code,omitempty" json:"-"`
	CodeIssuedAt *time.Time `bson:"code_issued_at,omitempty" json:"-"`
}

// PendingUser is a signup awaiting email verification. It carries the same
// profile fields as User plus the embedded verification state. At most one
// draft exists per email; a repeat signup replaces the previous draft.
// On successful verification the draft is promoted to a User and deleted.
type PendingUser struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName     string             `bson:"first_name" json:"firstName"`
	LastName      string             `bson:"last_name" json:"lastName"`
	Password      string             `bson:"password" json:"-"` // bcrypt digest
	ProfileImage  string             `bson:"profile_image,omitempty" json:"profileImage,omitempty"`
	Bio           string             `bson:"bio,omitempty" json:"bio,omitempty"`
	UserType      string             `bson:"user_type" json:"userType"`
	Division      string             `bson:"division" json:"division"`
	AcademicLevel string             `bson:"academic_level,omitempty" json:"academicLevel,omitempty"`
	DegreeName    string             `bson:"degree_name,omitempty" json:"degreeName,omitempty"`

	Verification EmailVerification `bson:"verification" json:"verification"`
	DraftedAt    time.Time         `bson:"drafted_at" json:"draftedAt"`
}

// Promote copies the draft's profile fields into a User, dropping the
// draft-only fields. The caller persists the User and deletes the draft.
func (p PendingUser) Promote(now time.Time) User {
	return User{
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Email:         p.Verification.Email,
		Password:      p.Password,
		ProfileImage:  p.ProfileImage,
		Bio:           p.Bio,
		UserType:      p.UserType,
		Division:      p.Division,
		AcademicLevel: p.AcademicLevel,
		DegreeName:    p.DegreeName,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
