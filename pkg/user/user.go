package user

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is a user-directory record. Identity originates from the OAuth
// provider; billing and profile fields are filled in over the account's
// lifetime.
type User struct {
	ID                string    `bson:"_id" json:"id"`
	Email             string    `bson:"email" json:"email"`
	GoogleID          string    `bson:"google_id" json:"googleId"`
	Name              string    `bson:"name" json:"name"`
	GivenName         string    `bson:"given_name,omitempty" json:"givenName,omitempty"`
	FamilyName        string    `bson:"family_name,omitempty" json:"familyName,omitempty"`
	ProfilePicture    string    `bson:"profile_picture,omitempty" json:"profilePicture,omitempty"`
	BillingCustomerID string    `bson:"billing_customer_id,omitempty" json:"billingCustomerId,omitempty"`
	CreatedAt         time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `bson:"updated_at" json:"updatedAt"`
}

// NewUserParams carries the fields required to create a user.
type NewUserParams struct {
	Email          string
	GoogleID       string
	Name           string
	GivenName      string
	FamilyName     string
	ProfilePicture string
}

// NewUser builds a complete user record with a fresh time-ordered id.
func NewUser(p NewUserParams) (*User, error) {
	if p.Email == "" {
		return nil, errors.New("user: email is required")
	}
	if p.GoogleID == "" {
		return nil, errors.New("user: google id is required")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &User{
		ID:             id.String(),
		Email:          NormalizeEmail(p.Email),
		GoogleID:       p.GoogleID,
		Name:           p.Name,
		GivenName:      p.GivenName,
		FamilyName:     p.FamilyName,
		ProfilePicture: p.ProfilePicture,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// ProfileUpdate carries optional profile field replacements. Nil fields are
// left untouched.
type ProfileUpdate struct {
	Name           *string `json:"name,omitempty"`
	GivenName      *string `json:"givenName,omitempty"`
	FamilyName     *string `json:"familyName,omitempty"`
	ProfilePicture *string `json:"profilePicture,omitempty"`
}

// IsEmpty reports whether the update carries no changes.
func (u ProfileUpdate) IsEmpty() bool {
	return u.Name == nil && u.GivenName == nil && u.FamilyName == nil && u.ProfilePicture == nil
}

// NormalizeEmail lowercases and trims an email address so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
