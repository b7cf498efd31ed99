// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Auth providers. A user is created by either a local email/password
// registration or a Google sign-in; a local account can later have a
// Google identity linked onto it.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// User is a principal: one document per identity, unique by email and,
// when present, by google_id.
//
// PasswordHash is set only for provider=local accounts. GoogleID is set
// for provider=google accounts and for local accounts that linked Google.
// RefreshFingerprint holds the one active refresh token for the user;
// issuing a new refresh token overwrites it and logout clears it.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	FullNameCI   string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	Provider     string             `bson:"provider" json:"provider"` // local | google
	GoogleID     *string            `bson:"google_id,omitempty" json:"-"`
	AvatarURL    string             `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`

	RefreshFingerprint *string `bson:"refresh_fingerprint,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsValidProvider checks a provider value.
func IsValidProvider(p string) bool {
	return p == ProviderLocal || p == ProviderGoogle
}
