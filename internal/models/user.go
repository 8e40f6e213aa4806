package models

import (
	"time"
)

// User is a site member as known to the identity provider
type User struct {
	ID        string    `json:"id" db:"id" bson:"_id"`
	Email     string    `json:"email" db:"email" bson:"email"`
	Name      string    `json:"name" db:"name" bson:"name"`
	AvatarURL string    `json:"avatar_url,omitempty" db:"avatar_url" bson:"avatar_url,omitempty"`
	Role      string    `json:"role" db:"role" bson:"role"`
	Verified  bool      `json:"verified" db:"verified" bson:"verified"`
	Expert    bool      `json:"expert" db:"expert" bson:"expert"`
	Active    bool      `json:"active" db:"active" bson:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" bson:"updated_at"`
}

// ValidRoles defines allowed user roles
var ValidRoles = map[string]bool{
	"admin":     true,
	"moderator": true,
	"member":    true,
}

// IsModerator reports whether the role may edit or delete other authors' comments
func (u *User) IsModerator() bool {
	return u.Role == "admin" || u.Role == "moderator"
}

// Actor converts the user into the mutation actor
func (u *User) Actor() *Actor {
	return &Actor{
		ID:        u.ID,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
		Moderator: u.IsModerator(),
		Verified:  u.Verified,
		Expert:    u.Expert,
	}
}

// UserCSV represents a user record from CSV seed files
type UserCSV struct {
	ID        string `csv:"id"`
	Email     string `csv:"email"`
	Name      string `csv:"name"`
	AvatarURL string `csv:"avatar_url"`
	Role      string `csv:"role"`
	Verified  string `csv:"verified"`
	Expert    string `csv:"expert"`
	Active    string `csv:"active"` // CSV uses string "true"/"false"
	CreatedAt string `csv:"created_at"`
}
