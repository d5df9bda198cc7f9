package entity

import (
	"time"
)

// User is the sole aggregate of the user management domain.
// HashedPassword holds a bcrypt hash and must never be serialized outward.
type User struct {
	ID             string
	Email          string
	Username       string
	HashedPassword string
	IsActive       bool
	IsSuperuser    bool
	FirstName      string
	LastName       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// UserPatch is a partial update. A nil field means "leave unchanged";
// a non-nil field overwrites the stored attribute. Password, when present,
// is hashed before it reaches the store.
type UserPatch struct {
	Email       *string
	Username    *string
	Password    *string
	IsActive    *bool
	IsSuperuser *bool
	FirstName   *string
	LastName    *string
}
