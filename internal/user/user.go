// Package user defines the account record kept by the storage layer
// and the public projection of it that is safe to hand out over HTTP.
package user

import "time"

// User represents a registered account as it is stored.
// It carries the password hash and must never be serialized to clients;
// use Public for that.
type User struct {
	// ID is the storage-assigned identifier of the user.
	ID int64 `gorm:"primaryKey"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Name string `gorm:"not null"`

	// Email is globally unique, enforced by the store.
	Email string `gorm:"uniqueIndex;not null"`

	PasswordHash string `gorm:"not null"`
}

// Public is the outward-facing view of a User. It has no password hash field.
type Public struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Public maps the stored record to its public projection.
func (u *User) Public() Public {
	return Public{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
