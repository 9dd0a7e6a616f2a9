package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/patric-chuzhbe/bookmarks/internal/user"
)

type Bookmark struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Title       string    `json:"title" gorm:"not null"`
	Description *string   `json:"description"`
	Link        string    `json:"link" gorm:"not null"`
	UserID      int64     `json:"user_id" gorm:"not null;index"`
}

// NullableString tells an absent JSON field apart from an explicit null.
// Set is true whenever the field was present in the document.
type NullableString struct {
	Set   bool
	Value *string
}

func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.Value = nil
		return nil
	}

	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	n.Value = &value

	return nil
}

// BookmarkPatch lists the fields of a partial bookmark update.
// A nil field keeps its stored value. Description is replaced only when Set,
// and a nil Value clears it.
type BookmarkPatch struct {
	Title       *string
	Description NullableString
	Link        *string
}

type SignupRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User        user.Public `json:"user"`
	AccessToken string      `json:"access_token"`
	ExpiresAt   time.Time   `json:"expires_at"`
}

type UserResponse struct {
	User user.Public `json:"user"`
}

type CreateBookmarkRequest struct {
	Title       string  `json:"title" validate:"required"`
	Link        string  `json:"link" validate:"required,url"`
	Description *string `json:"description"`
}

type UpdateBookmarkRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1"`
	Link        *string `json:"link" validate:"omitempty,url"`
	Description NullableString `json:"description"`
}

func (r UpdateBookmarkRequest) Patch() BookmarkPatch {
	return BookmarkPatch{
		Title:       r.Title,
		Description: r.Description,
		Link:        r.Link,
	}
}

type BookmarkResponse struct {
	Bookmark *Bookmark `json:"bookmark"`
}

type BookmarksResponse struct {
	Bookmarks []Bookmark `json:"bookmarks"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

type InternalStatsResponse struct {
	Users     int64 `json:"users"`
	Bookmarks int64 `json:"bookmarks"`
}

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)
