// Package storage declares the persistence gateway contract shared by
// the postgres, JSON-file and in-memory implementations.
package storage

import (
	"context"
	"errors"

	"github.com/patric-chuzhbe/bookmarks/internal/models"
	"github.com/patric-chuzhbe/bookmarks/internal/user"
)

// ErrNotFound is returned when no record matches the lookup, including
// owner-scoped lookups of a record that belongs to somebody else.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateEmail is returned when a user insert violates the unique email constraint.
var ErrDuplicateEmail = errors.New("email already exists")

type Storage interface {
	CreateUser(ctx context.Context, usr *user.User) error

	GetUserByEmail(ctx context.Context, email string) (*user.User, error)

	GetUserByID(ctx context.Context, userID int64) (*user.User, error)

	CreateBookmark(ctx context.Context, bookmark *models.Bookmark) error

	GetUserBookmarks(ctx context.Context, userID int64) ([]models.Bookmark, error)

	GetUserBookmark(ctx context.Context, userID, bookmarkID int64) (*models.Bookmark, error)

	// UpdateUserBookmark applies the patch only if the bookmark belongs to userID,
	// in a single atomic step. It returns ErrNotFound otherwise.
	UpdateUserBookmark(
		ctx context.Context,
		userID,
		bookmarkID int64,
		patch models.BookmarkPatch,
	) (*models.Bookmark, error)

	// DeleteUserBookmark removes the bookmark only if it belongs to userID,
	// in a single atomic step. It returns ErrNotFound otherwise.
	DeleteUserBookmark(ctx context.Context, userID, bookmarkID int64) error

	GetNumberOfUsers(ctx context.Context) (int64, error)

	GetNumberOfBookmarks(ctx context.Context) (int64, error)

	Ping(ctx context.Context) error

	Close() error
}
