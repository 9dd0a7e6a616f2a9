package service

import (
	"context"
	"errors"

	"github.com/patric-chuzhbe/bookmarks/internal/db/storage"
	"github.com/patric-chuzhbe/bookmarks/internal/models"
)

type bookmarkKeeper interface {
	CreateBookmark(ctx context.Context, bookmark *models.Bookmark) error
	GetUserBookmarks(ctx context.Context, userID int64) ([]models.Bookmark, error)
	GetUserBookmark(ctx context.Context, userID, bookmarkID int64) (*models.Bookmark, error)
	UpdateUserBookmark(
		ctx context.Context,
		userID,
		bookmarkID int64,
		patch models.BookmarkPatch,
	) (*models.Bookmark, error)
	DeleteUserBookmark(ctx context.Context, userID, bookmarkID int64) error
}

// BookmarkService performs owner-scoped bookmark CRUD.
type BookmarkService struct {
	db bookmarkKeeper
}

func NewBookmarkService(db bookmarkKeeper) *BookmarkService {
	return &BookmarkService{db: db}
}

// Create stores a new bookmark owned by ownerID. An empty description is stored as null.
func (s *BookmarkService) Create(
	ctx context.Context,
	ownerID int64,
	title,
	link string,
	description *string,
) (*models.Bookmark, error) {
	if description != nil && *description == "" {
		description = nil
	}

	bookmark := &models.Bookmark{
		Title:       title,
		Description: description,
		Link:        link,
		UserID:      ownerID,
	}
	if err := s.db.CreateBookmark(ctx, bookmark); err != nil {
		return nil, err
	}

	return bookmark, nil
}

// ListByOwner returns all bookmarks of ownerID; never nil.
func (s *BookmarkService) ListByOwner(ctx context.Context, ownerID int64) ([]models.Bookmark, error) {
	bookmarks, err := s.db.GetUserBookmarks(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if bookmarks == nil {
		bookmarks = []models.Bookmark{}
	}

	return bookmarks, nil
}

// GetByID returns the bookmark if it exists and belongs to ownerID, and nil otherwise.
func (s *BookmarkService) GetByID(ctx context.Context, ownerID, bookmarkID int64) (*models.Bookmark, error) {
	bookmark, err := s.db.GetUserBookmark(ctx, ownerID, bookmarkID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return bookmark, nil
}

// Update applies the patch in one conditional write. A missing or foreign
// bookmark yields ErrAccessDenied.
func (s *BookmarkService) Update(
	ctx context.Context,
	ownerID,
	bookmarkID int64,
	patch models.BookmarkPatch,
) (*models.Bookmark, error) {
	bookmark, err := s.db.UpdateUserBookmark(ctx, ownerID, bookmarkID, patch)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrAccessDenied
	}
	if err != nil {
		return nil, err
	}

	return bookmark, nil
}

// Delete removes the bookmark in one conditional write. A missing or foreign
// bookmark, including one deleted by a concurrent call, yields ErrAccessDenied.
func (s *BookmarkService) Delete(ctx context.Context, ownerID, bookmarkID int64) error {
	err := s.db.DeleteUserBookmark(ctx, ownerID, bookmarkID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrAccessDenied
	}

	return err
}
