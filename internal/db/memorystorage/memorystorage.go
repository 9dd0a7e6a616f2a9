// Package memorystorage keeps users and bookmarks in process memory.
// It is the default storage when neither a database DSN nor a file path
// is configured, and it backs the JSON-file storage.
package memorystorage

import (
	"context"
	"sync"
	"time"

	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/bookmarks/internal/db/storage"
	"github.com/patric-chuzhbe/bookmarks/internal/models"
	"github.com/patric-chuzhbe/bookmarks/internal/user"
)

// Data is the complete state of a MemoryStorage. Bookmarks are kept in
// ascending ID order.
type Data struct {
	Users          []user.User
	Bookmarks      []models.Bookmark
	NextUserID     int64
	NextBookmarkID int64
}

type MemoryStorage struct {
	mu   sync.RWMutex
	data Data
	now  func() time.Time
}

func New() (*MemoryStorage, error) {
	return NewFromData(Data{})
}

// NewFromData builds a storage seeded with a previously saved state.
func NewFromData(data Data) (*MemoryStorage, error) {
	if data.NextUserID == 0 {
		data.NextUserID = 1
	}
	if data.NextBookmarkID == 0 {
		data.NextBookmarkID = 1
	}
	if data.Users == nil {
		data.Users = []user.User{}
	}
	if data.Bookmarks == nil {
		data.Bookmarks = []models.Bookmark{}
	}

	return &MemoryStorage{
		data: data,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// Data returns a deep copy of the current state.
func (s *MemoryStorage) Data() Data {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bookmarks := make([]models.Bookmark, 0, len(s.data.Bookmarks))
	for _, b := range s.data.Bookmarks {
		bookmarks = append(bookmarks, cloneBookmark(b))
	}

	return Data{
		Users:          append([]user.User{}, s.data.Users...),
		Bookmarks:      bookmarks,
		NextUserID:     s.data.NextUserID,
		NextBookmarkID: s.data.NextBookmarkID,
	}
}

func (s *MemoryStorage) CreateUser(ctx context.Context, usr *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findUserIndexByEmail(usr.Email) >= 0 {
		return storage.ErrDuplicateEmail
	}

	now := s.now()
	usr.ID = s.data.NextUserID
	usr.CreatedAt = now
	usr.UpdatedAt = now
	s.data.NextUserID++
	s.data.Users = append(s.data.Users, *usr)

	return nil
}

func (s *MemoryStorage) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.findUserIndexByEmail(email)
	if i < 0 {
		return nil, storage.ErrNotFound
	}
	usr := s.data.Users[i]

	return &usr, nil
}

func (s *MemoryStorage) GetUserByID(ctx context.Context, userID int64) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := funk.Find(s.data.Users, func(u user.User) bool { return u.ID == userID })
	if found == nil {
		return nil, storage.ErrNotFound
	}
	usr := found.(user.User)

	return &usr, nil
}

func (s *MemoryStorage) CreateBookmark(ctx context.Context, bookmark *models.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	bookmark.ID = s.data.NextBookmarkID
	bookmark.CreatedAt = now
	bookmark.UpdatedAt = now
	s.data.NextBookmarkID++
	s.data.Bookmarks = append(s.data.Bookmarks, cloneBookmark(*bookmark))

	return nil
}

func (s *MemoryStorage) GetUserBookmarks(ctx context.Context, userID int64) ([]models.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned := funk.Filter(s.data.Bookmarks, func(b models.Bookmark) bool {
		return b.UserID == userID
	}).([]models.Bookmark)

	result := make([]models.Bookmark, 0, len(owned))
	for _, b := range owned {
		result = append(result, cloneBookmark(b))
	}

	return result, nil
}

func (s *MemoryStorage) GetUserBookmark(ctx context.Context, userID, bookmarkID int64) (*models.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.findBookmarkIndex(userID, bookmarkID)
	if i < 0 {
		return nil, storage.ErrNotFound
	}
	bookmark := cloneBookmark(s.data.Bookmarks[i])

	return &bookmark, nil
}

func (s *MemoryStorage) UpdateUserBookmark(
	ctx context.Context,
	userID,
	bookmarkID int64,
	patch models.BookmarkPatch,
) (*models.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findBookmarkIndex(userID, bookmarkID)
	if i < 0 {
		return nil, storage.ErrNotFound
	}

	stored := &s.data.Bookmarks[i]
	if patch.Title != nil {
		stored.Title = *patch.Title
	}
	if patch.Link != nil {
		stored.Link = *patch.Link
	}
	if patch.Description.Set {
		stored.Description = nil
		if patch.Description.Value != nil {
			description := *patch.Description.Value
			stored.Description = &description
		}
	}
	stored.UpdatedAt = s.now()

	bookmark := cloneBookmark(*stored)

	return &bookmark, nil
}

func (s *MemoryStorage) DeleteUserBookmark(ctx context.Context, userID, bookmarkID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findBookmarkIndex(userID, bookmarkID)
	if i < 0 {
		return storage.ErrNotFound
	}
	s.data.Bookmarks = append(s.data.Bookmarks[:i], s.data.Bookmarks[i+1:]...)

	return nil
}

func (s *MemoryStorage) GetNumberOfUsers(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.data.Users)), nil
}

func (s *MemoryStorage) GetNumberOfBookmarks(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.data.Bookmarks)), nil
}

func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStorage) Close() error {
	return nil
}

func (s *MemoryStorage) findUserIndexByEmail(email string) int {
	return funk.IndexOf(
		funk.Map(s.data.Users, func(u user.User) string { return u.Email }),
		email,
	)
}

func (s *MemoryStorage) findBookmarkIndex(userID, bookmarkID int64) int {
	for i, b := range s.data.Bookmarks {
		if b.ID == bookmarkID && b.UserID == userID {
			return i
		}
	}

	return -1
}

func cloneBookmark(b models.Bookmark) models.Bookmark {
	if b.Description != nil {
		description := *b.Description
		b.Description = &description
	}

	return b
}
