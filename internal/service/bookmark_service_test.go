package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/bookmarks/internal/db/memorystorage"
	"github.com/patric-chuzhbe/bookmarks/internal/db/storage"
	"github.com/patric-chuzhbe/bookmarks/internal/mockstorage"
	"github.com/patric-chuzhbe/bookmarks/internal/models"
)

const (
	ownerA int64 = 1
	ownerB int64 = 2
)

func strPtr(s string) *string {
	return &s
}

func newTestBookmarkService(t *testing.T) *BookmarkService {
	t.Helper()

	db, err := memorystorage.New()
	require.NoError(t, err)

	return NewBookmarkService(db)
}

func TestBookmarkService_Create(t *testing.T) {
	ctx := context.Background()
	svc := newTestBookmarkService(t)

	type tTestCase struct {
		name            string
		description     *string
		wantDescription *string
	}
	testCases := []tTestCase{
		{
			name:            "with description",
			description:     strPtr("search engine"),
			wantDescription: strPtr("search engine"),
		},
		{
			name:        "without description",
			description: nil,
		},
		{
			name:        "empty description is stored as null",
			description: strPtr(""),
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			created, err := svc.Create(ctx, ownerA, "Search", "https://google.com", testCase.description)
			require.NoError(t, err)

			assert.Positive(t, created.ID)
			assert.Equal(t, ownerA, created.UserID)
			assert.Equal(t, "Search", created.Title)
			assert.Equal(t, "https://google.com", created.Link)
			assert.Equal(t, testCase.wantDescription, created.Description)
			assert.False(t, created.CreatedAt.IsZero())

			fetched, err := svc.GetByID(ctx, ownerA, created.ID)
			require.NoError(t, err)
			assert.Equal(t, created, fetched)
		})
	}
}

func TestBookmarkService_ListByOwner(t *testing.T) {
	ctx := context.Background()
	svc := newTestBookmarkService(t)

	empty, err := svc.ListByOwner(ctx, ownerA)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	first, err := svc.Create(ctx, ownerA, "First", "https://first.example", nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, ownerB, "Foreign", "https://foreign.example", nil)
	require.NoError(t, err)
	second, err := svc.Create(ctx, ownerA, "Second", "https://second.example", nil)
	require.NoError(t, err)

	list, err := svc.ListByOwner(ctx, ownerA)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
	for _, b := range list {
		assert.Equal(t, ownerA, b.UserID)
	}
}

func TestBookmarkService_GetByIDForeignOrMissing(t *testing.T) {
	ctx := context.Background()
	svc := newTestBookmarkService(t)

	created, err := svc.Create(ctx, ownerA, "Private", "https://private.example", nil)
	require.NoError(t, err)

	foreign, err := svc.GetByID(ctx, ownerB, created.ID)
	require.NoError(t, err)
	assert.Nil(t, foreign)

	missing, err := svc.GetByID(ctx, ownerA, created.ID+100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBookmarkService_UpdatePartial(t *testing.T) {
	ctx := context.Background()
	svc := newTestBookmarkService(t)

	created, err := svc.Create(ctx, ownerA, "Old title", "https://old.example", strPtr("old description"))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, ownerA, created.ID, models.BookmarkPatch{Title: strPtr("New title")})
	require.NoError(t, err)

	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, "https://old.example", updated.Link)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "old description", *updated.Description)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	updated, err = svc.Update(ctx, ownerA, created.ID, models.BookmarkPatch{
		Link:        strPtr("https://new.example"),
		Description: models.NullableString{Set: true, Value: strPtr("new description")},
	})
	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, "https://new.example", updated.Link)
	assert.Equal(t, "new description", *updated.Description)

	updated, err = svc.Update(ctx, ownerA, created.ID, models.BookmarkPatch{
		Description: models.NullableString{Set: true},
	})
	require.NoError(t, err)
	assert.Nil(t, updated.Description)
	assert.Equal(t, "New title", updated.Title)
}

func TestBookmarkService_ForeignOwnerIsDenied(t *testing.T) {
	ctx := context.Background()
	svc := newTestBookmarkService(t)

	created, err := svc.Create(ctx, ownerA, "Mine", "https://mine.example", nil)
	require.NoError(t, err)

	_, err = svc.Update(ctx, ownerB, created.ID, models.BookmarkPatch{Title: strPtr("Stolen")})
	assert.ErrorIs(t, err, ErrAccessDenied)

	err = svc.Delete(ctx, ownerB, created.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	unchanged, err := svc.GetByID(ctx, ownerA, created.ID)
	require.NoError(t, err)
	require.NotNil(t, unchanged)
	assert.Equal(t, "Mine", unchanged.Title)
}

func TestBookmarkService_MissingBookmarkIsDenied(t *testing.T) {
	ctx := context.Background()
	svc := newTestBookmarkService(t)

	_, err := svc.Update(ctx, ownerA, 404, models.BookmarkPatch{Title: strPtr("Nothing")})
	assert.ErrorIs(t, err, ErrAccessDenied)

	err = svc.Delete(ctx, ownerA, 404)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestBookmarkService_Delete(t *testing.T) {
	ctx := context.Background()
	svc := newTestBookmarkService(t)

	created, err := svc.Create(ctx, ownerA, "Temporary", "https://temporary.example", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, ownerA, created.ID))

	gone, err := svc.GetByID(ctx, ownerA, created.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	assert.ErrorIs(t, svc.Delete(ctx, ownerA, created.ID), ErrAccessDenied)
}

func TestBookmarkService_ConcurrentDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestBookmarkService(t)

	created, err := svc.Create(ctx, ownerA, "Contended", "https://contended.example", nil)
	require.NoError(t, err)

	const workers = 8
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- svc.Delete(ctx, ownerA, created.ID)
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, denied int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrAccessDenied):
			denied++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, denied)
}

func TestBookmarkService_StorageFailures(t *testing.T) {
	ctx := context.Background()
	storageErr := errors.New("connection reset")

	db := &mockstorage.StorageMock{}
	db.On("CreateBookmark", mock.Anything, mock.AnythingOfType("*models.Bookmark")).Return(storageErr)
	db.On("GetUserBookmarks", mock.Anything, ownerA).Return(nil, storageErr)
	db.On("GetUserBookmark", mock.Anything, ownerA, int64(1)).Return(nil, storageErr)
	db.On("UpdateUserBookmark", mock.Anything, ownerA, int64(1), mock.Anything).Return(nil, storageErr)
	db.On("DeleteUserBookmark", mock.Anything, ownerA, int64(1)).Return(storageErr)

	svc := NewBookmarkService(db)

	_, err := svc.Create(ctx, ownerA, "t", "https://t.example", nil)
	assert.ErrorIs(t, err, storageErr)

	_, err = svc.ListByOwner(ctx, ownerA)
	assert.ErrorIs(t, err, storageErr)

	_, err = svc.GetByID(ctx, ownerA, 1)
	assert.ErrorIs(t, err, storageErr)

	_, err = svc.Update(ctx, ownerA, 1, models.BookmarkPatch{})
	assert.ErrorIs(t, err, storageErr)
	assert.NotErrorIs(t, err, ErrAccessDenied)

	err = svc.Delete(ctx, ownerA, 1)
	assert.ErrorIs(t, err, storageErr)
	assert.NotErrorIs(t, err, ErrAccessDenied)

	db.AssertExpectations(t)
}

func TestBookmarkService_ListByOwnerNilFromStorage(t *testing.T) {
	db := &mockstorage.StorageMock{}
	db.On("GetUserBookmarks", mock.Anything, ownerA).Return(nil, nil)

	list, err := NewBookmarkService(db).ListByOwner(context.Background(), ownerA)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestBookmarkService_NotFoundFromStorage(t *testing.T) {
	db := &mockstorage.StorageMock{}
	db.On("GetUserBookmark", mock.Anything, ownerA, int64(9)).Return(nil, storage.ErrNotFound)

	bookmark, err := NewBookmarkService(db).GetByID(context.Background(), ownerA, 9)
	require.NoError(t, err)
	assert.Nil(t, bookmark)
}
