package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/bookmarks/internal/auth"
	"github.com/patric-chuzhbe/bookmarks/internal/db/memorystorage"
	"github.com/patric-chuzhbe/bookmarks/internal/db/storage"
	"github.com/patric-chuzhbe/bookmarks/internal/mockstorage"
	"github.com/patric-chuzhbe/bookmarks/internal/user"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestAuthService(t *testing.T) (*AuthService, *memorystorage.MemoryStorage, *auth.Auth) {
	t.Helper()

	db, err := memorystorage.New()
	require.NoError(t, err)

	theAuth := auth.New([]byte(testSecret), 15*time.Minute, "access_token")

	return NewAuthService(db, auth.NewBcryptHasher(bcrypt.MinCost), theAuth), db, theAuth
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	svc, db, theAuth := newTestAuthService(t)

	resp, err := svc.Register(ctx, "Alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)

	assert.Positive(t, resp.User.ID)
	assert.Equal(t, "Alice", resp.User.Name)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.AccessToken)

	userID, err := theAuth.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, userID)

	stored, err := db.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret-pass")))
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, db, _ := newTestAuthService(t)

	_, err := svc.Register(ctx, "Alice", "alice@example.com", "first-pass")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Another Alice", "alice@example.com", "second-pass")
	assert.ErrorIs(t, err, ErrEmailTaken)

	users, err := db.GetNumberOfUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), users)
}

func TestAuthService_ResponseHasNoPasswordHash(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestAuthService(t)

	resp, err := svc.Register(ctx, "Bob", "bob@example.com", "bob-password")
	require.NoError(t, err)

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "password")
	assert.NotContains(t, string(body), "$2a$")

	me, err := svc.GetUser(ctx, resp.User.ID)
	require.NoError(t, err)
	body, err = json.Marshal(me)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "password")
}

func TestAuthService_Authenticate(t *testing.T) {
	ctx := context.Background()
	svc, _, theAuth := newTestAuthService(t)

	registered, err := svc.Register(ctx, "Carol", "carol@example.com", "carol-password")
	require.NoError(t, err)

	type tTestCase struct {
		name      string
		email     string
		password  string
		wantError error
	}
	testCases := []tTestCase{
		{
			name:     "valid credentials",
			email:    "carol@example.com",
			password: "carol-password",
		},
		{
			name:      "wrong password",
			email:     "carol@example.com",
			password:  "wrong-password",
			wantError: ErrInvalidCredentials,
		},
		{
			name:      "unknown email",
			email:     "nobody@example.com",
			password:  "carol-password",
			wantError: ErrInvalidCredentials,
		},
		{
			name:      "email differs in case",
			email:     "Carol@example.com",
			password:  "carol-password",
			wantError: ErrInvalidCredentials,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			resp, err := svc.Authenticate(ctx, testCase.email, testCase.password)
			if testCase.wantError != nil {
				assert.Equal(t, testCase.wantError, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, registered.User.ID, resp.User.ID)

			userID, err := theAuth.ParseToken(resp.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, registered.User.ID, userID)
		})
	}
}

func TestAuthService_GetUser(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestAuthService(t)

	registered, err := svc.Register(ctx, "Dave", "dave@example.com", "dave-password")
	require.NoError(t, err)

	me, err := svc.GetUser(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, registered.User, me)

	_, err = svc.GetUser(ctx, registered.User.ID+100)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAuthService_RegisterPasswordByteLimit(t *testing.T) {
	ctx := context.Background()
	svc, db, _ := newTestAuthService(t)

	multibyte := strings.Repeat("ж", 40)
	require.Len(t, []rune(multibyte), 40)
	require.Len(t, multibyte, 80)

	_, err := svc.Register(ctx, "Ivan", "ivan@example.com", multibyte)
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	users, err := db.GetNumberOfUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, users)

	_, err = svc.Register(ctx, "Ivan", "ivan@example.com", strings.Repeat("ж", 36))
	assert.NoError(t, err)
}

type failingHasher struct{}

func (failingHasher) Hash(string) (string, error) { return "", errors.New("hash failure") }
func (failingHasher) Compare(string, string) error { return errors.New("compare failure") }

func TestAuthService_RegisterHashFailureStoresNothing(t *testing.T) {
	db := &mockstorage.StorageMock{}
	svc := NewAuthService(db, failingHasher{}, auth.New([]byte(testSecret), time.Minute, "access_token"))

	_, err := svc.Register(context.Background(), "Eve", "eve@example.com", "eve-password")
	assert.EqualError(t, err, "hash failure")
	db.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestAuthService_StorageFailures(t *testing.T) {
	ctx := context.Background()
	storageErr := errors.New("connection refused")

	db := &mockstorage.StorageMock{}
	db.On("CreateUser", mock.Anything, mock.AnythingOfType("*user.User")).Return(storageErr).Once()
	db.On("GetUserByEmail", mock.Anything, "frank@example.com").Return(nil, storageErr).Once()

	svc := NewAuthService(db, auth.NewBcryptHasher(bcrypt.MinCost), auth.New([]byte(testSecret), time.Minute, "access_token"))

	_, err := svc.Register(ctx, "Frank", "frank@example.com", "frank-password")
	assert.ErrorIs(t, err, storageErr)

	_, err = svc.Authenticate(ctx, "frank@example.com", "frank-password")
	assert.ErrorIs(t, err, storageErr)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)

	db.AssertExpectations(t)
}

func TestAuthService_RegisterWithMockStorage(t *testing.T) {
	db := &mockstorage.StorageMock{
		OnCreateUser: func(usr *user.User) { usr.ID = 77 },
	}
	db.On("CreateUser", mock.Anything, mock.MatchedBy(func(usr *user.User) bool {
		return usr.Email == "grace@example.com" && usr.PasswordHash != "" && usr.PasswordHash != "grace-password"
	})).Return(nil).Once()

	theAuth := auth.New([]byte(testSecret), time.Minute, "access_token")
	svc := NewAuthService(db, auth.NewBcryptHasher(bcrypt.MinCost), theAuth)

	resp, err := svc.Register(context.Background(), "Grace", "grace@example.com", "grace-password")
	require.NoError(t, err)
	assert.Equal(t, int64(77), resp.User.ID)

	userID, err := theAuth.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(77), userID)

	db.AssertExpectations(t)
}
