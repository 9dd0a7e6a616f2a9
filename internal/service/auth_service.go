package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/bookmarks/internal/auth"
	"github.com/patric-chuzhbe/bookmarks/internal/db/storage"
	"github.com/patric-chuzhbe/bookmarks/internal/models"
	"github.com/patric-chuzhbe/bookmarks/internal/user"
)

type userKeeper interface {
	CreateUser(ctx context.Context, usr *user.User) error
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	GetUserByID(ctx context.Context, userID int64) (*user.User, error)
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type tokenIssuer interface {
	IssueToken(userID int64) (auth.Token, error)
}

// AuthService registers and authenticates accounts.
type AuthService struct {
	db     userKeeper
	hasher passwordHasher
	tokens tokenIssuer
}

func NewAuthService(db userKeeper, hasher passwordHasher, tokens tokenIssuer) *AuthService {
	return &AuthService{
		db:     db,
		hasher: hasher,
		tokens: tokens,
	}
}

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

// Register creates an account and returns its public view with a fresh token.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (models.AuthResponse, error) {
	if len(password) > maxPasswordBytes {
		return models.AuthResponse{}, ErrPasswordTooLong
	}

	passwordHash, err := s.hasher.Hash(password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return models.AuthResponse{}, ErrPasswordTooLong
	}
	if err != nil {
		return models.AuthResponse{}, err
	}

	usr := &user.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
	}
	err = s.db.CreateUser(ctx, usr)
	if errors.Is(err, storage.ErrDuplicateEmail) {
		return models.AuthResponse{}, ErrEmailTaken
	}
	if err != nil {
		return models.AuthResponse{}, err
	}

	return s.newAuthResponse(usr)
}

// Authenticate checks the credentials and returns the account's public view with a fresh token.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (models.AuthResponse, error) {
	usr, err := s.db.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return models.AuthResponse{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.AuthResponse{}, err
	}

	if err := s.hasher.Compare(usr.PasswordHash, password); err != nil {
		return models.AuthResponse{}, ErrInvalidCredentials
	}

	return s.newAuthResponse(usr)
}

// GetUser returns the public view of the account with the given ID.
func (s *AuthService) GetUser(ctx context.Context, userID int64) (user.Public, error) {
	usr, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return user.Public{}, err
	}

	return usr.Public(), nil
}

func (s *AuthService) newAuthResponse(usr *user.User) (models.AuthResponse, error) {
	token, err := s.tokens.IssueToken(usr.ID)
	if err != nil {
		return models.AuthResponse{}, err
	}

	return models.AuthResponse{
		User:        usr.Public(),
		AccessToken: token.Value,
		ExpiresAt:   token.ExpiresAt,
	}, nil
}
