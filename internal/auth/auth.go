// Package auth issues and verifies signed bearer tokens and provides the
// HTTP middleware that resolves the caller's user ID from them. Tokens are
// read from the Authorization header or from the auth cookie.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/bookmarks/internal/logger"
	"github.com/patric-chuzhbe/bookmarks/internal/models"
)

// ErrInvalidToken is returned for tokens that are malformed, badly signed,
// expired or carry a subject that is not a user ID.
var ErrInvalidToken = errors.New("invalid or expired token")

// Token is a signed bearer token together with its expiry time.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// UserIDKey is the context key used to store and retrieve the authenticated user's ID.
const UserIDKey ContextKey = "userID"

// Auth signs tokens with an HMAC secret and authenticates requests carrying them.
type Auth struct {
	// signingKey is the HMAC secret used for HS256.
	signingKey []byte

	// tokenLifetime is the validity window of an issued token.
	tokenLifetime time.Duration

	// authCookieName is the name of the cookie that may carry the token.
	authCookieName string

	now func() time.Time
}

// Option customizes an Auth.
type Option func(*Auth)

// WithClock replaces the time source used to stamp and validate tokens.
func WithClock(now func() time.Time) Option {
	return func(a *Auth) {
		a.now = now
	}
}

// New creates an Auth with the given signing secret, token lifetime and cookie name.
func New(
	signingKey []byte,
	tokenLifetime time.Duration,
	authCookieName string,
	options ...Option,
) *Auth {
	a := &Auth{
		signingKey:     signingKey,
		tokenLifetime:  tokenLifetime,
		authCookieName: authCookieName,
		now:            time.Now,
	}
	for _, option := range options {
		option(a)
	}

	return a
}

// IssueToken builds an HS256 token whose subject is the user ID and whose
// expiry is exactly tokenLifetime after issuance.
func (a *Auth) IssueToken(userID int64) (Token, error) {
	issuedAt := a.now()
	expiresAt := issuedAt.Add(a.tokenLifetime)

	claims := jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.signingKey)
	if err != nil {
		return Token{}, fmt.Errorf("in internal/auth/auth.go/IssueToken(): error while `token.SignedString()` calling: %w", err)
	}

	return Token{
		Value:     tokenString,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// ParseToken verifies the signature and expiry of tokenString against the
// Auth clock and returns the user ID from its subject.
func (a *Auth) ParseToken(tokenString string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	token, err := parser.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.signingKey, nil
		},
	)
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	if !claims.VerifyExpiresAt(a.now(), true) {
		return 0, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidToken
	}

	return userID, nil
}

// SetAuthCookie stores the token in the auth cookie of the response.
func (a *Auth) SetAuthCookie(response http.ResponseWriter, token Token) {
	http.SetCookie(
		response,
		&http.Cookie{
			Name:     a.authCookieName,
			Value:    token.Value,
			Path:     "/",
			Expires:  token.ExpiresAt,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	)
}

// AuthenticateUser is an HTTP middleware that rejects requests without a
// valid token with 401 and stores the user ID in the request context otherwise.
func (a *Auth) AuthenticateUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		userID, err := a.ParseToken(a.getTokenStringFromAuthorizationHeaderOrCookie(request))
		if err != nil {
			logger.Log.Debugln("Error calling the `a.ParseToken()`: ", zap.Error(err))
			writeUnauthorized(response)
			return
		}

		ctx := context.WithValue(request.Context(), UserIDKey, userID)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// UserIDFromContext returns the authenticated user ID stored by AuthenticateUser.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok && userID > 0
}

func (a *Auth) getTokenStringFromAuthorizationHeaderOrCookie(request *http.Request) string {
	header := strings.TrimSpace(request.Header.Get("Authorization"))
	if header != "" {
		if scheme, value, found := strings.Cut(header, " "); found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(value)
		}
		return header
	}

	cookie, err := request.Cookie(a.authCookieName)
	if err == nil {
		return cookie.Value
	}

	return ""
}

func writeUnauthorized(response http.ResponseWriter) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(http.StatusUnauthorized)
	err := json.NewEncoder(response).Encode(models.ErrorResponse{Message: "unauthorized"})
	if err != nil {
		logger.Log.Debugln("Error calling the `json.NewEncoder().Encode()`: ", zap.Error(err))
	}
}
