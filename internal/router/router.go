// Package router wires the HTTP API: account signup/signin, the caller's
// profile, owner-scoped bookmark CRUD, health and internal stats.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/bookmarks/internal/auth"
	"github.com/patric-chuzhbe/bookmarks/internal/db/storage"
	"github.com/patric-chuzhbe/bookmarks/internal/logger"
	"github.com/patric-chuzhbe/bookmarks/internal/models"
	"github.com/patric-chuzhbe/bookmarks/internal/service"
	"github.com/patric-chuzhbe/bookmarks/internal/user"
)

type authService interface {
	Register(ctx context.Context, name, email, password string) (models.AuthResponse, error)
	Authenticate(ctx context.Context, email, password string) (models.AuthResponse, error)
	GetUser(ctx context.Context, userID int64) (user.Public, error)
}

type bookmarkService interface {
	Create(ctx context.Context, ownerID int64, title, link string, description *string) (*models.Bookmark, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Bookmark, error)
	GetByID(ctx context.Context, ownerID, bookmarkID int64) (*models.Bookmark, error)
	Update(ctx context.Context, ownerID, bookmarkID int64, patch models.BookmarkPatch) (*models.Bookmark, error)
	Delete(ctx context.Context, ownerID, bookmarkID int64) error
}

type statsService interface {
	Ping(ctx context.Context) error
	GetInternalStats(ctx context.Context) (models.InternalStatsResponse, error)
}

type authenticator interface {
	AuthenticateUser(h http.Handler) http.Handler
	SetAuthCookie(response http.ResponseWriter, token auth.Token)
}

type trustedGuard interface {
	TrustedOnly(h http.Handler) http.Handler
}

const internalServerErrorMessage = "internal server error"

// Router holds the HTTP handlers and their collaborators.
type Router struct {
	auth      authService
	bookmarks bookmarkService
	stats     statsService
	cookies   authenticator
	validate  *validator.Validate
}

// New builds the chi router with all routes and middleware mounted.
func New(
	authSvc authService,
	bookmarkSvc bookmarkService,
	statsSvc statsService,
	theAuth authenticator,
	guard trustedGuard,
) *chi.Mux {
	myRouter := &Router{
		auth:      authSvc,
		bookmarks: bookmarkSvc,
		stats:     statsSvc,
		cookies:   theAuth,
		validate:  validator.New(),
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		logger.WithLoggingHTTPMiddleware,
		middleware.Recoverer,
		middleware.Compress(5, "application/json"),
	)

	router.Get(`/ping`, myRouter.GetPing)
	router.With(guard.TrustedOnly).Get(`/api/internal/stats`, myRouter.GetApiinternalstats)

	router.Post(`/auth/signup`, myRouter.PostAuthsignup)
	router.Post(`/auth/signin`, myRouter.PostAuthsignin)

	router.Group(func(r chi.Router) {
		r.Use(theAuth.AuthenticateUser)

		r.Get(`/users/me`, myRouter.GetUsersme)

		r.Post(`/bookmarks`, myRouter.PostBookmarks)
		r.Get(`/bookmarks`, myRouter.GetBookmarks)
		r.Get(`/bookmarks/{id}`, myRouter.GetBookmarksid)
		r.Patch(`/bookmarks/{id}`, myRouter.PatchBookmarksid)
		r.Delete(`/bookmarks/{id}`, myRouter.DeleteBookmarksid)
	})

	return router
}

func (router *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := router.stats.Ping(request.Context()); err != nil {
		logger.Log.Debugln("Error calling the `router.stats.Ping()`: ", zap.Error(err))
		response.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	response.WriteHeader(http.StatusOK)
}

func (router *Router) GetApiinternalstats(response http.ResponseWriter, request *http.Request) {
	stats, err := router.stats.GetInternalStats(request.Context())
	if err != nil {
		logger.Log.Debugln("Error calling the `router.stats.GetInternalStats()`: ", zap.Error(err))
		writeError(response, http.StatusInternalServerError, internalServerErrorMessage)
		return
	}

	writeJSON(response, http.StatusOK, stats)
}

func (router *Router) PostAuthsignup(response http.ResponseWriter, request *http.Request) {
	var requestDTO models.SignupRequest
	if !router.decodeAndValidate(response, request, &requestDTO) {
		return
	}

	result, err := router.auth.Register(request.Context(), requestDTO.Name, requestDTO.Email, requestDTO.Password)
	if errors.Is(err, service.ErrEmailTaken) {
		writeError(response, http.StatusConflict, err.Error())
		return
	}
	if errors.Is(err, service.ErrPasswordTooLong) {
		writeError(response, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `router.auth.Register()`: ", zap.Error(err))
		writeError(response, http.StatusInternalServerError, internalServerErrorMessage)
		return
	}

	router.cookies.SetAuthCookie(response, auth.Token{Value: result.AccessToken, ExpiresAt: result.ExpiresAt})
	writeJSON(response, http.StatusCreated, result)
}

func (router *Router) PostAuthsignin(response http.ResponseWriter, request *http.Request) {
	var requestDTO models.SigninRequest
	if !router.decodeAndValidate(response, request, &requestDTO) {
		return
	}

	result, err := router.auth.Authenticate(request.Context(), requestDTO.Email, requestDTO.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		writeError(response, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `router.auth.Authenticate()`: ", zap.Error(err))
		writeError(response, http.StatusInternalServerError, internalServerErrorMessage)
		return
	}

	router.cookies.SetAuthCookie(response, auth.Token{Value: result.AccessToken, ExpiresAt: result.ExpiresAt})
	writeJSON(response, http.StatusOK, result)
}

func (router *Router) GetUsersme(response http.ResponseWriter, request *http.Request) {
	userID, ok := requireUserID(response, request)
	if !ok {
		return
	}

	usr, err := router.auth.GetUser(request.Context(), userID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(response, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `router.auth.GetUser()`: ", zap.Error(err))
		writeError(response, http.StatusInternalServerError, internalServerErrorMessage)
		return
	}

	writeJSON(response, http.StatusOK, models.UserResponse{User: usr})
}

func (router *Router) PostBookmarks(response http.ResponseWriter, request *http.Request) {
	userID, ok := requireUserID(response, request)
	if !ok {
		return
	}

	var requestDTO models.CreateBookmarkRequest
	if !router.decodeAndValidate(response, request, &requestDTO) {
		return
	}

	bookmark, err := router.bookmarks.Create(
		request.Context(),
		userID,
		requestDTO.Title,
		requestDTO.Link,
		requestDTO.Description,
	)
	if err != nil {
		logger.Log.Debugln("Error calling the `router.bookmarks.Create()`: ", zap.Error(err))
		writeError(response, http.StatusInternalServerError, internalServerErrorMessage)
		return
	}

	writeJSON(response, http.StatusCreated, models.BookmarkResponse{Bookmark: bookmark})
}

func (router *Router) GetBookmarks(response http.ResponseWriter, request *http.Request) {
	userID, ok := requireUserID(response, request)
	if !ok {
		return
	}

	bookmarks, err := router.bookmarks.ListByOwner(request.Context(), userID)
	if err != nil {
		logger.Log.Debugln("Error calling the `router.bookmarks.ListByOwner()`: ", zap.Error(err))
		writeError(response, http.StatusInternalServerError, internalServerErrorMessage)
		return
	}

	writeJSON(response, http.StatusOK, models.BookmarksResponse{Bookmarks: bookmarks})
}

func (router *Router) GetBookmarksid(response http.ResponseWriter, request *http.Request) {
	userID, ok := requireUserID(response, request)
	if !ok {
		return
	}
	bookmarkID, ok := requireBookmarkID(response, request)
	if !ok {
		return
	}

	bookmark, err := router.bookmarks.GetByID(request.Context(), userID, bookmarkID)
	if err != nil {
		logger.Log.Debugln("Error calling the `router.bookmarks.GetByID()`: ", zap.Error(err))
		writeError(response, http.StatusInternalServerError, internalServerErrorMessage)
		return
	}

	writeJSON(response, http.StatusOK, models.BookmarkResponse{Bookmark: bookmark})
}

// PatchBookmarksid applies a partial update to one of the caller's bookmarks.
// Absent fields keep their stored values. An explicit "description": null
// clears the description, while "" stores an empty one.
func (router *Router) PatchBookmarksid(response http.ResponseWriter, request *http.Request) {
	userID, ok := requireUserID(response, request)
	if !ok {
		return
	}
	bookmarkID, ok := requireBookmarkID(response, request)
	if !ok {
		return
	}

	var requestDTO models.UpdateBookmarkRequest
	if !router.decodeAndValidate(response, request, &requestDTO) {
		return
	}

	bookmark, err := router.bookmarks.Update(request.Context(), userID, bookmarkID, requestDTO.Patch())
	if errors.Is(err, service.ErrAccessDenied) {
		writeError(response, http.StatusForbidden, err.Error())
		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `router.bookmarks.Update()`: ", zap.Error(err))
		writeError(response, http.StatusInternalServerError, internalServerErrorMessage)
		return
	}

	writeJSON(response, http.StatusOK, models.BookmarkResponse{Bookmark: bookmark})
}

func (router *Router) DeleteBookmarksid(response http.ResponseWriter, request *http.Request) {
	userID, ok := requireUserID(response, request)
	if !ok {
		return
	}
	bookmarkID, ok := requireBookmarkID(response, request)
	if !ok {
		return
	}

	err := router.bookmarks.Delete(request.Context(), userID, bookmarkID)
	if errors.Is(err, service.ErrAccessDenied) {
		writeError(response, http.StatusForbidden, err.Error())
		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `router.bookmarks.Delete()`: ", zap.Error(err))
		writeError(response, http.StatusInternalServerError, internalServerErrorMessage)
		return
	}

	response.WriteHeader(http.StatusNoContent)
}

func (router *Router) decodeAndValidate(response http.ResponseWriter, request *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(request.Body).Decode(dst); err != nil {
		writeError(response, http.StatusBadRequest, "malformed JSON body")
		return false
	}

	if err := router.validate.Struct(dst); err != nil {
		writeError(response, http.StatusBadRequest, err.Error())
		return false
	}

	return true
}

func requireUserID(response http.ResponseWriter, request *http.Request) (int64, bool) {
	userID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		writeError(response, http.StatusUnauthorized, "unauthorized")
	}

	return userID, ok
}

func requireBookmarkID(response http.ResponseWriter, request *http.Request) (int64, bool) {
	bookmarkID, err := strconv.ParseInt(chi.URLParam(request, "id"), 10, 64)
	if err != nil || bookmarkID <= 0 {
		writeError(response, http.StatusBadRequest, "bookmark id must be a positive integer")
		return 0, false
	}

	return bookmarkID, true
}

func writeJSON(response http.ResponseWriter, status int, body interface{}) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(status)
	if err := json.NewEncoder(response).Encode(body); err != nil {
		logger.Log.Debugln("Error calling the `json.NewEncoder().Encode()`: ", zap.Error(err))
	}
}

func writeError(response http.ResponseWriter, status int, message string) {
	writeJSON(response, status, models.ErrorResponse{Message: message})
}
