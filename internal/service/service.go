// Package service holds the application logic: account registration and
// authentication (AuthService), owner-scoped bookmark management
// (BookmarkService) and storage health and totals (StatsService).
//
// Services receive their collaborators through constructors and keep no
// state between calls.
package service
