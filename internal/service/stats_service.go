package service

import (
	"context"

	"github.com/patric-chuzhbe/bookmarks/internal/models"
)

type statsKeeper interface {
	GetNumberOfUsers(ctx context.Context) (int64, error)
	GetNumberOfBookmarks(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// StatsService reports storage health and totals.
type StatsService struct {
	db statsKeeper
}

func NewStatsService(db statsKeeper) *StatsService {
	return &StatsService{db: db}
}

// Ping checks the health of the storage layer.
func (s *StatsService) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// GetInternalStats returns the number of users and bookmarks.
func (s *StatsService) GetInternalStats(ctx context.Context) (models.InternalStatsResponse, error) {
	users, err := s.db.GetNumberOfUsers(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	bookmarks, err := s.db.GetNumberOfBookmarks(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	return models.InternalStatsResponse{
		Users:     users,
		Bookmarks: bookmarks,
	}, nil
}
