// Package admin aggregates progress across all users.
package admin

import (
	"context"
	"errors"
	"sort"

	"github.com/p-n-ai/pai-tracker/internal/apperr"
	"github.com/p-n-ai/pai-tracker/internal/auth"
	"github.com/p-n-ai/pai-tracker/internal/catalog"
	"github.com/p-n-ai/pai-tracker/internal/progress"
)

// Users is the part of auth.UserStore the admin views read.
type Users interface {
	UserByID(ctx context.Context, id string) (auth.User, error)
	ListUsers(ctx context.Context) ([]auth.User, error)
}

// Entry is one leaderboard row.
type Entry struct {
	UserID         string `json:"userId"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Completed      int    `json:"completed"`
	TotalQuestions int    `json:"totalQuestions"`
	TotalPercent   int    `json:"totalPercent"`
}

// UserReport is one user's per-topic breakdown.
type UserReport struct {
	UserID       string               `json:"userId"`
	Name         string               `json:"name"`
	Email        string               `json:"email"`
	TotalPercent int                  `json:"totalPercent"`
	Topics       []progress.TopicStat `json:"topics"`
}

// Service answers admin queries.
type Service struct {
	users    Users
	catalog  catalog.Store
	progress progress.Store
}

// NewService creates an admin service.
func NewService(users Users, topics catalog.Store, store progress.Store) *Service {
	return &Service{users: users, catalog: topics, progress: store}
}

// Leaderboard ranks every user by total completion, highest first. Ties keep
// user enumeration order.
func (s *Service) Leaderboard(ctx context.Context) ([]Entry, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, "list users")
	}
	topics, err := s.catalog.AllTopics(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, "load topics")
	}
	all, err := s.progress.AllProgress(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, "load progress")
	}

	byUser := make(map[string]*progress.Progress, len(all))
	for i := range all {
		byUser[all[i].UserID] = &all[i]
	}

	total := 0
	for _, t := range topics {
		total += len(t.Questions)
	}

	entries := make([]Entry, 0, len(users))
	for _, u := range users {
		completed := 0
		for _, st := range progress.TopicStats(topics, byUser[u.ID]) {
			completed += st.Completed
		}
		entries = append(entries, Entry{
			UserID:         u.ID,
			Name:           u.Name,
			Email:          u.Email,
			Completed:      completed,
			TotalQuestions: total,
			TotalPercent:   progress.Percent(completed, total),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalPercent > entries[j].TotalPercent
	})
	return entries, nil
}

// UserReport returns one user's per-topic stats.
func (s *Service) UserReport(ctx context.Context, userID string) (UserReport, error) {
	u, err := s.users.UserByID(ctx, userID)
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		return UserReport{}, apperr.NotFoundf("User not found")
	case err != nil:
		return UserReport{}, apperr.Wrap(err, "load user")
	}

	topics, err := s.catalog.AllTopics(ctx)
	if err != nil {
		return UserReport{}, apperr.Wrap(err, "load topics")
	}

	var p *progress.Progress
	record, err := s.progress.ProgressByUser(ctx, u.ID)
	switch {
	case err == nil:
		p = &record
	case !errors.Is(err, progress.ErrNotFound):
		return UserReport{}, apperr.Wrap(err, "load progress")
	}

	return UserReport{
		UserID:       u.ID,
		Name:         u.Name,
		Email:        u.Email,
		TotalPercent: progress.TotalPercent(topics, p),
		Topics:       progress.TopicStats(topics, p),
	}, nil
}
