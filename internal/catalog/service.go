package catalog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/p-n-ai/pai-tracker/internal/apperr"
)

// Service exposes catalog administration to the API.
type Service struct {
	store Store
}

// NewService creates a catalog service over store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// AddTopic validates a JSON topic document and stores it.
func (s *Service) AddTopic(ctx context.Context, raw []byte) (Topic, error) {
	t, err := ParseTopic(raw)
	if err != nil {
		return Topic{}, apperr.BadRequestf("%s", err.Error())
	}

	added, err := s.store.AddTopic(ctx, t)
	switch {
	case errors.Is(err, ErrDuplicate):
		return Topic{}, apperr.BadRequestf("Topic already exists")
	case errors.Is(err, ErrInvalid):
		return Topic{}, apperr.BadRequestf("%s", err.Error())
	case err != nil:
		return Topic{}, apperr.Wrap(err, "add topic")
	}

	slog.Info("topic added", "topic_id", added.ID, "topic_name", added.TopicName, "questions", len(added.Questions))
	return added, nil
}
