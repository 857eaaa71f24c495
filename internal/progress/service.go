package progress

import (
	"context"
	"errors"
	"log/slog"

	"github.com/p-n-ai/pai-tracker/internal/apperr"
	"github.com/p-n-ai/pai-tracker/internal/catalog"
)

// Notifier receives the merged topic after each applied update.
type Notifier interface {
	Publish(userID string, payload any)
}

type nopNotifier struct{}

func (nopNotifier) Publish(string, any) {}

// ServiceConfig holds dependencies for the progress service.
type ServiceConfig struct {
	Catalog  catalog.Store
	Store    Store
	Events   EventLogger // defaults to NopEventLogger
	Notifier Notifier    // optional
}

// Service answers progress reads and applies updates for a user.
type Service struct {
	catalog  catalog.Store
	store    Store
	events   EventLogger
	notifier Notifier
}

// NewService creates a progress service.
func NewService(cfg ServiceConfig) *Service {
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Service{
		catalog:  cfg.Catalog,
		store:    store,
		events:   events,
		notifier: notifier,
	}
}

// AllTopics returns the whole catalog merged with the user's progress. An
// empty userID yields the catalog with default values.
func (s *Service) AllTopics(ctx context.Context, userID string) ([]TopicView, error) {
	topics, err := s.catalog.AllTopics(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, "load topics")
	}
	if userID == "" {
		return Merge(topics, nil), nil
	}
	p, err := s.progressFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Merge(topics, &p), nil
}

// TopicByName returns one topic merged with the user's progress.
func (s *Service) TopicByName(ctx context.Context, userID, name string) (TopicView, error) {
	if catalog.NormalizeName(name) == "" {
		return TopicView{}, apperr.BadRequestf("Topic name is required")
	}
	topic, err := s.catalog.TopicByName(ctx, name)
	if err != nil {
		return TopicView{}, topicError(err)
	}
	return s.view(ctx, userID, topic)
}

// TopicByID returns one topic merged with the user's progress.
func (s *Service) TopicByID(ctx context.Context, userID, topicID string) (TopicView, error) {
	if !catalog.ValidID(topicID) {
		return TopicView{}, apperr.BadRequestf("Invalid topic ID")
	}
	topic, err := s.catalog.TopicByID(ctx, topicID)
	if err != nil {
		return TopicView{}, topicError(err)
	}
	return s.view(ctx, userID, topic)
}

// Update sets one field of one question for the user and returns the
// merged topic as it reads after the write.
func (s *Service) Update(ctx context.Context, userID, topicID, questionID, fieldName string, value any) (TopicView, error) {
	if userID == "" {
		return TopicView{}, apperr.Unauthenticatedf("Not authorized")
	}
	field, err := ParseField(fieldName)
	if err != nil {
		return TopicView{}, apperr.BadRequestf("Invalid field")
	}
	if topicID == "" || questionID == "" {
		return TopicView{}, apperr.BadRequestf("Topic ID and question ID are required")
	}
	if !catalog.ValidID(topicID) || !catalog.ValidID(questionID) {
		return TopicView{}, apperr.BadRequestf("Invalid topic or question ID")
	}
	topicID = catalog.NormalizeID(topicID)
	questionID = catalog.NormalizeID(questionID)

	topic, err := s.catalog.TopicByID(ctx, topicID)
	if err != nil {
		return TopicView{}, topicError(err)
	}

	if err := s.apply(ctx, userID, topicID, questionID, field, value); err != nil {
		return TopicView{}, apperr.Wrap(err, "update progress")
	}

	if err := s.events.LogEvent(ctx, Event{
		UserID:     userID,
		TopicID:    topicID,
		QuestionID: questionID,
		Field:      field,
		Data:       map[string]any{"value": value},
	}); err != nil {
		slog.Warn("failed to log progress event", "user_id", userID, "error", err)
	}

	view, err := s.view(ctx, userID, topic)
	if err != nil {
		return TopicView{}, err
	}

	slog.Info("progress updated",
		"user_id", userID,
		"topic_id", topicID,
		"question_id", questionID,
		"field", field,
	)
	s.notifier.Publish(userID, view)
	return view, nil
}

// TopicStats returns completion for every topic.
func (s *Service) TopicStats(ctx context.Context, userID string) ([]TopicStat, error) {
	topics, p, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return TopicStats(topics, &p), nil
}

// TotalPercent returns completion over the whole catalog.
func (s *Service) TotalPercent(ctx context.Context, userID string) (int, error) {
	topics, p, err := s.load(ctx, userID)
	if err != nil {
		return 0, err
	}
	return TotalPercent(topics, &p), nil
}

// Bookmarks lists the user's bookmarked questions.
func (s *Service) Bookmarks(ctx context.Context, userID string) ([]BookmarkedQuestion, error) {
	topics, p, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Bookmarks(topics, &p), nil
}

func (s *Service) apply(ctx context.Context, userID, topicID, questionID string, field Field, value any) error {
	switch field {
	case FieldNotes:
		if text := NoteText(value); text != "" {
			return s.store.UpsertNote(ctx, userID, topicID, questionID, text)
		}
		return s.store.RemoveNote(ctx, userID, topicID, questionID)
	default:
		if Truthy(value) {
			return s.store.AddToSet(ctx, userID, topicID, field.set(), questionID)
		}
		return s.store.RemoveFromSet(ctx, userID, topicID, field.set(), questionID)
	}
}

func (s *Service) load(ctx context.Context, userID string) ([]catalog.Topic, Progress, error) {
	topics, err := s.catalog.AllTopics(ctx)
	if err != nil {
		return nil, Progress{}, apperr.Wrap(err, "load topics")
	}
	p, err := s.progressFor(ctx, userID)
	if err != nil {
		return nil, Progress{}, err
	}
	return topics, p, nil
}

func (s *Service) view(ctx context.Context, userID string, topic catalog.Topic) (TopicView, error) {
	if userID == "" {
		return MergeTopic(topic, nil), nil
	}
	p, err := s.progressFor(ctx, userID)
	if err != nil {
		return TopicView{}, err
	}
	tp, _ := p.Topic(topic.ID)
	return MergeTopic(topic, tp), nil
}

// progressFor loads the user's record, creating an empty one if missing.
func (s *Service) progressFor(ctx context.Context, userID string) (Progress, error) {
	p, err := s.store.ProgressByUser(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Progress{}, apperr.Wrap(err, "load progress")
	}
	if err := s.store.CreateProgress(ctx, userID); err != nil {
		return Progress{}, apperr.Wrap(err, "create progress")
	}
	slog.Debug("progress record created", "user_id", userID)
	return Progress{UserID: userID, Topics: []TopicProgress{}}, nil
}

func topicError(err error) error {
	if errors.Is(err, catalog.ErrNotFound) {
		return apperr.NotFoundf("Topic not found")
	}
	return apperr.Wrap(err, "load topic")
}
