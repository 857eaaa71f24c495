package progress

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/p-n-ai/pai-tracker/internal/catalog"
)

// Store persists progress records. Every mutation creates the user's record
// and the topic entry if they are missing, in the same atomic step as the
// field change.
type Store interface {
	ProgressByUser(ctx context.Context, userID string) (Progress, error)
	CreateProgress(ctx context.Context, userID string) error
	AddToSet(ctx context.Context, userID, topicID string, set Set, questionID string) error
	RemoveFromSet(ctx context.Context, userID, topicID string, set Set, questionID string) error
	UpsertNote(ctx context.Context, userID, topicID, questionID, text string) error
	RemoveNote(ctx context.Context, userID, topicID, questionID string) error
	AllProgress(ctx context.Context) ([]Progress, error)
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	records map[string]*Progress
	order   []string
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory progress store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Progress),
	}
}

func (s *MemoryStore) ProgressByUser(_ context.Context, userID string) (Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.records[userID]
	if !ok {
		return Progress{}, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return p.clone(), nil
}

func (s *MemoryStore) CreateProgress(_ context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("user_id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensure(userID)
	return nil
}

func (s *MemoryStore) AddToSet(_ context.Context, userID, topicID string, set Set, questionID string) error {
	if !set.valid() {
		return fmt.Errorf("unknown set %q", set)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tp := s.ensureTopic(userID, topicID)
	ids := tp.ids(set)
	if !slices.Contains(*ids, questionID) {
		*ids = append(*ids, questionID)
	}
	return nil
}

func (s *MemoryStore) RemoveFromSet(_ context.Context, userID, topicID string, set Set, questionID string) error {
	if !set.valid() {
		return fmt.Errorf("unknown set %q", set)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tp := s.ensureTopic(userID, topicID)
	ids := tp.ids(set)
	*ids = slices.DeleteFunc(*ids, func(id string) bool { return id == questionID })
	return nil
}

func (s *MemoryStore) UpsertNote(_ context.Context, userID, topicID, questionID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tp := s.ensureTopic(userID, topicID)
	for i := range tp.Notes {
		if tp.Notes[i].QuestionID == questionID {
			tp.Notes[i].Text = text
			return nil
		}
	}
	tp.Notes = append(tp.Notes, Note{QuestionID: questionID, Text: text})
	return nil
}

func (s *MemoryStore) RemoveNote(_ context.Context, userID, topicID, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tp := s.ensureTopic(userID, topicID)
	tp.Notes = slices.DeleteFunc(tp.Notes, func(n Note) bool { return n.QuestionID == questionID })
	return nil
}

func (s *MemoryStore) AllProgress(_ context.Context) ([]Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Progress, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id].clone())
	}
	return out, nil
}

// ensure must be called with mu held.
func (s *MemoryStore) ensure(userID string) *Progress {
	p, ok := s.records[userID]
	if !ok {
		p = &Progress{UserID: userID, Topics: []TopicProgress{}}
		s.records[userID] = p
		s.order = append(s.order, userID)
	}
	return p
}

// ensureTopic must be called with mu held.
func (s *MemoryStore) ensureTopic(userID, topicID string) *TopicProgress {
	p := s.ensure(userID)
	if tp, ok := p.Topic(topicID); ok {
		return tp
	}
	p.Topics = append(p.Topics, newTopicProgress(catalog.NormalizeID(topicID)))
	return &p.Topics[len(p.Topics)-1]
}

func (tp *TopicProgress) ids(set Set) *[]string {
	if set == Bookmarked {
		return &tp.BookmarkedQuestions
	}
	return &tp.DoneQuestions
}
