package catalog

import (
	"context"
	"fmt"
	"sync"
)

// Store persists the catalog.
type Store interface {
	AllTopics(ctx context.Context) ([]Topic, error)
	TopicByName(ctx context.Context, name string) (Topic, error)
	TopicByID(ctx context.Context, id string) (Topic, error)
	AddTopic(ctx context.Context, t Topic) (Topic, error)
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	topics map[string]Topic
	mu     sync.RWMutex
}

// NewMemoryStore creates a new in-memory catalog store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		topics: make(map[string]Topic),
	}
}

func (s *MemoryStore) AllTopics(_ context.Context) ([]Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Topic, 0, len(s.topics))
	for _, t := range s.topics {
		out = append(out, cloneTopic(t))
	}
	sortTopics(out)
	return out, nil
}

func (s *MemoryStore) TopicByName(_ context.Context, name string) (Topic, error) {
	name = NormalizeName(name)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.topics {
		if t.TopicName == name {
			return cloneTopic(t), nil
		}
	}
	return Topic{}, fmt.Errorf("%q: %w", name, ErrNotFound)
}

func (s *MemoryStore) TopicByID(_ context.Context, id string) (Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.topics[NormalizeID(id)]
	if !ok {
		return Topic{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return cloneTopic(t), nil
}

func (s *MemoryStore) AddTopic(_ context.Context, t Topic) (Topic, error) {
	t, err := prepare(t, randomID)
	if err != nil {
		return Topic{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.topics {
		if existing.TopicName == t.TopicName {
			return Topic{}, fmt.Errorf("%q: %w", t.TopicName, ErrDuplicate)
		}
	}
	if _, ok := s.topics[t.ID]; ok {
		return Topic{}, fmt.Errorf("id %s: %w", t.ID, ErrDuplicate)
	}
	s.topics[t.ID] = t
	return cloneTopic(t), nil
}
