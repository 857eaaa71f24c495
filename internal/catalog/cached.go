package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/p-n-ai/pai-tracker/internal/platform/cache"
)

const topicsKey = "catalog:topics"

// KV is the byte cache used by CachedStore. *cache.Cache satisfies it.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CachedStore serves catalog reads from a cached copy of the whole catalog.
// Cache failures fall through to the wrapped store.
type CachedStore struct {
	next Store
	kv   KV
	ttl  time.Duration
}

// NewCachedStore wraps next with a read-through cache.
func NewCachedStore(next Store, kv KV, ttl time.Duration) *CachedStore {
	return &CachedStore{next: next, kv: kv, ttl: ttl}
}

func (s *CachedStore) AllTopics(ctx context.Context) ([]Topic, error) {
	raw, err := s.kv.Get(ctx, topicsKey)
	switch {
	case err == nil:
		var topics []Topic
		if err := json.Unmarshal(raw, &topics); err == nil {
			return topics, nil
		}
		slog.Warn("discarding undecodable catalog cache entry", "key", topicsKey)
	case !errors.Is(err, cache.ErrMiss):
		slog.Warn("catalog cache read failed", "error", err)
	}

	topics, err := s.next.AllTopics(ctx)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(topics); err == nil {
		if err := s.kv.Set(ctx, topicsKey, raw, s.ttl); err != nil {
			slog.Warn("catalog cache write failed", "error", err)
		}
	}
	return topics, nil
}

func (s *CachedStore) TopicByName(ctx context.Context, name string) (Topic, error) {
	topics, err := s.AllTopics(ctx)
	if err != nil {
		return Topic{}, err
	}
	name = NormalizeName(name)
	for _, t := range topics {
		if t.TopicName == name {
			return t, nil
		}
	}
	return Topic{}, fmt.Errorf("%q: %w", name, ErrNotFound)
}

func (s *CachedStore) TopicByID(ctx context.Context, id string) (Topic, error) {
	topics, err := s.AllTopics(ctx)
	if err != nil {
		return Topic{}, err
	}
	id = NormalizeID(id)
	for _, t := range topics {
		if t.ID == id {
			return t, nil
		}
	}
	return Topic{}, fmt.Errorf("%s: %w", id, ErrNotFound)
}

func (s *CachedStore) AddTopic(ctx context.Context, t Topic) (Topic, error) {
	added, err := s.next.AddTopic(ctx, t)
	if err != nil {
		return Topic{}, err
	}
	if err := s.kv.Delete(ctx, topicsKey); err != nil {
		slog.Warn("catalog cache invalidation failed", "error", err)
	}
	return added, nil
}
