package catalog_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/p-n-ai/pai-tracker/internal/catalog"
	"github.com/p-n-ai/pai-tracker/internal/platform/cache"
)

type fakeKV struct {
	mu      sync.Mutex
	data    map[string][]byte
	gets    int
	failGet bool
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string][]byte)}
}

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.failGet {
		return nil, errors.New("connection refused")
	}
	v, ok := f.data[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *fakeKV) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeKV) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}

// countingStore records how often the catalog is read from the backing store.
type countingStore struct {
	catalog.Store
	reads int
}

func (c *countingStore) AllTopics(ctx context.Context) ([]catalog.Topic, error) {
	c.reads++
	return c.Store.AllTopics(ctx)
}

func TestCachedStore_ReadThrough(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{Store: catalog.NewMemoryStore()}
	if _, err := backing.AddTopic(ctx, arraysTopic()); err != nil {
		t.Fatalf("AddTopic() error = %v", err)
	}
	kv := newFakeKV()
	store := catalog.NewCachedStore(backing, kv, time.Minute)

	for i := 0; i < 3; i++ {
		topics, err := store.AllTopics(ctx)
		if err != nil {
			t.Fatalf("AllTopics() error = %v", err)
		}
		if len(topics) != 1 {
			t.Fatalf("len(topics) = %d, want 1", len(topics))
		}
	}
	if backing.reads != 1 {
		t.Errorf("backing reads = %d, want 1", backing.reads)
	}
}

func TestCachedStore_LookupsUseCachedCatalog(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{Store: catalog.NewMemoryStore()}
	added, _ := backing.AddTopic(ctx, arraysTopic())
	store := catalog.NewCachedStore(backing, newFakeKV(), time.Minute)

	got, err := store.TopicByName(ctx, "Arrays")
	if err != nil {
		t.Fatalf("TopicByName() error = %v", err)
	}
	if got.ID != added.ID {
		t.Errorf("TopicByName().ID = %q, want %q", got.ID, added.ID)
	}
	if _, err := store.TopicByID(ctx, added.ID); err != nil {
		t.Fatalf("TopicByID() error = %v", err)
	}
	if _, err := store.TopicByName(ctx, "Missing"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("TopicByName(missing) error = %v, want ErrNotFound", err)
	}
	if backing.reads != 1 {
		t.Errorf("backing reads = %d, want 1", backing.reads)
	}
}

func TestCachedStore_AddTopicInvalidates(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	store := catalog.NewCachedStore(catalog.NewMemoryStore(), kv, time.Minute)

	if _, err := store.AllTopics(ctx); err != nil {
		t.Fatalf("AllTopics() error = %v", err)
	}
	if !kv.has("catalog:topics") {
		t.Fatal("catalog should be cached after first read")
	}

	if _, err := store.AddTopic(ctx, arraysTopic()); err != nil {
		t.Fatalf("AddTopic() error = %v", err)
	}
	if kv.has("catalog:topics") {
		t.Error("AddTopic() should invalidate the cached catalog")
	}

	topics, _ := store.AllTopics(ctx)
	if len(topics) != 1 {
		t.Errorf("len(topics) = %d, want 1 after invalidation", len(topics))
	}
}

func TestCachedStore_CacheFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	backing := catalog.NewMemoryStore()
	backing.AddTopic(ctx, arraysTopic())
	kv := newFakeKV()
	kv.failGet = true
	store := catalog.NewCachedStore(backing, kv, time.Minute)

	topics, err := store.AllTopics(ctx)
	if err != nil {
		t.Fatalf("AllTopics() error = %v, want fallback to backing store", err)
	}
	if len(topics) != 1 {
		t.Errorf("len(topics) = %d, want 1", len(topics))
	}
}
