package catalog_test

import (
	"errors"
	"testing"

	"github.com/p-n-ai/pai-tracker/internal/catalog"
	"github.com/p-n-ai/pai-tracker/internal/platform/database/dbtest"
)

func TestNewPostgresStore_NilPool(t *testing.T) {
	if _, err := catalog.NewPostgresStore(nil); err == nil {
		t.Error("NewPostgresStore(nil) expected error")
	}
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	db := dbtest.New(t)
	store, err := catalog.NewPostgresStore(db.Pool)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}
	ctx := t.Context()

	added, err := store.AddTopic(ctx, arraysTopic())
	if err != nil {
		t.Fatalf("AddTopic() error = %v", err)
	}
	if _, err := store.AddTopic(ctx, catalog.Topic{TopicName: "Graphs", Position: 0}); err != nil {
		t.Fatalf("AddTopic(Graphs) error = %v", err)
	}

	byName, err := store.TopicByName(ctx, "Arrays")
	if err != nil {
		t.Fatalf("TopicByName() error = %v", err)
	}
	if byName.ID != added.ID || len(byName.Questions) != 2 {
		t.Errorf("TopicByName() = %+v, want %+v", byName, added)
	}
	if byName.Questions[1].Problem != "Best Time to Buy and Sell Stock" {
		t.Errorf("question order not preserved: %+v", byName.Questions)
	}

	if _, err := store.TopicByID(ctx, added.ID); err != nil {
		t.Errorf("TopicByID() error = %v", err)
	}

	all, err := store.AllTopics(ctx)
	if err != nil {
		t.Fatalf("AllTopics() error = %v", err)
	}
	if len(all) != 2 || all[0].TopicName != "Graphs" {
		t.Errorf("AllTopics() = %+v, want Graphs first", all)
	}

	if _, err := store.AddTopic(ctx, arraysTopic()); !errors.Is(err, catalog.ErrDuplicate) {
		t.Errorf("AddTopic(duplicate) error = %v, want ErrDuplicate", err)
	}
	if _, err := store.TopicByName(ctx, "Trees"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("TopicByName(missing) error = %v, want ErrNotFound", err)
	}
}
