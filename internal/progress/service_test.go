package progress_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/p-n-ai/pai-tracker/internal/apperr"
	"github.com/p-n-ai/pai-tracker/internal/catalog"
	"github.com/p-n-ai/pai-tracker/internal/progress"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages map[string][]any
}

func (n *recordingNotifier) Publish(userID string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.messages == nil {
		n.messages = make(map[string][]any)
	}
	n.messages[userID] = append(n.messages[userID], payload)
}

type fixture struct {
	svc      *progress.Service
	store    *progress.MemoryStore
	events   *progress.MemoryEventLogger
	notifier *recordingNotifier
}

func newFixture(t *testing.T, topics ...catalog.Topic) fixture {
	t.Helper()
	cat := catalog.NewMemoryStore()
	for _, tp := range topics {
		if _, err := cat.AddTopic(context.Background(), tp); err != nil {
			t.Fatalf("AddTopic() error = %v", err)
		}
	}
	f := fixture{
		store:    progress.NewMemoryStore(),
		events:   progress.NewMemoryEventLogger(),
		notifier: &recordingNotifier{},
	}
	f.svc = progress.NewService(progress.ServiceConfig{
		Catalog:  cat,
		Store:    f.store,
		Events:   f.events,
		Notifier: f.notifier,
	})
	return f
}

func TestService_DoneScenario(t *testing.T) {
	f := newFixture(t, arrays())
	ctx := context.Background()

	before, err := f.svc.TopicByID(ctx, userA, topic1)
	if err != nil {
		t.Fatalf("TopicByID() error = %v", err)
	}
	for _, q := range before.Questions {
		if q.Done {
			t.Fatalf("question %s done before any update", q.ID)
		}
	}

	view, err := f.svc.Update(ctx, userA, topic1, q1, "Done", true)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !view.Questions[0].Done || view.Questions[1].Done {
		t.Errorf("Update() view = %+v, want only Q1 done", view.Questions)
	}

	stats, err := f.svc.TopicStats(ctx, userA)
	if err != nil {
		t.Fatalf("TopicStats() error = %v", err)
	}
	want := progress.TopicStat{TopicID: topic1, TopicName: "Arrays", TotalQuestions: 2, Completed: 1, PercentCompleted: 50}
	if stats[0] != want {
		t.Errorf("TopicStats() = %+v, want %+v", stats[0], want)
	}

	total, _ := f.svc.TotalPercent(ctx, userA)
	if total != 50 {
		t.Errorf("TotalPercent() = %d, want 50", total)
	}
}

func TestService_DoneRoundTrip(t *testing.T) {
	f := newFixture(t, arrays())
	ctx := context.Background()

	if _, err := f.svc.Update(ctx, userA, topic1, q1, "Done", true); err != nil {
		t.Fatalf("Update(true) error = %v", err)
	}
	view, err := f.svc.Update(ctx, userA, topic1, q1, "Done", false)
	if err != nil {
		t.Fatalf("Update(false) error = %v", err)
	}
	if view.Questions[0].Done {
		t.Error("Done should be false after toggling back")
	}

	// Clearing an absent flag is a no-op.
	if _, err := f.svc.Update(ctx, userA, topic1, q2, "Done", false); err != nil {
		t.Errorf("Update(false, absent) error = %v", err)
	}
}

func TestService_NotesSetAndClear(t *testing.T) {
	f := newFixture(t, arrays())
	ctx := context.Background()

	view, err := f.svc.Update(ctx, userA, topic1, q1, "Notes", "review later")
	if err != nil {
		t.Fatalf("Update(Notes) error = %v", err)
	}
	if view.Questions[0].Notes != "review later" {
		t.Errorf("Notes = %q, want review later", view.Questions[0].Notes)
	}

	view, err = f.svc.Update(ctx, userA, topic1, q1, "Notes", "")
	if err != nil {
		t.Fatalf("Update(Notes, empty) error = %v", err)
	}
	if view.Questions[0].Notes != "" {
		t.Errorf("Notes = %q, want empty after clearing", view.Questions[0].Notes)
	}

	p, _ := f.store.ProgressByUser(ctx, userA)
	tp, _ := p.Topic(topic1)
	if len(tp.Notes) != 0 {
		t.Errorf("stored notes = %+v, want none", tp.Notes)
	}
}

func TestService_BookmarkScenario(t *testing.T) {
	f := newFixture(t, arrays())
	ctx := context.Background()

	f.svc.Update(ctx, userA, topic1, q2, "Bookmark", true)
	f.svc.Update(ctx, userA, topic1, q1, "Notes", "review later")

	got, err := f.svc.Bookmarks(ctx, userA)
	if err != nil {
		t.Fatalf("Bookmarks() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != q2 || got[0].TopicName != "Arrays" {
		t.Errorf("Bookmarks() = %+v, want only Q2 from Arrays", got)
	}

	view, _ := f.svc.TopicByName(ctx, userA, "Arrays")
	if view.Questions[0].Notes != "review later" {
		t.Errorf("Q1 note = %q, want it visible on the topic view", view.Questions[0].Notes)
	}
}

func TestService_Update_Errors(t *testing.T) {
	tests := []struct {
		name       string
		user       string
		topicID    string
		questionID string
		field      string
		wantKind   apperr.Kind
	}{
		{"unknown field", userA, topic1, q1, "Starred", apperr.BadRequest},
		{"missing topic id", userA, "", q1, "Done", apperr.BadRequest},
		{"missing question id", userA, topic1, "", "Done", apperr.BadRequest},
		{"malformed id", userA, "not-an-id", q1, "Done", apperr.BadRequest},
		{"unknown topic", userA, "99999999-9999-4999-8999-999999999999", q1, "Done", apperr.NotFound},
		{"no user", "", topic1, q1, "Done", apperr.Unauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, arrays())
			_, err := f.svc.Update(context.Background(), tt.user, tt.topicID, tt.questionID, tt.field, true)
			if err == nil {
				t.Fatal("Update() expected error")
			}
			if kind := apperr.KindOf(err); kind != tt.wantKind {
				t.Errorf("KindOf() = %v, want %v", kind, tt.wantKind)
			}
		})
	}
}

func TestService_Update_AlternateIDForms(t *testing.T) {
	dashless := strings.ReplaceAll(q1, "-", "")
	tests := []struct {
		name       string
		topicID    string
		questionID string
	}{
		{"dashless question id", topic1, dashless},
		{"urn topic id", "urn:uuid:" + topic1, q1},
		{"braced uppercase topic id", "{" + strings.ToUpper(topic1) + "}", q1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, arrays())
			ctx := context.Background()

			view, err := f.svc.Update(ctx, userA, tt.topicID, tt.questionID, "Done", true)
			if err != nil {
				t.Fatalf("Update() error = %v", err)
			}
			if !view.Questions[0].Done {
				t.Errorf("Update() view Q1 Done = false, want true")
			}

			reread, err := f.svc.TopicByID(ctx, userA, topic1)
			if err != nil {
				t.Fatalf("TopicByID() error = %v", err)
			}
			if !reread.Questions[0].Done {
				t.Error("merged Q1 Done = false after update, want true")
			}

			p, _ := f.store.ProgressByUser(ctx, userA)
			if len(p.Topics) != 1 || p.Topics[0].TopicID != topic1 {
				t.Errorf("stored topics = %+v, want one entry keyed %s", p.Topics, topic1)
			}
			if ids := p.Topics[0].DoneQuestions; len(ids) != 1 || ids[0] != q1 {
				t.Errorf("DoneQuestions = %v, want [%s]", ids, q1)
			}
		})
	}
}

func TestService_Update_UnknownTopicWritesNothing(t *testing.T) {
	f := newFixture(t, arrays())
	ctx := context.Background()
	const missing = "99999999-9999-4999-8999-999999999999"

	_, err := f.svc.Update(ctx, userA, "urn:uuid:"+missing, q1, "Done", true)
	if kind := apperr.KindOf(err); kind != apperr.NotFound {
		t.Fatalf("Update() kind = %v, want NotFound", kind)
	}

	p, err := f.store.ProgressByUser(ctx, userA)
	if err != nil && !errors.Is(err, progress.ErrNotFound) {
		t.Fatalf("ProgressByUser() error = %v", err)
	}
	if len(p.Topics) != 0 {
		t.Errorf("stored topics = %+v, want none", p.Topics)
	}
	if n := len(f.events.Events()); n != 0 {
		t.Errorf("logged %d events, want 0", n)
	}
}

func TestService_Update_LogsAndPublishes(t *testing.T) {
	f := newFixture(t, arrays())

	view, err := f.svc.Update(context.Background(), userA, topic1, q1, "Bookmark", 1.0)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	events := f.events.Events()
	if len(events) != 1 || events[0].Field != progress.FieldBookmark || events[0].QuestionID != q1 {
		t.Errorf("events = %+v", events)
	}
	msgs := f.notifier.messages[userA]
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	if got, ok := msgs[0].(progress.TopicView); !ok || got.ID != view.ID {
		t.Errorf("published %T, want the updated TopicView", msgs[0])
	}
}

func TestService_AllTopics(t *testing.T) {
	f := newFixture(t, strs(), arrays())
	ctx := context.Background()

	anon, err := f.svc.AllTopics(ctx, "")
	if err != nil {
		t.Fatalf("AllTopics(anonymous) error = %v", err)
	}
	if len(anon) != 2 || anon[0].TopicName != "Arrays" {
		t.Errorf("AllTopics() = %+v, want Arrays first", anon)
	}
	if all, _ := f.store.AllProgress(ctx); len(all) != 0 {
		t.Error("anonymous read should not create progress")
	}

	f.svc.Update(ctx, userA, topic2, q3, "Done", "yes")
	views, _ := f.svc.AllTopics(ctx, userA)
	if !views[1].Questions[0].Done {
		t.Error("AllTopics(user) should include the user's progress")
	}
}

func TestService_TopicByName_CreatesProgress(t *testing.T) {
	f := newFixture(t, arrays())
	ctx := context.Background()

	if _, err := f.svc.TopicByName(ctx, userB, "Arrays"); err != nil {
		t.Fatalf("TopicByName() error = %v", err)
	}
	if _, err := f.store.ProgressByUser(ctx, userB); errors.Is(err, progress.ErrNotFound) {
		t.Error("progress record should be created on first read")
	}

	_, err := f.svc.TopicByName(ctx, userB, "Graphs")
	if apperr.KindOf(err) != apperr.NotFound {
		t.Errorf("TopicByName(missing) kind = %v, want NotFound", apperr.KindOf(err))
	}
}

func TestService_EmptyCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	total, err := f.svc.TotalPercent(ctx, userA)
	if err != nil || total != 0 {
		t.Errorf("TotalPercent() = %d, %v; want 0, nil", total, err)
	}
	bookmarks, err := f.svc.Bookmarks(ctx, userA)
	if err != nil || bookmarks == nil {
		t.Errorf("Bookmarks() = %#v, %v; want empty slice", bookmarks, err)
	}
}
