package progress_test

import (
	"testing"

	"github.com/p-n-ai/pai-tracker/internal/catalog"
	"github.com/p-n-ai/pai-tracker/internal/progress"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		done, total, want int
	}{
		{0, 0, 0},
		{5, 0, 0},
		{1, 2, 50},
		{1, 3, 33},
		{2, 3, 67},
		{3, 3, 100},
		{0, 7, 0},
	}

	for _, tt := range tests {
		if got := progress.Percent(tt.done, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tt.done, tt.total, got, tt.want)
		}
	}
}

func TestTopicStats(t *testing.T) {
	empty := catalog.Topic{ID: "33333333-3333-4333-8333-333333333333", TopicName: "Empty"}
	p := &progress.Progress{Topics: []progress.TopicProgress{
		{TopicID: topic1, DoneQuestions: []string{q1}},
		{TopicID: empty.ID, DoneQuestions: []string{q3}},
	}}

	stats := progress.TopicStats([]catalog.Topic{arrays(), strs(), empty}, p)

	want := []progress.TopicStat{
		{TopicID: topic1, TopicName: "Arrays", TotalQuestions: 2, Completed: 1, PercentCompleted: 50},
		{TopicID: topic2, TopicName: "Strings", TotalQuestions: 1, Completed: 0, PercentCompleted: 0},
		{TopicID: empty.ID, TopicName: "Empty", TotalQuestions: 0, Completed: 0, PercentCompleted: 0},
	}
	for i := range want {
		if stats[i] != want[i] {
			t.Errorf("stats[%d] = %+v, want %+v", i, stats[i], want[i])
		}
	}
}

func TestTopicStats_StaysInRangeWithOrphanedIDs(t *testing.T) {
	p := &progress.Progress{Topics: []progress.TopicProgress{{
		TopicID:       topic1,
		DoneQuestions: []string{q1, q2, q3, "cccccccc-0000-4000-8000-000000000009"},
	}}}

	stats := progress.TopicStats([]catalog.Topic{arrays()}, p)
	if stats[0].Completed != 2 || stats[0].PercentCompleted != 100 {
		t.Errorf("stats = %+v, want completed 2 at 100%%", stats[0])
	}
}

func TestTotalPercent(t *testing.T) {
	if got := progress.TotalPercent(nil, nil); got != 0 {
		t.Errorf("TotalPercent(empty catalog) = %d, want 0", got)
	}

	p := &progress.Progress{Topics: []progress.TopicProgress{
		{TopicID: topic1, DoneQuestions: []string{q1, q2}},
	}}
	if got := progress.TotalPercent([]catalog.Topic{arrays(), strs()}, p); got != 67 {
		t.Errorf("TotalPercent() = %d, want 67", got)
	}
}

func TestBookmarks(t *testing.T) {
	p := &progress.Progress{Topics: []progress.TopicProgress{
		{
			TopicID:             topic1,
			DoneQuestions:       []string{q2},
			BookmarkedQuestions: []string{q2},
			Notes:               []progress.Note{{QuestionID: q1, Text: "review later"}, {QuestionID: q2, Text: "sort first"}},
		},
		{TopicID: topic2, BookmarkedQuestions: []string{q3}},
	}}

	got := progress.Bookmarks([]catalog.Topic{arrays(), strs()}, p)
	if len(got) != 2 {
		t.Fatalf("len(Bookmarks) = %d, want 2", len(got))
	}
	if got[0].ID != q2 || got[0].TopicName != "Arrays" || got[0].TopicID != topic1 {
		t.Errorf("got[0] = %+v", got[0])
	}
	if !got[0].Done || got[0].Notes != "sort first" {
		t.Errorf("got[0] should carry Done and Notes: %+v", got[0])
	}
	if got[1].ID != q3 || got[1].TopicName != "Strings" {
		t.Errorf("got[1] = %+v", got[1])
	}
}

func TestBookmarks_NoProgress(t *testing.T) {
	got := progress.Bookmarks([]catalog.Topic{arrays()}, nil)
	if got == nil || len(got) != 0 {
		t.Errorf("Bookmarks(nil) = %#v, want empty non-nil slice", got)
	}
}
