package progress

import "github.com/p-n-ai/pai-tracker/internal/catalog"

// QuestionView is a question annotated with one user's state.
type QuestionView struct {
	ID       string `json:"_id"`
	Problem  string `json:"problem"`
	URL      string `json:"URL"`
	URL2     string `json:"URL2"`
	Done     bool   `json:"Done"`
	Bookmark bool   `json:"Bookmark"`
	Notes    string `json:"Notes"`
}

// TopicView is a topic with every question annotated.
type TopicView struct {
	ID        string         `json:"_id"`
	TopicName string         `json:"topicName"`
	Position  int            `json:"position"`
	Questions []QuestionView `json:"questions"`
}

// Merge overlays p on topics, keeping catalog order. A nil p, or one without
// entries, yields default values for every question.
func Merge(topics []catalog.Topic, p *Progress) []TopicView {
	entries := make(map[string]*TopicProgress)
	if p != nil {
		for i := range p.Topics {
			entries[catalog.NormalizeID(p.Topics[i].TopicID)] = &p.Topics[i]
		}
	}

	views := make([]TopicView, 0, len(topics))
	for _, t := range topics {
		views = append(views, MergeTopic(t, entries[catalog.NormalizeID(t.ID)]))
	}
	return views
}

// MergeTopic annotates one topic with its entry, which may be nil.
func MergeTopic(t catalog.Topic, tp *TopicProgress) TopicView {
	st := newTopicState(tp)

	view := TopicView{
		ID:        t.ID,
		TopicName: t.TopicName,
		Position:  t.Position,
		Questions: make([]QuestionView, 0, len(t.Questions)),
	}
	for _, q := range t.Questions {
		id := catalog.NormalizeID(q.ID)
		view.Questions = append(view.Questions, QuestionView{
			ID:       q.ID,
			Problem:  q.Problem,
			URL:      q.URL,
			URL2:     q.URL2,
			Done:     st.done[id],
			Bookmark: st.bookmarked[id],
			Notes:    st.notes[id],
		})
	}
	return view
}

// topicState is the lookup form of a TopicProgress. Lookups on a zero value
// return defaults.
type topicState struct {
	done       map[string]bool
	bookmarked map[string]bool
	notes      map[string]string
}

func newTopicState(tp *TopicProgress) topicState {
	if tp == nil {
		return topicState{}
	}
	st := topicState{
		done:       toSet(tp.DoneQuestions),
		bookmarked: toSet(tp.BookmarkedQuestions),
		notes:      make(map[string]string, len(tp.Notes)),
	}
	for _, n := range tp.Notes {
		st.notes[catalog.NormalizeID(n.QuestionID)] = n.Text
	}
	return st
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[catalog.NormalizeID(id)] = true
	}
	return set
}
