// Package progress tracks each user's sparse per-topic state and overlays it
// on the shared catalog.
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/p-n-ai/pai-tracker/internal/catalog"
)

// ErrNotFound is returned when a user has no progress record.
var ErrNotFound = errors.New("progress not found")

// Progress is one user's record. Topics holds only the topics the user has
// interacted with.
type Progress struct {
	UserID string          `json:"userId"`
	Topics []TopicProgress `json:"topics"`
}

// TopicProgress is the per-topic state of a user.
type TopicProgress struct {
	TopicID             string   `json:"topicId"`
	DoneQuestions       []string `json:"doneQuestions"`
	BookmarkedQuestions []string `json:"bookmarkedQuestions"`
	Notes               []Note   `json:"notes"`
}

// Note is free text attached to a question.
type Note struct {
	QuestionID string `json:"questionId"`
	Text       string `json:"text"`
}

// Topic returns the entry for topicID, if any.
func (p *Progress) Topic(topicID string) (*TopicProgress, bool) {
	if p == nil {
		return nil, false
	}
	topicID = catalog.NormalizeID(topicID)
	for i := range p.Topics {
		if catalog.NormalizeID(p.Topics[i].TopicID) == topicID {
			return &p.Topics[i], true
		}
	}
	return nil, false
}

func (p Progress) clone() Progress {
	topics := make([]TopicProgress, len(p.Topics))
	for i, tp := range p.Topics {
		topics[i] = TopicProgress{
			TopicID:             tp.TopicID,
			DoneQuestions:       slices.Clone(tp.DoneQuestions),
			BookmarkedQuestions: slices.Clone(tp.BookmarkedQuestions),
			Notes:               slices.Clone(tp.Notes),
		}
	}
	p.Topics = topics
	return p
}

func newTopicProgress(topicID string) TopicProgress {
	return TopicProgress{
		TopicID:             topicID,
		DoneQuestions:       []string{},
		BookmarkedQuestions: []string{},
		Notes:               []Note{},
	}
}

// Set names one of the two question-id sets kept per topic.
type Set string

const (
	Done       Set = "done"
	Bookmarked Set = "bookmarked"
)

func (s Set) valid() bool {
	return s == Done || s == Bookmarked
}

// Field is an updatable per-question attribute.
type Field string

const (
	FieldDone     Field = "Done"
	FieldBookmark Field = "Bookmark"
	FieldNotes    Field = "Notes"
)

// ParseField maps a client field name to a Field.
func ParseField(s string) (Field, error) {
	switch f := Field(strings.TrimSpace(s)); f {
	case FieldDone, FieldBookmark, FieldNotes:
		return f, nil
	default:
		return "", fmt.Errorf("unknown field %q", s)
	}
}

// set returns the id set the field toggles.
func (f Field) set() Set {
	if f == FieldBookmark {
		return Bookmarked
	}
	return Done
}

// Truthy reports whether v counts as true the way a JSON client means it:
// false, null, 0, and "" are false; everything else is true.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case float32:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	default:
		return true
	}
}

// NoteText renders a note value as text. Null becomes the empty string.
func NoteText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		raw, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(raw)
	}
}
