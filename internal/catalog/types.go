// Package catalog holds the practice catalog: topics and their ordered questions.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrNotFound is returned when a topic does not exist.
	ErrNotFound = errors.New("topic not found")
	// ErrDuplicate is returned when a topic name is already taken.
	ErrDuplicate = errors.New("topic already exists")
	// ErrInvalid is returned when a topic is missing required content.
	ErrInvalid = errors.New("invalid topic")
)

// Question is a single practice problem. Questions only exist inside a Topic.
type Question struct {
	ID      string `json:"_id" yaml:"id"`
	Problem string `json:"problem" yaml:"problem"`
	URL     string `json:"URL" yaml:"url"`
	URL2    string `json:"URL2" yaml:"url2"`
}

// Topic groups questions under a unique display name.
type Topic struct {
	ID        string     `json:"_id" yaml:"id"`
	TopicName string     `json:"topicName" yaml:"topic_name"`
	Position  int        `json:"position" yaml:"position"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// QuestionIDs returns the normalised ids of the topic's questions.
func (t Topic) QuestionIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(t.Questions))
	for _, q := range t.Questions {
		ids[NormalizeID(q.ID)] = struct{}{}
	}
	return ids
}

// NormalizeName canonicalises a topic name for storage and lookup.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// NormalizeID canonicalises an identifier so that every accepted spelling of
// the same id compares equal. UUIDs in dashless, braced or urn:uuid: form map
// to the lowercase dashed form; anything else is trimmed and lowercased.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return strings.ToLower(id)
}

// ValidID reports whether id is a well-formed identifier.
func ValidID(id string) bool {
	_, err := uuid.Parse(strings.TrimSpace(id))
	return err == nil
}

// prepare normalises names and ids and fills in missing ids with newID.
func prepare(t Topic, newID func() string) (Topic, error) {
	t.TopicName = NormalizeName(t.TopicName)
	if t.TopicName == "" {
		return Topic{}, fmt.Errorf("topic name is required: %w", ErrInvalid)
	}
	if t.ID == "" {
		t.ID = newID()
	}
	if !ValidID(t.ID) {
		return Topic{}, fmt.Errorf("topic id %q is not a UUID: %w", t.ID, ErrInvalid)
	}
	t.ID = NormalizeID(t.ID)

	qs := make([]Question, len(t.Questions))
	for i, q := range t.Questions {
		if strings.TrimSpace(q.Problem) == "" {
			return Topic{}, fmt.Errorf("question %d: problem is required: %w", i, ErrInvalid)
		}
		if q.ID == "" {
			q.ID = newID()
		}
		if !ValidID(q.ID) {
			return Topic{}, fmt.Errorf("question %d: id %q is not a UUID: %w", i, q.ID, ErrInvalid)
		}
		q.ID = NormalizeID(q.ID)
		qs[i] = q
	}
	t.Questions = qs
	return t, nil
}

func randomID() string {
	return uuid.NewString()
}

// sortTopics orders topics by position, then name.
func sortTopics(topics []Topic) {
	sort.SliceStable(topics, func(i, j int) bool {
		if topics[i].Position != topics[j].Position {
			return topics[i].Position < topics[j].Position
		}
		return topics[i].TopicName < topics[j].TopicName
	})
}

func cloneTopic(t Topic) Topic {
	t.Questions = append([]Question(nil), t.Questions...)
	return t
}
