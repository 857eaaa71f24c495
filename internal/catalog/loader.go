package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// seedNamespace derives stable ids for seeded topics that do not declare one,
// so reseeding an empty database yields the same ids progress refers to.
var seedNamespace = uuid.MustParse("0b9c6f0e-2d4a-5c1e-9a57-6f3d2b8e4c10")

// Loader reads seed topics from a directory of YAML files.
type Loader struct {
	rootDir string
	topics  []Topic
}

// NewLoader creates a new loader and parses every topic file under rootDir.
func NewLoader(rootDir string) (*Loader, error) {
	l := &Loader{rootDir: rootDir}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	sortTopics(l.topics)

	slog.Info("catalog seed loaded", "dir", rootDir, "topics", len(l.topics))
	return l, nil
}

// Topics returns the parsed seed topics ordered by position.
func (l *Loader) Topics() []Topic {
	out := make([]Topic, len(l.topics))
	for i, t := range l.topics {
		out[i] = cloneTopic(t)
	}
	return out
}

// Seed adds every seed topic whose name is not yet in the store and returns
// the number added.
func (l *Loader) Seed(ctx context.Context, store Store) (int, error) {
	added := 0
	for _, t := range l.topics {
		_, err := store.TopicByName(ctx, t.TopicName)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return added, fmt.Errorf("lookup %q: %w", t.TopicName, err)
		}
		if _, err := store.AddTopic(ctx, t); err != nil {
			if errors.Is(err, ErrDuplicate) {
				continue
			}
			return added, fmt.Errorf("seed %q: %w", t.TopicName, err)
		}
		added++
	}
	slog.Info("catalog seeded", "added", added, "skipped", len(l.topics)-added)
	return added, nil
}

func (l *Loader) loadAll() error {
	return filepath.Walk(l.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
			return l.loadTopic(path)
		}
		return nil
	})
}

func (l *Loader) loadTopic(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var topic Topic
	if err := yaml.Unmarshal(data, &topic); err != nil {
		slog.Warn("skipping invalid topic YAML", "path", path, "error", err)
		return nil
	}

	if NormalizeName(topic.TopicName) == "" {
		return nil // Not a topic file
	}

	topic, err = seedIDs(topic)
	if err != nil {
		slog.Warn("skipping topic YAML", "path", path, "error", err)
		return nil
	}

	l.topics = append(l.topics, topic)
	return nil
}

// seedIDs fills missing ids from the topic name and question text.
func seedIDs(t Topic) (Topic, error) {
	name := NormalizeName(t.TopicName)
	topicID := uuid.NewSHA1(seedNamespace, []byte(name))
	if t.ID != "" {
		parsed, err := uuid.Parse(t.ID)
		if err != nil {
			return Topic{}, fmt.Errorf("topic id %q: %w", t.ID, err)
		}
		topicID = parsed
	}

	seen := make(map[string]int, len(t.Questions))
	for i := range t.Questions {
		q := &t.Questions[i]
		if q.ID != "" {
			continue
		}
		key := strings.TrimSpace(q.Problem)
		seen[key]++
		if n := seen[key]; n > 1 {
			key = fmt.Sprintf("%s#%d", key, n)
		}
		q.ID = uuid.NewSHA1(topicID, []byte(key)).String()
	}

	t.ID = topicID.String()
	return prepare(t, randomID)
}
