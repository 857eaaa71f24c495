package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	dbTimeout       = 5 * time.Second
	uniqueViolation = "23505"
)

// PostgresStore is a PostgreSQL-backed Store. Questions live in a JSONB
// column on the topic row so their order is the stored order.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed catalog store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) AllTopics(ctx context.Context) ([]Topic, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, topic_name, position, questions
		 FROM topics
		 ORDER BY position ASC, topic_name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	defer rows.Close()

	topics := []Topic{}
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topics: %w", err)
	}
	return topics, nil
}

func (s *PostgresStore) TopicByName(ctx context.Context, name string) (Topic, error) {
	name = NormalizeName(name)
	return s.getTopicByQuery(ctx,
		`SELECT id, topic_name, position, questions FROM topics WHERE topic_name = $1`,
		name,
	)
}

func (s *PostgresStore) TopicByID(ctx context.Context, id string) (Topic, error) {
	return s.getTopicByQuery(ctx,
		`SELECT id, topic_name, position, questions FROM topics WHERE id = $1`,
		NormalizeID(id),
	)
}

func (s *PostgresStore) AddTopic(ctx context.Context, t Topic) (Topic, error) {
	t, err := prepare(t, randomID)
	if err != nil {
		return Topic{}, err
	}

	questions, err := json.Marshal(t.Questions)
	if err != nil {
		return Topic{}, fmt.Errorf("marshal questions: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err = s.pool.Exec(ctx,
		`INSERT INTO topics (id, topic_name, position, questions)
		 VALUES ($1, $2, $3, $4::jsonb)`,
		t.ID,
		t.TopicName,
		t.Position,
		string(questions),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Topic{}, fmt.Errorf("%q: %w", t.TopicName, ErrDuplicate)
		}
		return Topic{}, fmt.Errorf("insert topic: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) getTopicByQuery(ctx context.Context, query string, args ...any) (Topic, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	t, err := scanTopic(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Topic{}, fmt.Errorf("%v: %w", args[0], ErrNotFound)
		}
		return Topic{}, err
	}
	return t, nil
}

func scanTopic(row pgx.Row) (Topic, error) {
	var t Topic
	var questions []byte
	if err := row.Scan(&t.ID, &t.TopicName, &t.Position, &questions); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Topic{}, err
		}
		return Topic{}, fmt.Errorf("scan topic: %w", err)
	}
	t.Questions = []Question{}
	if len(questions) > 0 {
		if err := json.Unmarshal(questions, &t.Questions); err != nil {
			return Topic{}, fmt.Errorf("decode questions for topic %s: %w", t.ID, err)
		}
	}
	return t, nil
}
