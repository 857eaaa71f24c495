package progress

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// ensureProgress is prefixed to every mutation so the record and the field
// change land in one statement.
const ensureProgress = `WITH ensured AS (
	INSERT INTO progress (user_id) VALUES ($1) ON CONFLICT DO NOTHING
)
`

// PostgresStore is a PostgreSQL-backed Store. Sets are TEXT[] columns on
// topic_progress and notes are rows keyed by question.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed progress store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) ProgressByUser(ctx context.Context, userID string) (Progress, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM progress WHERE user_id = $1)`,
		userID,
	).Scan(&exists); err != nil {
		return Progress{}, fmt.Errorf("find progress: %w", err)
	}
	if !exists {
		return Progress{}, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}

	records, err := s.load(ctx, []string{userID})
	if err != nil {
		return Progress{}, err
	}
	return records[0], nil
}

func (s *PostgresStore) CreateProgress(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("user_id is required")
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := s.pool.Exec(ctx,
		`INSERT INTO progress (user_id) VALUES ($1) ON CONFLICT DO NOTHING`,
		userID,
	); err != nil {
		return fmt.Errorf("create progress: %w", err)
	}
	return nil
}

func (s *PostgresStore) AddToSet(ctx context.Context, userID, topicID string, set Set, questionID string) error {
	col, err := setColumn(set)
	if err != nil {
		return err
	}
	return s.exec(ctx, "add to "+col, ensureProgress+fmt.Sprintf(
		`INSERT INTO topic_progress (user_id, topic_id, %[1]s)
		 VALUES ($1, $2, ARRAY[$3::text])
		 ON CONFLICT (user_id, topic_id) DO UPDATE
		 SET %[1]s = CASE
		         WHEN $3::text = ANY (topic_progress.%[1]s) THEN topic_progress.%[1]s
		         ELSE array_append(topic_progress.%[1]s, $3::text)
		     END,
		     updated_at = NOW()`, col),
		userID, topicID, questionID,
	)
}

func (s *PostgresStore) RemoveFromSet(ctx context.Context, userID, topicID string, set Set, questionID string) error {
	col, err := setColumn(set)
	if err != nil {
		return err
	}
	return s.exec(ctx, "remove from "+col, ensureProgress+fmt.Sprintf(
		`INSERT INTO topic_progress (user_id, topic_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, topic_id) DO UPDATE
		 SET %[1]s = array_remove(topic_progress.%[1]s, $3::text),
		     updated_at = NOW()`, col),
		userID, topicID, questionID,
	)
}

func (s *PostgresStore) UpsertNote(ctx context.Context, userID, topicID, questionID, text string) error {
	return s.exec(ctx, "upsert note", ensureProgress+
		`, entry AS (
			INSERT INTO topic_progress (user_id, topic_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		)
		INSERT INTO topic_notes (user_id, topic_id, question_id, text)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, topic_id, question_id) DO UPDATE
		SET text = EXCLUDED.text, updated_at = NOW()`,
		userID, topicID, questionID, text,
	)
}

func (s *PostgresStore) RemoveNote(ctx context.Context, userID, topicID, questionID string) error {
	return s.exec(ctx, "remove note", ensureProgress+
		`, entry AS (
			INSERT INTO topic_progress (user_id, topic_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		)
		DELETE FROM topic_notes
		WHERE user_id = $1 AND topic_id = $2 AND question_id = $3`,
		userID, topicID, questionID,
	)
}

func (s *PostgresStore) AllProgress(ctx context.Context) ([]Progress, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT user_id FROM progress ORDER BY created_at ASC, user_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress: %w", err)
	}
	if len(userIDs) == 0 {
		return []Progress{}, nil
	}
	return s.load(ctx, userIDs)
}

func (s *PostgresStore) exec(ctx context.Context, op, query string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	slog.Debug("progress updated", "op", op, "user_id", args[0], "topic_id", args[1])
	return nil
}

// load assembles records for userIDs, in the given order.
func (s *PostgresStore) load(ctx context.Context, userIDs []string) ([]Progress, error) {
	byUser := make(map[string]*Progress, len(userIDs))
	records := make([]Progress, len(userIDs))
	for i, id := range userIDs {
		records[i] = Progress{UserID: id, Topics: []TopicProgress{}}
		byUser[id] = &records[i]
	}

	rows, err := s.pool.Query(ctx,
		`SELECT user_id, topic_id, done_questions, bookmarked_questions
		 FROM topic_progress
		 WHERE user_id = ANY ($1)
		 ORDER BY created_at ASC, topic_id ASC`,
		userIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("query topic progress: %w", err)
	}
	for rows.Next() {
		var userID string
		tp := newTopicProgress("")
		if err := rows.Scan(&userID, &tp.TopicID, &tp.DoneQuestions, &tp.BookmarkedQuestions); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan topic progress: %w", err)
		}
		if p, ok := byUser[userID]; ok {
			p.Topics = append(p.Topics, tp)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topic progress: %w", err)
	}

	rows, err = s.pool.Query(ctx,
		`SELECT user_id, topic_id, question_id, text
		 FROM topic_notes
		 WHERE user_id = ANY ($1)
		 ORDER BY updated_at ASC, question_id ASC`,
		userIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var userID, topicID string
		var n Note
		if err := rows.Scan(&userID, &topicID, &n.QuestionID, &n.Text); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		if p, ok := byUser[userID]; ok {
			if tp, ok := p.Topic(topicID); ok {
				tp.Notes = append(tp.Notes, n)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return records, nil
}

func setColumn(set Set) (string, error) {
	switch set {
	case Done:
		return "done_questions", nil
	case Bookmarked:
		return "bookmarked_questions", nil
	default:
		return "", fmt.Errorf("unknown set %q", set)
	}
}
