package auth

import (
	"context"
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

const userColumns = `id, name, email, COALESCE(password_hash, ''), COALESCE(google_id, ''), role, created_at`

// PostgresUserStore is a PostgreSQL-backed UserStore.
type PostgresUserStore struct {
	pool *pgxpool.Pool
}

// NewPostgresUserStore creates a PostgreSQL-backed user store.
func NewPostgresUserStore(pool *pgxpool.Pool) (*PostgresUserStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresUserStore{pool: pool}, nil
}

func (s *PostgresUserStore) CreateUser(ctx context.Context, u User) (User, error) {
	u = prepareUser(u)
	if u.Email == "" {
		return User{}, fmt.Errorf("email is required")
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, google_id, role, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID,
		u.Name,
		u.Email,
		nullIfEmpty(u.PasswordHash),
		nullIfEmpty(u.GoogleID),
		u.Role,
		u.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, fmt.Errorf("%s: %w", u.Email, ErrEmailTaken)
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *PostgresUserStore) UserByEmail(ctx context.Context, email string) (User, error) {
	return s.getUserByQuery(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		NormalizeEmail(email),
	)
}

func (s *PostgresUserStore) UserByID(ctx context.Context, id string) (User, error) {
	return s.getUserByQuery(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
}

func (s *PostgresUserStore) ListUsers(ctx context.Context) ([]User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (s *PostgresUserStore) getUserByQuery(ctx context.Context, query string, arg string) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	u, err := scanUser(s.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, fmt.Errorf("%s: %w", arg, ErrUserNotFound)
		}
		return User{}, err
	}
	return u, nil
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.GoogleID, &u.Role, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, err
		}
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
