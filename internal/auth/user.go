// Package auth registers users, issues session tokens, and resolves bearer
// tokens back to users.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
)

// User is an account. PasswordHash is empty for Google-only accounts.
type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	GoogleID     string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u User) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByID(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func prepareUser(u User) User {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = NormalizeEmail(u.Email)
	u.Name = strings.TrimSpace(u.Name)
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	return u
}

// MemoryUserStore is an in-memory implementation of UserStore.
type MemoryUserStore struct {
	users   map[string]User
	byEmail map[string]string
	order   []string
	mu      sync.RWMutex
}

// NewMemoryUserStore creates a new in-memory user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		users:   make(map[string]User),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryUserStore) CreateUser(_ context.Context, u User) (User, error) {
	u = prepareUser(u)
	if u.Email == "" {
		return User{}, fmt.Errorf("email is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[u.Email]; ok {
		return User{}, fmt.Errorf("%s: %w", u.Email, ErrEmailTaken)
	}
	s.users[u.ID] = u
	s.byEmail[u.Email] = u.ID
	s.order = append(s.order, u.ID)
	return u, nil
}

func (s *MemoryUserStore) UserByEmail(_ context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return User{}, fmt.Errorf("%s: %w", email, ErrUserNotFound)
	}
	return s.users[id], nil
}

func (s *MemoryUserStore) UserByID(_ context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, fmt.Errorf("%s: %w", id, ErrUserNotFound)
	}
	return u, nil
}

func (s *MemoryUserStore) ListUsers(_ context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]User, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.users[id])
	}
	return out, nil
}
