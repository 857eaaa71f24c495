package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/p-n-ai/pai-tracker/internal/apperr"
	"github.com/p-n-ai/pai-tracker/internal/platform/config"
)

// ProgressInitializer creates the empty progress record of a new user.
type ProgressInitializer interface {
	CreateProgress(ctx context.Context, userID string) error
}

// ServiceConfig holds dependencies for the auth service.
type ServiceConfig struct {
	Auth     config.AuthConfig
	Users    UserStore
	Progress ProgressInitializer
	Google   GoogleVerifier // nil disables Google sign-in
}

// Service implements registration and sign-in.
type Service struct {
	users      UserStore
	progress   ProgressInitializer
	google     GoogleVerifier
	tokens     *Tokens
	adminEmail string
	bcryptCost int
}

// Session is returned by every successful sign-in.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// NewService creates an auth service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		users:      cfg.Users,
		progress:   cfg.Progress,
		google:     cfg.Google,
		tokens:     NewGateway(cfg.Auth, cfg.Users).Tokens(),
		adminEmail: NormalizeEmail(cfg.Auth.AdminEmail),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Register creates a password account.
func (s *Service) Register(ctx context.Context, name, email, password string) (Session, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return Session{}, apperr.BadRequestf("Name, email and password are required")
	}

	if _, err := s.users.UserByEmail(ctx, email); err == nil {
		return Session{}, apperr.BadRequestf("User already exists")
	} else if !errors.Is(err, ErrUserNotFound) {
		return Session{}, apperr.Wrap(err, "lookup user")
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return Session{}, apperr.Wrap(err, "hash password")
	}

	return s.create(ctx, User{Name: name, Email: email, PasswordHash: hash})
}

// Login signs in a password account.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, apperr.BadRequestf("Email and password are required")
	}

	u, err := s.users.UserByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrUserNotFound):
		return Session{}, apperr.NotFoundf("User not registered")
	case err != nil:
		return Session{}, apperr.Wrap(err, "lookup user")
	}

	if !CheckPassword(u.PasswordHash, password) {
		return Session{}, apperr.Unauthenticatedf("Incorrect password")
	}

	slog.Info("user logged in", "user_id", u.ID)
	return s.session(u)
}

// Google signs in with a Google ID token, creating the account on first use.
func (s *Service) Google(ctx context.Context, idToken string) (Session, error) {
	if s.google == nil {
		return Session{}, apperr.BadRequestf("Google sign-in is not configured")
	}
	if strings.TrimSpace(idToken) == "" {
		return Session{}, apperr.BadRequestf("Google credential is required")
	}

	id, err := s.google.Verify(ctx, idToken)
	if err != nil {
		slog.Debug("google token rejected", "error", err)
		return Session{}, apperr.Unauthenticatedf("Invalid Google credential")
	}
	if id.Email == "" || !id.EmailVerified {
		return Session{}, apperr.Unauthenticatedf("Google account email is not verified")
	}

	u, err := s.users.UserByEmail(ctx, id.Email)
	switch {
	case err == nil:
		if err := s.ensureProgress(ctx, u.ID); err != nil {
			return Session{}, err
		}
		slog.Info("user logged in", "user_id", u.ID, "method", "google")
		return s.session(u)
	case !errors.Is(err, ErrUserNotFound):
		return Session{}, apperr.Wrap(err, "lookup user")
	}

	name := id.Name
	if name == "" {
		name, _, _ = strings.Cut(id.Email, "@")
	}
	return s.create(ctx, User{Name: name, Email: id.Email, GoogleID: id.Subject})
}

func (s *Service) create(ctx context.Context, u User) (Session, error) {
	if s.adminEmail != "" && NormalizeEmail(u.Email) == s.adminEmail {
		u.Role = RoleAdmin
	}

	u, err := s.users.CreateUser(ctx, u)
	switch {
	case errors.Is(err, ErrEmailTaken):
		return Session{}, apperr.BadRequestf("User already exists")
	case err != nil:
		return Session{}, apperr.Wrap(err, "create user")
	}

	if err := s.ensureProgress(ctx, u.ID); err != nil {
		return Session{}, err
	}

	slog.Info("user registered", "user_id", u.ID, "role", u.Role)
	return s.session(u)
}

func (s *Service) ensureProgress(ctx context.Context, userID string) error {
	if s.progress == nil {
		return nil
	}
	if err := s.progress.CreateProgress(ctx, userID); err != nil {
		return apperr.Wrap(err, "create progress")
	}
	return nil
}

func (s *Service) session(u User) (Session, error) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		return Session{}, apperr.Wrap(err, "issue token")
	}
	return Session{Token: token, User: u}, nil
}
