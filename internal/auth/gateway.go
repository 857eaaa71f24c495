package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/p-n-ai/pai-tracker/internal/apperr"
	"github.com/p-n-ai/pai-tracker/internal/platform/config"
)

// Gateway resolves bearer credentials to users.
type Gateway struct {
	tokens *Tokens
	users  UserStore
}

// NewGateway creates a gateway from explicit auth settings.
func NewGateway(cfg config.AuthConfig, users UserStore) *Gateway {
	return &Gateway{
		tokens: NewTokens(cfg.JWTSecret, time.Duration(cfg.TokenTTL)*time.Hour),
		users:  users,
	}
}

// Tokens returns the gateway's token issuer.
func (g *Gateway) Tokens() *Tokens {
	return g.tokens
}

// ResolveIdentity returns the user named by an Authorization header value.
func (g *Gateway) ResolveIdentity(ctx context.Context, authorization string) (User, error) {
	token, ok := BearerToken(authorization)
	if !ok {
		return User{}, apperr.Unauthenticatedf("Not authorized, no token")
	}
	return g.ResolveToken(ctx, token)
}

// ResolveToken returns the user named by a raw token.
func (g *Gateway) ResolveToken(ctx context.Context, token string) (User, error) {
	claims, err := g.tokens.Parse(token)
	if err != nil {
		slog.Debug("token rejected", "error", err)
		return User{}, apperr.Unauthenticatedf("Not authorized, token failed")
	}

	u, err := g.users.UserByID(ctx, claims.Subject)
	switch {
	case errors.Is(err, ErrUserNotFound):
		return User{}, apperr.NotFoundf("User not found")
	case err != nil:
		return User{}, apperr.Wrap(err, "load user")
	}
	return u, nil
}
