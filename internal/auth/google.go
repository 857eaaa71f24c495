package auth

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"
)

// GoogleIdentity is the verified content of a Google ID token.
type GoogleIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// GoogleVerifier checks Google ID tokens.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (GoogleIdentity, error)
}

// IDTokenVerifier validates tokens against Google's published keys for one
// OAuth client id.
type IDTokenVerifier struct {
	clientID string
}

// NewIDTokenVerifier creates a verifier for clientID.
func NewIDTokenVerifier(clientID string) (*IDTokenVerifier, error) {
	if clientID == "" {
		return nil, errors.New("google client id is required")
	}
	return &IDTokenVerifier{clientID: clientID}, nil
}

func (v *IDTokenVerifier) Verify(ctx context.Context, idToken string) (GoogleIdentity, error) {
	payload, err := idtoken.Validate(ctx, idToken, v.clientID)
	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("validate google id token: %w", err)
	}

	id := GoogleIdentity{Subject: payload.Subject}
	if email, ok := payload.Claims["email"].(string); ok {
		id.Email = email
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok {
		id.EmailVerified = verified
	}
	if name, ok := payload.Claims["name"].(string); ok {
		id.Name = name
	}
	return id, nil
}
