// Package session manages the logged-in identity: logging in, registering,
// and persisting the identity payload between runs.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/amonks/taskboard/backend"
)

// Authenticator posts login credentials.
type Authenticator interface {
	Login(ctx context.Context, email, password, username string) (json.RawMessage, error)
}

// Registrar creates accounts.
type Registrar interface {
	Register(ctx context.Context, username, email, password string) (json.RawMessage, error)
}

// DeriveUsername returns the part of email before the first "@".
func DeriveUsername(email string) string {
	name, _, _ := strings.Cut(email, "@")
	return name
}

// Login posts the credentials and, when the server answers with an identity,
// stores that payload verbatim. Nothing is stored on failure.
func Login(ctx context.Context, auth Authenticator, store Store, email, password string) (Identity, error) {
	if email == "" || password == "" {
		return Identity{}, ErrMissingCredentials
	}
	raw, err := auth.Login(ctx, email, password, DeriveUsername(email))
	if err != nil {
		return Identity{}, requestError(err, DefaultLoginMessage)
	}
	identity, err := ParseIdentity(raw)
	if err != nil {
		return Identity{}, err
	}
	if err := store.Save(identity); err != nil {
		return Identity{}, fmt.Errorf("save identity: %w", err)
	}
	return identity, nil
}

// Register creates an account. An empty username is derived from email.
// The returned identity is not stored.
func Register(ctx context.Context, registrar Registrar, username, email, password string) (Identity, error) {
	if email == "" || password == "" {
		return Identity{}, ErrMissingCredentials
	}
	if strings.TrimSpace(username) == "" {
		username = DeriveUsername(email)
	}
	raw, err := registrar.Register(ctx, username, email, password)
	if err != nil {
		return Identity{}, requestError(err, DefaultRegisterMessage)
	}
	return ParseIdentity(raw)
}

func requestError(err error, fallback string) error {
	var backendErr *backend.Error
	if errors.As(err, &backendErr) && backendErr.Detail != "" {
		return &LoginError{Message: backendErr.Detail, Err: err}
	}
	return &LoginError{Message: fallback, Err: err}
}
