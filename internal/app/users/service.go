package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"spinchart/internal/store"
)

// ErrMissingCredentials is returned when signup input is blank.
var ErrMissingCredentials = errors.New("username and password are required")

// Store describes the persistence operations required by the user service.
type Store interface {
	CreateUser(ctx context.Context, username, password string) (int64, error)
	Authenticate(ctx context.Context, username, password string) (int64, error)
}

// Tokens issues and resolves session tokens.
type Tokens interface {
	GenerateToken(userID int64) (string, error)
	ValidateToken(token string) (int64, error)
}

// Service exposes account workflows.
type Service interface {
	Signup(ctx context.Context, username, password string) (int64, error)
	Login(ctx context.Context, username, password string) (string, error)
	ValidateToken(ctx context.Context, token string) (int64, error)
}

type service struct {
	store  Store
	tokens Tokens
}

// New wires a Service backed by the provided Store and token issuer.
func New(store Store, tokens Tokens) Service {
	return &service{store: store, tokens: tokens}
}

func (s *service) Signup(ctx context.Context, username, password string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return 0, ErrMissingCredentials
	}
	return s.store.CreateUser(ctx, username, password)
}

func (s *service) Login(ctx context.Context, username, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	userID, err := s.store.Authenticate(ctx, strings.TrimSpace(username), password)
	if err != nil {
		return "", err
	}
	token, err := s.tokens.GenerateToken(userID)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

func (s *service) ValidateToken(ctx context.Context, token string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	userID, err := s.tokens.ValidateToken(token)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", store.ErrUnauthorized, err)
	}
	return userID, nil
}
