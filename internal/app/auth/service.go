package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/studyhallhq/tutor-agent/internal/domain"
	"github.com/studyhallhq/tutor-agent/internal/observability"
)

// Service handles sign-up and login on top of the account store. Accounts
// are never deleted and credentials never rotate; the store is the flat
// username -> bcrypt-hash mapping rewritten whole on each sign-up.
type Service struct {
	store     domain.AccountStore
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewService(store domain.AccountStore, jwtSecret string, tokenTTL time.Duration) *Service {
	return &Service{
		store:     store,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

// SignUp registers a new account and returns a session token.
func (s *Service) SignUp(ctx context.Context, username domain.Username, password string) (string, error) {
	accounts, err := s.store.Load(ctx)
	if err != nil {
		return "", err
	}

	if _, exists := accounts[username]; exists {
		return "", domain.ErrAccountExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	accounts[username] = string(hash)
	if err := s.store.Save(ctx, accounts); err != nil {
		return "", err
	}

	observability.LoggerFromContext(ctx).Info("account created", "username", username)
	return generateToken(string(username), s.jwtSecret, s.tokenTTL)
}

// Login verifies the password against the stored hash and returns a token.
func (s *Service) Login(ctx context.Context, username domain.Username, password string) (string, error) {
	accounts, err := s.store.Load(ctx)
	if err != nil {
		return "", err
	}

	hash, ok := accounts[username]
	if !ok {
		return "", domain.ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", domain.ErrBadCredentials
	}

	return generateToken(string(username), s.jwtSecret, s.tokenTTL)
}

// Verify resolves a token back to the account it was issued for.
func (s *Service) Verify(tokenString string) (domain.Username, error) {
	username, err := usernameFromToken(tokenString, s.jwtSecret)
	if err != nil {
		return "", err
	}
	return domain.Username(username), nil
}
