package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakPassword       = errors.New("password must be at least 8 characters and include upper, lower and a digit")
)

type Service struct {
	Store *Store
}

func NewService(store *Store) *Service {
	return &Service{Store: store}
}

// Authenticate checks email and password against an active user.
func (s *Service) Authenticate(ctx context.Context, email, password string) (AuthUser, error) {
	user, err := s.Store.FindUserByEmail(ctx, email, UserStatusActive)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return AuthUser{}, ErrInvalidCredentials
		}
		return AuthUser{}, err
	}
	if err := CheckPassword(user.Password, password); err != nil {
		return AuthUser{}, ErrInvalidCredentials
	}
	return user, nil
}

// StartSession stores a hashed session id and returns the raw id for the token.
func (s *Service) StartSession(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	sessionID, err := NewOpaqueToken()
	if err != nil {
		return "", err
	}
	if err := s.Store.CreateSession(ctx, userID, HashToken(sessionID), time.Now().Add(ttl)); err != nil {
		return "", err
	}
	return sessionID, nil
}

// RotateSession replaces a live session with a fresh id. A session that is
// expired or revoked yields ErrNotFound.
func (s *Service) RotateSession(ctx context.Context, userID, sessionID string, ttl time.Duration) (string, error) {
	next, err := NewOpaqueToken()
	if err != nil {
		return "", err
	}
	if err := s.Store.RotateSession(ctx, userID, HashToken(sessionID), HashToken(next), time.Now().Add(ttl)); err != nil {
		return "", err
	}
	return next, nil
}

func (s *Service) EndSession(ctx context.Context, userID, sessionID string) error {
	return s.Store.RevokeSession(ctx, userID, HashToken(sessionID))
}

// SessionValid takes the raw session id carried in a token.
func (s *Service) SessionValid(ctx context.Context, userID, sessionID string) (bool, error) {
	return s.Store.SessionValid(ctx, userID, HashToken(sessionID))
}

func (s *Service) CurrentRole(ctx context.Context, userID string) (string, string, error) {
	return s.Store.CurrentRole(ctx, userID)
}

func (s *Service) UpdateLastLogin(ctx context.Context, userID string) error {
	return s.Store.UpdateLastLogin(ctx, userID)
}

func (s *Service) UpdateMFASecret(ctx context.Context, userID string, secretEnc []byte) error {
	return s.Store.UpdateMFASecret(ctx, userID, secretEnc)
}

func (s *Service) GetMFASecret(ctx context.Context, userID string) ([]byte, error) {
	return s.Store.GetMFASecret(ctx, userID)
}

func (s *Service) SetMFAEnabled(ctx context.Context, userID string, enabled bool) error {
	return s.Store.SetMFAEnabled(ctx, userID, enabled)
}

// RequestPasswordReset issues a reset token for email. Unknown emails yield
// ErrNotFound, which callers hide from the client.
func (s *Service) RequestPasswordReset(ctx context.Context, email string, ttl time.Duration) (string, error) {
	user, err := s.Store.FindUserByEmail(ctx, email, UserStatusActive)
	if err != nil {
		return "", err
	}
	token, err := NewOpaqueToken()
	if err != nil {
		return "", err
	}
	if err := s.Store.CreatePasswordReset(ctx, user.ID, HashToken(token), time.Now().Add(ttl)); err != nil {
		return "", err
	}
	return token, nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	if err := ValidatePassword(newPassword); err != nil {
		return "", err
	}
	userID, err := s.Store.PasswordResetUserID(ctx, HashToken(token))
	if err != nil {
		return "", err
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	if err := s.Store.ResetPassword(ctx, userID, HashToken(token), hash); err != nil {
		return "", err
	}
	return userID, nil
}

func (s *Service) CreateUser(ctx context.Context, tenantID, email, password, roleID string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return "", err
	}
	return s.Store.CreateUser(ctx, tenantID, email, hash, roleID)
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return ErrWeakPassword
	}
	return nil
}
