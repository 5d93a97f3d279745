package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"hrconsole/internal/platform/querier"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

// AuthUser is the login view of a user row. Password is the bcrypt hash.
type AuthUser struct {
	ID          string `db:"id"`
	TenantID    string `db:"tenant_id"`
	Email       string `db:"email"`
	RoleID      string `db:"role_id"`
	RoleName    string `db:"role_name"`
	Password    string `db:"password_hash"`
	MFAEnabled  bool   `db:"mfa_enabled"`
	MFASecretEn []byte `db:"mfa_secret_enc"`
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// FindUserByEmail matches email case-insensitively among users in status.
func (s *Store) FindUserByEmail(ctx context.Context, email, status string) (AuthUser, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT u.id, u.tenant_id, u.email, u.role_id, r.name AS role_name,
           u.password_hash, u.mfa_enabled, u.mfa_secret_enc
    FROM users u
    JOIN roles r ON u.role_id = r.id
    WHERE lower(u.email) = lower($1) AND u.status = $2
  `, email, status)
	if err != nil {
		return AuthUser{}, err
	}
	user, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[AuthUser])
	return user, notFound(err)
}

// CurrentRole returns the user's role as stored now, which may differ from
// the role baked into an older token.
func (s *Store) CurrentRole(ctx context.Context, userID string) (string, string, error) {
	var roleID, roleName string
	err := s.DB.QueryRow(ctx, `
    SELECT u.role_id, r.name
    FROM users u
    JOIN roles r ON u.role_id = r.id
    WHERE u.id = $1 AND u.status = 'active'
  `, userID).Scan(&roleID, &roleName)
	return roleID, roleName, notFound(err)
}

func (s *Store) CreateSession(ctx context.Context, userID, refreshTokenHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO sessions (user_id, refresh_token, expires_at)
    VALUES ($1,$2,$3)
  `, userID, refreshTokenHash, expires)
	return err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

func (s *Store) RevokeSession(ctx context.Context, userID, refreshTokenHash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE sessions SET revoked_at = now() WHERE user_id = $1 AND refresh_token = $2", userID, refreshTokenHash)
	return err
}

func (s *Store) SessionValid(ctx context.Context, userID, refreshTokenHash string) (bool, error) {
	var ok bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM sessions
      WHERE user_id = $1 AND refresh_token = $2 AND expires_at > now() AND revoked_at IS NULL
    )
  `, userID, refreshTokenHash).Scan(&ok)
	return ok, err
}

// RotateSession swaps the hash of a live session in place. Expired, revoked
// or unknown sessions yield ErrNotFound.
func (s *Store) RotateSession(ctx context.Context, userID, oldHash, newHash string, expires time.Time) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE sessions
    SET refresh_token = $1, expires_at = $2, rotated_at = now()
    WHERE user_id = $3 AND refresh_token = $4 AND revoked_at IS NULL AND expires_at > now()
  `, newHash, expires, userID, oldHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateMFASecret(ctx context.Context, userID string, secretEnc []byte) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE users SET mfa_secret_enc = $1, mfa_enabled = false WHERE id = $2
  `, secretEnc, userID)
	return err
}

func (s *Store) GetMFASecret(ctx context.Context, userID string) ([]byte, error) {
	var secretEnc []byte
	err := s.DB.QueryRow(ctx, "SELECT mfa_secret_enc FROM users WHERE id = $1", userID).Scan(&secretEnc)
	return secretEnc, notFound(err)
}

func (s *Store) SetMFAEnabled(ctx context.Context, userID string, enabled bool) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET mfa_enabled = $1 WHERE id = $2", enabled, userID)
	return err
}

func (s *Store) CreatePasswordReset(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, "INSERT INTO password_resets (user_id, token, expires_at) VALUES ($1, $2, $3)", userID, tokenHash, expires)
	return err
}

func (s *Store) PasswordResetUserID(ctx context.Context, tokenHash string) (string, error) {
	var userID string
	err := s.DB.QueryRow(ctx, `
    SELECT user_id
    FROM password_resets
    WHERE token = $1 AND expires_at > now() AND used_at IS NULL
  `, tokenHash).Scan(&userID)
	return userID, notFound(err)
}

// ResetPassword sets the new hash, burns the token and revokes every open
// session in one transaction.
func (s *Store) ResetPassword(ctx context.Context, userID, tokenHash, passwordHash string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, "UPDATE password_resets SET used_at = now() WHERE token = $1 AND used_at IS NULL", tokenHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if _, err := tx.Exec(ctx, "UPDATE users SET password_hash = $1 WHERE id = $2", passwordHash, userID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "UPDATE sessions SET revoked_at = now() WHERE user_id = $1 AND revoked_at IS NULL", userID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) CreateUser(ctx context.Context, tenantID, email, passwordHash, roleID string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (tenant_id, email, password_hash, role_id)
    VALUES ($1,$2,$3,$4)
    RETURNING id
  `, tenantID, email, passwordHash, roleID).Scan(&id)
	return id, err
}
