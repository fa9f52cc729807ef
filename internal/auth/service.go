// Package auth implements accounts, password hashing, sessions, and the
// authentication/authorization middleware.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quillnote/quillnote/internal/db"
	"github.com/quillnote/quillnote/internal/errs"
)

// Roles a profile can carry. Self-registration always produces RoleUser;
// only the privileged admin path may assign RoleAdmin.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an identity record.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// UserService handles account registration and credential verification.
type UserService struct {
	store *db.Store
}

// NewUserService creates a user service.
func NewUserService(store *db.Store) *UserService {
	return &UserService{store: store}
}

// Register creates an account plus its profile row. The profile role is
// always "user": a role supplied by the client is never honored here.
func (s *UserService) Register(ctx context.Context, email, password string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePasswordStrength(password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to hash password", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC()

	tx, err := s.store.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, errs.DatabaseErr("failed to create account", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)`, id, email, hash, now.UnixMilli()); err != nil {
		if isUniqueViolation(err) {
			return nil, errs.ValidationErr("an account with this email already exists")
		}
		return nil, errs.DatabaseErr("failed to create account", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO profiles (id, email, role, created_at)
		VALUES (?, ?, ?, ?)`, id, email, RoleUser, now.UnixMilli()); err != nil {
		return nil, errs.DatabaseErr("failed to create profile", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errs.DatabaseErr("failed to create account", err)
	}

	return &User{ID: id, Email: email, CreatedAt: now}, nil
}

// Login verifies email/password credentials. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	var (
		id        string
		hash      string
		createdAt int64
	)
	err := s.store.DB().QueryRowContext(ctx, `
		SELECT id, password_hash, created_at FROM accounts WHERE email = ?`, email).
		Scan(&id, &hash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.AuthErr("invalid email or password")
	}
	if err != nil {
		return nil, errs.DatabaseErr("failed to look up account", err)
	}

	if !VerifyPassword(password, hash) {
		return nil, errs.AuthErr("invalid email or password")
	}

	return &User{ID: id, Email: email, CreatedAt: time.UnixMilli(createdAt).UTC()}, nil
}

// ChangePassword re-verifies the current password before storing a new one.
// A wrong current password is an expected failure with a specific message.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, updated string) error {
	var hash string
	err := s.store.DB().QueryRowContext(ctx, `
		SELECT password_hash FROM accounts WHERE id = ?`, userID).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return errs.New(errs.NotFound, "account not found")
	}
	if err != nil {
		return errs.DatabaseErr("failed to look up account", err)
	}

	if !VerifyPassword(current, hash) {
		return errs.AuthErr("current password is incorrect")
	}
	if err := ValidatePasswordStrength(updated); err != nil {
		return err
	}

	newHash, err := HashPassword(updated)
	if err != nil {
		return errs.Wrap(errs.Internal, "failed to hash password", err)
	}
	if _, err := s.store.DB().ExecContext(ctx, `
		UPDATE accounts SET password_hash = ? WHERE id = ?`, newHash, userID); err != nil {
		return errs.DatabaseErr("failed to update password", err)
	}
	return nil
}

// Role returns the persisted profile role for a user. Privileged paths call
// this on every request; a client-asserted role is never trusted.
func (s *UserService) Role(ctx context.Context, userID string) (string, error) {
	var role string
	err := s.store.DB().QueryRowContext(ctx, `
		SELECT role FROM profiles WHERE id = ?`, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errs.New(errs.NotFound, "profile not found")
	}
	if err != nil {
		return "", errs.DatabaseErr("failed to look up role", err)
	}
	return role, nil
}

func validateEmail(email string) error {
	if email == "" {
		return errs.ValidationErr("email is required")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return errs.ValidationErr("email is not valid")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}
