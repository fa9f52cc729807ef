package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/quillnote/quillnote/internal/db"
	"github.com/quillnote/quillnote/internal/errs"
)

// Session errors
var (
	ErrSessionNotFound = errors.New("session not found")
)

// Session configuration
const (
	DefaultSessionDuration = 30 * 24 * time.Hour
	SessionIDLength        = 32 // 256 bits
	SessionCookieName      = "session_id"
)

// SessionService manages sessions in the shared store. The session id is
// also the bearer token the client presents on privileged HTTP calls.
type SessionService struct {
	store    *db.Store
	duration time.Duration
	secure   bool
}

// NewSessionService creates a session service. duration <= 0 uses the
// default; secure controls the cookie Secure flag (off for localhost dev).
func NewSessionService(store *db.Store, duration time.Duration, secure bool) *SessionService {
	if duration <= 0 {
		duration = DefaultSessionDuration
	}
	return &SessionService{store: store, duration: duration, secure: secure}
}

// Create creates a new session for a user and returns the session id.
func (s *SessionService) Create(ctx context.Context, userID string) (string, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return "", errs.DatabaseErr("failed to create session", err)
	}

	now := time.Now().UTC()
	_, err = s.store.DB().ExecContext(ctx, `
		INSERT INTO sessions (session_id, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)`,
		sessionID, userID, now.Add(s.duration).UnixMilli(), now.UnixMilli())
	if err != nil {
		return "", errs.DatabaseErr("failed to create session", err)
	}
	return sessionID, nil
}

// Validate checks a session id and returns the owning user id.
func (s *SessionService) Validate(ctx context.Context, sessionID string) (string, error) {
	var userID string
	err := s.store.DB().QueryRowContext(ctx, `
		SELECT user_id FROM sessions
		WHERE session_id = ? AND expires_at > ?`,
		sessionID, time.Now().UTC().UnixMilli()).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", errs.DatabaseErr("failed to validate session", err)
	}
	return userID, nil
}

// Delete removes a session (logout).
func (s *SessionService) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.store.DB().ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID); err != nil {
		return errs.DatabaseErr("failed to delete session", err)
	}
	return nil
}

// DeleteByUserID removes all sessions for a user.
func (s *SessionService) DeleteByUserID(ctx context.Context, userID string) error {
	if _, err := s.store.DB().ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return errs.DatabaseErr("failed to delete user sessions", err)
	}
	return nil
}

// Cleanup removes expired sessions. Called periodically by a background
// goroutine.
func (s *SessionService) Cleanup(ctx context.Context) error {
	if _, err := s.store.DB().ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, time.Now().UTC().UnixMilli()); err != nil {
		return errs.DatabaseErr("failed to clean up sessions", err)
	}
	return nil
}

// SetCookie sets the session cookie on the response.
func (s *SessionService) SetCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.duration.Seconds()),
	})
}

// ClearCookie removes the session cookie.
func (s *SessionService) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// CookieToken retrieves the session id from the request cookie.
func CookieToken(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrSessionNotFound
		}
		return "", err
	}
	return cookie.Value, nil
}

// BearerToken extracts the bearer token from the Authorization header.
// A missing or malformed header is an error; privileged routes treat it as
// unauthorized before doing any work.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return "", ErrSessionNotFound
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", ErrSessionNotFound
	}
	return token, nil
}

func generateSessionID() (string, error) {
	bytes := make([]byte, SessionIDLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}
