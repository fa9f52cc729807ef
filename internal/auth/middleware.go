package auth

import (
	"context"
	"net/http"

	"github.com/quillnote/quillnote/internal/errs"
)

type contextKey string

const userIDKey contextKey = "userID"

// ErrorWriter renders an error response. The api package supplies its JSON
// writer so middleware responses match handler responses.
type ErrorWriter func(w http.ResponseWriter, err error)

// Middleware provides authentication middleware for HTTP handlers.
type Middleware struct {
	sessions   *SessionService
	users      *UserService
	writeError ErrorWriter
}

// NewMiddleware creates an auth middleware.
func NewMiddleware(sessions *SessionService, users *UserService, writeError ErrorWriter) *Middleware {
	return &Middleware{sessions: sessions, users: users, writeError: writeError}
}

// RequireAuth requires a valid session, presented either as the session
// cookie or as a bearer token. Responds 401 otherwise.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := CookieToken(r)
		if err != nil {
			token, err = BearerToken(r)
		}
		if err != nil {
			m.writeError(w, errs.AuthErr("Unauthorized"))
			return
		}

		userID, err := m.sessions.Validate(r.Context(), token)
		if err != nil {
			m.writeError(w, errs.AuthErr("Unauthorized"))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// RequireAdmin guards the privileged routes. It accepts only a bearer token
// (the caller's session id), resolves the caller, then re-reads the caller's
// persisted profile role. Missing or malformed credentials respond 401
// before any work happens; a valid non-admin caller responds 403 with no
// further detail.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := BearerToken(r)
		if err != nil {
			m.writeError(w, errs.AuthErr("Unauthorized"))
			return
		}

		userID, err := m.sessions.Validate(r.Context(), token)
		if err != nil {
			m.writeError(w, errs.AuthErr("Unauthorized"))
			return
		}

		role, err := m.users.Role(r.Context(), userID)
		if err != nil || role != RoleAdmin {
			m.writeError(w, errs.New(errs.PermissionDenied, "Forbidden"))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// WithUserID stores the authenticated user id in the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID retrieves the authenticated user id from the request context.
// Returns empty string if no user is authenticated.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}
