package api

import (
	"net/http"
	"time"

	"github.com/quillnote/quillnote/internal/auth"
	"github.com/quillnote/quillnote/internal/email"
	"github.com/quillnote/quillnote/internal/errs"
	"github.com/quillnote/quillnote/internal/notify"
	"github.com/quillnote/quillnote/internal/profile"
)

// AuthHandler serves registration, login, logout, and the current-user route.
type AuthHandler struct {
	users    *auth.UserService
	sessions *auth.SessionService
	profiles *profile.Service
	mailer   email.Service
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(users *auth.UserService, sessions *auth.SessionService, profiles *profile.Service, mailer email.Service) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, profiles: profiles, mailer: mailer}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register. A fresh session is issued
// immediately; its id doubles as the bearer token for privileged calls.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	sessionID, err := h.sessions.Create(r.Context(), user.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	h.sessions.SetCookie(w, sessionID)

	WriteJSON(w, http.StatusCreated, map[string]any{
		"user":  user,
		"token": sessionID,
		"toast": notify.Success("Welcome", "Account created."),
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	user, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	sessionID, err := h.sessions.Create(r.Context(), user.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	h.sessions.SetCookie(w, sessionID)

	WriteJSON(w, http.StatusOK, map[string]any{
		"user":  user,
		"token": sessionID,
	})
}

// Logout handles POST /api/auth/logout. Always clears the cookie, even when
// the session row is already gone.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, err := auth.CookieToken(r); err == nil {
		_ = h.sessions.Delete(r.Context(), token)
	} else if token, err := auth.BearerToken(r); err == nil {
		_ = h.sessions.Delete(r.Context(), token)
	}
	h.sessions.ClearCookie(w)
	WriteSuccess(w, notify.Info("Signed out", ""))
}

// Me handles GET /api/auth/me: the caller's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())

	p, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"user": p})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword handles POST /api/profile/password. On success every other
// session for the user is revoked and a security notice is sent best-effort.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())

	var req changePasswordRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		WriteError(w, errs.ValidationErr("current and new password are required"))
		return
	}

	if err := h.users.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		WriteError(w, err)
		return
	}

	_ = h.sessions.DeleteByUserID(r.Context(), userID)
	h.sessions.ClearCookie(w)

	if h.mailer != nil {
		if p, err := h.profiles.Get(r.Context(), userID); err == nil {
			_ = h.mailer.Send(p.Email, email.TemplatePasswordChanged, email.PasswordChangedData{
				Email: p.Email,
				When:  time.Now().UTC().Format(time.RFC1123),
			})
		}
	}

	WriteSuccess(w, notify.Success("Password changed", "Please sign in again."))
}
