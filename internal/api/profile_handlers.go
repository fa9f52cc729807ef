package api

import (
	"context"
	"io"
	"net/http"

	"github.com/quillnote/quillnote/internal/auth"
	"github.com/quillnote/quillnote/internal/errs"
	"github.com/quillnote/quillnote/internal/notify"
	"github.com/quillnote/quillnote/internal/profile"
)

// MaxAvatarBytes bounds avatar uploads.
const MaxAvatarBytes = 5 << 20 // 5 MiB

// AccountDeleter runs the full account deletion cascade for a user.
type AccountDeleter interface {
	DeleteUser(ctx context.Context, userID string) error
}

// ProfileHandler serves the self-service profile routes.
type ProfileHandler struct {
	profiles *profile.Service
	sessions *auth.SessionService
	deleter  AccountDeleter
}

// NewProfileHandler creates a profile handler.
func NewProfileHandler(profiles *profile.Service, sessions *auth.SessionService, deleter AccountDeleter) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, sessions: sessions, deleter: deleter}
}

// Get handles GET /api/profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())

	p, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"profile": p})
}

// Update handles PUT /api/profile: a partial update of the caller's own
// profile. Absent fields stay untouched; an empty update is a no-op success.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())

	var updates profile.Updates
	if err := decodeBody(r, &updates); err != nil {
		WriteError(w, err)
		return
	}

	if err := h.profiles.Update(r.Context(), userID, updates); err != nil {
		WriteError(w, err)
		return
	}

	p, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"profile": p,
		"toast":   notify.Success("Profile updated", ""),
	})
}

// UploadAvatar handles POST /api/profile/avatar: multipart upload, stored in
// object storage, then the public URL is persisted on the profile.
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, MaxAvatarBytes)
	if err := r.ParseMultipartForm(MaxAvatarBytes); err != nil {
		WriteError(w, errs.ValidationErr("invalid upload"))
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		WriteError(w, errs.ValidationErr("no file provided for avatar upload"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, errs.ValidationErr("failed to read upload"))
		return
	}

	url, err := h.profiles.UploadAvatar(r.Context(), userID, header.Filename, data)
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.profiles.Update(r.Context(), userID, profile.Updates{AvatarURL: &url}); err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"avatar_url": url,
		"toast":      notify.Success("Avatar updated", ""),
	})
}

// Delete handles DELETE /api/profile: the caller deletes their own account.
// The same cascade the admin routes use runs against the caller's id, then
// the session cookie is cleared.
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())

	if err := h.deleter.DeleteUser(r.Context(), userID); err != nil {
		WriteError(w, err)
		return
	}

	h.sessions.ClearCookie(w)
	WriteSuccess(w, notify.Success("Account deleted", "Your account and all its data were removed."))
}
