package api

import (
	"net/http"

	"github.com/quillnote/quillnote/internal/admin"
	"github.com/quillnote/quillnote/internal/errs"
	"github.com/quillnote/quillnote/internal/notify"
	"github.com/quillnote/quillnote/internal/profile"
)

// AdminHandler serves the privileged routes. Registration puts every route
// behind the admin middleware: by the time a handler runs, the caller has
// presented a valid bearer token and holds the admin role in the store.
type AdminHandler struct {
	admin *admin.Service
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(adminSvc *admin.Service) *AdminHandler {
	return &AdminHandler{admin: adminSvc}
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.LoadAllUsers(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"users": users})
}

// ListNotes handles GET /api/admin/notes.
func (h *AdminHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	result, err := h.admin.LoadAllNotes(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"notes": result})
}

// UpdateProfile handles PUT /api/admin/users/{id}/profile: a filtered partial
// profile update for any user.
func (h *AdminHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	var updates profile.Updates
	if err := decodeBody(r, &updates); err != nil {
		WriteError(w, err)
		return
	}

	if err := h.admin.UpdateUserProfile(r.Context(), userID, updates); err != nil {
		WriteError(w, err)
		return
	}
	WriteSuccess(w, notify.Success("Profile updated", ""))
}

// CreateUser handles POST /api/admin/create-user.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var params admin.CreateUserParams
	if err := decodeBody(r, &params); err != nil {
		WriteError(w, err)
		return
	}

	p, err := h.admin.CreateUser(r.Context(), params)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    p,
		"toast":   notify.Success("User created", p.Email),
	})
}

// UpdateUser handles POST /api/admin/update-user.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var params admin.UpdateUserParams
	if err := decodeBody(r, &params); err != nil {
		WriteError(w, err)
		return
	}

	p, err := h.admin.UpdateUser(r.Context(), params)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    p,
		"toast":   notify.Success("User updated", p.Email),
	})
}

// DeleteUser handles POST /api/admin/delete-user: the full account deletion
// cascade. Only a failure to remove the identity record itself reaches the
// client as an error.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID string `json:"user_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, err)
		return
	}
	if body.UserID == "" {
		WriteError(w, errs.ValidationErr("user id is required"))
		return
	}

	if err := h.admin.DeleteUser(r.Context(), body.UserID); err != nil {
		WriteError(w, err)
		return
	}
	WriteSuccess(w, notify.Success("User deleted", "The account and its data were removed."))
}
