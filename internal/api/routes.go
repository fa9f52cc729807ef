package api

import (
	"net/http"

	"github.com/quillnote/quillnote/internal/admin"
	"github.com/quillnote/quillnote/internal/auth"
	"github.com/quillnote/quillnote/internal/email"
	"github.com/quillnote/quillnote/internal/notes"
	"github.com/quillnote/quillnote/internal/profile"
)

// Deps carries everything the route table needs.
type Deps struct {
	Users     *auth.UserService
	Sessions  *auth.SessionService
	Profiles  *profile.Service
	Notes     *notes.Service
	Autosaver *notes.Autosaver
	Admin     *admin.Service
	Mailer    email.Service
}

// RegisterRoutes wires every API route onto the mux. User routes accept the
// session cookie or a bearer token; admin routes accept bearer only and
// re-check the persisted role per request.
func RegisterRoutes(mux *http.ServeMux, deps Deps) {
	mw := auth.NewMiddleware(deps.Sessions, deps.Users, WriteError)

	authH := NewAuthHandler(deps.Users, deps.Sessions, deps.Profiles, deps.Mailer)
	notesH := NewNotesHandler(deps.Notes, deps.Autosaver)
	profileH := NewProfileHandler(deps.Profiles, deps.Sessions, deps.Admin)
	adminH := NewAdminHandler(deps.Admin)

	// Public
	mux.HandleFunc("POST /api/auth/register", authH.Register)
	mux.HandleFunc("POST /api/auth/login", authH.Login)
	mux.HandleFunc("POST /api/auth/logout", authH.Logout)

	// Authenticated
	user := func(h http.HandlerFunc) http.Handler { return mw.RequireAuth(h) }
	mux.Handle("GET /api/auth/me", user(authH.Me))

	mux.Handle("GET /api/notes", user(notesH.List))
	mux.Handle("POST /api/notes", user(notesH.Save))
	mux.Handle("GET /api/notes/{id}", user(notesH.Get))
	mux.Handle("GET /api/notes/{id}/html", user(notesH.HTML))
	mux.Handle("PATCH /api/notes/{id}/draft", user(notesH.Draft))
	mux.Handle("POST /api/notes/{id}/save", user(notesH.SaveByID))
	mux.Handle("DELETE /api/notes/{id}", user(notesH.Delete))

	mux.Handle("GET /api/profile", user(profileH.Get))
	mux.Handle("PUT /api/profile", user(profileH.Update))
	mux.Handle("POST /api/profile/avatar", user(profileH.UploadAvatar))
	mux.Handle("POST /api/profile/password", user(authH.ChangePassword))
	mux.Handle("DELETE /api/profile", user(profileH.Delete))

	// Privileged
	adm := func(h http.HandlerFunc) http.Handler { return mw.RequireAdmin(h) }
	mux.Handle("GET /api/admin/users", adm(adminH.ListUsers))
	mux.Handle("GET /api/admin/notes", adm(adminH.ListNotes))
	mux.Handle("PUT /api/admin/users/{id}/profile", adm(adminH.UpdateProfile))
	mux.Handle("POST /api/admin/create-user", adm(adminH.CreateUser))
	mux.Handle("POST /api/admin/update-user", adm(adminH.UpdateUser))
	mux.Handle("POST /api/admin/delete-user", adm(adminH.DeleteUser))
}
