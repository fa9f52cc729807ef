// Package admin implements the privileged data-access layer: cross-user
// listings, admin-driven user management, and the service-credential account
// deletion cascade. Everything here runs only behind the admin middleware.
package admin

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quillnote/quillnote/internal/auth"
	"github.com/quillnote/quillnote/internal/db"
	"github.com/quillnote/quillnote/internal/email"
	"github.com/quillnote/quillnote/internal/errs"
	"github.com/quillnote/quillnote/internal/notes"
	"github.com/quillnote/quillnote/internal/obs"
	"github.com/quillnote/quillnote/internal/profile"
	"github.com/quillnote/quillnote/internal/s3client"
)

// UserRecord is a profile enriched with aggregate data for admin listings.
type UserRecord struct {
	profile.Profile
	NoteCount int `json:"note_count"`
}

// NoteRecord is a note enriched with its owner's display fields.
type NoteRecord struct {
	notes.Note
	UserName  string `json:"user_name,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
}

// CreateUserParams are the inputs for admin-driven user creation.
type CreateUserParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
}

// UpdateUserParams are the inputs for admin-driven user updates. Nil fields
// are left untouched.
type UpdateUserParams struct {
	UserID string  `json:"user_id"`
	Name   *string `json:"name,omitempty"`
	Role   *string `json:"role,omitempty"`
}

// Service provides admin operations over the shared store and object storage.
type Service struct {
	store    *db.Store
	notes    *notes.Service
	profiles *profile.Service
	users    *auth.UserService
	sessions *auth.SessionService
	storage  *s3client.Client
	mailer   email.Service
	loginURL string
	log      *slog.Logger
}

// NewService creates an admin service.
func NewService(
	store *db.Store,
	noteSvc *notes.Service,
	profileSvc *profile.Service,
	userSvc *auth.UserService,
	sessionSvc *auth.SessionService,
	storage *s3client.Client,
	mailer email.Service,
	loginURL string,
) *Service {
	return &Service{
		store:    store,
		notes:    noteSvc,
		profiles: profileSvc,
		users:    userSvc,
		sessions: sessionSvc,
		storage:  storage,
		mailer:   mailer,
		loginURL: loginURL,
		log:      obs.Pkg("admin"),
	}
}

// LoadAllUsers returns every profile with its note count, newest first. The
// aggregate query is tried first; if it fails, the plain profile listing is
// returned with zero counts rather than failing the whole page.
func (s *Service) LoadAllUsers(ctx context.Context) ([]UserRecord, error) {
	records, err := s.loadUsersWithCounts(ctx)
	if err == nil {
		return records, nil
	}
	s.log.Warn("aggregate user query failed, falling back to plain listing",
		slog.String("error", err.Error()))

	rows, err := s.store.DB().QueryContext(ctx, `
		SELECT id, email, name, avatar_url, role, created_at
		FROM profiles
		ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, errs.DatabaseErr("failed to load users", err)
	}
	defer rows.Close()

	result := make([]UserRecord, 0)
	for rows.Next() {
		p, err := profile.ScanProfile(rows)
		if err != nil {
			return nil, errs.DatabaseErr("failed to load users", err)
		}
		result = append(result, UserRecord{Profile: *p})
	}
	if err := rows.Err(); err != nil {
		return nil, errs.DatabaseErr("failed to load users", err)
	}
	return result, nil
}

func (s *Service) loadUsersWithCounts(ctx context.Context) ([]UserRecord, error) {
	rows, err := s.store.DB().QueryContext(ctx, `
		SELECT p.id, p.email, p.name, p.avatar_url, p.role, p.created_at,
		       COUNT(n.id) AS note_count
		FROM profiles p
		LEFT JOIN notes n ON n.user_id = p.id
		GROUP BY p.id
		ORDER BY p.created_at DESC, p.rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]UserRecord, 0)
	for rows.Next() {
		var (
			rec       UserRecord
			name      sql.NullString
			avatarURL sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&rec.ID, &rec.Email, &name, &avatarURL, &rec.Role, &createdAt, &rec.NoteCount); err != nil {
			return nil, err
		}
		rec.Name = name.String
		rec.AvatarURL = avatarURL.String
		rec.CreatedAt = time.UnixMilli(createdAt).UTC()
		result = append(result, rec)
	}
	return result, rows.Err()
}

// LoadAllNotes returns every note across all users, newest first, each
// carrying its owner's name and email. The JOIN query is tried first; on
// failure the notes are listed plain and owner fields are resolved from a
// second profile query, leaving them empty for owners that cannot be found.
func (s *Service) LoadAllNotes(ctx context.Context) ([]NoteRecord, error) {
	records, err := s.loadNotesJoined(ctx)
	if err == nil {
		return records, nil
	}
	s.log.Warn("joined note query failed, falling back to separate lookups",
		slog.String("error", err.Error()))

	rows, err := s.store.DB().QueryContext(ctx, `
		SELECT id, title, content, user_id, created_at, updated_at
		FROM notes
		ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, errs.DatabaseErr("failed to load notes", err)
	}
	defer rows.Close()

	result := make([]NoteRecord, 0)
	for rows.Next() {
		var (
			rec       NoteRecord
			createdAt int64
			updatedAt sql.NullInt64
		)
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Content, &rec.UserID, &createdAt, &updatedAt); err != nil {
			return nil, errs.DatabaseErr("failed to load notes", err)
		}
		rec.CreatedAt = time.UnixMilli(createdAt).UTC()
		if updatedAt.Valid {
			t := time.UnixMilli(updatedAt.Int64).UTC()
			rec.UpdatedAt = &t
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.DatabaseErr("failed to load notes", err)
	}

	owners, err := s.ownerLookup(ctx)
	if err != nil {
		// Owner resolution is best-effort in the fallback path.
		s.log.Warn("owner lookup failed", slog.String("error", err.Error()))
		return result, nil
	}
	for i := range result {
		if o, ok := owners[result[i].UserID]; ok {
			result[i].UserName = o.name
			result[i].UserEmail = o.email
		}
	}
	return result, nil
}

type owner struct {
	name  string
	email string
}

func (s *Service) ownerLookup(ctx context.Context) (map[string]owner, error) {
	rows, err := s.store.DB().QueryContext(ctx, `SELECT id, name, email FROM profiles`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owners := make(map[string]owner)
	for rows.Next() {
		var (
			id    string
			name  sql.NullString
			email string
		)
		if err := rows.Scan(&id, &name, &email); err != nil {
			return nil, err
		}
		owners[id] = owner{name: name.String, email: email}
	}
	return owners, rows.Err()
}

func (s *Service) loadNotesJoined(ctx context.Context) ([]NoteRecord, error) {
	rows, err := s.store.DB().QueryContext(ctx, `
		SELECT n.id, n.title, n.content, n.user_id, n.created_at, n.updated_at,
		       COALESCE(p.name, ''), COALESCE(p.email, '')
		FROM notes n
		LEFT JOIN profiles p ON p.id = n.user_id
		ORDER BY n.created_at DESC, n.rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]NoteRecord, 0)
	for rows.Next() {
		var (
			rec       NoteRecord
			createdAt int64
			updatedAt sql.NullInt64
		)
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Content, &rec.UserID,
			&createdAt, &updatedAt, &rec.UserName, &rec.UserEmail); err != nil {
			return nil, err
		}
		rec.CreatedAt = time.UnixMilli(createdAt).UTC()
		if updatedAt.Valid {
			t := time.UnixMilli(updatedAt.Int64).UTC()
			rec.UpdatedAt = &t
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// UpdateUserProfile applies a partial profile update to any user.
func (s *Service) UpdateUserProfile(ctx context.Context, userID string, updates profile.Updates) error {
	if userID == "" {
		return errs.ValidationErr("user id is required")
	}
	return s.profiles.Update(ctx, userID, updates)
}

// CreateUser provisions an account on someone's behalf. Unlike
// self-registration, the admin may assign the role. The invite email is
// best-effort: a send failure is logged and never fails the creation.
func (s *Service) CreateUser(ctx context.Context, params CreateUserParams) (*profile.Profile, error) {
	role := params.Role
	if role == "" {
		role = auth.RoleUser
	}
	if role != auth.RoleUser && role != auth.RoleAdmin {
		return nil, errs.ValidationErr("invalid role: " + role)
	}

	user, err := s.users.Register(ctx, params.Email, params.Password)
	if err != nil {
		return nil, err
	}

	updates := profile.Updates{}
	if params.Name != "" {
		updates.Name = &params.Name
	}
	if err := s.profiles.Update(ctx, user.ID, updates); err != nil {
		return nil, err
	}
	if role != auth.RoleUser {
		if err := s.setRole(ctx, user.ID, role); err != nil {
			return nil, err
		}
	}

	if s.mailer != nil {
		data := email.InviteData{Name: params.Name, Email: user.Email, LoginURL: s.loginURL}
		if err := s.mailer.Send(user.Email, email.TemplateInvite, data); err != nil {
			s.log.Warn("invite email failed",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()))
		}
	}

	return s.profiles.Get(ctx, user.ID)
}

// UpdateUser applies a partial admin update (name and/or role) to a user.
func (s *Service) UpdateUser(ctx context.Context, params UpdateUserParams) (*profile.Profile, error) {
	if params.UserID == "" {
		return nil, errs.ValidationErr("user id is required")
	}

	if params.Name != nil {
		if err := s.profiles.Update(ctx, params.UserID, profile.Updates{Name: params.Name}); err != nil {
			return nil, err
		}
	}
	if params.Role != nil {
		role := strings.TrimSpace(*params.Role)
		if role != auth.RoleUser && role != auth.RoleAdmin {
			return nil, errs.ValidationErr("invalid role: " + role)
		}
		if err := s.setRole(ctx, params.UserID, role); err != nil {
			return nil, err
		}
	}

	return s.profiles.Get(ctx, params.UserID)
}

func (s *Service) setRole(ctx context.Context, userID, role string) error {
	if _, err := s.store.DB().ExecContext(ctx, `
		UPDATE profiles SET role = ? WHERE id = ?`, role, userID); err != nil {
		return errs.DatabaseErr("failed to update role", err)
	}
	return nil
}

// DeleteUser removes everything belonging to a user: notes first, then the
// profile, then stored objects, then the identity record, then any live
// sessions. The early steps are best-effort so a partially deleted account
// can be retried; only a failure to remove the identity record itself is
// reported as an error.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	if userID == "" {
		return errs.ValidationErr("user id is required")
	}
	if _, err := uuid.Parse(userID); err != nil {
		return errs.ValidationErr("user id is not valid")
	}

	if err := s.notes.DeleteByUser(ctx, userID); err != nil {
		s.log.Warn("cascade: note deletion failed",
			slog.String("user_id", userID), slog.String("error", err.Error()))
	}

	if _, err := s.store.DB().ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, userID); err != nil {
		s.log.Warn("cascade: profile deletion failed",
			slog.String("user_id", userID), slog.String("error", err.Error()))
	}

	s.deleteStoredObjects(ctx, userID)

	res, err := s.store.DB().ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, userID)
	if err != nil {
		return errs.DatabaseErr("failed to delete user account", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		s.log.Info("cascade: account already absent", slog.String("user_id", userID))
	}

	if err := s.sessions.DeleteByUserID(ctx, userID); err != nil {
		s.log.Warn("cascade: session cleanup failed",
			slog.String("user_id", userID), slog.String("error", err.Error()))
	}

	s.log.Info("user account deleted", slog.String("user_id", userID))
	return nil
}

func (s *Service) deleteStoredObjects(ctx context.Context, userID string) {
	if s.storage == nil {
		return
	}
	keys, err := s.storage.ListKeys(ctx, profile.AvatarPrefix(userID))
	if err != nil {
		s.log.Warn("cascade: object listing failed",
			slog.String("user_id", userID), slog.String("error", err.Error()))
		return
	}
	for _, key := range keys {
		if err := s.storage.DeleteObject(ctx, key); err != nil {
			s.log.Warn("cascade: object deletion failed",
				slog.String("key", key), slog.String("error", err.Error()))
		}
	}
}
