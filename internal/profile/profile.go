// Package profile implements the self-service profile data access: read,
// filtered partial update, and avatar upload to object storage.
package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/quillnote/quillnote/internal/db"
	"github.com/quillnote/quillnote/internal/errs"
	"github.com/quillnote/quillnote/internal/s3client"
)

// Profile is the user-facing record for an account.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Updates is a partial profile update. Nil fields are left untouched.
type Updates struct {
	Name      *string `json:"name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// Service handles profile reads, updates, and avatar uploads.
type Service struct {
	store   *db.Store
	storage *s3client.Client
}

// NewService creates a profile service.
func NewService(store *db.Store, storage *s3client.Client) *Service {
	return &Service{store: store, storage: storage}
}

// Get returns the profile for a user id.
func (s *Service) Get(ctx context.Context, userID string) (*Profile, error) {
	row := s.store.DB().QueryRowContext(ctx, `
		SELECT id, email, name, avatar_url, role, created_at
		FROM profiles WHERE id = ?`, userID)
	p, err := ScanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.NotFound, "profile not found")
	}
	if err != nil {
		return nil, errs.DatabaseErr("failed to load profile", err)
	}
	return p, nil
}

// Update applies a partial update. Nil fields are filtered out first; if
// nothing remains, the call returns immediately without touching the store.
func (s *Service) Update(ctx context.Context, userID string, updates Updates) error {
	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if updates.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *updates.Name)
	}
	if updates.AvatarURL != nil {
		sets = append(sets, "avatar_url = ?")
		args = append(args, *updates.AvatarURL)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, userID)

	query := fmt.Sprintf("UPDATE profiles SET %s WHERE id = ?", strings.Join(sets, ", "))
	if _, err := s.store.DB().ExecContext(ctx, query, args...); err != nil {
		return errs.DatabaseErr("failed to update user profile", err)
	}
	return nil
}

// UploadAvatar stores avatar bytes under a per-user, timestamped key and
// returns the public URL. The caller persists the URL on the profile.
func (s *Service) UploadAvatar(ctx context.Context, userID, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errs.DatabaseErr("no file provided for avatar upload", nil)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".png"
	}
	key := fmt.Sprintf("avatars/%s/%s-%d%s", userID, userID, time.Now().UTC().UnixMilli(), ext)

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := s.storage.PutObject(ctx, key, data, contentType); err != nil {
		return "", errs.DatabaseErr("failed to upload avatar", err)
	}

	url := s.storage.PublicURL(key)
	if url == "" {
		return "", errs.DatabaseErr("failed to get avatar URL", nil)
	}
	return url, nil
}

// AvatarPrefix is the storage prefix holding every avatar a user has
// uploaded. The account deletion cascade removes everything under it.
func AvatarPrefix(userID string) string {
	return "avatars/" + userID + "/"
}

// ScanProfile scans one profile row from a *sql.Row or *sql.Rows.
func ScanProfile(row interface{ Scan(dest ...any) error }) (*Profile, error) {
	var (
		p         Profile
		name      sql.NullString
		avatarURL sql.NullString
		createdAt int64
	)
	if err := row.Scan(&p.ID, &p.Email, &name, &avatarURL, &p.Role, &createdAt); err != nil {
		return nil, err
	}
	p.Name = name.String
	p.AvatarURL = avatarURL.String
	p.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &p, nil
}
