// Package notes implements the notes data-access layer: load, upsert save,
// and delete over the shared store, plus markdown rendering and the editor
// autosave debouncer.
package notes

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/quillnote/quillnote/internal/db"
	"github.com/quillnote/quillnote/internal/errs"
)

// Service handles note CRUD against the shared store.
type Service struct {
	store *db.Store
}

// NewService creates a notes service.
func NewService(store *db.Store) *Service {
	return &Service{store: store}
}

// LoadNotes returns all notes owned by userID, newest first by creation time.
// An empty result set is not an error.
func (s *Service) LoadNotes(ctx context.Context, userID string) ([]Note, error) {
	if userID == "" {
		return nil, errs.ValidationErr("user id is required")
	}

	rows, err := s.store.DB().QueryContext(ctx, `
		SELECT id, title, content, user_id, created_at, updated_at
		FROM notes
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, errs.DatabaseErr("failed to load notes", err)
	}
	defer rows.Close()

	result := make([]Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, errs.DatabaseErr("failed to load notes", err)
		}
		result = append(result, *note)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.DatabaseErr("failed to load notes", err)
	}
	return result, nil
}

// Get retrieves a single note by id.
func (s *Service) Get(ctx context.Context, id string) (*Note, error) {
	if id == "" {
		return nil, errs.ValidationErr("note id is required")
	}

	row := s.store.DB().QueryRowContext(ctx, `
		SELECT id, title, content, user_id, created_at, updated_at
		FROM notes WHERE id = ?`, id)
	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.NotFound, "note not found")
	}
	if err != nil {
		return nil, errs.DatabaseErr("failed to read note", err)
	}
	return note, nil
}

// SaveNote persists a note. An empty id inserts a new record under a
// server-assigned id; a non-empty id upserts, so a client-generated
// provisional id is honored. Creation stamps created_at and leaves
// updated_at NULL; an update of an existing row stamps updated_at. The
// returned record is read back from the store and always carries a defined
// id. Titles are persisted verbatim; blank-title normalization is the editor
// boundary's job, not this function's.
//
// There is deliberately no conflict detection: when two saves race, the
// later write wins and the earlier one is lost.
func (s *Service) SaveNote(ctx context.Context, note Note) (*Note, error) {
	if note.UserID == "" {
		return nil, errs.ValidationErr("note owner is required")
	}

	id := note.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC().UnixMilli()

	_, err := s.store.DB().ExecContext(ctx, `
		INSERT INTO notes (id, title, content, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, NULL)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			updated_at = ?`,
		id, note.Title, note.Content, note.UserID, now, now)
	if err != nil {
		return nil, errs.DatabaseErr("failed to save note: "+note.Title, err)
	}

	saved, err := s.Get(ctx, id)
	if err != nil {
		return nil, errs.DatabaseErr("no data returned from save operation", err)
	}
	return saved, nil
}

// DeleteNote removes a note by id. There is no existence check: deleting an
// id that is already gone succeeds, so callers cannot distinguish "already
// gone" from "just deleted". Only transport/query failures error.
func (s *Service) DeleteNote(ctx context.Context, noteID string) error {
	if noteID == "" {
		return errs.ValidationErr("note id is required")
	}

	if _, err := s.store.DB().ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, noteID); err != nil {
		return errs.DatabaseErr("failed to delete note with id: "+noteID, err)
	}
	return nil
}

// DeleteByUser removes every note owned by userID. Used by the account
// deletion cascade.
func (s *Service) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := s.store.DB().ExecContext(ctx, `DELETE FROM notes WHERE user_id = ?`, userID); err != nil {
		return errs.DatabaseErr("failed to delete notes for user", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*Note, error) {
	var (
		note      Note
		createdAt int64
		updatedAt sql.NullInt64
	)
	if err := row.Scan(&note.ID, &note.Title, &note.Content, &note.UserID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	note.CreatedAt = time.UnixMilli(createdAt).UTC()
	if updatedAt.Valid {
		t := time.UnixMilli(updatedAt.Int64).UTC()
		note.UpdatedAt = &t
	}
	return &note, nil
}
