package profile

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillnote/quillnote/internal/db"
	"github.com/quillnote/quillnote/internal/errs"
	"github.com/quillnote/quillnote/internal/s3client"
)

func seedProfile(t *testing.T, store *db.Store, id, email, role string) {
	t.Helper()
	now := time.Now().UTC().UnixMilli()
	_, err := store.DB().Exec(`
		INSERT INTO accounts (id, email, password_hash, created_at) VALUES (?, ?, 'x', ?)`,
		id, email, now)
	require.NoError(t, err)
	_, err = store.DB().Exec(`
		INSERT INTO profiles (id, email, role, created_at) VALUES (?, ?, ?, ?)`,
		id, email, role, now)
	require.NoError(t, err)
}

func TestGetProfile(t *testing.T) {
	store := db.TestStore(t)
	svc := NewService(store, nil)
	seedProfile(t, store, "u1", "alice@example.com", "user")

	p, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", p.Email)
	assert.Equal(t, "user", p.Role)
	assert.Empty(t, p.Name)
	assert.Empty(t, p.AvatarURL)

	_, err = svc.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, errs.NotFound, errs.CodeOf(err))
}

func TestUpdateFiltersNilFields(t *testing.T) {
	store := db.TestStore(t)
	svc := NewService(store, nil)
	seedProfile(t, store, "u1", "alice@example.com", "user")

	name := "Alice"
	require.NoError(t, svc.Update(context.Background(), "u1", Updates{Name: &name}))

	p, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.Name)
	assert.Empty(t, p.AvatarURL, "absent fields stay untouched")

	avatar := "https://cdn.example.com/a.png"
	require.NoError(t, svc.Update(context.Background(), "u1", Updates{AvatarURL: &avatar}))

	p, err = svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.Name, "name survives an avatar-only update")
	assert.Equal(t, avatar, p.AvatarURL)
}

func TestUpdateEmptyIsNoOp(t *testing.T) {
	store := db.TestStore(t)
	svc := NewService(store, nil)
	seedProfile(t, store, "u1", "alice@example.com", "user")

	require.NoError(t, svc.Update(context.Background(), "u1", Updates{}))

	p, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", p.Email)
}

func TestUploadAvatar(t *testing.T) {
	store := db.TestStore(t)
	storage := s3client.TestClient(t, "quillnote-test")
	svc := NewService(store, storage)
	seedProfile(t, store, "u1", "alice@example.com", "user")

	url, err := svc.UploadAvatar(context.Background(), "u1", "face.png", []byte("png-bytes"))
	require.NoError(t, err)

	assert.Contains(t, url, "avatars/u1/u1-")
	assert.True(t, strings.HasSuffix(url, ".png"))

	keys, err := storage.ListKeys(context.Background(), AvatarPrefix("u1"))
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "avatars/u1/"))
}

func TestUploadAvatarRejectsEmptyFile(t *testing.T) {
	store := db.TestStore(t)
	storage := s3client.TestClient(t, "quillnote-test")
	svc := NewService(store, storage)

	_, err := svc.UploadAvatar(context.Background(), "u1", "face.png", nil)
	require.Error(t, err)
	assert.Equal(t, errs.Database, errs.CodeOf(err))
	assert.Contains(t, err.Error(), "no file provided")
}

func TestUploadAvatarDefaultsExtension(t *testing.T) {
	store := db.TestStore(t)
	storage := s3client.TestClient(t, "quillnote-test")
	svc := NewService(store, storage)

	url, err := svc.UploadAvatar(context.Background(), "u1", "noext", []byte("data"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, ".png"))
}
