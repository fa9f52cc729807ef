package notes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/quillnote/quillnote/internal/db"
	"github.com/quillnote/quillnote/internal/errs"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(db.TestStore(t))
}

func TestSaveNoteAssignsIDAndCreatedAt(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	saved, err := svc.SaveNote(ctx, Note{Title: "First", Content: "hello", UserID: "u1"})
	require.NoError(t, err)

	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "First", saved.Title)
	assert.Equal(t, "u1", saved.UserID)
	assert.False(t, saved.CreatedAt.IsZero())
	assert.Nil(t, saved.UpdatedAt, "a fresh note has no update timestamp")
}

func TestSaveNoteHonorsClientID(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	saved, err := svc.SaveNote(ctx, Note{ID: "client-provisional-id", Title: "t", UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "client-provisional-id", saved.ID)
}

func TestSaveNoteUpsertBumpsUpdatedAtOnly(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.SaveNote(ctx, Note{Title: "v1", Content: "a", UserID: "u1"})
	require.NoError(t, err)
	require.Nil(t, first.UpdatedAt)

	second, err := svc.SaveNote(ctx, Note{ID: first.ID, Title: "v2", Content: "b", UserID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "v2", second.Title)
	assert.Equal(t, "b", second.Content)
	assert.Equal(t, first.CreatedAt, second.CreatedAt, "creation time is immutable")
	require.NotNil(t, second.UpdatedAt)
	assert.False(t, second.UpdatedAt.Before(first.CreatedAt))
}

func TestSaveNoteRequiresOwner(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.SaveNote(context.Background(), Note{Title: "orphan"})
	require.Error(t, err)
	assert.Equal(t, errs.Validation, errs.CodeOf(err))
}

func TestLoadNotesFiltersAndOrdersNewestFirst(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, title := range []string{"oldest", "middle", "newest"} {
		_, err := svc.SaveNote(ctx, Note{Title: title, UserID: "alice"})
		require.NoError(t, err)
	}
	_, err := svc.SaveNote(ctx, Note{Title: "intruder", UserID: "bob"})
	require.NoError(t, err)

	result, err := svc.LoadNotes(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, result, 3)

	assert.Equal(t, "newest", result[0].Title)
	assert.Equal(t, "middle", result[1].Title)
	assert.Equal(t, "oldest", result[2].Title)
	for _, n := range result {
		assert.Equal(t, "alice", n.UserID)
	}
}

func TestLoadNotesEmptyIsNotAnError(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.LoadNotes(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestDeleteNoteIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	saved, err := svc.SaveNote(ctx, Note{Title: "doomed", UserID: "u1"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteNote(ctx, saved.ID))
	require.NoError(t, svc.DeleteNote(ctx, saved.ID), "deleting an absent note succeeds")
	require.NoError(t, svc.DeleteNote(ctx, "never-existed"))

	result, err := svc.LoadNotes(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestGetNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, errs.NotFound, errs.CodeOf(err))
}

func TestDeleteByUserRemovesOnlyOwned(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.SaveNote(ctx, Note{Title: "a", UserID: "alice"})
	require.NoError(t, err)
	_, err = svc.SaveNote(ctx, Note{Title: "b", UserID: "bob"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteByUser(ctx, "alice"))

	aliceNotes, err := svc.LoadNotes(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, aliceNotes)

	bobNotes, err := svc.LoadNotes(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, bobNotes, 1)
}

// Rapid exercises the upsert with arbitrary save sequences: after any
// sequence of saves to the same id, a read returns exactly the last write.
func TestSaveNoteLastWriteWins(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		svc := newTestService(t)
		ctx := context.Background()

		id := rapid.StringMatching(`[a-z0-9-]{1,36}`).Draw(rt, "id")
		n := rapid.IntRange(1, 5).Draw(rt, "saves")

		var lastTitle, lastContent string
		for i := 0; i < n; i++ {
			lastTitle = rapid.StringN(0, 40, 40).Draw(rt, "title")
			lastContent = rapid.StringN(0, 200, 200).Draw(rt, "content")
			_, err := svc.SaveNote(ctx, Note{ID: id, Title: lastTitle, Content: lastContent, UserID: "u1"})
			if err != nil {
				rt.Fatalf("save failed: %v", err)
			}
		}

		got, err := svc.Get(ctx, id)
		if err != nil {
			rt.Fatalf("get failed: %v", err)
		}
		if got.Title != lastTitle || got.Content != lastContent {
			rt.Fatalf("read back %q/%q, want %q/%q", got.Title, got.Content, lastTitle, lastContent)
		}
	})
}
