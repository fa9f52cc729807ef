package notes

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSaver struct {
	mu    sync.Mutex
	saved []Note
}

func (c *captureSaver) save(_ context.Context, note Note) (*Note, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saved = append(c.saved, note)
	out := note
	return &out, nil
}

func (c *captureSaver) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.saved)
}

func (c *captureSaver) last() Note {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saved[len(c.saved)-1]
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestAutosaverSavesAfterIdleDelay(t *testing.T) {
	saver := &captureSaver{}
	a := NewAutosaver(saver.save, 30*time.Millisecond)
	defer a.Close()

	a.Touch(Note{ID: "n1", Title: "draft", Content: "body", UserID: "u1"})

	waitFor(t, time.Second, func() bool { return saver.count() == 1 })
	assert.Equal(t, "draft", saver.last().Title)
}

func TestAutosaverDebouncesRapidTouches(t *testing.T) {
	saver := &captureSaver{}
	a := NewAutosaver(saver.save, 50*time.Millisecond)
	defer a.Close()

	for i := 0; i < 5; i++ {
		a.Touch(Note{ID: "n1", Title: "v", Content: string(rune('a' + i)), UserID: "u1"})
		time.Sleep(10 * time.Millisecond)
	}

	waitFor(t, time.Second, func() bool { return saver.count() >= 1 })
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, 1, saver.count(), "rapid edits collapse into one save")
	assert.Equal(t, "e", saver.last().Content, "the final draft wins")
}

func TestAutosaverSkipsUnchangedDraft(t *testing.T) {
	saver := &captureSaver{}
	a := NewAutosaver(saver.save, 20*time.Millisecond)
	defer a.Close()

	note := Note{ID: "n1", Title: "same", Content: "same", UserID: "u1"}
	_, err := a.Flush(context.Background(), note)
	require.NoError(t, err)
	require.Equal(t, 1, saver.count())

	a.Touch(note)
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, 1, saver.count(), "a draft matching the last save is dropped")
}

func TestFlushCancelsPendingTimer(t *testing.T) {
	saver := &captureSaver{}
	a := NewAutosaver(saver.save, 30*time.Millisecond)
	defer a.Close()

	a.Touch(Note{ID: "n1", Title: "pending", UserID: "u1"})

	saved, err := a.Flush(context.Background(), Note{ID: "n1", Title: "explicit", UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "explicit", saved.Title)

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 1, saver.count(), "the pending autosave must not fire after an explicit save")
}

func TestCancelDropsPendingDraft(t *testing.T) {
	saver := &captureSaver{}
	a := NewAutosaver(saver.save, 20*time.Millisecond)
	defer a.Close()

	a.Touch(Note{ID: "n1", Title: "doomed", UserID: "u1"})
	a.Cancel("n1")

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, saver.count())
}

func TestCancelForgetsLastSavedSnapshot(t *testing.T) {
	saver := &captureSaver{}
	a := NewAutosaver(saver.save, 20*time.Millisecond)
	defer a.Close()

	note := Note{ID: "n1", Title: "kept", Content: "body", UserID: "u1"}
	_, err := a.Flush(context.Background(), note)
	require.NoError(t, err)
	require.Equal(t, 1, saver.count())

	// Deleting the note drops its snapshot; a recreated note with identical
	// content must save again rather than be skipped as unchanged.
	a.Cancel("n1")
	a.Touch(note)

	waitFor(t, time.Second, func() bool { return saver.count() == 2 })
}

func TestCloseRejectsFurtherDrafts(t *testing.T) {
	saver := &captureSaver{}
	a := NewAutosaver(saver.save, 20*time.Millisecond)

	a.Touch(Note{ID: "n1", Title: "pending", UserID: "u1"})
	a.Close()
	a.Touch(Note{ID: "n2", Title: "late", UserID: "u1"})

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, saver.count(), "nothing fires after close")
}

func TestAutosaverTracksNotesIndependently(t *testing.T) {
	saver := &captureSaver{}
	a := NewAutosaver(saver.save, 25*time.Millisecond)
	defer a.Close()

	a.Touch(Note{ID: "n1", Title: "one", UserID: "u1"})
	a.Touch(Note{ID: "n2", Title: "two", UserID: "u1"})

	waitFor(t, time.Second, func() bool { return saver.count() == 2 })
}
