package notes

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/quillnote/quillnote/internal/obs"
)

// AutosaveDelay is how long the editor must stay idle before a draft is
// persisted.
const AutosaveDelay = 3 * time.Second

// SaveFunc persists a note draft.
type SaveFunc func(ctx context.Context, note Note) (*Note, error)

type pendingEntry struct {
	timer *time.Timer
	note  Note
	gen   uint64
}

type snapshot struct {
	title   string
	content string
}

// Autosaver debounces editor drafts per note. Each Touch resets a
// per-note idle timer; when it expires the draft is saved, unless the
// content matches what was last persisted. Flush performs an explicit save,
// cancelling any pending timer first, and Close cancels everything — a
// stray save can never fire after shutdown.
//
// There is no lock between a pending autosave and an explicit save; if both
// reach the store close together, the store's upsert makes the later write
// win.
type Autosaver struct {
	mu        sync.Mutex
	save      SaveFunc
	delay     time.Duration
	pending   map[string]*pendingEntry
	lastSaved map[string]snapshot
	gen       uint64
	closed    bool
	log       *slog.Logger
}

// NewAutosaver creates an autosaver with the given idle delay.
func NewAutosaver(save SaveFunc, delay time.Duration) *Autosaver {
	if delay <= 0 {
		delay = AutosaveDelay
	}
	return &Autosaver{
		save:      save,
		delay:     delay,
		pending:   make(map[string]*pendingEntry),
		lastSaved: make(map[string]snapshot),
		log:       obs.Pkg("notes"),
	}
}

// Touch registers a fresh draft and resets the note's idle timer. A draft
// identical to the last persisted state cancels any pending save instead of
// scheduling one.
func (a *Autosaver) Touch(note Note) {
	if note.ID == "" {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}

	if snap, ok := a.lastSaved[note.ID]; ok && snap.title == note.Title && snap.content == note.Content {
		a.cancelLocked(note.ID)
		return
	}

	a.cancelLocked(note.ID)
	a.gen++
	gen := a.gen
	entry := &pendingEntry{note: note, gen: gen}
	entry.timer = time.AfterFunc(a.delay, func() {
		a.fire(note.ID, gen)
	})
	a.pending[note.ID] = entry
}

// Flush cancels any pending autosave for the note and saves it immediately.
func (a *Autosaver) Flush(ctx context.Context, note Note) (*Note, error) {
	a.mu.Lock()
	a.cancelLocked(note.ID)
	a.mu.Unlock()

	saved, err := a.save(ctx, note)
	if err != nil {
		return nil, err
	}
	a.recordSaved(*saved)
	return saved, nil
}

// Cancel drops any pending autosave for the note, along with its last-saved
// snapshot. Called when the note is deleted, so the snapshot must not outlive
// it.
func (a *Autosaver) Cancel(noteID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancelLocked(noteID)
	delete(a.lastSaved, noteID)
}

// Close cancels all pending autosaves. The autosaver accepts no further
// drafts afterwards.
func (a *Autosaver) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	for id := range a.pending {
		a.cancelLocked(id)
	}
}

func (a *Autosaver) cancelLocked(noteID string) {
	if entry, ok := a.pending[noteID]; ok {
		entry.timer.Stop()
		delete(a.pending, noteID)
	}
}

func (a *Autosaver) fire(noteID string, gen uint64) {
	a.mu.Lock()
	entry, ok := a.pending[noteID]
	if !ok || entry.gen != gen || a.closed {
		a.mu.Unlock()
		return
	}
	delete(a.pending, noteID)
	note := entry.note
	a.mu.Unlock()

	saved, err := a.save(context.Background(), note)
	if err != nil {
		a.log.Warn("autosave failed", slog.String("note_id", noteID), slog.String("error", err.Error()))
		return
	}
	a.recordSaved(*saved)
}

func (a *Autosaver) recordSaved(note Note) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastSaved[note.ID] = snapshot{title: note.Title, content: note.Content}
}
