package reconcile

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"notable/internal/logging"
	"notable/internal/transport"
	"notable/internal/types"
	"notable/internal/validate"
)

const placeholderPrefix = "tmp_"

const defaultNoteTitle = "Untitled note"

// API is the resource-client surface the coordinator reconciles against.
type API interface {
	ListNotes(ctx context.Context) *transport.Result
	GetNote(ctx context.Context, id string) *transport.Result
	CreateNote(ctx context.Context, draft types.NoteDraft) *transport.Result
	UpdateNote(ctx context.Context, id string, draft types.NoteDraft) *transport.Result
	DeleteNote(ctx context.Context, id string) *transport.Result
}

// State is an immutable snapshot of the coordinator for presentation. Notes
// is the title-filtered view; the underlying collection is never exposed
// directly.
type State struct {
	Notes      []*types.Note
	SelectedID string
	Selected   *types.Note
	Busy       bool
	Err        string
}

// Coordinator owns the canonical in-memory note collection and the selection
// cursor. All mutation passes through its operations; each operation returns
// the resulting State. The mutex guards state only and is never held across
// a network round-trip, so overlapping operations interleave freely and the
// busy flag aggregates them through the in-flight counter.
type Coordinator struct {
	api API
	log logging.Logger

	mu         sync.Mutex
	notes      []*types.Note
	selectedID string
	selected   *types.Note
	inflight   int
	lastErr    string
	filter     string
	selectSeq  int
}

func New(api API, log logging.Logger) *Coordinator {
	if log == nil {
		log = logging.Nop()
	}
	return &Coordinator{api: api, log: log}
}

// Activate performs the initial list load. On failure the collection is left
// empty and the error recorded; on success the first note is auto-selected
// when nothing is selected yet.
func (c *Coordinator) Activate(ctx context.Context) State {
	c.mu.Lock()
	c.inflight++
	c.lastErr = ""
	c.mu.Unlock()

	res := c.api.ListNotes(ctx)

	c.mu.Lock()
	c.inflight--
	if !res.OK {
		c.lastErr = res.Error
		c.notes = nil
		c.log.Warn("list load failed", logging.F("status", res.Status), logging.F("error", res.Error))
		state := c.stateLocked()
		c.mu.Unlock()
		return state
	}
	notes, _ := res.Data.([]*types.Note)
	c.notes = notes
	autoSelect := ""
	if c.selectedID == "" && len(notes) > 0 {
		autoSelect = notes[0].ID
	}
	state := c.stateLocked()
	c.mu.Unlock()

	if autoSelect != "" {
		return c.SelectNote(ctx, autoSelect)
	}
	return state
}

// SelectNote moves the selection cursor and hydrates the note behind it.
// Each selection bumps an epoch; a response that arrives after the selection
// moved on is discarded instead of overwriting the fresher state.
func (c *Coordinator) SelectNote(ctx context.Context, id string) State {
	id = strings.TrimSpace(id)

	c.mu.Lock()
	c.selectSeq++
	if id == "" {
		c.selectedID = ""
		c.selected = nil
		state := c.stateLocked()
		c.mu.Unlock()
		return state
	}
	seq := c.selectSeq
	c.selectedID = id
	c.inflight++
	c.lastErr = ""
	c.mu.Unlock()

	res := c.api.GetNote(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	if seq != c.selectSeq {
		return c.stateLocked()
	}
	if !res.OK {
		// The selection id is retained; only the hydrated value is dropped.
		c.lastErr = res.Error
		c.selected = nil
		return c.stateLocked()
	}
	note, _ := res.Data.(*types.Note)
	c.selected = note
	return c.stateLocked()
}

// AddNote creates a note optimistically: a placeholder is prepended and
// selected before the request is issued, then either replaced by the
// server-assigned note or rolled back.
func (c *Coordinator) AddNote(ctx context.Context) State {
	placeholder := &types.Note{
		ID:        newPlaceholderID(),
		Title:     defaultNoteTitle,
		CreatedAt: time.Now().UTC(),
	}

	c.mu.Lock()
	c.notes = append([]*types.Note{placeholder}, c.notes...)
	c.selectedID = placeholder.ID
	c.selected = placeholder
	c.selectSeq++
	c.inflight++
	c.lastErr = ""
	c.mu.Unlock()

	res := c.api.CreateNote(ctx, types.NoteDraft{Title: placeholder.Title})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	c.removeLocked(placeholder.ID)
	note, _ := res.Data.(*types.Note)
	if !res.OK || note == nil {
		if res.OK {
			res = transport.Failure(res.Status, "invalid note payload")
		}
		c.lastErr = res.Error
		if c.selectedID == placeholder.ID {
			c.selectedID = ""
			c.selected = nil
			c.selectSeq++
		}
		c.log.Warn("create failed", logging.F("status", res.Status), logging.F("error", res.Error))
		return c.stateLocked()
	}
	c.notes = append([]*types.Note{note}, c.notes...)
	if c.selectedID == placeholder.ID {
		c.selectedID = note.ID
		c.selected = note
		c.selectSeq++
	}
	return c.stateLocked()
}

// SaveNote updates the selected note with the given fields. Validation
// rejections settle locally and never touch the in-flight counter. On failure
// no local state changes; the prior consistent state is preserved.
func (c *Coordinator) SaveNote(ctx context.Context, draft types.NoteDraft) State {
	draft = validate.Sanitize(draft)
	if report := validate.Check(draft); !report.Valid {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.lastErr = report.First()
		return c.stateLocked()
	}

	c.mu.Lock()
	id := c.selectedID
	if id == "" {
		c.lastErr = "no note selected"
		state := c.stateLocked()
		c.mu.Unlock()
		return state
	}
	if isPlaceholderID(id) {
		// Placeholders are never sent as update targets.
		c.lastErr = "note is still being created"
		state := c.stateLocked()
		c.mu.Unlock()
		return state
	}
	c.inflight++
	c.lastErr = ""
	c.mu.Unlock()

	res := c.api.UpdateNote(ctx, id, draft)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	note, _ := res.Data.(*types.Note)
	if !res.OK || note == nil {
		if res.OK {
			res = transport.Failure(res.Status, "invalid note payload")
		}
		c.lastErr = res.Error
		c.log.Warn("update failed", logging.F("id", id), logging.F("error", res.Error))
		return c.stateLocked()
	}
	for i, existing := range c.notes {
		if existing.ID == note.ID {
			c.notes[i] = note
			break
		}
	}
	if c.selectedID == note.ID {
		c.selected = note
	}
	return c.stateLocked()
}

// DeleteNote removes the selected note optimistically: the entry and the
// selection are cleared before the request resolves. A failed delete cannot
// be undone precisely, so the collection is recovered with a full reload.
func (c *Coordinator) DeleteNote(ctx context.Context) State {
	c.mu.Lock()
	id := c.selectedID
	if id == "" {
		c.lastErr = "no note selected"
		state := c.stateLocked()
		c.mu.Unlock()
		return state
	}
	if isPlaceholderID(id) {
		c.lastErr = "note is still being created"
		state := c.stateLocked()
		c.mu.Unlock()
		return state
	}
	c.removeLocked(id)
	c.selectedID = ""
	c.selected = nil
	c.selectSeq++
	c.inflight++
	c.lastErr = ""
	c.mu.Unlock()

	res := c.api.DeleteNote(ctx, id)

	c.mu.Lock()
	c.inflight--
	if res.OK {
		state := c.stateLocked()
		c.mu.Unlock()
		return state
	}
	c.lastErr = res.Error
	c.log.Warn("delete failed", logging.F("id", id), logging.F("error", res.Error))
	c.mu.Unlock()
	return c.reloadCollection(ctx)
}

// ClearError dismisses the current error.
func (c *Coordinator) ClearError() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = ""
	return c.stateLocked()
}

// SetFilter installs a case-insensitive substring filter over titles. The
// filter shapes the snapshot view only and is never sent to the server.
func (c *Coordinator) SetFilter(text string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = strings.TrimSpace(text)
	return c.stateLocked()
}

// Snapshot returns the current state without performing any operation.
func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// reloadCollection refetches the authoritative list after a failed optimistic
// removal. Unlike Activate it preserves the surfaced error.
func (c *Coordinator) reloadCollection(ctx context.Context) State {
	c.mu.Lock()
	c.inflight++
	c.mu.Unlock()

	res := c.api.ListNotes(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	if res.OK {
		notes, _ := res.Data.([]*types.Note)
		c.notes = notes
	} else if c.lastErr == "" {
		c.lastErr = res.Error
	}
	return c.stateLocked()
}

func (c *Coordinator) removeLocked(id string) {
	filtered := c.notes[:0]
	for _, note := range c.notes {
		if note.ID == id {
			continue
		}
		filtered = append(filtered, note)
	}
	c.notes = filtered
}

func (c *Coordinator) stateLocked() State {
	query := strings.ToLower(c.filter)
	notes := make([]*types.Note, 0, len(c.notes))
	for _, note := range c.notes {
		if query != "" && !strings.Contains(strings.ToLower(note.Title), query) {
			continue
		}
		notes = append(notes, types.CloneNote(note))
	}
	return State{
		Notes:      notes,
		SelectedID: c.selectedID,
		Selected:   types.CloneNote(c.selected),
		Busy:       c.inflight > 0,
		Err:        c.lastErr,
	}
}

func isPlaceholderID(id string) bool {
	return strings.HasPrefix(id, placeholderPrefix)
}

func newPlaceholderID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return placeholderPrefix + time.Now().UTC().Format("20060102150405.000000000")
	}
	return placeholderPrefix + hex.EncodeToString(buf)
}
