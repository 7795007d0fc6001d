package types

import "time"

// Note is the synchronized entity. IDs are assigned by the server for
// persisted notes; the client uses a reserved "tmp_" prefix for optimistic
// placeholders that have not been confirmed yet.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteDraft carries the caller-editable fields of a note.
type NoteDraft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func CloneNote(note *Note) *Note {
	if note == nil {
		return nil
	}
	copy := *note
	return &copy
}
