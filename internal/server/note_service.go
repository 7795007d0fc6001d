package server

import (
	"context"
	"errors"
	"strings"

	"notable/internal/store"
	"notable/internal/types"
	"notable/internal/validate"
)

// NoteService enforces sanitization and validation in front of the store so
// clients that bypass local checks still cannot persist malformed notes.
type NoteService struct {
	notes store.NoteStore
}

func NewNoteService(notes store.NoteStore) *NoteService {
	return &NoteService{notes: notes}
}

func (s *NoteService) List(ctx context.Context) ([]*types.Note, error) {
	if s.notes == nil {
		return nil, unavailableError("note store not available", nil)
	}
	notes, err := s.notes.List(ctx)
	if err != nil {
		return nil, unavailableError(err.Error(), err)
	}
	return notes, nil
}

func (s *NoteService) Get(ctx context.Context, id string) (*types.Note, error) {
	if s.notes == nil {
		return nil, unavailableError("note store not available", nil)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalidError("note id is required", nil)
	}
	note, ok, err := s.notes.Get(ctx, id)
	if err != nil {
		return nil, unavailableError(err.Error(), err)
	}
	if !ok {
		return nil, notFoundError("note not found", nil)
	}
	return note, nil
}

func (s *NoteService) Create(ctx context.Context, draft types.NoteDraft) (*types.Note, error) {
	if s.notes == nil {
		return nil, unavailableError("note store not available", nil)
	}
	draft, svcErr := checkDraft(draft)
	if svcErr != nil {
		return nil, svcErr
	}
	note, err := s.notes.Create(ctx, draft)
	if err != nil {
		return nil, unavailableError(err.Error(), err)
	}
	return note, nil
}

func (s *NoteService) Update(ctx context.Context, id string, draft types.NoteDraft) (*types.Note, error) {
	if s.notes == nil {
		return nil, unavailableError("note store not available", nil)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalidError("note id is required", nil)
	}
	draft, svcErr := checkDraft(draft)
	if svcErr != nil {
		return nil, svcErr
	}
	note, err := s.notes.Update(ctx, id, draft)
	if err != nil {
		if errors.Is(err, store.ErrNoteNotFound) {
			return nil, notFoundError("note not found", err)
		}
		return nil, unavailableError(err.Error(), err)
	}
	return note, nil
}

func (s *NoteService) Delete(ctx context.Context, id string) error {
	if s.notes == nil {
		return unavailableError("note store not available", nil)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return invalidError("note id is required", nil)
	}
	if err := s.notes.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNoteNotFound) {
			return notFoundError("note not found", err)
		}
		return unavailableError(err.Error(), err)
	}
	return nil
}

func checkDraft(draft types.NoteDraft) (types.NoteDraft, *ServiceError) {
	draft = validate.Sanitize(draft)
	if report := validate.Check(draft); !report.Valid {
		return draft, invalidError(report.First(), nil)
	}
	return draft, nil
}
