package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"notable/internal/types"
)

var ErrNoteNotFound = errors.New("note not found")

var bucketNotes = []byte("notes")

// NoteStore is the persistence surface the daemon serves from.
type NoteStore interface {
	List(ctx context.Context) ([]*types.Note, error)
	Get(ctx context.Context, id string) (*types.Note, bool, error)
	Create(ctx context.Context, draft types.NoteDraft) (*types.Note, error)
	Update(ctx context.Context, id string, draft types.NoteDraft) (*types.Note, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

type BboltNoteStore struct {
	db *bolt.DB
}

func Open(path string) (*BboltNoteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("note db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketNotes)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BboltNoteStore{db: db}, nil
}

func (s *BboltNoteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *BboltNoteStore) List(ctx context.Context) ([]*types.Note, error) {
	out := make([]*types.Note, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotes)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var note types.Note
			if err := json.Unmarshal(v, &note); err != nil {
				return err
			}
			out = append(out, &note)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	// Newest first so fresh notes land at the top of the list.
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *BboltNoteStore) Get(ctx context.Context, id string) (*types.Note, bool, error) {
	var (
		note *types.Note
		ok   bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotes)
		if b == nil {
			return nil
		}
		raw := b.Get([]byte(id))
		if len(raw) == 0 {
			return nil
		}
		var item types.Note
		if err := json.Unmarshal(raw, &item); err != nil {
			return err
		}
		note = &item
		ok = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return note, ok, nil
}

func (s *BboltNoteStore) Create(ctx context.Context, draft types.NoteDraft) (*types.Note, error) {
	now := time.Now().UTC()
	note := &types.Note{
		ID:        newNoteID(),
		Title:     draft.Title,
		Content:   draft.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.put(note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *BboltNoteStore) Update(ctx context.Context, id string, draft types.NoteDraft) (*types.Note, error) {
	var updated *types.Note
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotes)
		if b == nil {
			return ErrNoteNotFound
		}
		raw := b.Get([]byte(id))
		if len(raw) == 0 {
			return ErrNoteNotFound
		}
		var note types.Note
		if err := json.Unmarshal(raw, &note); err != nil {
			return err
		}
		note.Title = draft.Title
		note.Content = draft.Content
		note.UpdatedAt = time.Now().UTC()
		encoded, err := json.Marshal(&note)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(note.ID), encoded); err != nil {
			return err
		}
		updated = &note
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *BboltNoteStore) Delete(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotes)
		if b == nil {
			return ErrNoteNotFound
		}
		if len(b.Get([]byte(id))) == 0 {
			return ErrNoteNotFound
		}
		return b.Delete([]byte(id))
	})
}

func (s *BboltNoteStore) put(note *types.Note) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotes)
		if b == nil {
			return errors.New("notes bucket missing")
		}
		encoded, err := json.Marshal(note)
		if err != nil {
			return err
		}
		return b.Put([]byte(note.ID), encoded)
	})
}

func newNoteID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "note_" + strings.ReplaceAll(time.Now().UTC().Format("20060102150405.000000000"), ".", "")
	}
	return "note_" + hex.EncodeToString(buf)
}
