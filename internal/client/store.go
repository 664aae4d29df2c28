package client

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/sakif/stickyboard/internal/apperror"
	"github.com/sakif/stickyboard/internal/dashboard"
	"github.com/sakif/stickyboard/internal/model"
	"github.com/sakif/stickyboard/internal/notefmt"
	"github.com/sakif/stickyboard/internal/position"
)

// NoteAPI is the part of *API the Store uses.
type NoteAPI interface {
	ListNotes(ctx context.Context, q ListQuery) ([]model.Note, error)
	CreateNote(ctx context.Context, in NewNote) (*model.Note, error)
	UpdateNote(ctx context.Context, id string, patch NotePatch) (*model.Note, error)
	DeleteNote(ctx context.Context, id string) error
}

// Store owns the board's note list. Every mutation goes through the API
// first and is applied locally only when the server accepted it; the one
// exception is MoveLocal, the optimistic position update used while a card
// is being dragged.
//
// Store is safe for concurrent use.
type Store struct {
	api    NoteAPI
	logger *slog.Logger

	mu    sync.Mutex
	notes []model.ParsedNote // server order
	z     []string           // ids, bottom card first
}

// NewStore creates an empty Store.
func NewStore(api NoteAPI, logger *slog.Logger) *Store {
	return &Store{api: api, logger: logger}
}

// compile-time check that *Store can persist drag results
var _ position.Saver = (*Store)(nil)

func (s *Store) parse(n model.Note) model.ParsedNote {
	p, errs := notefmt.Parse(n)
	for _, err := range errs {
		s.logger.Debug("recovered malformed note field",
			slog.String("id", n.ID),
			slog.String("error", err.Error()),
		)
	}
	return p
}

// List fetches notes and replaces the local list, keeping server order.
// On failure the local list is left as it was.
func (s *Store) List(ctx context.Context, q ListQuery) ([]model.ParsedNote, error) {
	raw, err := s.api.ListNotes(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}

	parsed := make([]model.ParsedNote, 0, len(raw))
	z := make([]string, 0, len(raw))
	for _, n := range raw {
		parsed = append(parsed, s.parse(n))
		z = append(z, n.ID)
	}

	s.mu.Lock()
	s.notes = parsed
	s.z = z
	s.mu.Unlock()

	return slices.Clone(parsed), nil
}

// Create adds a note on the server and appends it locally.
func (s *Store) Create(ctx context.Context, in NewNote) (model.ParsedNote, error) {
	raw, err := s.api.CreateNote(ctx, in)
	if err != nil {
		return model.ParsedNote{}, fmt.Errorf("creating note: %w", err)
	}
	p := s.parse(*raw)

	s.mu.Lock()
	s.notes = append(s.notes, p)
	s.z = append(s.z, p.ID)
	s.mu.Unlock()

	return p, nil
}

// Update persists patch and replaces the local copy with the server's
// answer. On failure the local note is unchanged.
func (s *Store) Update(ctx context.Context, id string, patch NotePatch) (model.ParsedNote, error) {
	raw, err := s.api.UpdateNote(ctx, id, patch)
	if err != nil {
		return model.ParsedNote{}, fmt.Errorf("updating note %s: %w", id, err)
	}
	p := s.parse(*raw)

	s.mu.Lock()
	if i := s.index(id); i >= 0 {
		s.notes[i] = p
	}
	s.mu.Unlock()

	return p, nil
}

// Remove deletes a note on the server, then locally. A failed delete
// leaves the local list untouched.
func (s *Store) Remove(ctx context.Context, id string) error {
	if err := s.api.DeleteNote(ctx, id); err != nil {
		return fmt.Errorf("deleting note %s: %w", id, err)
	}

	s.mu.Lock()
	if i := s.index(id); i >= 0 {
		s.notes = slices.Delete(s.notes, i, i+1)
	}
	if i := slices.Index(s.z, id); i >= 0 {
		s.z = slices.Delete(s.z, i, i+1)
	}
	s.mu.Unlock()

	return nil
}

// Notes returns a snapshot of the list.
func (s *Store) Notes() []model.ParsedNote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.notes)
}

// Get returns the local copy of a note.
func (s *Store) Get(id string) (model.ParsedNote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		return s.notes[i], true
	}
	return model.ParsedNote{}, false
}

// Search returns the notes whose body contains text, ignoring case.
func (s *Store) Search(text string) []model.ParsedNote {
	return dashboard.Filter(s.Notes(), text)
}

// MoveLocal sets a card's position without contacting the server. The
// position is clamped to the board.
func (s *Store) MoveLocal(id string, pos model.Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.notes[i].Position = notefmt.Clamp(pos)
	return true
}

// SavePosition persists a card's position. It implements position.Saver.
func (s *Store) SavePosition(ctx context.Context, noteID string, pos model.Position) error {
	_, err := s.Update(ctx, noteID, NotePatch{Position: &pos})
	return err
}

// Raise moves a card to the top of the stacking order.
func (s *Store) Raise(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.Index(s.z, id); i >= 0 {
		s.z = append(slices.Delete(s.z, i, i+1), id)
	}
}

// ZOrder returns note ids from the bottom card to the top one.
func (s *Store) ZOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.z)
}

// Surface returns a drag surface over a stored card, or an error wrapping
// apperror.ErrNotFound when the id is unknown.
func (s *Store) Surface(id string) (position.DragSurface, error) {
	if _, ok := s.Get(id); !ok {
		return nil, apperror.NotFound("note", id)
	}
	return &cardSurface{store: s, id: id}, nil
}

// index must be called with mu held.
func (s *Store) index(id string) int {
	return slices.IndexFunc(s.notes, func(n model.ParsedNote) bool { return n.ID == id })
}

// cardSurface adapts one stored card to position.DragSurface.
type cardSurface struct {
	store *Store
	id    string
}

func (c *cardSurface) Offset() model.Position {
	n, _ := c.store.Get(c.id)
	return n.Position
}

func (c *cardSurface) MoveTo(p model.Position) {
	c.store.MoveLocal(c.id, p)
}

func (c *cardSurface) BringToFront() {
	c.store.Raise(c.id)
}
