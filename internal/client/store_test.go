package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/stickyboard/internal/apperror"
	"github.com/sakif/stickyboard/internal/model"
	"github.com/sakif/stickyboard/internal/notefmt"
	"github.com/sakif/stickyboard/internal/position"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeNoteAPI is an in-memory NoteAPI. Setting an *Err field makes the
// matching call fail without touching the stored notes.
type fakeNoteAPI struct {
	mu      sync.Mutex
	notes   []model.Note
	nextID  int
	updates []NotePatch

	listErr   error
	updateErr error
	deleteErr error
}

func (f *fakeNoteAPI) ListNotes(_ context.Context, _ ListQuery) ([]model.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return slices.Clone(f.notes), nil
}

func (f *fakeNoteAPI) CreateNote(_ context.Context, in NewNote) (*model.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	colors := notefmt.DefaultColors()
	if in.Colors != nil {
		colors = *in.Colors
	}
	pos := notefmt.DefaultPosition()
	if in.Position != nil {
		pos = *in.Position
	}
	now := time.Now().UTC()
	n := model.Note{
		ID:        fmt.Sprintf("n%d", f.nextID),
		Body:      notefmt.EncodeBody(in.Body),
		Colors:    notefmt.EncodeColors(colors),
		Position:  notefmt.EncodePosition(notefmt.Clamp(pos)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.notes = append(f.notes, n)
	return &n, nil
}

func (f *fakeNoteAPI) UpdateNote(_ context.Context, id string, patch NotePatch) (*model.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, patch)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	i := slices.IndexFunc(f.notes, func(n model.Note) bool { return n.ID == id })
	if i < 0 {
		return nil, apperror.NotFound("note", id)
	}
	w := patch.wire()
	if w.Body != nil {
		f.notes[i].Body = *w.Body
	}
	if w.Colors != nil {
		f.notes[i].Colors = *w.Colors
	}
	if w.Position != nil {
		f.notes[i].Position = *w.Position
	}
	n := f.notes[i]
	return &n, nil
}

func (f *fakeNoteAPI) DeleteNote(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.notes = slices.DeleteFunc(f.notes, func(n model.Note) bool { return n.ID == id })
	return nil
}

func (f *fakeNoteAPI) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

func newTestStore(t *testing.T) (*Store, *fakeNoteAPI) {
	t.Helper()
	api := &fakeNoteAPI{}
	return NewStore(api, testLogger()), api
}

func TestStore_CreateThenList(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	a, err := s.Create(ctx, NewNote{Body: "first"})
	require.NoError(t, err)
	b, err := s.Create(ctx, NewNote{})
	require.NoError(t, err)
	assert.Equal(t, "first", a.Body)

	fresh := NewStore(s.api, testLogger())
	notes, err := fresh.List(ctx, ListQuery{})
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, a.ID, notes[0].ID)
	assert.Equal(t, b.ID, notes[1].ID)
	assert.Equal(t, "", notes[1].Body)
	assert.Equal(t, notefmt.DefaultPosition(), notes[1].Position)
}

func TestStore_ListFailureKeepsLocalList(t *testing.T) {
	s, api := newTestStore(t)
	ctx := context.Background()
	_, err := s.Create(ctx, NewNote{Body: "kept"})
	require.NoError(t, err)

	api.listErr = errors.New("network down")
	_, err = s.List(ctx, ListQuery{})
	require.Error(t, err)
	assert.Len(t, s.Notes(), 1)
}

func TestStore_ListRecoversMalformedFields(t *testing.T) {
	api := &fakeNoteAPI{notes: []model.Note{{
		ID:       "legacy",
		Body:     `"\"double\""`,
		Colors:   "not json",
		Position: `{"x":-5,"y":12}`,
	}}}
	s := NewStore(api, testLogger())

	notes, err := s.List(context.Background(), ListQuery{})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, notefmt.DefaultColors(), notes[0].Colors)
	assert.Equal(t, model.Position{X: 0, Y: 12}, notes[0].Position)
}

func TestStore_UpdateFailureLeavesNoteUnchanged(t *testing.T) {
	s, api := newTestStore(t)
	ctx := context.Background()
	n, err := s.Create(ctx, NewNote{Body: "before"})
	require.NoError(t, err)

	api.updateErr = &APIError{Status: 500, Kind: "internal_error", Message: "boom"}
	body := "after"
	_, err = s.Update(ctx, n.ID, NotePatch{Body: &body})
	require.Error(t, err)

	got, ok := s.Get(n.ID)
	require.True(t, ok)
	assert.Equal(t, "before", got.Body)
}

func TestStore_UpdateReplacesLocalCopy(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	n, err := s.Create(ctx, NewNote{Body: "before"})
	require.NoError(t, err)

	body := "after"
	updated, err := s.Update(ctx, n.ID, NotePatch{Body: &body})
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Body)

	got, _ := s.Get(n.ID)
	assert.Equal(t, "after", got.Body)
}

func TestStore_FailedRemoveLeavesListUnchanged(t *testing.T) {
	s, api := newTestStore(t)
	ctx := context.Background()
	n, err := s.Create(ctx, NewNote{Body: "stay"})
	require.NoError(t, err)

	api.deleteErr = &APIError{Status: 403, Kind: "forbidden", Message: "not yours"}
	err = s.Remove(ctx, n.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.Len(t, s.Notes(), 1)
	assert.Equal(t, []string{n.ID}, s.ZOrder())

	api.deleteErr = nil
	require.NoError(t, s.Remove(ctx, n.ID))
	assert.Empty(t, s.Notes())
	assert.Empty(t, s.ZOrder())
}

func TestStore_RaiseAndZOrder(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	a, _ := s.Create(ctx, NewNote{Body: "a"})
	b, _ := s.Create(ctx, NewNote{Body: "b"})
	c, _ := s.Create(ctx, NewNote{Body: "c"})

	s.Raise(a.ID)
	assert.Equal(t, []string{b.ID, c.ID, a.ID}, s.ZOrder())

	s.Raise("unknown")
	assert.Equal(t, []string{b.ID, c.ID, a.ID}, s.ZOrder())

	// stacking order does not reorder the list itself
	notes := s.Notes()
	assert.Equal(t, a.ID, notes[0].ID)
}

func TestStore_Search(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	_, _ = s.Create(ctx, NewNote{Body: "Buy milk"})
	_, _ = s.Create(ctx, NewNote{Body: "call mom"})

	got := s.Search("MILK")
	require.Len(t, got, 1)
	assert.Equal(t, "Buy milk", got[0].Body)
	assert.Len(t, s.Search(""), 2)
}

func TestStore_MoveLocalClamps(t *testing.T) {
	s, api := newTestStore(t)
	n, _ := s.Create(context.Background(), NewNote{})

	assert.True(t, s.MoveLocal(n.ID, model.Position{X: -10, Y: 30}))
	got, _ := s.Get(n.ID)
	assert.Equal(t, model.Position{X: 0, Y: 30}, got.Position)
	assert.False(t, s.MoveLocal("missing", model.Position{}))
	assert.Zero(t, api.updateCount())
}

func TestStore_SurfaceUnknownNote(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Surface("nope")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func dragCard(t *testing.T, s *Store, id string, from, to model.Position) error {
	t.Helper()
	surface, err := s.Surface(id)
	require.NoError(t, err)

	board := position.NewBoard()
	board.Attach(id, surface, s)

	started, err := board.PointerDown(1, id, from.X, from.Y, position.RegionHeader)
	require.NoError(t, err)
	require.True(t, started)

	board.PointerMove(1, (from.X+to.X)/2, (from.Y+to.Y)/2)
	board.PointerMove(1, to.X, to.Y)
	return board.PointerUp(context.Background(), 1)
}

func TestStore_DragPersistsOnce(t *testing.T) {
	s, api := newTestStore(t)
	start := model.Position{X: 100, Y: 100}
	n, err := s.Create(context.Background(), NewNote{Position: &start})
	require.NoError(t, err)
	other, _ := s.Create(context.Background(), NewNote{})

	require.NoError(t, dragCard(t, s, n.ID, model.Position{X: 110, Y: 105}, model.Position{X: 160, Y: 125}))

	assert.Equal(t, 1, api.updateCount())
	require.NotNil(t, api.updates[0].Position)
	want := model.Position{X: 150, Y: 120}
	assert.Equal(t, want, *api.updates[0].Position)

	got, _ := s.Get(n.ID)
	assert.Equal(t, want, got.Position)
	assert.Equal(t, []string{other.ID, n.ID}, s.ZOrder())
}

func TestStore_FailedDragSaveRevertsCard(t *testing.T) {
	s, api := newTestStore(t)
	start := model.Position{X: 40, Y: 40}
	n, err := s.Create(context.Background(), NewNote{Position: &start})
	require.NoError(t, err)

	api.updateErr = errors.New("offline")
	err = dragCard(t, s, n.ID, model.Position{X: 50, Y: 50}, model.Position{X: 90, Y: 70})
	require.Error(t, err)

	assert.Equal(t, 1, api.updateCount())
	got, _ := s.Get(n.ID)
	assert.Equal(t, start, got.Position)
}
