// Package position implements drag-to-reposition for note cards.
//
// The package knows nothing about any UI toolkit. A card is reached through
// the DragSurface capability (read its offset, move it, raise it), and the
// final location is handed to a Saver once per gesture.
//
// GESTURE LIFECYCLE:
//
//	Idle --PointerDown(header)--> Dragging --PointerUp--> Idle
//	                                 |  ^
//	                                 +--+ PointerMove (local only)
//
// Moves are applied to the surface immediately and never persisted; the
// release persists exactly once.
package position

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sakif/stickyboard/internal/model"
	"github.com/sakif/stickyboard/internal/notefmt"
)

// Delta is the cursor movement since the previous event, expressed as
// previous cursor minus current cursor.
type Delta struct {
	DX float64
	DY float64
}

// Offset returns prev - delta with both coordinates clamped to >= 0. A
// coordinate that is not a finite number becomes 0.
func Offset(prev model.Position, delta Delta) model.Position {
	return notefmt.Clamp(model.Position{
		X: prev.X - delta.DX,
		Y: prev.Y - delta.DY,
	})
}

// DragSurface is whatever renders a card.
type DragSurface interface {
	Offset() model.Position
	MoveTo(model.Position)
	BringToFront()
}

// Saver persists a card's final position.
type Saver interface {
	SavePosition(ctx context.Context, noteID string, pos model.Position) error
}

// Region identifies the part of a card a pointer event landed on.
type Region int

const (
	RegionBody Region = iota
	RegionHeader
)

// State of a Tracker.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Tracker follows drag gestures on a single card.
type Tracker struct {
	noteID  string
	surface DragSurface
	saver   Saver

	state  State
	cursor model.Position // last cursor location seen
	origin model.Position // card offset when the gesture started
}

// NewTracker returns an idle tracker for the card noteID.
func NewTracker(noteID string, surface DragSurface, saver Saver) *Tracker {
	return &Tracker{noteID: noteID, surface: surface, saver: saver}
}

// State returns the current gesture state.
func (t *Tracker) State() State { return t.state }

// PointerDown starts a drag when the press lands on the card header. It
// returns whether a drag started.
func (t *Tracker) PointerDown(x, y float64, region Region) bool {
	if t.state == Dragging || region != RegionHeader {
		return false
	}
	t.state = Dragging
	t.cursor = model.Position{X: x, Y: y}
	t.origin = t.surface.Offset()
	t.surface.BringToFront()
	return true
}

// PointerMove repositions the card while dragging.
func (t *Tracker) PointerMove(x, y float64) {
	if t.state != Dragging {
		return
	}
	delta := Delta{DX: t.cursor.X - x, DY: t.cursor.Y - y}
	t.cursor = model.Position{X: x, Y: y}
	t.surface.MoveTo(Offset(t.surface.Offset(), delta))
}

// PointerUp ends the drag and persists the final position. If saving fails
// the card returns to where the gesture started and the error is returned.
// A release while idle is a no-op.
func (t *Tracker) PointerUp(ctx context.Context) error {
	final, origin, ok := t.release()
	if !ok {
		return nil
	}
	if err := t.save(ctx, final); err != nil {
		t.surface.MoveTo(origin)
		return err
	}
	return nil
}

// release ends the gesture and reports where the card was dropped and where
// the gesture began.
func (t *Tracker) release() (final, origin model.Position, ok bool) {
	if t.state != Dragging {
		return model.Position{}, model.Position{}, false
	}
	t.state = Idle
	return t.surface.Offset(), t.origin, true
}

// save touches only fields fixed at construction, so it may run without the
// board lock.
func (t *Tracker) save(ctx context.Context, final model.Position) error {
	if err := t.saver.SavePosition(ctx, t.noteID, final); err != nil {
		return fmt.Errorf("position: saving note %s: %w", t.noteID, err)
	}
	return nil
}

// Cancel aborts a drag without saving and restores the starting offset.
func (t *Tracker) Cancel() {
	if t.state != Dragging {
		return
	}
	t.state = Idle
	t.surface.MoveTo(t.origin)
}

// ErrUnknownNote is returned by Board.PointerDown for a card it does not
// track.
var ErrUnknownNote = errors.New("position: unknown note")

// Board routes document-level pointer events to card trackers.
//
// Moves and releases are dispatched by pointer id, not by hit-testing, so a
// drag keeps working after the cursor leaves the card and a release anywhere
// on the document ends it. Each pointer drives at most one card at a time.
type Board struct {
	mu       sync.Mutex
	trackers map[string]*Tracker
	active   map[int]*Tracker // pointer id -> dragging tracker
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{
		trackers: make(map[string]*Tracker),
		active:   make(map[int]*Tracker),
	}
}

// Attach registers a card. Re-attaching a note replaces its tracker.
func (b *Board) Attach(noteID string, surface DragSurface, saver Saver) *Tracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := NewTracker(noteID, surface, saver)
	b.trackers[noteID] = t
	return t
}

// Detach forgets a card, cancelling any drag in progress on it.
func (b *Board) Detach(noteID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.trackers[noteID]
	if !ok {
		return
	}
	for pointer, at := range b.active {
		if at == t {
			t.Cancel()
			delete(b.active, pointer)
		}
	}
	delete(b.trackers, noteID)
}

// PointerDown presses pointer on a card. A pointer already dragging another
// card keeps its current drag. A card already held by another pointer is
// not picked up twice.
func (b *Board) PointerDown(pointer int, noteID string, x, y float64, region Region) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.trackers[noteID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownNote, noteID)
	}
	if _, busy := b.active[pointer]; busy {
		return false, nil
	}
	if !t.PointerDown(x, y, region) {
		return false, nil
	}
	b.active[pointer] = t
	return true, nil
}

// PointerMove forwards a document-level move to the pointer's drag, if any.
func (b *Board) PointerMove(pointer int, x, y float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t, ok := b.active[pointer]; ok {
		t.PointerMove(x, y)
	}
}

// PointerLeave is delivered when the cursor exits a card. It does not end
// the drag.
func (b *Board) PointerLeave(pointer int) {}

// PointerUp releases pointer wherever it is and persists the dragged card.
// The gesture ends under the board lock; the save runs outside it. On a
// failed save the card goes back to its starting offset unless another
// pointer has picked it up in the meantime.
func (b *Board) PointerUp(ctx context.Context, pointer int) error {
	b.mu.Lock()
	t, ok := b.active[pointer]
	delete(b.active, pointer)
	var final, origin model.Position
	if ok {
		final, origin, ok = t.release()
	}
	b.mu.Unlock()

	if !ok {
		return nil
	}
	err := t.save(ctx, final)
	if err == nil {
		return nil
	}

	b.mu.Lock()
	if t.state == Idle {
		t.surface.MoveTo(origin)
	}
	b.mu.Unlock()
	return err
}

// Dragging reports whether pointer currently holds a card.
func (b *Board) Dragging(pointer int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.active[pointer]
	return ok
}
