package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/stickyboard/internal/dashboard"
	"github.com/sakif/stickyboard/internal/model"
	"github.com/sakif/stickyboard/internal/notefmt"
)

// DashboardSource is the part of *API a DashboardView reads from.
type DashboardSource interface {
	ListNotes(ctx context.Context, q ListQuery) ([]model.Note, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}

// FetchState is the progress of one of the view's two fetches.
type FetchState struct {
	Loading bool
	Err     error
}

// DashboardView loads every note and every user concurrently and
// aggregates whatever has arrived. The two fetches are independent: one
// failing does not cancel or hide the other.
//
// Each Load starts a new generation. Results from an older generation, or
// arriving after Close, are dropped.
type DashboardView struct {
	src    DashboardSource
	logger *slog.Logger

	mu     sync.Mutex
	gen    uint64
	closed bool

	notes      []model.ParsedNote
	users      []model.User
	notesState FetchState
	usersState FetchState
}

// NewDashboardView creates a view with nothing loaded.
func NewDashboardView(src DashboardSource, logger *slog.Logger) *DashboardView {
	return &DashboardView{src: src, logger: logger}
}

// ErrViewClosed is returned by Load after Close.
var ErrViewClosed = errors.New("client: dashboard view closed")

// Load runs both fetches and blocks until both finish. It returns the
// fetch errors joined; per-fetch errors are also kept in NotesState and
// UsersState.
func (v *DashboardView) Load(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrViewClosed
	}
	v.gen++
	gen := v.gen
	v.notesState = FetchState{Loading: true}
	v.usersState = FetchState{Loading: true}
	v.mu.Unlock()

	var (
		wg                 sync.WaitGroup
		notesErr, usersErr error
	)
	wg.Add(2)

	go func() {
		defer wg.Done()
		raw, err := v.src.ListNotes(ctx, ListQuery{All: true})
		var parsed []model.ParsedNote
		if err == nil {
			var perrs []error
			parsed, perrs = notefmt.ParseAll(raw)
			for _, perr := range perrs {
				v.logger.Debug("recovered malformed note field", slog.String("error", perr.Error()))
			}
		} else {
			notesErr = fmt.Errorf("loading notes: %w", err)
		}

		v.mu.Lock()
		defer v.mu.Unlock()
		if !v.current(gen) {
			return
		}
		v.notesState = FetchState{Err: notesErr}
		if notesErr == nil {
			v.notes = parsed
		}
	}()

	go func() {
		defer wg.Done()
		users, err := v.src.ListUsers(ctx)
		if err != nil {
			usersErr = fmt.Errorf("loading users: %w", err)
		}

		v.mu.Lock()
		defer v.mu.Unlock()
		if !v.current(gen) {
			return
		}
		v.usersState = FetchState{Err: usersErr}
		if usersErr == nil {
			v.users = users
		}
	}()

	wg.Wait()
	return errors.Join(notesErr, usersErr)
}

// current must be called with mu held.
func (v *DashboardView) current(gen uint64) bool {
	return !v.closed && v.gen == gen
}

// Close tears the view down. Fetches still in flight finish but their
// results are discarded.
func (v *DashboardView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	v.gen++
}

func (v *DashboardView) NotesState() FetchState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.notesState
}

func (v *DashboardView) UsersState() FetchState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.usersState
}

// Stats aggregates the loaded data as seen at now. Each side reflects its
// last successful fetch: a failed reload keeps the earlier result, and a
// side that has never loaded contributes nothing.
func (v *DashboardView) Stats(now time.Time) dashboard.Stats {
	v.mu.Lock()
	notes, users := v.notes, v.users
	v.mu.Unlock()
	return dashboard.Aggregate(notes, users, now)
}

// Notes returns the loaded notes, filtered by search (case-insensitive on
// the note body).
func (v *DashboardView) Notes(search string) []model.ParsedNote {
	v.mu.Lock()
	notes := v.notes
	v.mu.Unlock()
	return dashboard.Filter(notes, search)
}
