package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sakif/stickyboard/internal/apperror"
	"github.com/sakif/stickyboard/internal/model"
	"github.com/sakif/stickyboard/internal/repository"
)

// fakeNoteRepo is an in-memory repository.NoteRepository. It keeps
// insertion order so List behaves like the SQLite implementation.
type fakeNoteRepo struct {
	notes  map[string]*model.Note
	order  []string
	nextID int

	// set to simulate a database failure
	listErr   error
	updateErr error
	updates   int
}

func newFakeNoteRepo() *fakeNoteRepo {
	return &fakeNoteRepo{notes: make(map[string]*model.Note)}
}

func (f *fakeNoteRepo) Create(_ context.Context, note *model.Note) error {
	f.nextID++
	note.ID = fmt.Sprintf("note-%d", f.nextID)
	note.CreatedAt = time.Now()
	note.UpdatedAt = note.CreatedAt
	stored := *note
	f.notes[note.ID] = &stored
	f.order = append(f.order, note.ID)
	return nil
}

func (f *fakeNoteRepo) GetByID(_ context.Context, id string) (*model.Note, error) {
	n, ok := f.notes[id]
	if !ok {
		return nil, apperror.NotFound("note", id)
	}
	result := *n
	return &result, nil
}

func (f *fakeNoteRepo) List(_ context.Context, filter repository.NoteFilter) ([]model.Note, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []model.Note{}
	for _, id := range f.order {
		n, ok := f.notes[id]
		if !ok {
			continue
		}
		if filter.UserID != "" && n.Owner() != filter.UserID {
			continue
		}
		out = append(out, *n)
	}
	return out, nil
}

func (f *fakeNoteRepo) Update(_ context.Context, note *model.Note) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.notes[note.ID]; !ok {
		return apperror.NotFound("note", note.ID)
	}
	f.updates++
	stored := *note
	f.notes[note.ID] = &stored
	return nil
}

func (f *fakeNoteRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.notes[id]; !ok {
		return apperror.NotFound("note", id)
	}
	delete(f.notes, id)
	return nil
}

// fakeUserRepo is an in-memory repository.UserRepository.
type fakeUserRepo struct {
	users  map[string]*model.User
	order  []string
	nextID int

	createErr error
	upsertErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, user.Email) {
			return apperror.Conflict("user", user.Email)
		}
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.users[user.ID] = &stored
	f.order = append(f.order, user.ID)
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) List(_ context.Context) ([]model.User, error) {
	out := []model.User{}
	for _, id := range f.order {
		out = append(out, *f.users[id])
	}
	return out, nil
}

func (f *fakeUserRepo) UpsertGitHub(ctx context.Context, user *model.User) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	for _, u := range f.users {
		if u.GitHubID != nil && *u.GitHubID == *user.GitHubID {
			u.Email = user.Email
			*user = *u
			return nil
		}
	}
	existing, err := f.GetByEmail(ctx, user.Email)
	if err == nil {
		f.users[existing.ID].GitHubID = user.GitHubID
		*user = *f.users[existing.ID]
		return nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return err
	}
	return f.Create(ctx, user)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
