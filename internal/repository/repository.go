// Package repository declares the storage interfaces the service layer
// depends on. internal/repository/sqlite is the production implementation;
// service tests use in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/stickyboard/internal/model"
)

// NoteFilter narrows a note listing. The zero value lists every note.
type NoteFilter struct {
	UserID string // only notes owned by this user
}

// NoteRepository stores notes. Lists come back in creation order.
type NoteRepository interface {
	Create(ctx context.Context, note *model.Note) error
	GetByID(ctx context.Context, id string) (*model.Note, error)
	List(ctx context.Context, filter NoteFilter) ([]model.Note, error)
	Update(ctx context.Context, note *model.Note) error
	Delete(ctx context.Context, id string) error
}

// UserRepository stores user accounts. Emails are unique
// (case-insensitive); Create reports a duplicate as apperror.ErrConflict.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpsertGitHub(ctx context.Context, user *model.User) error
}
