// Package service contains the business logic layer of the application.
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces ownership, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services take repository interfaces, not *sqlite.DB, so tests inject
// in-memory fakes and nothing here imports database code. Every error a
// service returns on purpose is an apperror; the handler maps it to a
// status code.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/sakif/stickyboard/internal/apperror"
	"github.com/sakif/stickyboard/internal/auth"
	"github.com/sakif/stickyboard/internal/model"
	"github.com/sakif/stickyboard/internal/notefmt"
	"github.com/sakif/stickyboard/internal/repository"
)

// MaxBodyLength caps the stored (encoded) body text.
const MaxBodyLength = 100000

// NoteInput carries the serialized fields of a create or update request.
// A nil field is "not provided": Create applies the default, Update leaves
// the stored value alone.
type NoteInput struct {
	Body     *string
	Colors   *string
	Position *string
}

// NoteQuery selects which notes List returns. The zero value means "the
// caller's own notes". All and UserID are admin-only.
type NoteQuery struct {
	All    bool
	UserID string
}

// NoteService handles business logic for notes.
type NoteService struct {
	repo   repository.NoteRepository
	logger *slog.Logger

	// pickColor chooses the colors of a note created without any.
	pickColor func() model.Colors
}

// NewNoteService creates a NoteService. New notes without colors get a
// palette entry chosen uniformly at random.
func NewNoteService(repo repository.NoteRepository, logger *slog.Logger) *NoteService {
	return &NoteService{
		repo:   repo,
		logger: logger,
		pickColor: func() model.Colors {
			return notefmt.Palette[rand.IntN(len(notefmt.Palette))]
		},
	}
}

// Create validates and stores a new note owned by the caller.
func (s *NoteService) Create(ctx context.Context, caller auth.Identity, in NoteInput) (*model.Note, error) {
	note := &model.Note{
		Body:     notefmt.EncodeBody(""),
		Colors:   notefmt.EncodeColors(s.pickColor()),
		Position: notefmt.EncodePosition(notefmt.DefaultPosition()),
	}
	if caller.UserID != "" {
		owner := caller.UserID
		note.UserID = &owner
	}
	if err := applyInput(note, in); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, note); err != nil {
		s.logger.Error("failed to create note",
			slog.String("userID", caller.UserID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating note: %w", err)
	}

	s.logger.Info("note created",
		slog.String("id", note.ID),
		slog.String("userID", caller.UserID),
	)
	return note, nil
}

// Get returns one note the caller may see.
func (s *NoteService) Get(ctx context.Context, caller auth.Identity, id string) (*model.Note, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "note ID is required")
	}

	note, err := s.repo.GetByID(ctx, id)
	if err != nil {
		// NotFound is a normal outcome and is not logged.
		return nil, err
	}
	if err := authorize(caller, note); err != nil {
		return nil, err
	}
	return note, nil
}

// List returns notes in creation order.
func (s *NoteService) List(ctx context.Context, caller auth.Identity, q NoteQuery) ([]model.Note, error) {
	if caller.UserID == "" {
		return nil, apperror.Unauthorized("valid authentication required")
	}
	filter := repository.NoteFilter{UserID: caller.UserID}

	if q.All || (q.UserID != "" && q.UserID != caller.UserID) {
		if caller.Role != model.RoleAdmin {
			return nil, apperror.Forbidden("only admins can list other users' notes")
		}
		filter.UserID = q.UserID
		if q.All {
			filter.UserID = ""
		}
	}

	notes, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list notes", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	return notes, nil
}

// ListAll returns every note regardless of owner. Only the dashboard uses it.
func (s *NoteService) ListAll(ctx context.Context) ([]model.Note, error) {
	notes, err := s.repo.List(ctx, repository.NoteFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	return notes, nil
}

// Update applies a partial patch: only the provided fields change.
func (s *NoteService) Update(ctx context.Context, caller auth.Identity, id string, in NoteInput) (*model.Note, error) {
	note, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := applyInput(note, in); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, note); err != nil {
		s.logger.Error("failed to update note",
			slog.String("id", note.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating note: %w", err)
	}

	s.logger.Debug("note updated", slog.String("id", note.ID))
	return note, nil
}

// Delete removes a note the caller owns (or any note, for an admin).
func (s *NoteService) Delete(ctx context.Context, caller auth.Identity, id string) error {
	note, err := s.Get(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, note.ID); err != nil {
		return err
	}

	s.logger.Info("note deleted",
		slog.String("id", note.ID),
		slog.String("userID", caller.UserID),
	)
	return nil
}

// authorize allows admins, the owner, and anyone for notes without an owner.
func authorize(caller auth.Identity, note *model.Note) error {
	if caller.Role == model.RoleAdmin {
		return nil
	}
	if owner := note.Owner(); owner != "" && owner != caller.UserID {
		return apperror.Forbidden("you do not have permission to access this note")
	}
	return nil
}

// applyInput validates the provided fields and writes them into note.
// note is left untouched when any field is invalid.
func applyInput(note *model.Note, in NoteInput) error {
	body, colors, position := note.Body, note.Colors, note.Position

	if in.Body != nil {
		if len(*in.Body) > MaxBodyLength {
			return apperror.ValidationFailed("body",
				fmt.Sprintf("body must be %d bytes or less", MaxBodyLength))
		}
		body = *in.Body
	}
	if in.Colors != nil {
		c, err := notefmt.ValidateColors(*in.Colors)
		if err != nil {
			return apperror.ValidationFailed("colors", "colors must be a JSON object with an id")
		}
		colors = c
	}
	if in.Position != nil {
		p, err := notefmt.NormalizePosition(*in.Position)
		if err != nil {
			return apperror.ValidationFailed("position", "position must be a JSON object with x and y")
		}
		position = p
	}

	note.Body, note.Colors, note.Position = body, colors, position
	return nil
}
