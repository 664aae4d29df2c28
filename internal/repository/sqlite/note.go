package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/stickyboard/internal/apperror"
	"github.com/sakif/stickyboard/internal/model"
	"github.com/sakif/stickyboard/internal/repository"
)

// compile-time check that *DB implements repository.NoteRepository
var _ repository.NoteRepository = (*DB)(nil)

const noteColumns = `id, body, colors, position, user_id, created_at, updated_at`

// Create inserts a new note. ID and timestamps are generated here and
// written back into note.
//
// WHY xid INSTEAD OF UUID?
// xid IDs are 20 characters, URL-safe and roughly sortable by creation
// time, which keeps note URLs short.
func (db *DB) Create(ctx context.Context, note *model.Note) error {
	now := time.Now().UTC()
	note.ID = xid.New().String()
	note.CreatedAt = now
	note.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO notes (`+noteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		note.ID,
		note.Body,
		note.Colors,
		note.Position,
		nullString(note.UserID),
		note.CreatedAt,
		note.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting note: %w", err)
	}
	return nil
}

// GetByID retrieves a single note.
// Returns apperror.ErrNotFound if no note exists with that ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Note, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)

	n, err := scanNote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("note", id)
		}
		return nil, fmt.Errorf("sqlite: getting note %s: %w", id, err)
	}
	return n, nil
}

// List returns notes in creation order. rowid breaks ties between notes
// created within the same clock tick.
func (db *DB) List(ctx context.Context, filter repository.NoteFilter) ([]model.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes`
	var args []any
	if filter.UserID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, filter.UserID)
	}
	query += ` ORDER BY created_at ASC, rowid ASC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing notes: %w", err)
	}
	// ALWAYS close rows, or the connection is never returned to the pool.
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning note: %w", err)
		}
		notes = append(notes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating notes: %w", err)
	}
	return notes, nil
}

// Update overwrites the body, colors and position of an existing note and
// bumps updated_at. The owner never changes.
func (db *DB) Update(ctx context.Context, note *model.Note) error {
	note.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE notes SET body = ?, colors = ?, position = ?, updated_at = ?
		 WHERE id = ?`,
		note.Body,
		note.Colors,
		note.Position,
		note.UpdatedAt,
		note.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating note %s: %w", note.ID, err)
	}

	// RowsAffected tells us whether the WHERE clause matched anything.
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("note", note.ID)
	}
	return nil
}

// Delete removes a note by ID.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting note %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("note", id)
	}
	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (*model.Note, error) {
	var (
		n     model.Note
		owner sql.NullString
	)
	if err := s.Scan(
		&n.ID,
		&n.Body,
		&n.Colors,
		&n.Position,
		&owner,
		&n.CreatedAt,
		&n.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if owner.Valid {
		n.UserID = &owner.String
	}
	return &n, nil
}
