package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/stickyboard/internal/apperror"
	"github.com/sakif/stickyboard/internal/model"
	"github.com/sakif/stickyboard/internal/repository"
)

// UserDB implements repository.UserRepository on the users table.
type UserDB struct {
	conn *sql.DB
}

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

const userColumns = `id, email, role, password_hash, github_id, created_at, updated_at`

// Create inserts a new user. A duplicate email (or GitHub id) becomes
// apperror.ErrConflict so the handler can answer 409.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = model.RoleUser
	}

	_, err := u.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Role,
		user.PasswordHash,
		nullInt64(user.GitHubID),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := u.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// GetByEmail looks a user up by email. The column is COLLATE NOCASE, so
// the match ignores case.
func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := u.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.TrimSpace(email))
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return user, nil
}

// List returns every user in registration order.
func (u *UserDB) List(ctx context.Context) ([]model.User, error) {
	rows, err := u.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}
	return users, nil
}

// UpsertGitHub links a GitHub account to a user.
//
// Lookup order:
//  1. a user already linked to this github_id keeps its ID and role; only
//     the email is refreshed
//  2. a user registered with the same email gets the github_id attached
//  3. otherwise a new password-less user is inserted
//
// user is updated in place with the canonical stored record.
func (u *UserDB) UpsertGitHub(ctx context.Context, user *model.User) error {
	if user.GitHubID == nil {
		return apperror.ValidationFailed("githubId", "github id is required")
	}

	existing, err := u.byGitHubID(ctx, *user.GitHubID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", *user.GitHubID, err)
	}
	if existing == nil {
		existing, err = u.GetByEmail(ctx, user.Email)
		if err != nil && !errors.Is(err, apperror.ErrNotFound) {
			return err
		}
	}

	if existing == nil {
		return u.Create(ctx, user)
	}

	existing.GitHubID = user.GitHubID
	if user.Email != "" {
		existing.Email = user.Email
	}
	existing.UpdatedAt = time.Now().UTC()
	_, err = u.conn.ExecContext(ctx,
		`UPDATE users SET email = ?, github_id = ?, updated_at = ? WHERE id = ?`,
		existing.Email,
		nullInt64(existing.GitHubID),
		existing.UpdatedAt,
		existing.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", existing.Email)
		}
		return fmt.Errorf("sqlite: updating user %s: %w", existing.ID, err)
	}

	*user = *existing
	return nil
}

func (u *UserDB) byGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	row := u.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE github_id = ?`, githubID)
	return scanUser(row)
}

func scanUser(s scanner) (*model.User, error) {
	var (
		user     model.User
		githubID sql.NullInt64
	)
	if err := s.Scan(
		&user.ID,
		&user.Email,
		&user.Role,
		&user.PasswordHash,
		&githubID,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if githubID.Valid {
		user.GitHubID = &githubID.Int64
	}
	return &user, nil
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}
