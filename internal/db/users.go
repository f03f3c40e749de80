package db

import (
	"context"
	"database/sql"

	"github.com/hpungsan/tracky/internal/errors"
	"github.com/hpungsan/tracky/internal/note"
)

// InsertUser stores a new user. A taken username yields ErrUniqueConstraint.
func InsertUser(ctx context.Context, q Querier, u *note.User) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, toMillis(u.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	return nil
}

// GetUserByUsername looks a user up by exact username.
func GetUserByUsername(ctx context.Context, q Querier, username string) (*note.User, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`,
		username,
	)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("user", username)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return u, nil
}

// GetUserByID looks a user up by ULID.
func GetUserByID(ctx context.Context, q Querier, id string) (*note.User, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id = ?`,
		id,
	)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("user", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return u, nil
}

func scanUser(row *sql.Row) (*note.User, error) {
	var (
		u       note.User
		created int64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created); err != nil {
		return nil, err
	}
	u.CreatedAt = fromMillis(created)
	return &u, nil
}
