package db

import (
	"context"
	"database/sql"

	"github.com/hpungsan/tracky/internal/errors"
	"github.com/hpungsan/tracky/internal/note"
)

// InsertNotebook stores a new notebook.
// A duplicate name for the same user yields ErrUniqueConstraint.
func InsertNotebook(ctx context.Context, q Querier, nb *note.Notebook) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO notebooks (id, user_id, name, created_at) VALUES (?, ?, ?, ?)`,
		nb.ID, nb.UserID, nb.Name, toMillis(nb.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	return nil
}

// GetNotebook returns a notebook owned by userID.
// Notebooks of other users are reported as NOT_FOUND.
func GetNotebook(ctx context.Context, q Querier, userID, id string) (*note.Notebook, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at FROM notebooks WHERE id = ? AND user_id = ?`,
		id, userID,
	)

	var (
		nb      note.Notebook
		created int64
	)
	err := row.Scan(&nb.ID, &nb.UserID, &nb.Name, &created)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("notebook", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	nb.CreatedAt = fromMillis(created)
	return &nb, nil
}

// ListNotebooks returns a user's notebooks, oldest first.
func ListNotebooks(ctx context.Context, q Querier, userID string) ([]note.Notebook, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, user_id, name, created_at FROM notebooks
		 WHERE user_id = ?
		 ORDER BY created_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	notebooks := []note.Notebook{}
	for rows.Next() {
		var (
			nb      note.Notebook
			created int64
		)
		if err := rows.Scan(&nb.ID, &nb.UserID, &nb.Name, &created); err != nil {
			return nil, errors.NewInternal(err)
		}
		nb.CreatedAt = fromMillis(created)
		notebooks = append(notebooks, nb)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return notebooks, nil
}

// CountNotebooks returns how many notebooks a user owns.
func CountNotebooks(ctx context.Context, q Querier, userID string) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM notebooks WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// DeleteNotebook removes a notebook. Its notes go with it via ON DELETE CASCADE.
func DeleteNotebook(ctx context.Context, q Querier, userID, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM notebooks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return errors.NewInternal(err)
	}
	return expectOne(result, "notebook", id)
}
