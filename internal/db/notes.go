package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hpungsan/tracky/internal/errors"
	"github.com/hpungsan/tracky/internal/note"
)

const noteColumns = `id, user_id, notebook_id, content, created_at, updated_at`

// NoteFilter narrows a note listing. Zero fields are ignored.
// Start and End are inclusive.
type NoteFilter struct {
	UserID     string // required
	NotebookID string
	Start      time.Time
	End        time.Time
	Limit      int
}

// InsertNote stores a new note.
func InsertNote(ctx context.Context, q Querier, n *note.Note) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO notes (`+noteColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.NotebookID, n.Content, toMillis(n.CreatedAt), toMillis(n.UpdatedAt),
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetNote returns a note owned by userID.
func GetNote(ctx context.Context, q Querier, userID, id string) (*note.Note, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("note", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return n, nil
}

// UpdateNoteContent replaces a note's content and bumps updated_at.
// created_at never changes, so the note keeps its place in the timeline.
func UpdateNoteContent(ctx context.Context, q Querier, userID, id, content string, updatedAt time.Time) error {
	result, err := q.ExecContext(ctx,
		`UPDATE notes SET content = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		content, toMillis(updatedAt), id, userID,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return expectOne(result, "note", id)
}

// DeleteNote removes a note.
func DeleteNote(ctx context.Context, q Querier, userID, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM notes WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return errors.NewInternal(err)
	}
	return expectOne(result, "note", id)
}

// ListNotes returns notes matching f, newest first.
// Ties on created_at are broken by id so the order is stable.
func ListNotes(ctx context.Context, q Querier, f NoteFilter) ([]note.Note, error) {
	rows, err := StreamNotes(ctx, q, f)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []note.Note{}
	for rows.Next() {
		n, err := ScanNoteFromRows(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		notes = append(notes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return notes, nil
}

// StreamNotes returns a cursor over notes matching f, newest first.
// The caller must close the returned rows.
func StreamNotes(ctx context.Context, q Querier, f NoteFilter) (*sql.Rows, error) {
	if f.UserID == "" {
		return nil, errors.NewInvalidRequest("user id is required")
	}

	var (
		where = []string{"user_id = ?"}
		args  = []any{f.UserID}
	)
	if f.NotebookID != "" {
		where = append(where, "notebook_id = ?")
		args = append(args, f.NotebookID)
	}
	if !f.Start.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, toMillis(f.Start))
	}
	if !f.End.IsZero() {
		where = append(where, "created_at <= ?")
		args = append(args, toMillis(f.End))
	}

	query := `SELECT ` + noteColumns + ` FROM notes WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return rows, nil
}

// ScanNoteFromRows scans the current row of a StreamNotes cursor.
func ScanNoteFromRows(rows *sql.Rows) (*note.Note, error) {
	var (
		n                note.Note
		created, updated int64
	)
	if err := rows.Scan(&n.ID, &n.UserID, &n.NotebookID, &n.Content, &created, &updated); err != nil {
		return nil, err
	}
	n.CreatedAt = fromMillis(created)
	n.UpdatedAt = fromMillis(updated)
	return &n, nil
}

func scanNote(row *sql.Row) (*note.Note, error) {
	var (
		n                note.Note
		created, updated int64
	)
	if err := row.Scan(&n.ID, &n.UserID, &n.NotebookID, &n.Content, &created, &updated); err != nil {
		return nil, err
	}
	n.CreatedAt = fromMillis(created)
	n.UpdatedAt = fromMillis(updated)
	return &n, nil
}
