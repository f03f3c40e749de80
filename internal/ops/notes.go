package ops

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hpungsan/tracky/internal/config"
	"github.com/hpungsan/tracky/internal/db"
	"github.com/hpungsan/tracky/internal/errors"
	"github.com/hpungsan/tracky/internal/note"
)

// CreateNoteInput contains parameters for the CreateNote operation.
type CreateNoteInput struct {
	UserID     string    `json:"-" validate:"required"`
	NotebookID string    `json:"notebook_id" validate:"required"`
	Content    string    `json:"content" validate:"required"`
	CreatedAt  time.Time `json:"-"` // zero means now; seeding and import set it
}

// NoteOutput wraps a single note.
type NoteOutput struct {
	note.Note
}

// CreateNote adds a note to one of the user's notebooks.
func CreateNote(ctx context.Context, database *sql.DB, cfg *config.Config, input CreateNoteInput) (*NoteOutput, error) {
	// Whitespace-only content counts as empty.
	if strings.TrimSpace(input.Content) == "" {
		input.Content = ""
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := checkSize(cfg, input.Content); err != nil {
		return nil, err
	}

	// The notebook must exist and belong to the user.
	if _, err := db.GetNotebook(ctx, database, input.UserID, input.NotebookID); err != nil {
		return nil, err
	}

	createdAt := nowOr(input.CreatedAt)
	id, err := generateULID(createdAt)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	n := note.Note{
		ID:         id,
		UserID:     input.UserID,
		NotebookID: input.NotebookID,
		Content:    input.Content,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	if err := db.InsertNote(ctx, database, &n); err != nil {
		return nil, err
	}
	return &NoteOutput{Note: n}, nil
}

// ListNotesInput contains parameters for the ListNotes operation.
type ListNotesInput struct {
	UserID     string
	NotebookID string    // optional; empty lists across all notebooks
	Start      time.Time // optional, inclusive
	End        time.Time // optional, inclusive
	Limit      int       // 0 means unlimited
}

// ListNotesOutput contains notes, newest first.
type ListNotesOutput struct {
	Items []note.Note `json:"items"`
}

// ListNotes returns a user's notes, newest first.
func ListNotes(ctx context.Context, database *sql.DB, input ListNotesInput) (*ListNotesOutput, error) {
	if input.UserID == "" {
		return nil, errors.NewUnauthorized("login required")
	}
	if input.Limit < 0 {
		return nil, errors.NewInvalidRequest("limit must not be negative")
	}
	if input.Limit > MaxListLimit {
		input.Limit = MaxListLimit
	}
	if !input.Start.IsZero() && !input.End.IsZero() && input.End.Before(input.Start) {
		return nil, errors.NewInvalidRequest("end must not be before start")
	}
	if input.NotebookID != "" {
		if _, err := db.GetNotebook(ctx, database, input.UserID, input.NotebookID); err != nil {
			return nil, err
		}
	}

	items, err := db.ListNotes(ctx, database, db.NoteFilter{
		UserID:     input.UserID,
		NotebookID: input.NotebookID,
		Start:      input.Start,
		End:        input.End,
		Limit:      input.Limit,
	})
	if err != nil {
		return nil, err
	}
	return &ListNotesOutput{Items: items}, nil
}

// UpdateNoteInput contains parameters for the UpdateNote operation.
type UpdateNoteInput struct {
	UserID  string `json:"-" validate:"required"`
	ID      string `json:"id" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// UpdateNote replaces a note's content. The note keeps its creation time,
// so it stays in the same day of the timeline.
func UpdateNote(ctx context.Context, database *sql.DB, cfg *config.Config, input UpdateNoteInput) (*NoteOutput, error) {
	// Whitespace-only content counts as empty.
	if strings.TrimSpace(input.Content) == "" {
		input.Content = ""
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := checkSize(cfg, input.Content); err != nil {
		return nil, err
	}

	now := nowOr(time.Time{})
	if err := db.UpdateNoteContent(ctx, database, input.UserID, input.ID, input.Content, now); err != nil {
		return nil, err
	}

	n, err := db.GetNote(ctx, database, input.UserID, input.ID)
	if err != nil {
		return nil, err
	}
	return &NoteOutput{Note: *n}, nil
}

// DeleteNoteOutput reports a removed note.
type DeleteNoteOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// DeleteNote removes a note.
func DeleteNote(ctx context.Context, database *sql.DB, userID, id string) (*DeleteNoteOutput, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.NewInvalidRequest("note id is required")
	}
	if err := db.DeleteNote(ctx, database, userID, id); err != nil {
		return nil, err
	}
	return &DeleteNoteOutput{ID: id, Deleted: true}, nil
}

// checkSize enforces note_max_chars. A nil config or zero limit disables the check.
func checkSize(cfg *config.Config, content string) error {
	if cfg == nil || cfg.NoteMaxChars <= 0 {
		return nil
	}
	if n := note.CountChars(content); n > cfg.NoteMaxChars {
		return errors.NewNoteTooLarge(cfg.NoteMaxChars, n)
	}
	return nil
}
