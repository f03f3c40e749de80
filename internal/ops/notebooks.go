package ops

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hpungsan/tracky/internal/db"
	"github.com/hpungsan/tracky/internal/errors"
	"github.com/hpungsan/tracky/internal/note"
)

// CreateNotebookInput contains parameters for the CreateNotebook operation.
type CreateNotebookInput struct {
	UserID string `json:"-" validate:"required"`
	Name   string `json:"name" validate:"required,max=100"`
}

// NotebookOutput wraps a single notebook.
type NotebookOutput struct {
	note.Notebook
}

// CreateNotebook adds a notebook for a user. Names are unique per user.
func CreateNotebook(ctx context.Context, database *sql.DB, input CreateNotebookInput) (*NotebookOutput, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	now := nowOr(time.Time{})
	id, err := generateULID(now)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	nb := note.Notebook{ID: id, UserID: input.UserID, Name: input.Name, CreatedAt: now}
	if err := db.InsertNotebook(ctx, database, &nb); err != nil {
		if err == db.ErrUniqueConstraint {
			return nil, errors.NewNameAlreadyExists("notebook", input.Name)
		}
		return nil, err
	}
	return &NotebookOutput{Notebook: nb}, nil
}

// ListNotebooksOutput contains a user's notebooks, oldest first.
type ListNotebooksOutput struct {
	Items []note.Notebook `json:"items"`
}

// ListNotebooks returns every notebook owned by userID.
func ListNotebooks(ctx context.Context, database *sql.DB, userID string) (*ListNotebooksOutput, error) {
	if userID == "" {
		return nil, errors.NewUnauthorized("login required")
	}
	items, err := db.ListNotebooks(ctx, database, userID)
	if err != nil {
		return nil, err
	}
	return &ListNotebooksOutput{Items: items}, nil
}

// DeleteNotebookOutput reports a removed notebook.
type DeleteNotebookOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// DeleteNotebook removes a notebook and every note in it.
func DeleteNotebook(ctx context.Context, database *sql.DB, userID, id string) (*DeleteNotebookOutput, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.NewInvalidRequest("notebook id is required")
	}
	if err := db.DeleteNotebook(ctx, database, userID, id); err != nil {
		return nil, err
	}
	return &DeleteNotebookOutput{ID: id, Deleted: true}, nil
}

// ResolveNotebook finds a user's notebook by id or by exact name.
// An empty ref selects the user's oldest notebook.
func ResolveNotebook(ctx context.Context, database *sql.DB, userID, ref string) (*note.Notebook, error) {
	ref = strings.TrimSpace(ref)

	notebooks, err := db.ListNotebooks(ctx, database, userID)
	if err != nil {
		return nil, err
	}
	if ref == "" {
		if len(notebooks) == 0 {
			return nil, errors.NewNotFound("notebook", note.DefaultNotebookName)
		}
		return &notebooks[0], nil
	}
	for i := range notebooks {
		if notebooks[i].ID == ref || notebooks[i].Name == ref {
			return &notebooks[i], nil
		}
	}
	return nil, errors.NewNotFound("notebook", ref)
}
