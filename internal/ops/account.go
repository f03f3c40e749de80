package ops

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hpungsan/tracky/internal/auth"
	"github.com/hpungsan/tracky/internal/db"
	"github.com/hpungsan/tracky/internal/errors"
	"github.com/hpungsan/tracky/internal/note"
)

// SignupInput contains parameters for the Signup operation.
type SignupInput struct {
	Username string `json:"username" validate:"required,min=3,max=64,alphanum"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// AccountOutput identifies a user and the notebook they land on.
type AccountOutput struct {
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	NotebookID string `json:"notebook_id"`
}

// Signup creates a user together with their Default notebook.
func Signup(ctx context.Context, database *sql.DB, input SignupInput) (*AccountOutput, error) {
	input.Username = strings.TrimSpace(input.Username)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := nowOr(time.Time{})
	userID, err := generateULID(now)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	notebookID, err := generateULID(now)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback()

	u := &note.User{ID: userID, Username: input.Username, PasswordHash: hash, CreatedAt: now}
	if err := db.InsertUser(ctx, tx, u); err != nil {
		if err == db.ErrUniqueConstraint {
			return nil, errors.NewNameAlreadyExists("user", input.Username)
		}
		return nil, err
	}

	nb := &note.Notebook{ID: notebookID, UserID: userID, Name: note.DefaultNotebookName, CreatedAt: now}
	if err := db.InsertNotebook(ctx, tx, nb); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return &AccountOutput{UserID: userID, Username: u.Username, NotebookID: notebookID}, nil
}

// LoginInput contains parameters for the Login operation.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login verifies credentials and makes sure the user has at least one notebook.
// Unknown users and wrong passwords are indistinguishable to the caller.
func Login(ctx context.Context, database *sql.DB, input LoginInput) (*AccountOutput, error) {
	input.Username = strings.TrimSpace(input.Username)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	u, err := db.GetUserByUsername(ctx, database, input.Username)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, input.Password) {
		return nil, errors.NewUnauthorized("invalid credentials")
	}

	nb, err := ensureNotebook(ctx, database, u.ID)
	if err != nil {
		return nil, err
	}

	return &AccountOutput{UserID: u.ID, Username: u.Username, NotebookID: nb.ID}, nil
}

// ensureNotebook returns the user's oldest notebook, creating Default if there is none.
func ensureNotebook(ctx context.Context, database *sql.DB, userID string) (*note.Notebook, error) {
	notebooks, err := db.ListNotebooks(ctx, database, userID)
	if err != nil {
		return nil, err
	}
	if len(notebooks) > 0 {
		return &notebooks[0], nil
	}

	out, err := CreateNotebook(ctx, database, CreateNotebookInput{UserID: userID, Name: note.DefaultNotebookName})
	if err != nil {
		// A concurrent login may have created it first.
		if errors.Is(err, errors.ErrNameAlreadyExists) {
			retry, listErr := db.ListNotebooks(ctx, database, userID)
			if listErr == nil && len(retry) > 0 {
				return &retry[0], nil
			}
		}
		return nil, err
	}
	return &out.Notebook, nil
}

// LookupUser resolves a username to a user, for tools that act on behalf of one.
func LookupUser(ctx context.Context, database *sql.DB, username string) (*note.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.NewInvalidRequest("username is required")
	}
	return db.GetUserByUsername(ctx, database, username)
}
