package ops

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/tracky/internal/db"
	"github.com/hpungsan/tracky/internal/errors"
	"github.com/hpungsan/tracky/internal/timeline"
)

// TimelineInput contains parameters for the Timeline operation.
type TimelineInput struct {
	UserID     string
	NotebookID string            // required
	Now        time.Time         // zero means the current time
	Location   *time.Location    // nil means UTC
	State      timeline.Expander // nil expands no days
}

// Timeline loads a notebook's notes and groups them for display.
func Timeline(ctx context.Context, database *sql.DB, input TimelineInput) (*timeline.Timeline, error) {
	if input.UserID == "" {
		return nil, errors.NewUnauthorized("login required")
	}
	if input.NotebookID == "" {
		return nil, errors.NewInvalidRequest("notebook id is required")
	}
	if _, err := db.GetNotebook(ctx, database, input.UserID, input.NotebookID); err != nil {
		return nil, err
	}

	notes, err := db.ListNotes(ctx, database, db.NoteFilter{
		UserID:     input.UserID,
		NotebookID: input.NotebookID,
	})
	if err != nil {
		return nil, err
	}

	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}
	return timeline.Group(notes, now, input.Location, input.State), nil
}
