package timeline

import (
	"fmt"
	"time"

	"github.com/hpungsan/tracky/internal/note"
)

// RawNote is a note as delivered by a JSON collaborator, with an
// unparsed created_at string.
type RawNote struct {
	ID         string `json:"id"`
	NotebookID string `json:"notebook_id,omitempty"`
	Content    string `json:"content"`
	CreatedAt  string `json:"created_at"`
}

// TimestampError reports a note whose created_at could not be parsed.
type TimestampError struct {
	NoteID string
	Value  string
	Err    error
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("note %s: invalid created_at %q: %v", e.NoteID, e.Value, e.Err)
}

func (e *TimestampError) Unwrap() error {
	return e.Err
}

// timestampLayouts are tried in order. Layouts without an offset are UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseInstant parses a created_at value into an absolute instant.
func ParseInstant(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// ParseNotes converts raw notes, failing on the first malformed timestamp
// rather than guessing a day for it.
func ParseNotes(raw []RawNote) ([]note.Note, error) {
	notes := make([]note.Note, 0, len(raw))
	for _, r := range raw {
		createdAt, err := ParseInstant(r.CreatedAt)
		if err != nil {
			return nil, &TimestampError{NoteID: r.ID, Value: r.CreatedAt, Err: err}
		}
		notes = append(notes, note.Note{
			ID:         r.ID,
			NotebookID: r.NotebookID,
			Content:    r.Content,
			CreatedAt:  createdAt,
			UpdatedAt:  createdAt,
		})
	}
	return notes, nil
}
