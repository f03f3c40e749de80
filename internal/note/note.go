package note

import (
	"time"
	"unicode/utf8"
)

// DefaultNotebookName is the notebook every account starts with.
const DefaultNotebookName = "Default"

// Note is a single timestamped entry in a notebook.
type Note struct {
	// ID is a ULID that uniquely identifies this note
	ID string `json:"id"`

	// UserID is the owning user's ID
	UserID string `json:"-"`

	// NotebookID is the notebook the note belongs to
	NotebookID string `json:"notebook_id"`

	// Content is the raw note text; escaping is the renderer's job
	Content string `json:"content"`

	// CreatedAt is the instant the note was created; immutable
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the instant of the last content edit
	UpdatedAt time.Time `json:"updated_at"`
}

// Notebook groups notes for one user.
type Notebook struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// User is an account. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// CountChars returns the number of characters (runes) in content.
func CountChars(content string) int {
	return utf8.RuneCountInString(content)
}
