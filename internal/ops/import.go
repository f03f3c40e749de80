package ops

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/hpungsan/tracky/internal/config"
	"github.com/hpungsan/tracky/internal/db"
	"github.com/hpungsan/tracky/internal/errors"
	"github.com/hpungsan/tracky/internal/note"
	"github.com/hpungsan/tracky/internal/timeline"
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	UserID     string
	NotebookID string // target notebook, required
	Path       string // required
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int `json:"imported"`
}

// Import reads a JSONL export and adds its notes to a notebook.
//
// The import is all-or-nothing: a malformed line or an unparseable
// created_at aborts it before anything is written. Notes get fresh IDs and
// keep their original creation time, so they land on the same days.
func Import(ctx context.Context, database *sql.DB, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.UserID == "" {
		return nil, errors.NewUnauthorized("login required")
	}
	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}
	if _, err := db.GetNotebook(ctx, database, input.UserID, input.NotebookID); err != nil {
		return nil, err
	}

	file, err := openNoFollow(input.Path, os.O_RDONLY, 0)
	if err != nil {
		if _, ok := err.(*errors.TrackyError); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	raw, err := parseExportFile(file)
	if err != nil {
		return nil, err
	}

	notes, err := timeline.ParseNotes(raw)
	if err != nil {
		var tsErr *timeline.TimestampError
		if stderrors.As(err, &tsErr) {
			tErr := errors.NewInvalidRequest(tsErr.Error())
			tErr.Details = map[string]any{"id": tsErr.NoteID, "created_at": tsErr.Value}
			return nil, tErr
		}
		return nil, errors.NewInternal(err)
	}

	for i := range notes {
		if strings.TrimSpace(notes[i].Content) == "" {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("note %s: content is required", notes[i].ID))
		}
		if err := checkSize(cfg, notes[i].Content); err != nil {
			return nil, err
		}
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback()

	for i := range notes {
		select {
		case <-ctx.Done():
			return nil, errors.NewCancelled("import")
		default:
		}

		createdAt := nowOr(notes[i].CreatedAt)
		id, err := generateULID(createdAt)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		n := &note.Note{
			ID:         id,
			UserID:     input.UserID,
			NotebookID: input.NotebookID,
			Content:    notes[i].Content,
			CreatedAt:  createdAt,
			UpdatedAt:  createdAt,
		}
		if err := db.InsertNote(ctx, tx, n); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return &ImportOutput{Imported: len(notes)}, nil
}

// parseExportFile reads note records, skipping the header line and blank lines.
func parseExportFile(file *os.File) ([]timeline.RawNote, error) {
	var raw []timeline.RawNote

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var probe struct {
			TrackyExport bool `json:"_tracky_export"`
			ExportRecord
		}
		if err := json.Unmarshal(line, &probe); err != nil {
			tErr := errors.NewInvalidRequest(fmt.Sprintf("line %d: invalid JSON: %v", lineNum, err))
			tErr.Details = map[string]any{"line": lineNum}
			return nil, tErr
		}
		if probe.TrackyExport {
			continue
		}
		if probe.ID == "" {
			tErr := errors.NewInvalidRequest(fmt.Sprintf("line %d: missing id field", lineNum))
			tErr.Details = map[string]any{"line": lineNum}
			return nil, tErr
		}

		raw = append(raw, timeline.RawNote{
			ID:        probe.ID,
			Content:   probe.Content,
			CreatedAt: probe.CreatedAt,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to read import file: %w", err))
	}
	return raw, nil
}
