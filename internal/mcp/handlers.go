package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/tracky/internal/config"
	"github.com/hpungsan/tracky/internal/errors"
	"github.com/hpungsan/tracky/internal/note"
	"github.com/hpungsan/tracky/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
	now func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: db, cfg: cfg, now: time.Now}
}

// Request types for each tool

// NotesGetRequest represents the arguments for notes_get.
type NotesGetRequest struct {
	Username  string `json:"username"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Notebook  string `json:"notebook,omitempty"`
}

// NotesTimelineRequest represents the arguments for notes_timeline.
type NotesTimelineRequest struct {
	Username string `json:"username"`
	Notebook string `json:"notebook,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// NotebooksListRequest represents the arguments for notebooks_list.
type NotebooksListRequest struct {
	Username string `json:"username"`
}

// TransferRequest represents the arguments for notes_export and notes_import.
type TransferRequest struct {
	Username string `json:"username"`
	Notebook string `json:"notebook,omitempty"`
	Path     string `json:"path,omitempty"`
}

// Handler implementations

// HandleNotesGet handles the notes_get tool call.
func (h *Handlers) HandleNotesGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NotesGetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	start, err := parseDate("start_date", input.StartDate)
	if err != nil {
		return errorResult(err), nil
	}
	end, err := parseDate("end_date", input.EndDate)
	if err != nil {
		return errorResult(err), nil
	}

	u, err := ops.LookupUser(ctx, h.db, input.Username)
	if err != nil {
		return errorResult(err), nil
	}

	notebookID := ""
	if input.Notebook != "" {
		nb, err := ops.ResolveNotebook(ctx, h.db, u.ID, input.Notebook)
		if err != nil {
			return errorResult(err), nil
		}
		notebookID = nb.ID
	}

	result, err := ops.ListNotes(ctx, h.db, ops.ListNotesInput{
		UserID:     u.ID,
		NotebookID: notebookID,
		Start:      start,
		End:        end,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"count": len(result.Items),
		"items": result.Items,
	})
}

// HandleNotesTimeline handles the notes_timeline tool call.
// The hierarchy is computed with no days expanded.
func (h *Handlers) HandleNotesTimeline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NotesTimelineRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	loc, err := h.location(input.Timezone)
	if err != nil {
		return errorResult(err), nil
	}
	u, nb, err := h.resolve(ctx, input.Username, input.Notebook)
	if err != nil {
		return errorResult(err), nil
	}

	tl, err := ops.Timeline(ctx, h.db, ops.TimelineInput{
		UserID:     u.ID,
		NotebookID: nb.ID,
		Now:        h.now(),
		Location:   loc,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"notebook": nb,
		"count":    tl.Count(),
		"timeline": tl,
	})
}

// HandleNotebooksList handles the notebooks_list tool call.
func (h *Handlers) HandleNotebooksList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NotebooksListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	u, err := ops.LookupUser(ctx, h.db, input.Username)
	if err != nil {
		return errorResult(err), nil
	}
	result, err := ops.ListNotebooks(ctx, h.db, u.ID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleNotesExport handles the notes_export tool call.
func (h *Handlers) HandleNotesExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TransferRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	u, nb, err := h.resolve(ctx, input.Username, input.Notebook)
	if err != nil {
		return errorResult(err), nil
	}
	result, err := ops.Export(ctx, h.db, h.cfg, ops.ExportInput{
		UserID:     u.ID,
		NotebookID: nb.ID,
		Path:       input.Path,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleNotesImport handles the notes_import tool call.
func (h *Handlers) HandleNotesImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TransferRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	u, nb, err := h.resolve(ctx, input.Username, input.Notebook)
	if err != nil {
		return errorResult(err), nil
	}
	result, err := ops.Import(ctx, h.db, h.cfg, ops.ImportInput{
		UserID:     u.ID,
		NotebookID: nb.ID,
		Path:       input.Path,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// resolve looks up a user and one of their notebooks by id or name.
func (h *Handlers) resolve(ctx context.Context, username, notebook string) (*note.User, *note.Notebook, error) {
	u, err := ops.LookupUser(ctx, h.db, username)
	if err != nil {
		return nil, nil, err
	}
	nb, err := ops.ResolveNotebook(ctx, h.db, u.ID, notebook)
	if err != nil {
		return nil, nil, err
	}
	return u, nb, nil
}

func (h *Handlers) location(tz string) (*time.Location, error) {
	if tz == "" {
		loc, err := h.cfg.Location()
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		return loc, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown timezone %q", tz))
	}
	return loc, nil
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.NewInvalidRequest(field + " is required")
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, errors.NewInvalidRequest(fmt.Sprintf("invalid %s: %v", field, err))
	}
	return t, nil
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	tErr := errors.As(err)

	errorObj := map[string]any{
		"code":    tErr.Code,
		"message": tErr.Message,
		"status":  tErr.Status,
	}
	if tErr.Code == errors.ErrInternal {
		errorObj["message"] = "an internal error occurred"
	} else if tErr.Details != nil {
		errorObj["details"] = tErr.Details
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
