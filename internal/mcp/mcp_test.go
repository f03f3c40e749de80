package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/tracky/internal/config"
	"github.com/hpungsan/tracky/internal/db"
	"github.com/hpungsan/tracky/internal/errors"
	"github.com/hpungsan/tracky/internal/ops"
)

var fixedNow = time.Date(2024, 2, 10, 15, 0, 0, 0, time.UTC)

// testSetup creates a temporary database and config for testing.
func testSetup(t *testing.T) (*sql.DB, *config.Config, func()) {
	t.Helper()

	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true // Allow temp dirs in tests

	cleanup := func() {
		database.Close()
	}

	return database, cfg, cleanup
}

// newTestHandlers returns handlers with a fixed clock and a user "alice"
// whose Default notebook holds the given notes.
func newTestHandlers(t *testing.T, notes map[string]time.Time) (*Handlers, *ops.AccountOutput) {
	t.Helper()
	database, cfg, cleanup := testSetup(t)
	t.Cleanup(cleanup)

	acct, err := ops.Signup(context.Background(), database, ops.SignupInput{Username: "alice", Password: "secret123"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	for content, at := range notes {
		if _, err := ops.CreateNote(context.Background(), database, cfg, ops.CreateNoteInput{
			UserID:     acct.UserID,
			NotebookID: acct.NotebookID,
			Content:    content,
			CreatedAt:  at,
		}); err != nil {
			t.Fatalf("seed %q: %v", content, err)
		}
	}

	h := NewHandlers(database, cfg)
	h.now = func() time.Time { return fixedNow }
	return h, acct
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func TestHandleNotesGet(t *testing.T) {
	h, _ := newTestHandlers(t, map[string]time.Time{
		"new year":  time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		"mid month": time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
		"february":  time.Date(2024, 2, 2, 9, 0, 0, 0, time.UTC),
	})
	ctx := context.Background()

	t.Run("range is inclusive and newest first", func(t *testing.T) {
		result, _ := h.HandleNotesGet(ctx, makeRequest(map[string]any{
			"username":   "alice",
			"start_date": "2024-01-01T09:00:00Z",
			"end_date":   "2024-01-31T23:59:59Z",
		}))
		output := parseOutput(t, result)
		if output["count"].(float64) != 2 {
			t.Fatalf("count = %v, want 2", output["count"])
		}
		items := output["items"].([]any)
		if first := items[0].(map[string]any)["content"]; first != "mid month" {
			t.Errorf("first item = %v, want mid month", first)
		}
	})

	t.Run("notebook by name", func(t *testing.T) {
		result, _ := h.HandleNotesGet(ctx, makeRequest(map[string]any{
			"username":   "alice",
			"start_date": "2023-01-01T00:00:00Z",
			"end_date":   "2025-01-01T00:00:00Z",
			"notebook":   "Default",
		}))
		output := parseOutput(t, result)
		if output["count"].(float64) != 3 {
			t.Errorf("count = %v, want 3", output["count"])
		}
	})

	t.Run("empty range", func(t *testing.T) {
		result, _ := h.HandleNotesGet(ctx, makeRequest(map[string]any{
			"username":   "alice",
			"start_date": "2020-01-01T00:00:00Z",
			"end_date":   "2020-12-31T00:00:00Z",
		}))
		output := parseOutput(t, result)
		if output["count"].(float64) != 0 {
			t.Errorf("count = %v, want 0", output["count"])
		}
		if items, ok := output["items"].([]any); !ok || len(items) != 0 {
			t.Errorf("items = %v, want empty array", output["items"])
		}
	})

	errorCases := []struct {
		name string
		args map[string]any
		code string
	}{
		{"missing start", map[string]any{"username": "alice", "end_date": "2024-01-31T00:00:00Z"}, "INVALID_REQUEST"},
		{"bad end", map[string]any{"username": "alice", "start_date": "2024-01-01T00:00:00Z", "end_date": "Jan 31"}, "INVALID_REQUEST"},
		{"end before start", map[string]any{"username": "alice", "start_date": "2024-02-01T00:00:00Z", "end_date": "2024-01-01T00:00:00Z"}, "INVALID_REQUEST"},
		{"missing username", map[string]any{"start_date": "2024-01-01T00:00:00Z", "end_date": "2024-01-31T00:00:00Z"}, "INVALID_REQUEST"},
		{"unknown user", map[string]any{"username": "mallory", "start_date": "2024-01-01T00:00:00Z", "end_date": "2024-01-31T00:00:00Z"}, "NOT_FOUND"},
		{"unknown notebook", map[string]any{"username": "alice", "start_date": "2024-01-01T00:00:00Z", "end_date": "2024-01-31T00:00:00Z", "notebook": "Nope"}, "NOT_FOUND"},
		{"wrong arg type", map[string]any{"username": 42}, "INVALID_REQUEST"},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			result, _ := h.HandleNotesGet(ctx, makeRequest(tc.args))
			if !result.IsError {
				t.Fatalf("expected error, got %s", extractErrorMessage(result))
			}
			assertErrorCode(t, result, tc.code)
		})
	}
}

func TestHandleNotesTimeline(t *testing.T) {
	h, _ := newTestHandlers(t, map[string]time.Time{
		"small hours": time.Date(2024, 2, 10, 3, 0, 0, 0, time.UTC),
		"monday":      time.Date(2024, 2, 5, 9, 0, 0, 0, time.UTC),
		"last year":   time.Date(2023, 6, 1, 9, 0, 0, 0, time.UTC),
	})
	ctx := context.Background()

	t.Run("utc", func(t *testing.T) {
		result, _ := h.HandleNotesTimeline(ctx, makeRequest(map[string]any{"username": "alice"}))
		output := parseOutput(t, result)

		if output["count"].(float64) != 3 {
			t.Errorf("count = %v, want 3", output["count"])
		}
		tl := output["timeline"].(map[string]any)
		if tl["today_date"] != "2024-02-10" {
			t.Errorf("today_date = %v", tl["today_date"])
		}
		if today := tl["today"].([]any); len(today) != 1 {
			t.Errorf("today = %d notes, want 1", len(today))
		}
		years := tl["years"].([]any)
		if len(years) != 2 {
			t.Fatalf("years = %d, want 2", len(years))
		}
		current := years[0].(map[string]any)
		if current["year"].(float64) != 2024 || current["open"] != true {
			t.Errorf("first year = %v, want open 2024", current)
		}
		if years[1].(map[string]any)["open"] != false {
			t.Error("past year should be closed")
		}
	})

	t.Run("timezone moves the day", func(t *testing.T) {
		result, _ := h.HandleNotesTimeline(ctx, makeRequest(map[string]any{
			"username": "alice",
			"timezone": "America/New_York",
		}))
		output := parseOutput(t, result)
		tl := output["timeline"].(map[string]any)
		if today := tl["today"].([]any); len(today) != 0 {
			t.Errorf("today = %d notes, want 0", len(today))
		}
		if tl["location"] != "America/New_York" {
			t.Errorf("location = %v", tl["location"])
		}
	})

	t.Run("days start closed", func(t *testing.T) {
		result, _ := h.HandleNotesTimeline(ctx, makeRequest(map[string]any{"username": "alice"}))
		output := parseOutput(t, result)
		tl := output["timeline"].(map[string]any)
		month := tl["years"].([]any)[0].(map[string]any)["months"].([]any)[0].(map[string]any)
		week := month["weeks"].([]any)[0].(map[string]any)
		day := week["days"].([]any)[0].(map[string]any)
		if week["open"] != true {
			t.Error("current week should be open")
		}
		if day["key"] != "2024-02-05" || day["open"] != false {
			t.Errorf("day = %v, want closed 2024-02-05", day)
		}
	})

	t.Run("bad timezone", func(t *testing.T) {
		result, _ := h.HandleNotesTimeline(ctx, makeRequest(map[string]any{
			"username": "alice",
			"timezone": "Mars/Olympus",
		}))
		assertErrorCode(t, result, "INVALID_REQUEST")
	})

	t.Run("unknown notebook", func(t *testing.T) {
		result, _ := h.HandleNotesTimeline(ctx, makeRequest(map[string]any{
			"username": "alice",
			"notebook": "Nope",
		}))
		assertErrorCode(t, result, "NOT_FOUND")
	})
}

func TestHandleNotebooksList(t *testing.T) {
	h, acct := newTestHandlers(t, nil)
	ctx := context.Background()

	if _, err := ops.CreateNotebook(ctx, h.db, ops.CreateNotebookInput{UserID: acct.UserID, Name: "Work"}); err != nil {
		t.Fatalf("create notebook: %v", err)
	}

	result, _ := h.HandleNotebooksList(ctx, makeRequest(map[string]any{"username": "alice"}))
	output := parseOutput(t, result)
	items := output["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if name := items[0].(map[string]any)["name"]; name != "Default" {
		t.Errorf("first notebook = %v, want Default", name)
	}

	result, _ = h.HandleNotebooksList(ctx, makeRequest(map[string]any{"username": ""}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleExportImport(t *testing.T) {
	h, acct := newTestHandlers(t, map[string]time.Time{
		"one": time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		"two": time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
	})
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "alice.jsonl")

	result, _ := h.HandleNotesExport(ctx, makeRequest(map[string]any{
		"username": "alice",
		"path":     path,
	}))
	output := parseOutput(t, result)
	if output["count"].(float64) != 2 {
		t.Fatalf("exported %v notes, want 2", output["count"])
	}

	if _, err := ops.CreateNotebook(ctx, h.db, ops.CreateNotebookInput{UserID: acct.UserID, Name: "Copy"}); err != nil {
		t.Fatalf("create notebook: %v", err)
	}
	result, _ = h.HandleNotesImport(ctx, makeRequest(map[string]any{
		"username": "alice",
		"notebook": "Copy",
		"path":     path,
	}))
	output = parseOutput(t, result)
	if output["imported"].(float64) != 2 {
		t.Errorf("imported %v notes, want 2", output["imported"])
	}

	result, _ = h.HandleNotesImport(ctx, makeRequest(map[string]any{
		"username": "alice",
		"path":     filepath.Join(t.TempDir(), "missing.jsonl"),
	}))
	assertErrorCode(t, result, "FILE_NOT_FOUND")

	result, _ = h.HandleNotesExport(ctx, makeRequest(map[string]any{
		"username": "alice",
		"path":     filepath.Join(t.TempDir(), "notes.txt"),
	}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestServerRegistration(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	s := NewServer(database, cfg, "test")
	tools := s.ListTools()
	if tools == nil {
		t.Fatal("expected tools to be registered, got nil")
	}

	expectedTools := []string{
		"notes_get",
		"notes_timeline",
		"notebooks_list",
		"notes_export",
		"notes_import",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}

	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	cfg.DisabledTools = []string{"notes_export", "notes_import", "notes_import"}
	s := NewServer(database, cfg, "test")
	tools := s.ListTools()

	if len(tools) != 3 {
		t.Errorf("registered tool count = %d, want 3", len(tools))
	}
	for _, name := range []string{"notes_export", "notes_import"} {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	cfg.DisabledTools = AllToolNames()
	s := NewServer(database, cfg, "test")
	tools := s.ListTools()

	if len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0 (all disabled)", len(tools))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
	}{
		{"all valid", []string{"notes_get", "notes_import"}, 0},
		{"one unknown", []string{"notes_get", "notes_search"}, 1},
		{"all unknown", []string{"foo", "bar", "baz"}, 3},
		{"empty list", []string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unknown := ValidateDisabledTools(tt.input)
			if len(unknown) != tt.wantLen {
				t.Errorf("ValidateDisabledTools() returned %d unknown, want %d", len(unknown), tt.wantLen)
			}
		})
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != 5 {
		t.Errorf("AllToolNames() returned %d names, want 5", len(names))
	}
	if names[0] != "notebooks_list" {
		t.Errorf("names not sorted: %v", names)
	}
	if unknown := ValidateDisabledTools(names); len(unknown) != 0 {
		t.Errorf("AllToolNames() returned invalid names: %v", unknown)
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(errors.NewInternal(fmt.Errorf("sql error: open /tmp/secret.db: permission denied")))
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}

	text := r.Content[0].(mcp.TextContent).Text
	if strings.Contains(text, "secret.db") {
		t.Fatalf("internal error leaked details: %s", text)
	}
	assertErrorCode(t, r, string(errors.ErrInternal))
}

func TestErrorResult_PlainErrorBecomesInternal(t *testing.T) {
	r := errorResult(fmt.Errorf("boom"))
	assertErrorCode(t, r, string(errors.ErrInternal))
}

func TestErrorResult_WrappedErrorKeepsCode(t *testing.T) {
	r := errorResult(fmt.Errorf("notebook lookup: %w", errors.NewNotFound("notebook", "Work")))

	var payload map[string]any
	if err := json.Unmarshal([]byte(r.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	errObj := payload["error"].(map[string]any)
	if errObj["code"] != string(errors.ErrNotFound) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrNotFound)
	}
	if _, ok := errObj["details"]; !ok {
		t.Fatal("expected non-INTERNAL errors to include details when present")
	}
}

// Helper functions

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	if len(result.Content) == 0 {
		t.Errorf("no content in error result")
		return
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Errorf("content is not TextContent")
		return
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Errorf("failed to unmarshal error payload: %v", err)
		return
	}

	errorObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Errorf("no error object in payload")
		return
	}

	code, ok := errorObj["code"].(string)
	if !ok {
		t.Errorf("no code in error object")
		return
	}

	if code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}

	return text.Text
}
