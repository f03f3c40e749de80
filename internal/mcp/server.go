package mcp

import (
	"database/sql"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/tracky/internal/config"
)

var notesGetToolDef = mcp.NewTool("notes_get",
	mcp.WithDescription("Retrieve a user's notes within a time range, newest first."),
	mcp.WithString("username", mcp.Required(), mcp.Description("The username to fetch notes for")),
	mcp.WithString("start_date", mcp.Required(), mcp.Description("Start of the time range (RFC3339), e.g. 2023-01-01T00:00:00Z")),
	mcp.WithString("end_date", mcp.Required(), mcp.Description("End of the time range (RFC3339), e.g. 2023-12-31T23:59:59Z")),
	mcp.WithString("notebook", mcp.Description("Notebook id or name; omit to search all notebooks")),
	mcp.WithIdempotentHintAnnotation(true),
	mcp.WithDestructiveHintAnnotation(false),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithOpenWorldHintAnnotation(false),
)

var notesTimelineToolDef = mcp.NewTool("notes_timeline",
	mcp.WithDescription("Group a notebook's notes into Today plus a year/month/week/day hierarchy."),
	mcp.WithString("username", mcp.Required(), mcp.Description("The username that owns the notebook")),
	mcp.WithString("notebook", mcp.Description("Notebook id or name; omit for the user's first notebook")),
	mcp.WithString("timezone", mcp.Description("IANA time zone for day boundaries, e.g. America/New_York; defaults to the configured zone")),
	mcp.WithIdempotentHintAnnotation(true),
	mcp.WithDestructiveHintAnnotation(false),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithOpenWorldHintAnnotation(false),
)

var notebooksListToolDef = mcp.NewTool("notebooks_list",
	mcp.WithDescription("List a user's notebooks, oldest first."),
	mcp.WithString("username", mcp.Required(), mcp.Description("The username to list notebooks for")),
	mcp.WithIdempotentHintAnnotation(true),
	mcp.WithDestructiveHintAnnotation(false),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithOpenWorldHintAnnotation(false),
)

var notesExportToolDef = mcp.NewTool("notes_export",
	mcp.WithDescription("Export a notebook's notes to a JSONL file under ~/.tracky/exports."),
	mcp.WithString("username", mcp.Required(), mcp.Description("The username that owns the notebook")),
	mcp.WithString("notebook", mcp.Description("Notebook id or name; omit for the user's first notebook")),
	mcp.WithString("path", mcp.Description("Destination .jsonl path; defaults to ~/.tracky/exports/<notebook>-<timestamp>.jsonl")),
	mcp.WithDestructiveHintAnnotation(false),
	mcp.WithOpenWorldHintAnnotation(false),
)

var notesImportToolDef = mcp.NewTool("notes_import",
	mcp.WithDescription("Import notes from a JSONL export into a notebook. Nothing is written if any line is invalid."),
	mcp.WithString("username", mcp.Required(), mcp.Description("The username that owns the notebook")),
	mcp.WithString("notebook", mcp.Description("Notebook id or name; omit for the user's first notebook")),
	mcp.WithString("path", mcp.Required(), mcp.Description("Source .jsonl path")),
	mcp.WithDestructiveHintAnnotation(false),
	mcp.WithOpenWorldHintAnnotation(false),
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"notes_get": {
		def:     notesGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNotesGet },
	},
	"notes_timeline": {
		def:     notesTimelineToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNotesTimeline },
	},
	"notebooks_list": {
		def:     notebooksListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNotebooksList },
	},
	"notes_export": {
		def:     notesExportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNotesExport },
	},
	"notes_import": {
		def:     notesImportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNotesImport },
	},
}

// AllToolNames returns all valid tool names, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with Tracky tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(db *sql.DB, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"tracky",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db, cfg)

	disabled := make(map[string]bool, len(cfg.DisabledTools))
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	// Register tools (skip disabled)
	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(db *sql.DB, cfg *config.Config, version string) error {
	s := NewServer(db, cfg, version)
	return server.ServeStdio(s)
}
