package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/tracky/internal/auth"
	"github.com/hpungsan/tracky/internal/calendar"
	"github.com/hpungsan/tracky/internal/config"
	"github.com/hpungsan/tracky/internal/errors"
	"github.com/hpungsan/tracky/internal/expansion"
	"github.com/hpungsan/tracky/internal/mcp"
	"github.com/hpungsan/tracky/internal/note"
	"github.com/hpungsan/tracky/internal/ops"
	"github.com/hpungsan/tracky/internal/timeline"
	"github.com/hpungsan/tracky/internal/web"
)

// maxStdinBytes bounds note content read from stdin.
const maxStdinBytes = 1 << 20

func userFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "user",
		Aliases:  []string{"u"},
		EnvVars:  []string{"TRACKY_USER"},
		Required: true,
		Usage:    "Username to act as",
	}
}

func notebookFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "notebook",
		Aliases: []string{"n"},
		Usage:   "Notebook id or name (default: the user's first notebook)",
	}
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config, logger *slog.Logger) *cli.App {
	app := &cli.App{
		Name:    "tracky",
		Usage:   "Notes grouped by year, month, week and day",
		Version: Version,
		Commands: []*cli.Command{
			serveCmd(db, cfg, logger),
			mcpCmd(db, cfg),
			userCmd(db),
			notebookCmd(db),
			noteCmd(db, cfg),
			timelineCmd(db, cfg),
			exportCmd(db, cfg),
			importCmd(db, cfg),
			seedCmd(db, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// serveCmd creates the serve command.
func serveCmd(db *sql.DB, cfg *config.Config, logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web UI and JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Address to bind (default from config, 127.0.0.1)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port to listen on (default from config, 8080)"},
		},
		Action: func(c *cli.Context) error {
			if c.IsSet("bind") {
				cfg.Bind = c.String("bind")
			}
			if c.IsSet("port") {
				cfg.Port = c.Int("port")
			}
			if _, err := cfg.Location(); err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}

			sessions := auth.NewSessions(cfg.SessionTTL())
			srv := web.NewServer(db, cfg, sessions, logger, Version)
			if err := web.Run(srv); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdio",
		Action: func(c *cli.Context) error {
			if err := mcp.Run(db, cfg, Version); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// userCmd creates the user command group.
func userCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage accounts",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create an account with a Default notebook",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true, Usage: "Letters and digits, 3-64 characters"},
					&cli.StringFlag{Name: "password", EnvVars: []string{"TRACKY_PASSWORD"}, Required: true, Usage: "6-72 characters"},
				},
				Action: func(c *cli.Context) error {
					output, err := ops.Signup(c.Context, db, ops.SignupInput{
						Username: c.String("username"),
						Password: c.String("password"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c.App.Writer, output)
				},
			},
		},
	}
}

// notebookCmd creates the notebook command group.
func notebookCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "notebook",
		Usage: "Manage notebooks",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List notebooks, oldest first",
				Flags: []cli.Flag{userFlag()},
				Action: func(c *cli.Context) error {
					u, err := lookupUser(c, db)
					if err != nil {
						return outputError(err)
					}
					output, err := ops.ListNotebooks(c.Context, db, u.ID)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c.App.Writer, output)
				},
			},
			{
				Name:      "create",
				Usage:     "Create a notebook",
				ArgsUsage: "<name>",
				Flags:     []cli.Flag{userFlag()},
				Action: func(c *cli.Context) error {
					u, err := lookupUser(c, db)
					if err != nil {
						return outputError(err)
					}
					output, err := ops.CreateNotebook(c.Context, db, ops.CreateNotebookInput{
						UserID: u.ID,
						Name:   strings.Join(c.Args().Slice(), " "),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c.App.Writer, output)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a notebook and all of its notes",
				ArgsUsage: "<id|name>",
				Flags:     []cli.Flag{userFlag()},
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return outputError(errors.NewInvalidRequest("notebook id or name is required"))
					}
					u, err := lookupUser(c, db)
					if err != nil {
						return outputError(err)
					}
					nb, err := ops.ResolveNotebook(c.Context, db, u.ID, c.Args().First())
					if err != nil {
						return outputError(err)
					}
					output, err := ops.DeleteNotebook(c.Context, db, u.ID, nb.ID)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c.App.Writer, output)
				},
			},
		},
	}
}

// noteCmd creates the note command group.
func noteCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "note",
		Usage: "Manage notes",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a note (text from arguments or stdin)",
				ArgsUsage: "[text...]",
				Flags: []cli.Flag{
					userFlag(),
					notebookFlag(),
					&cli.StringFlag{Name: "at", Usage: "Creation time (RFC3339); defaults to now"},
				},
				Action: func(c *cli.Context) error {
					u, nb, err := resolveNotebook(c, db)
					if err != nil {
						return outputError(err)
					}
					content, err := readContent(c, c.Args().Slice())
					if err != nil {
						return outputError(err)
					}
					at, err := parseTimeFlag(c, "at")
					if err != nil {
						return outputError(err)
					}
					output, err := ops.CreateNote(c.Context, db, cfg, ops.CreateNoteInput{
						UserID:     u.ID,
						NotebookID: nb.ID,
						Content:    content,
						CreatedAt:  at,
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c.App.Writer, output)
				},
			},
			{
				Name:  "list",
				Usage: "List notes, newest first",
				Flags: []cli.Flag{
					userFlag(),
					&cli.StringFlag{Name: "notebook", Aliases: []string{"n"}, Usage: "Notebook id or name (default: all notebooks)"},
					&cli.StringFlag{Name: "start", Usage: "Only notes at or after this time (RFC3339)"},
					&cli.StringFlag{Name: "end", Usage: "Only notes at or before this time (RFC3339)"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum results"},
				},
				Action: func(c *cli.Context) error {
					u, err := lookupUser(c, db)
					if err != nil {
						return outputError(err)
					}
					input := ops.ListNotesInput{UserID: u.ID, Limit: c.Int("limit")}
					if ref := c.String("notebook"); ref != "" {
						nb, err := ops.ResolveNotebook(c.Context, db, u.ID, ref)
						if err != nil {
							return outputError(err)
						}
						input.NotebookID = nb.ID
					}
					if input.Start, err = parseTimeFlag(c, "start"); err != nil {
						return outputError(err)
					}
					if input.End, err = parseTimeFlag(c, "end"); err != nil {
						return outputError(err)
					}
					output, err := ops.ListNotes(c.Context, db, input)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c.App.Writer, output)
				},
			},
			{
				Name:      "edit",
				Usage:     "Replace a note's text (from arguments or stdin)",
				ArgsUsage: "<id> [text...]",
				Flags:     []cli.Flag{userFlag()},
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return outputError(errors.NewInvalidRequest("note id is required"))
					}
					u, err := lookupUser(c, db)
					if err != nil {
						return outputError(err)
					}
					content, err := readContent(c, c.Args().Tail())
					if err != nil {
						return outputError(err)
					}
					output, err := ops.UpdateNote(c.Context, db, cfg, ops.UpdateNoteInput{
						UserID:  u.ID,
						ID:      c.Args().First(),
						Content: content,
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c.App.Writer, output)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a note",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{userFlag()},
				Action: func(c *cli.Context) error {
					u, err := lookupUser(c, db)
					if err != nil {
						return outputError(err)
					}
					output, err := ops.DeleteNote(c.Context, db, u.ID, c.Args().First())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c.App.Writer, output)
				},
			},
		},
	}
}

// timelineCmd creates the timeline command.
func timelineCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "timeline",
		Usage: "Print a notebook as a Today list plus a year/month/week/day outline",
		Flags: []cli.Flag{
			userFlag(),
			notebookFlag(),
			&cli.StringFlag{Name: "tz", Usage: "IANA time zone for day boundaries (default from config)"},
			&cli.StringFlag{Name: "now", Usage: "Reference time (RFC3339); defaults to the current time"},
			&cli.StringSliceFlag{Name: "expand", Aliases: []string{"e"}, Usage: "Day to expand (YYYY-MM-DD); repeatable"},
			&cli.BoolFlag{Name: "all", Usage: "Expand every day"},
			&cli.BoolFlag{Name: "json", Usage: "Print the hierarchy as JSON"},
		},
		Action: func(c *cli.Context) error {
			u, nb, err := resolveNotebook(c, db)
			if err != nil {
				return outputError(err)
			}
			loc, err := locationFlag(c, cfg)
			if err != nil {
				return outputError(err)
			}
			now, err := parseTimeFlag(c, "now")
			if err != nil {
				return outputError(err)
			}

			state := expansion.New()
			for _, key := range c.StringSlice("expand") {
				d, err := calendar.ParseDayKey(key)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				state.OnDayToggled(d.Key(), true)
			}

			tl, err := ops.Timeline(c.Context, db, ops.TimelineInput{
				UserID:     u.ID,
				NotebookID: nb.ID,
				Now:        now,
				Location:   loc,
				State:      state,
			})
			if err != nil {
				return outputError(err)
			}
			if c.Bool("all") {
				tl.Walk(func(d *timeline.DayNode) { d.Open = true })
			}

			if c.Bool("json") {
				return outputJSON(c.App.Writer, tl)
			}
			printTimeline(c.App.Writer, nb, tl, loc)
			return nil
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a notebook to JSONL",
		Flags: []cli.Flag{
			userFlag(),
			notebookFlag(),
			&cli.StringFlag{Name: "path", Usage: "Output file path (default: ~/.tracky/exports/<notebook>-<timestamp>.jsonl)"},
		},
		Action: func(c *cli.Context) error {
			u, nb, err := resolveNotebook(c, db)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.Export(c.Context, db, cfg, ops.ExportInput{
				UserID:     u.ID,
				NotebookID: nb.ID,
				Path:       c.String("path"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// importCmd creates the import command.
func importCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import notes from a JSONL export into a notebook",
		Flags: []cli.Flag{
			userFlag(),
			notebookFlag(),
			&cli.StringFlag{Name: "path", Required: true, Usage: "Input file path"},
		},
		Action: func(c *cli.Context) error {
			u, nb, err := resolveNotebook(c, db)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.Import(c.Context, db, cfg, ops.ImportInput{
				UserID:     u.ID,
				NotebookID: nb.ID,
				Path:       c.String("path"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// seedCmd creates the seed command.
func seedCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Fill a notebook with sample notes over past days",
		Flags: []cli.Flag{
			userFlag(),
			notebookFlag(),
			&cli.IntFlag{Name: "days", Value: ops.DefaultSeedDays, Usage: "How many days back to cover"},
			&cli.IntFlag{Name: "max-per-day", Value: ops.DefaultSeedMaxPerDay, Usage: "Up to this many notes per day"},
			&cli.Uint64Flag{Name: "seed", Usage: "Random seed for repeatable output (0 = random)"},
			&cli.StringFlag{Name: "tz", Usage: "IANA time zone for the daytime window (default from config)"},
		},
		Action: func(c *cli.Context) error {
			u, nb, err := resolveNotebook(c, db)
			if err != nil {
				return outputError(err)
			}
			loc, err := locationFlag(c, cfg)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.Seed(c.Context, db, ops.SeedInput{
				UserID:     u.ID,
				NotebookID: nb.ID,
				Days:       c.Int("days"),
				MaxPerDay:  c.Int("max-per-day"),
				Location:   loc,
				Seed:       c.Uint64("seed"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// Helper functions

func lookupUser(c *cli.Context, db *sql.DB) (*note.User, error) {
	return ops.LookupUser(c.Context, db, c.String("user"))
}

func resolveNotebook(c *cli.Context, db *sql.DB) (*note.User, *note.Notebook, error) {
	u, err := lookupUser(c, db)
	if err != nil {
		return nil, nil, err
	}
	nb, err := ops.ResolveNotebook(c.Context, db, u.ID, c.String("notebook"))
	if err != nil {
		return nil, nil, err
	}
	return u, nb, nil
}

// locationFlag resolves --tz, falling back to the configured zone.
func locationFlag(c *cli.Context, cfg *config.Config) (*time.Location, error) {
	if tz := c.String("tz"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown time zone %q", tz))
		}
		return loc, nil
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	return loc, nil
}

// parseTimeFlag reads an optional RFC3339 flag; unset yields the zero time.
func parseTimeFlag(c *cli.Context, name string) (time.Time, error) {
	v := c.String(name)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, errors.NewInvalidRequest(fmt.Sprintf("--%s must be RFC3339, e.g. 2024-02-10T09:00:00Z", name))
	}
	return t, nil
}

// readContent joins args into note text. With no args it reads the app's
// stdin, if anything is piped.
func readContent(c *cli.Context, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if c.App.Reader == os.Stdin && !stdinHasData() {
		return "", errors.NewInvalidRequest("note text is required (pass it as arguments or pipe it via stdin)")
	}
	text, err := readLimited(c.App.Reader, maxStdinBytes)
	if err != nil {
		return "", err
	}
	return text, nil
}

// outputJSON marshals result to w as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	tErr := errors.As(err)
	return cli.Exit(fmt.Sprintf("[%s] %s", tErr.Code, tErr.Message), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readLimited reads at most limit bytes from r, failing if there is more.
func readLimited(r io.Reader, limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if int64(len(data)) > limit {
		return "", errors.NewInvalidRequest(fmt.Sprintf("input exceeds %d bytes", limit))
	}
	return strings.TrimSpace(string(data)), nil
}
