package ops

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hpungsan/tracky/internal/config"
	"github.com/hpungsan/tracky/internal/errors"
)

type testEnv struct {
	db   *sql.DB
	cfg  *config.Config
	acct *AccountOutput
	dir  string // allowed export directory
}

func newExportEnv(t *testing.T) testEnv {
	t.Helper()
	database, cfg, acct := newTestEnv(t)
	dir := t.TempDir()
	cfg.AllowedPaths = []string{dir}
	return testEnv{db: database, cfg: cfg, acct: acct, dir: dir}
}

func TestImport_RoundTrip(t *testing.T) {
	env := newExportEnv(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)
	seedNotes(t, env, base, base.Add(time.Hour), base.Add(72*time.Hour))

	path := filepath.Join(env.dir, "roundtrip.jsonl")
	if _, err := Export(ctx, env.db, env.cfg, ExportInput{UserID: env.acct.UserID, NotebookID: env.acct.NotebookID, Path: path}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	target, err := CreateNotebook(ctx, env.db, CreateNotebookInput{UserID: env.acct.UserID, Name: "Restored"})
	if err != nil {
		t.Fatal(err)
	}
	out, err := Import(ctx, env.db, env.cfg, ImportInput{UserID: env.acct.UserID, NotebookID: target.ID, Path: path})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if out.Imported != 3 {
		t.Errorf("Imported = %d, want 3", out.Imported)
	}

	orig, _ := ListNotes(ctx, env.db, ListNotesInput{UserID: env.acct.UserID, NotebookID: env.acct.NotebookID})
	restored, _ := ListNotes(ctx, env.db, ListNotesInput{UserID: env.acct.UserID, NotebookID: target.ID})
	if len(restored.Items) != len(orig.Items) {
		t.Fatalf("restored %d notes, want %d", len(restored.Items), len(orig.Items))
	}
	for i := range orig.Items {
		if restored.Items[i].ID == orig.Items[i].ID {
			t.Errorf("imported note reused id %s", orig.Items[i].ID)
		}
		if !restored.Items[i].CreatedAt.Equal(orig.Items[i].CreatedAt) || restored.Items[i].Content != orig.Items[i].Content {
			t.Errorf("note %d differs: %+v vs %+v", i, restored.Items[i], orig.Items[i])
		}
	}
}

func TestImport_AcceptsSQLiteTimestamps(t *testing.T) {
	env := newExportEnv(t)
	path := filepath.Join(env.dir, "legacy.jsonl")
	content := `{"_tracky_export":true,"schema_version":"1.0"}
{"id":"1","content":"from sqlite","created_at":"2024-02-01 09:15:00"}

{"id":"2","content":"with offset","created_at":"2024-02-01T09:15:00+09:00"}
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	out, err := Import(context.Background(), env.db, env.cfg, ImportInput{UserID: env.acct.UserID, NotebookID: env.acct.NotebookID, Path: path})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if out.Imported != 2 {
		t.Errorf("Imported = %d, want 2", out.Imported)
	}
}

func TestImport_AllOrNothing(t *testing.T) {
	tests := []struct {
		name    string
		content string
		detail  string
	}{
		{"bad timestamp", `{"id":"1","content":"ok","created_at":"2024-02-01T09:00:00Z"}
{"id":"2","content":"bad","created_at":"yesterday"}
`, "note 2"},
		{"bad json", `{"id":"1","content":"ok","created_at":"2024-02-01T09:00:00Z"}
{not json
`, "line 2"},
		{"missing id", `{"content":"no id","created_at":"2024-02-01T09:00:00Z"}
`, "line 1"},
		{"empty content", `{"id":"1","content":"  ","created_at":"2024-02-01T09:00:00Z"}
`, "content is required"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newExportEnv(t)
			ctx := context.Background()
			path := filepath.Join(env.dir, "bad.jsonl")
			if err := os.WriteFile(path, []byte(tc.content), 0600); err != nil {
				t.Fatal(err)
			}

			_, err := Import(ctx, env.db, env.cfg, ImportInput{UserID: env.acct.UserID, NotebookID: env.acct.NotebookID, Path: path})
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Fatalf("Import = %v, want ErrInvalidRequest", err)
			}
			if !strings.Contains(err.Error(), tc.detail) {
				t.Errorf("error %q should mention %q", err, tc.detail)
			}

			list, _ := ListNotes(ctx, env.db, ListNotesInput{UserID: env.acct.UserID})
			if len(list.Items) != 0 {
				t.Errorf("failed import wrote %d notes", len(list.Items))
			}
		})
	}
}

func TestImport_FileNotFound(t *testing.T) {
	env := newExportEnv(t)

	_, err := Import(context.Background(), env.db, env.cfg, ImportInput{
		UserID:     env.acct.UserID,
		NotebookID: env.acct.NotebookID,
		Path:       filepath.Join(env.dir, "missing.jsonl"),
	})
	if !errors.Is(err, errors.ErrFileNotFound) {
		t.Errorf("Import = %v, want ErrFileNotFound", err)
	}
}
