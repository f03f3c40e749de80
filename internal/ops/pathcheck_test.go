package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hpungsan/tracky/internal/config"
	"github.com/hpungsan/tracky/internal/errors"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("{}\n"), 0600); err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
}

func TestValidatePath_Rejected(t *testing.T) {
	allowedDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{allowedDir}

	sub := filepath.Join(allowedDir, "sub")
	if err := os.MkdirAll(sub, 0700); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"empty", ""},
		{"parent traversal", "../backup.jsonl"},
		{"mid-path traversal", "/tmp/../etc/backup.jsonl"},
		{"no extension", filepath.Join(allowedDir, "backup")},
		{"wrong extension", filepath.Join(allowedDir, "backup.json")},
		{"outside allowed dirs", filepath.Join(t.TempDir(), "backup.jsonl")},
		{"nested subdirectory", filepath.Join(sub, "backup.jsonl")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePath(tc.path, PathCheckWrite, cfg)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("ValidatePath(%q) = %v, want ErrInvalidRequest", tc.path, err)
			}
		})
	}
}

func TestValidatePath_AllowedPaths(t *testing.T) {
	allowedDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{allowedDir}

	existing := filepath.Join(allowedDir, "notes.jsonl")
	writeFile(t, existing)

	if err := ValidatePath(existing, PathCheckRead, cfg); err != nil {
		t.Errorf("read in allowed dir: %v", err)
	}
	if err := ValidatePath(filepath.Join(allowedDir, "new.jsonl"), PathCheckWrite, cfg); err != nil {
		t.Errorf("write in allowed dir: %v", err)
	}
}

func TestValidatePath_AllowUnsafePaths(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true

	nested := filepath.Join(tmpDir, "a", "b")
	if err := os.MkdirAll(nested, 0700); err != nil {
		t.Fatal(err)
	}
	if err := ValidatePath(filepath.Join(nested, "out.jsonl"), PathCheckWrite, cfg); err != nil {
		t.Errorf("expected success with AllowUnsafePaths=true, got: %v", err)
	}

	// Extension and traversal rules still apply.
	if err := ValidatePath(filepath.Join(tmpDir, "out.txt"), PathCheckWrite, cfg); err == nil {
		t.Error("expected extension error even with AllowUnsafePaths")
	}
}

func TestValidatePath_FileNotFound_ReadMode(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true

	err := ValidatePath(filepath.Join(t.TempDir(), "missing.jsonl"), PathCheckRead, cfg)
	if !errors.Is(err, errors.ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got: %v", err)
	}
}

func TestValidatePath_SymlinkRejected(t *testing.T) {
	for _, unsafe := range []bool{false, true} {
		allowedDir := t.TempDir()
		cfg := config.DefaultConfig()
		cfg.AllowedPaths = []string{allowedDir}
		cfg.AllowUnsafePaths = unsafe

		target := filepath.Join(t.TempDir(), "secret.jsonl")
		writeFile(t, target)
		link := filepath.Join(allowedDir, "link.jsonl")
		if err := os.Symlink(target, link); err != nil {
			t.Skipf("cannot create symlink: %v", err)
		}

		for _, mode := range []PathCheckMode{PathCheckRead, PathCheckWrite} {
			err := ValidatePath(link, mode, cfg)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("unsafe=%v mode=%d: expected ErrInvalidRequest for symlink, got: %v", unsafe, mode, err)
			}
		}
	}
}

func TestContainsTraversal(t *testing.T) {
	tests := []struct {
		path     string
		contains bool
	}{
		{"/home/user/file.jsonl", false},
		{"../file.jsonl", true},
		{"/home/../etc/passwd", true},
		{"./file.jsonl", false},
		{"/home/user/.hidden/file.jsonl", false},
		{"file..name.jsonl", false},
		{"a/b/../c.jsonl", true},
	}

	for _, tc := range tests {
		if got := containsTraversal(tc.path); got != tc.contains {
			t.Errorf("containsTraversal(%q) = %v, want %v", tc.path, got, tc.contains)
		}
	}
}

func TestSanitizeForFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Default", "Default"},
		{"Work Log", "Work-Log"},
		{"path/to/file", "path-to-file"},
		{"path\\to\\file", "path-to-file"},
		{"foo..bar", "foo-bar"},
		{"../../../etc/passwd", "etc-passwd"},
		{"foo\x00bar", "foobar"},
		{"../../..", "unnamed"},
		{"///", "unnamed"},
		{"日記", "日記"},
		{"a---b", "a-b"},
		{".hidden", "hidden"},
	}

	for _, tc := range tests {
		if got := SanitizeForFilename(tc.input); got != tc.expected {
			t.Errorf("SanitizeForFilename(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}
