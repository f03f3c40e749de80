package ops

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/hpungsan/tracky/internal/config"
	"github.com/hpungsan/tracky/internal/db"
	"github.com/hpungsan/tracky/internal/errors"
)

// newTestEnv opens a fresh database and signs up one user.
func newTestEnv(t *testing.T) (*sql.DB, *config.Config, *AccountOutput) {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	acct, err := Signup(context.Background(), database, SignupInput{Username: "alice", Password: "secret123"})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	return database, config.DefaultConfig(), acct
}

func TestValidateInput_Messages(t *testing.T) {
	tests := []struct {
		name  string
		input SignupInput
		want  string
	}{
		{"missing username", SignupInput{Password: "secret123"}, "username is required"},
		{"short username", SignupInput{Username: "al", Password: "secret123"}, "username must be at least 3 characters"},
		{"non alphanumeric", SignupInput{Username: "al ice", Password: "secret123"}, "username must contain only letters and digits"},
		{"short password", SignupInput{Username: "alice", Password: "123"}, "password must be at least 6 characters"},
		{"long password", SignupInput{Username: "alice", Password: strings.Repeat("p", 73)}, "password must be at most 72 characters"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateInput(tc.input)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Fatalf("validateInput() = %v, want ErrInvalidRequest", err)
			}
			if got := errors.As(err).Message; got != tc.want {
				t.Errorf("message = %q, want %q", got, tc.want)
			}
		})
	}

	if err := validateInput(SignupInput{Username: "alice", Password: "secret123"}); err != nil {
		t.Errorf("valid input rejected: %v", err)
	}
}

func TestGenerateULID_SortsWithinMillisecond(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	prev := ""
	for i := 0; i < 100; i++ {
		id, err := generateULID(at)
		if err != nil {
			t.Fatalf("generateULID failed: %v", err)
		}
		if id <= prev {
			t.Fatalf("ULID %s not after %s", id, prev)
		}
		prev = id
	}
}

func TestNowOr(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 123_456_789, time.FixedZone("X", 3600))
	got := nowOr(at)
	if got.Location() != time.UTC || got.Nanosecond() != 123_000_000 || !got.Equal(at.Truncate(time.Millisecond)) {
		t.Errorf("nowOr(%v) = %v", at, got)
	}
	if nowOr(time.Time{}).IsZero() {
		t.Error("nowOr(zero) should be the current time")
	}
}
