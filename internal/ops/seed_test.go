package ops

import (
	"context"
	"testing"
	"time"

	"github.com/hpungsan/tracky/internal/calendar"
	"github.com/hpungsan/tracky/internal/errors"
)

func TestSeed_SpreadsOverPastDays(t *testing.T) {
	database, _, acct := newTestEnv(t)
	ctx := context.Background()
	loc := time.FixedZone("UTC+9", 9*3600)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, loc)

	out, err := Seed(ctx, database, SeedInput{
		UserID:     acct.UserID,
		NotebookID: acct.NotebookID,
		Days:       30,
		MaxPerDay:  3,
		Now:        now,
		Location:   loc,
		Seed:       42,
	})
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if out.Inserted > 90 {
		t.Errorf("Inserted = %d, want at most 30*3", out.Inserted)
	}

	list, err := ListNotes(ctx, database, ListNotesInput{UserID: acct.UserID})
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Items) != out.Inserted {
		t.Fatalf("stored %d notes, reported %d", len(list.Items), out.Inserted)
	}

	today := calendar.DayStart(now, loc)
	oldest := today.AddDays(-30)
	for _, n := range list.Items {
		day := calendar.DayStart(n.CreatedAt, loc)
		if !day.Before(today) || day.Before(oldest) {
			t.Errorf("note on %s outside [%s, %s)", day, oldest, today)
		}
		if h := n.CreatedAt.In(loc).Hour(); h < 8 || h > 21 {
			t.Errorf("note at hour %d outside 8..21", h)
		}
	}
}

func TestSeed_Deterministic(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	counts := make([]int, 2)
	for i := range counts {
		database, _, acct := newTestEnv(t)
		out, err := Seed(context.Background(), database, SeedInput{
			UserID: acct.UserID, NotebookID: acct.NotebookID, Days: 10, Now: now, Seed: 7,
		})
		if err != nil {
			t.Fatal(err)
		}
		counts[i] = out.Inserted
	}
	if counts[0] != counts[1] {
		t.Errorf("same seed gave %d and %d notes", counts[0], counts[1])
	}
}

func TestSeed_Invalid(t *testing.T) {
	database, _, acct := newTestEnv(t)
	ctx := context.Background()

	if _, err := Seed(ctx, database, SeedInput{UserID: acct.UserID, NotebookID: acct.NotebookID, Days: -1}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("negative days = %v", err)
	}
	if _, err := Seed(ctx, database, SeedInput{UserID: acct.UserID, NotebookID: "nope"}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("unknown notebook = %v", err)
	}
}
