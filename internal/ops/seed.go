package ops

import (
	"context"
	"database/sql"
	"math/rand/v2"
	"time"

	"github.com/hpungsan/tracky/internal/db"
	"github.com/hpungsan/tracky/internal/errors"
	"github.com/hpungsan/tracky/internal/note"
)

// Seeding defaults
const (
	DefaultSeedDays      = 365
	DefaultSeedMaxPerDay = 3
)

var sampleNotes = []string{
	"Had a productive morning meeting",
	"Finished the quarterly report",
	"Reviewed pull requests",
	"Fixed a critical bug in production",
	"Standup notes: discussed blockers",
	"Lunch with the team",
	"Brainstormed new feature ideas",
	"Updated documentation",
	"Deployed new version to staging",
	"Code review session",
	"Worked on performance optimization",
	"Customer feedback review",
	"Sprint planning completed",
	"Refactored authentication module",
	"Database migration successful",
	"Added unit tests for new feature",
	"Attended product demo",
	"Fixed UI alignment issues",
	"Researched new technologies",
	"Weekly sync with stakeholders",
}

// SeedInput contains parameters for the Seed operation.
type SeedInput struct {
	UserID     string
	NotebookID string
	Days       int            // how far back to go; default 365
	MaxPerDay  int            // 0..MaxPerDay notes per day; default 3
	Now        time.Time      // zero means the current time
	Location   *time.Location // wall clock for the 8:00-22:00 window; nil means UTC
	Seed       uint64         // 0 picks a random seed
}

// SeedOutput reports how many notes were written.
type SeedOutput struct {
	Inserted int `json:"inserted"`
}

// Seed fills a notebook with sample notes spread over past days,
// each at a random minute between 8:00 and 22:00 local time.
func Seed(ctx context.Context, database *sql.DB, input SeedInput) (*SeedOutput, error) {
	if input.Days == 0 {
		input.Days = DefaultSeedDays
	}
	if input.MaxPerDay == 0 {
		input.MaxPerDay = DefaultSeedMaxPerDay
	}
	if input.Days < 0 || input.MaxPerDay < 0 {
		return nil, errors.NewInvalidRequest("days and max_per_day must not be negative")
	}
	if input.Location == nil {
		input.Location = time.UTC
	}
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}
	seed := input.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	if _, err := db.GetNotebook(ctx, database, input.UserID, input.NotebookID); err != nil {
		return nil, err
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback()

	local := now.In(input.Location)
	inserted := 0
	for offset := input.Days; offset >= 1; offset-- {
		day := local.AddDate(0, 0, -offset)
		count := rng.IntN(input.MaxPerDay + 1)
		for i := 0; i < count; i++ {
			at := time.Date(day.Year(), day.Month(), day.Day(), 8+rng.IntN(14), rng.IntN(60), 0, 0, input.Location)
			at = nowOr(at)

			id, err := generateULID(at)
			if err != nil {
				return nil, errors.NewInternal(err)
			}
			n := &note.Note{
				ID:         id,
				UserID:     input.UserID,
				NotebookID: input.NotebookID,
				Content:    sampleNotes[rng.IntN(len(sampleNotes))],
				CreatedAt:  at,
				UpdatedAt:  at,
			}
			if err := db.InsertNote(ctx, tx, n); err != nil {
				return nil, err
			}
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return &SeedOutput{Inserted: inserted}, nil
}
