package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hpungsan/tracky/internal/note"
	"github.com/hpungsan/tracky/internal/timeline"
)

// printTimeline writes tl as an indented outline. Open nodes are marked
// "-" and list their children; closed nodes are marked "+" and show only a
// note count.
func printTimeline(w io.Writer, nb *note.Notebook, tl *timeline.Timeline, loc *time.Location) {
	fmt.Fprintf(w, "%s (%s)\n\n", nb.Name, tl.Location)

	fmt.Fprintf(w, "Today, %s\n", tl.Date.In(time.UTC).Format("Monday, Jan 2 2006"))
	if len(tl.Today) == 0 {
		fmt.Fprintln(w, "  (no notes yet)")
	}
	for _, n := range tl.Today {
		printNote(w, 1, n, loc)
	}

	for _, y := range tl.Years {
		fmt.Fprintln(w)
		printNode(w, 0, y.Open, fmt.Sprint(y.Year), yearCount(y))
		if !y.Open {
			continue
		}
		for _, m := range y.Months {
			printNode(w, 1, m.Open, m.Name(), monthCount(m))
			if !m.Open {
				continue
			}
			for _, wk := range m.Weeks {
				printNode(w, 2, wk.Open, fmt.Sprintf("Week of %s (W%02d)", wk.Monday.In(time.UTC).Format("Jan 2"), wk.ISOWeek), weekCount(wk))
				if !wk.Open {
					continue
				}
				for _, d := range wk.Days {
					printNode(w, 3, d.Open, d.Date.In(time.UTC).Format("Monday, Jan 2"), len(d.Notes))
					if !d.Open {
						continue
					}
					for _, n := range d.Notes {
						printNote(w, 4, n, loc)
					}
				}
			}
		}
	}
}

func printNode(w io.Writer, depth int, open bool, label string, count int) {
	marker := "+"
	if open {
		marker = "-"
	}
	fmt.Fprintf(w, "%s%s %s (%s)\n", strings.Repeat("  ", depth), marker, label, plural(count, "note"))
}

// printNote prints the first line of a note with its local clock time.
func printNote(w io.Writer, depth int, n note.Note, loc *time.Location) {
	first, _, more := strings.Cut(strings.TrimSpace(n.Content), "\n")
	if more {
		first += " ..."
	}
	fmt.Fprintf(w, "%s%s  %s\n", strings.Repeat("  ", depth), n.CreatedAt.In(loc).Format("15:04"), first)
}

func yearCount(y *timeline.YearNode) int {
	total := 0
	for _, m := range y.Months {
		total += monthCount(m)
	}
	return total
}

func monthCount(m *timeline.MonthNode) int {
	total := 0
	for _, wk := range m.Weeks {
		total += weekCount(wk)
	}
	return total
}

func weekCount(wk *timeline.WeekNode) int {
	total := 0
	for _, d := range wk.Days {
		total += len(d.Notes)
	}
	return total
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
