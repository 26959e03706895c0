package calendar

import (
	"time"

	"github.com/andy/timeledger/internal/domain"
)

// WeekStart returns the Monday of t's week as a calendar day
func WeekStart(t time.Time) time.Time {
	day := domain.TruncateDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// WeekDays returns the seven days starting at start
func WeekDays(start time.Time) []time.Time {
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// BlocksFor places entries into the week's columns. Entries outside the
// week are skipped.
func BlocksFor(days []time.Time, entries []*domain.TimeEntry) []Block {
	index := make(map[time.Time]int, len(days))
	for i, d := range days {
		index[domain.TruncateDay(d)] = i
	}

	blocks := make([]Block, 0, len(entries))
	for _, entry := range entries {
		i, ok := index[domain.TruncateDay(entry.Date)]
		if !ok {
			continue
		}
		blocks = append(blocks, Block{EntryID: entry.ID, DayIndex: i, Start: entry.StartTime, End: entry.EndTime})
	}
	return blocks
}
