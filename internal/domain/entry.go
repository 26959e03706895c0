package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ClockTime is a wall-clock time of day at minute resolution, stored as
// minutes since midnight. 24:00 is allowed as an end-of-day bound.
type ClockTime int

const (
	MinutesPerDay = 24 * 60
	clockLayout   = "%02d:%02d"
)

// NewClockTime builds a ClockTime from hour and minute
func NewClockTime(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ParseClockTime parses "HH:MM" (or "H:MM")
func ParseClockTime(s string) (ClockTime, error) {
	var h, m int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &h, &m); err != nil {
		return 0, NewValidationError("time", "expected HH:MM, got %q", s)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, NewValidationError("time", "out of range: %q", s)
	}
	return NewClockTime(h, m), nil
}

// Minutes returns minutes since midnight
func (c ClockTime) Minutes() int {
	return int(c)
}

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }

// String formats as HH:MM
func (c ClockTime) String() string {
	return fmt.Sprintf(clockLayout, c.Hour(), c.Minute())
}

// Valid reports whether c is within [00:00, 24:00]
func (c ClockTime) Valid() bool {
	return c >= 0 && c <= MinutesPerDay
}

// Hours returns the billable hours between start and end on the same day.
// A non-positive span is rejected.
func Hours(start, end ClockTime) (float64, error) {
	if !start.Valid() || !end.Valid() {
		return 0, NewValidationError("time", "times must be between 00:00 and 24:00")
	}
	diff := end.Minutes() - start.Minutes()
	if diff <= 0 {
		return 0, NewValidationError("end_time", "end time %s must be after start time %s", end, start)
	}
	return float64(diff) / 60, nil
}

type TimeEntry struct {
	ID          string
	Date        time.Time // calendar day, midnight UTC
	StartTime   ClockTime
	EndTime     ClockTime
	ClientID    string
	Project     string
	Description string
	Hours       float64 // derived from StartTime/EndTime
	InvoiceID   *string // nil = uninvoiced, non-nil = locked
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTimeEntry creates a new time entry with hours derived from the times
func NewTimeEntry(clientID string, date time.Time, start, end ClockTime, project, description string) (*TimeEntry, error) {
	hours, err := Hours(start, end)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &TimeEntry{
		ID:          uuid.NewString(),
		Date:        TruncateDay(date),
		StartTime:   start,
		EndTime:     end,
		ClientID:    clientID,
		Project:     strings.TrimSpace(project),
		Description: strings.TrimSpace(description),
		Hours:       hours,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Reschedule moves the entry to a new day and time span, recomputing hours
func (e *TimeEntry) Reschedule(date time.Time, start, end ClockTime) error {
	hours, err := Hours(start, end)
	if err != nil {
		return err
	}
	e.Date = TruncateDay(date)
	e.StartTime = start
	e.EndTime = end
	e.Hours = hours
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// DurationMinutes returns end - start in minutes
func (e *TimeEntry) DurationMinutes() int {
	return e.EndTime.Minutes() - e.StartTime.Minutes()
}

// LineDescription is the text used on an invoice line item
func (e *TimeEntry) LineDescription() string {
	return fmt.Sprintf("%s - %s", e.Project, e.Description)
}

// IsLocked returns true if the entry is attached to an invoice
func (e *TimeEntry) IsLocked() bool {
	return e.InvoiceID != nil
}

// Validate returns an error if the entry is invalid
func (e *TimeEntry) Validate() error {
	if strings.TrimSpace(e.ClientID) == "" {
		return NewValidationError("client_id", "client is required")
	}
	if e.Date.IsZero() {
		return NewValidationError("date", "date is required")
	}
	hours, err := Hours(e.StartTime, e.EndTime)
	if err != nil {
		return err
	}
	e.Hours = hours
	return nil
}

// TruncateDay strips the time-of-day, keeping the calendar date in UTC
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, NewValidationError("date", "expected YYYY-MM-DD, got %q", s)
	}
	return t, nil
}
