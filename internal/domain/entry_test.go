package domain

import (
	"errors"
	"testing"
	"time"
)

func TestHours(t *testing.T) {
	tests := []struct {
		name    string
		start   ClockTime
		end     ClockTime
		want    float64
		wantErr bool
	}{
		{name: "two and a half hours", start: NewClockTime(9, 0), end: NewClockTime(11, 30), want: 2.5},
		{name: "quarter hour", start: NewClockTime(13, 45), end: NewClockTime(14, 0), want: 0.25},
		{name: "single minute", start: NewClockTime(8, 0), end: NewClockTime(8, 1), want: 1.0 / 60},
		{name: "until midnight", start: NewClockTime(22, 0), end: NewClockTime(24, 0), want: 2},
		{name: "equal times", start: NewClockTime(10, 0), end: NewClockTime(10, 0), wantErr: true},
		{name: "end before start", start: NewClockTime(15, 0), end: NewClockTime(9, 0), wantErr: true},
		{name: "out of range", start: NewClockTime(9, 0), end: ClockTime(MinutesPerDay + 1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Hours(tt.start, tt.end)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("Hours() error = %v, want validation error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Hours() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Hours() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseClockTime(t *testing.T) {
	got, err := ParseClockTime("9:07")
	if err != nil {
		t.Fatalf("ParseClockTime() unexpected error: %v", err)
	}
	if got.Minutes() != 9*60+7 {
		t.Fatalf("ParseClockTime() = %d, want %d", got.Minutes(), 9*60+7)
	}
	if got.String() != "09:07" {
		t.Fatalf("String() = %q, want %q", got.String(), "09:07")
	}

	for _, bad := range []string{"", "25:00", "24:30", "10:60", "noon"} {
		if _, err := ParseClockTime(bad); err == nil {
			t.Errorf("ParseClockTime(%q) expected error", bad)
		}
	}
}

func TestTimeEntryReschedule(t *testing.T) {
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	entry, err := NewTimeEntry("client-1", day, NewClockTime(9, 0), NewClockTime(11, 30), " Site ", " Build ")
	if err != nil {
		t.Fatalf("NewTimeEntry() unexpected error: %v", err)
	}
	if entry.Hours != 2.5 {
		t.Fatalf("Hours = %v, want 2.5", entry.Hours)
	}
	if entry.LineDescription() != "Site - Build" {
		t.Fatalf("LineDescription() = %q, want %q", entry.LineDescription(), "Site - Build")
	}

	next := day.AddDate(0, 0, 2)
	if err := entry.Reschedule(next, NewClockTime(13, 0), NewClockTime(14, 15)); err != nil {
		t.Fatalf("Reschedule() unexpected error: %v", err)
	}
	if !entry.Date.Equal(next) || entry.Hours != 1.25 {
		t.Fatalf("after Reschedule date=%v hours=%v", entry.Date, entry.Hours)
	}

	if err := entry.Reschedule(next, NewClockTime(14, 0), NewClockTime(13, 0)); err == nil {
		t.Fatalf("Reschedule() with inverted times expected error")
	}
	if entry.Hours != 1.25 {
		t.Fatalf("failed Reschedule mutated hours to %v", entry.Hours)
	}
}
