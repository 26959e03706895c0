package domain

import (
	"math"
	"strings"
	"time"
)

type TimerState string

const (
	TimerStateIdle    TimerState = "idle"
	TimerStateRunning TimerState = "running"
	TimerStatePaused  TimerState = "paused"
)

// ActiveTimer is a stopwatch that becomes a TimeEntry when stopped.
// There is at most one per account.
type ActiveTimer struct {
	ClientID           string
	Project            string
	Description        string
	StartTime          time.Time
	PausedAt           *time.Time
	TotalPausedSeconds int64
}

// NewActiveTimer creates a new running timer
func NewActiveTimer(clientID, project, description string, now time.Time) *ActiveTimer {
	return &ActiveTimer{
		ClientID:    clientID,
		Project:     strings.TrimSpace(project),
		Description: strings.TrimSpace(description),
		StartTime:   now,
	}
}

// State returns the current timer state
func (t *ActiveTimer) State() TimerState {
	if t.PausedAt != nil {
		return TimerStatePaused
	}
	return TimerStateRunning
}

// Elapsed returns the active duration at now, excluding paused time
func (t *ActiveTimer) Elapsed(now time.Time) time.Duration {
	totalElapsed := now.Sub(t.StartTime)
	pausedDuration := time.Duration(t.TotalPausedSeconds) * time.Second

	// If currently paused, add current pause duration
	if t.PausedAt != nil {
		pausedDuration += now.Sub(*t.PausedAt)
	}

	return totalElapsed - pausedDuration
}

// Pause pauses the timer
func (t *ActiveTimer) Pause(now time.Time) {
	if t.PausedAt == nil {
		t.PausedAt = &now
	}
}

// Resume resumes a paused timer
func (t *ActiveTimer) Resume(now time.Time) {
	if t.PausedAt != nil {
		pauseDuration := now.Sub(*t.PausedAt)
		t.TotalPausedSeconds += int64(pauseDuration.Seconds())
		t.PausedAt = nil
	}
}

// ToTimeEntry converts the timer into an entry on the day it was started,
// read in now's location. The entry starts at the timer's start minute and
// lasts the active time rounded up to the minute, ending no later than 24:00.
func (t *ActiveTimer) ToTimeEntry(now time.Time) (*TimeEntry, error) {
	if t.PausedAt != nil {
		t.Resume(now)
	}

	minutes := int(math.Ceil(t.Elapsed(now).Minutes()))
	if minutes < 1 {
		return nil, NewValidationError("timer", "timer ran for less than a minute")
	}

	started := t.StartTime.In(now.Location())
	start := NewClockTime(started.Hour(), started.Minute())
	end := start + ClockTime(minutes)
	if end > MinutesPerDay {
		end = MinutesPerDay
	}

	entry, err := NewTimeEntry(t.ClientID, started, start, end, t.Project, t.Description)
	if err != nil {
		return nil, err
	}
	entry.CreatedAt = now.UTC()
	entry.UpdatedAt = now.UTC()
	return entry, nil
}
