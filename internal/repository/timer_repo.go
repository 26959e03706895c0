package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andy/timeledger/internal/db"
	"github.com/andy/timeledger/internal/domain"
)

// TimerRepo is a SQLite implementation of TimerRepository
type TimerRepo struct {
	db        *db.DB
	accountID string
}

// NewTimerRepo creates a new TimerRepo scoped to one account
func NewTimerRepo(database *db.DB, accountID string) *TimerRepo {
	return &TimerRepo{db: database, accountID: accountID}
}

// Get retrieves the active timer, or returns nil if no timer is running
func (r *TimerRepo) Get(ctx context.Context) (*domain.ActiveTimer, error) {
	query := `
		SELECT client_id, project, description, start_time, paused_at, total_paused_seconds
		FROM active_timer
		WHERE account_id = ?
	`

	timer := &domain.ActiveTimer{}
	var startTime string
	var pausedAt sql.NullString

	err := r.db.QueryRowContext(ctx, query, r.accountID).Scan(
		&timer.ClientID,
		&timer.Project,
		&timer.Description,
		&startTime,
		&pausedAt,
		&timer.TotalPausedSeconds,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No active timer
		}
		return nil, persistErr("get active timer", err)
	}

	if timer.StartTime, err = parseTime(startTime); err != nil {
		return nil, persistErr("get active timer", fmt.Errorf("failed to parse start_time: %w", err))
	}

	if pausedAt.Valid {
		t, err := parseTime(pausedAt.String)
		if err != nil {
			return nil, persistErr("get active timer", fmt.Errorf("failed to parse paused_at: %w", err))
		}
		timer.PausedAt = &t
	}

	return timer, nil
}

// Save saves the active timer (insert or replace)
func (r *TimerRepo) Save(ctx context.Context, timer *domain.ActiveTimer) error {
	query := `
		INSERT OR REPLACE INTO active_timer
			(account_id, client_id, project, description, start_time, paused_at, total_paused_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var pausedAt any
	if timer.PausedAt != nil {
		pausedAt = formatTime(*timer.PausedAt)
	}

	_, err := r.db.ExecContext(ctx, query,
		r.accountID,
		timer.ClientID,
		timer.Project,
		timer.Description,
		formatTime(timer.StartTime),
		pausedAt,
		timer.TotalPausedSeconds,
	)
	return persistErr("save active timer", err)
}

// Delete removes the active timer
func (r *TimerRepo) Delete(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM active_timer WHERE account_id = ?", r.accountID)
	return persistErr("delete active timer", err)
}
