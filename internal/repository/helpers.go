package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/andy/timeledger/internal/domain"
)

// timeLayout is the RFC3339 format for storing timestamps in SQLite
const timeLayout = time.RFC3339

// maxNumberAttempts bounds the invoice-number conflict retry
const maxNumberAttempts = 5

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// parseTime parses a timestamp in RFC3339 format
func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// formatTime formats a timestamp for storage
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// now returns the current time formatted for storage
func now() string {
	return formatTime(time.Now())
}

func formatDate(t time.Time) string {
	return t.Format(domain.DateLayout)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(domain.DateLayout, s)
}

// persistErr wraps a driver error; not-found and validation errors pass through
func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
		return err
	}
	return &domain.PersistenceError{Op: op, Err: err}
}

func notFound(entity, id string) error {
	return &domain.NotFoundError{Entity: entity, ID: id}
}

// checkAffected turns a zero-row update into a NotFoundError
func checkAffected(result sql.Result, entity, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound(entity, id)
	}
	return nil
}
