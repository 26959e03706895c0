package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andy/timeledger/internal/db"
	"github.com/andy/timeledger/internal/domain"
	"gopkg.in/yaml.v3"
)

// SettingsRepo stores one YAML settings document per account
type SettingsRepo struct {
	db        *db.DB
	accountID string
}

// NewSettingsRepo creates a new SettingsRepo scoped to one account
func NewSettingsRepo(database *db.DB, accountID string) *SettingsRepo {
	return &SettingsRepo{db: database, accountID: accountID}
}

// Get returns the saved settings, or the defaults when none were saved.
// Keys missing from an older document keep their default values.
func (r *SettingsRepo) Get(ctx context.Context) (*domain.UserSettings, error) {
	var document, updatedAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT document, updated_at FROM user_settings WHERE account_id = ?`, r.accountID,
	).Scan(&document, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultSettings(), nil
	}
	if err != nil {
		return nil, persistErr("get settings", err)
	}

	settings := domain.DefaultSettings()
	if err := yaml.Unmarshal([]byte(document), settings); err != nil {
		return nil, persistErr("decode settings", err)
	}
	if settings.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, persistErr("decode settings", fmt.Errorf("failed to parse updated_at: %w", err))
	}
	return settings, nil
}

// Save upserts the settings document
func (r *SettingsRepo) Save(ctx context.Context, settings *domain.UserSettings) error {
	document, err := yaml.Marshal(settings)
	if err != nil {
		return persistErr("encode settings", err)
	}
	settings.UpdatedAt = time.Now().UTC()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO user_settings (account_id, document, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at
	`, r.accountID, string(document), formatTime(settings.UpdatedAt))
	return persistErr("save settings", err)
}
