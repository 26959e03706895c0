package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/andy/timeledger/internal/db"
	"github.com/andy/timeledger/internal/domain"
)

// ClientRepo is a SQLite implementation of ClientRepository
type ClientRepo struct {
	db        *db.DB
	accountID string
}

// NewClientRepo creates a new ClientRepo scoped to one account
func NewClientRepo(database *db.DB, accountID string) *ClientRepo {
	return &ClientRepo{db: database, accountID: accountID}
}

// Create inserts a new client into the database
func (r *ClientRepo) Create(ctx context.Context, client *domain.Client) error {
	client.Normalize()
	if err := client.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO clients (` + clientColumns + `, account_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		client.ID,
		client.Name,
		client.BillingFirstName,
		client.BillingLastName,
		client.BillingPhone,
		client.BillingEmail,
		encodeEmails(client.CCEmails),
		client.AddressStreet,
		client.AddressLine2,
		client.AddressCity,
		client.AddressState,
		client.AddressZip,
		client.AddressCountry,
		client.HourlyRate,
		client.Color,
		formatTime(client.CreatedAt),
		formatTime(client.UpdatedAt),
		r.accountID,
	)
	return persistErr("create client", err)
}

// GetByID retrieves a client by ID
func (r *ClientRepo) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = ? AND account_id = ?`

	client, err := scanClient(r.db.QueryRowContext(ctx, query, id, r.accountID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("client", id)
		}
		return nil, persistErr("get client", err)
	}
	return client, nil
}

// List retrieves all clients ordered by name
func (r *ClientRepo) List(ctx context.Context) ([]*domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE account_id = ? ORDER BY name COLLATE NOCASE`

	rows, err := r.db.QueryContext(ctx, query, r.accountID)
	if err != nil {
		return nil, persistErr("list clients", err)
	}
	defer rows.Close()

	clients := make([]*domain.Client, 0)
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, persistErr("scan client", err)
		}
		clients = append(clients, client)
	}

	if err := rows.Err(); err != nil {
		return nil, persistErr("iterate clients", err)
	}
	return clients, nil
}

// Update updates an existing client
func (r *ClientRepo) Update(ctx context.Context, client *domain.Client) error {
	client.Normalize()
	if err := client.Validate(); err != nil {
		return err
	}
	client.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE clients
		SET name = ?, billing_first_name = ?, billing_last_name = ?, billing_phone = ?,
		    billing_email = ?, cc_emails = ?, address_street = ?, address_line2 = ?,
		    address_city = ?, address_state = ?, address_zip = ?, address_country = ?,
		    hourly_rate = ?, color = ?, updated_at = ?
		WHERE id = ? AND account_id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		client.Name,
		client.BillingFirstName,
		client.BillingLastName,
		client.BillingPhone,
		client.BillingEmail,
		encodeEmails(client.CCEmails),
		client.AddressStreet,
		client.AddressLine2,
		client.AddressCity,
		client.AddressState,
		client.AddressZip,
		client.AddressCountry,
		client.HourlyRate,
		client.Color,
		formatTime(client.UpdatedAt),
		client.ID,
		r.accountID,
	)
	if err != nil {
		return persistErr("update client", err)
	}
	return persistErr("update client", checkAffected(result, "client", client.ID))
}
