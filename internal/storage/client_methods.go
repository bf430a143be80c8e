package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/estate-crm/estate-crm-server/internal/models"
)

// CreateClient creates a new client
func (s *PostgresStore) CreateClient(ctx context.Context, client *models.Client) error {
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}

	now := time.Now()
	client.CreatedAt = now
	client.UpdatedAt = now

	query := `
		INSERT INTO clients (
			id, created_at, updated_at, organization_id, created_by, name,
			email, phone, whatsapp_number, budget_min, budget_max,
			preferred_areas, notes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)`

	_, err := s.getDB().ExecContext(ctx, query,
		client.ID, client.CreatedAt, client.UpdatedAt, client.OrganizationID,
		client.CreatedBy, client.Name, client.Email, client.Phone,
		client.WhatsAppNumber, client.BudgetMin, client.BudgetMax,
		pq.Array(client.PreferredAreas), client.Notes,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

// GetClient gets a client by ID
func (s *PostgresStore) GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	query := `
		SELECT id, created_at, updated_at, organization_id, created_by, name,
		       email, phone, whatsapp_number, budget_min, budget_max,
		       preferred_areas, notes
		FROM clients
		WHERE id = $1`

	client := &models.Client{}
	err := s.getDB().QueryRowContext(ctx, query, id).Scan(
		&client.ID, &client.CreatedAt, &client.UpdatedAt, &client.OrganizationID,
		&client.CreatedBy, &client.Name, &client.Email, &client.Phone,
		&client.WhatsAppNumber, &client.BudgetMin, &client.BudgetMax,
		pq.Array(&client.PreferredAreas), &client.Notes,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return client, err
}

// GetClientByWhatsAppNumber gets a client by WhatsApp number
func (s *PostgresStore) GetClientByWhatsAppNumber(ctx context.Context, number string) (*models.Client, error) {
	query := `
		SELECT id, created_at, updated_at, organization_id, created_by, name,
		       email, phone, whatsapp_number, budget_min, budget_max,
		       preferred_areas, notes
		FROM clients
		WHERE whatsapp_number = $1`

	client := &models.Client{}
	err := s.getDB().QueryRowContext(ctx, query, number).Scan(
		&client.ID, &client.CreatedAt, &client.UpdatedAt, &client.OrganizationID,
		&client.CreatedBy, &client.Name, &client.Email, &client.Phone,
		&client.WhatsAppNumber, &client.BudgetMin, &client.BudgetMax,
		pq.Array(&client.PreferredAreas), &client.Notes,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return client, err
}

// UpdateClient updates a client
func (s *PostgresStore) UpdateClient(ctx context.Context, client *models.Client) error {
	client.UpdatedAt = time.Now()

	query := `
		UPDATE clients SET
			updated_at = $2, name = $3, email = $4, phone = $5,
			whatsapp_number = $6, budget_min = $7, budget_max = $8,
			preferred_areas = $9, notes = $10
		WHERE id = $1`

	result, err := s.getDB().ExecContext(ctx, query,
		client.ID, client.UpdatedAt, client.Name, client.Email, client.Phone,
		client.WhatsAppNumber, client.BudgetMin, client.BudgetMax,
		pq.Array(client.PreferredAreas), client.Notes,
	)

	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteClient deletes a client
func (s *PostgresStore) DeleteClient(ctx context.Context, id uuid.UUID) error {
	result, err := s.getDB().ExecContext(ctx, "DELETE FROM clients WHERE id = $1", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ListClients lists clients for an organization
func (s *PostgresStore) ListClients(ctx context.Context, organizationID uuid.UUID, limit, offset int) ([]*models.Client, int64, error) {
	countQuery := `SELECT COUNT(*) FROM clients WHERE organization_id = $1`

	var count int64
	err := s.getDB().QueryRowContext(ctx, countQuery, organizationID).Scan(&count)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT id, created_at, updated_at, organization_id, created_by, name,
		       email, phone, whatsapp_number, budget_min, budget_max,
		       preferred_areas, notes
		FROM clients
		WHERE organization_id = $1
		ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := s.getDB().QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		client := &models.Client{}
		err := rows.Scan(
			&client.ID, &client.CreatedAt, &client.UpdatedAt, &client.OrganizationID,
			&client.CreatedBy, &client.Name, &client.Email, &client.Phone,
			&client.WhatsAppNumber, &client.BudgetMin, &client.BudgetMax,
			pq.Array(&client.PreferredAreas), &client.Notes,
		)
		if err != nil {
			return nil, 0, err
		}
		clients = append(clients, client)
	}

	return clients, count, nil
}

// CreateViewingRecord creates a viewing record
func (s *PostgresStore) CreateViewingRecord(ctx context.Context, record *models.ViewingRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	if record.ViewedAt.IsZero() {
		record.ViewedAt = now
	}

	query := `
		INSERT INTO client_viewing_records (
			id, created_at, updated_at, organization_id, client_id,
			property_id, viewed_at, feedback, rating
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)`

	_, err := s.getDB().ExecContext(ctx, query,
		record.ID, record.CreatedAt, record.UpdatedAt, record.OrganizationID,
		record.ClientID, record.PropertyID, record.ViewedAt, record.Feedback,
		record.Rating,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

// DeleteViewingRecord deletes a viewing record
func (s *PostgresStore) DeleteViewingRecord(ctx context.Context, id uuid.UUID) error {
	result, err := s.getDB().ExecContext(ctx, "DELETE FROM client_viewing_records WHERE id = $1", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ListViewingRecords lists viewing records for a client
func (s *PostgresStore) ListViewingRecords(ctx context.Context, clientID uuid.UUID) ([]*models.ViewingRecord, error) {
	query := `
		SELECT id, created_at, updated_at, organization_id, client_id,
		       property_id, viewed_at, feedback, rating
		FROM client_viewing_records
		WHERE client_id = $1
		ORDER BY viewed_at DESC`

	rows, err := s.getDB().QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.ViewingRecord
	for rows.Next() {
		record := &models.ViewingRecord{}
		err := rows.Scan(
			&record.ID, &record.CreatedAt, &record.UpdatedAt, &record.OrganizationID,
			&record.ClientID, &record.PropertyID, &record.ViewedAt, &record.Feedback,
			&record.Rating,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}
