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

// CreateProperty creates a new property listing
func (s *PostgresStore) CreateProperty(ctx context.Context, property *models.Property) error {
	if property.ID == uuid.Nil {
		property.ID = uuid.New()
	}

	now := time.Now()
	property.CreatedAt = now
	property.UpdatedAt = now

	if property.Status == "" {
		property.Status = "available"
	}

	query := `
		INSERT INTO properties (
			id, created_at, updated_at, organization_id, project_id, category_id,
			created_by, title, description, address, area_sqft, price,
			bedrooms, bathrooms, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)`

	_, err := s.getDB().ExecContext(ctx, query,
		property.ID, property.CreatedAt, property.UpdatedAt, property.OrganizationID,
		property.ProjectID, property.CategoryID, property.CreatedBy, property.Title,
		property.Description, property.Address, property.AreaSqft, property.Price,
		property.Bedrooms, property.Bathrooms, property.Status,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

// GetProperty gets a property by ID
func (s *PostgresStore) GetProperty(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	query := `
		SELECT id, created_at, updated_at, organization_id, project_id, category_id,
		       created_by, title, description, address, area_sqft, price,
		       bedrooms, bathrooms, status
		FROM properties
		WHERE id = $1`

	property := &models.Property{}
	err := s.getDB().QueryRowContext(ctx, query, id).Scan(
		&property.ID, &property.CreatedAt, &property.UpdatedAt, &property.OrganizationID,
		&property.ProjectID, &property.CategoryID, &property.CreatedBy, &property.Title,
		&property.Description, &property.Address, &property.AreaSqft, &property.Price,
		&property.Bedrooms, &property.Bathrooms, &property.Status,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return property, err
}

// UpdateProperty updates a property
func (s *PostgresStore) UpdateProperty(ctx context.Context, property *models.Property) error {
	property.UpdatedAt = time.Now()

	query := `
		UPDATE properties SET
			updated_at = $2, project_id = $3, category_id = $4, title = $5,
			description = $6, address = $7, area_sqft = $8, price = $9,
			bedrooms = $10, bathrooms = $11, status = $12
		WHERE id = $1`

	result, err := s.getDB().ExecContext(ctx, query,
		property.ID, property.UpdatedAt, property.ProjectID, property.CategoryID,
		property.Title, property.Description, property.Address, property.AreaSqft,
		property.Price, property.Bedrooms, property.Bathrooms, property.Status,
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

// DeleteProperty deletes a property
func (s *PostgresStore) DeleteProperty(ctx context.Context, id uuid.UUID) error {
	result, err := s.getDB().ExecContext(ctx, "DELETE FROM properties WHERE id = $1", id)
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

// ListProperties lists properties for an organization
func (s *PostgresStore) ListProperties(ctx context.Context, organizationID uuid.UUID, limit, offset int) ([]*models.Property, int64, error) {
	countQuery := `SELECT COUNT(*) FROM properties WHERE organization_id = $1`

	var count int64
	err := s.getDB().QueryRowContext(ctx, countQuery, organizationID).Scan(&count)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT id, created_at, updated_at, organization_id, project_id, category_id,
		       created_by, title, description, address, area_sqft, price,
		       bedrooms, bathrooms, status
		FROM properties
		WHERE organization_id = $1
		ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := s.getDB().QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var properties []*models.Property
	for rows.Next() {
		property := &models.Property{}
		err := rows.Scan(
			&property.ID, &property.CreatedAt, &property.UpdatedAt, &property.OrganizationID,
			&property.ProjectID, &property.CategoryID, &property.CreatedBy, &property.Title,
			&property.Description, &property.Address, &property.AreaSqft, &property.Price,
			&property.Bedrooms, &property.Bathrooms, &property.Status,
		)
		if err != nil {
			return nil, 0, err
		}
		properties = append(properties, property)
	}

	return properties, count, nil
}

// ListPropertiesForDuplicateScan loads every property of an organization in
// insertion order, which the duplicate detector depends on
func (s *PostgresStore) ListPropertiesForDuplicateScan(ctx context.Context, organizationID uuid.UUID) ([]*models.Property, error) {
	query := `
		SELECT id, created_at, updated_at, organization_id, project_id, category_id,
		       created_by, title, description, address, area_sqft, price,
		       bedrooms, bathrooms, status
		FROM properties
		WHERE organization_id = $1
		ORDER BY created_at ASC`

	rows, err := s.getDB().QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var properties []*models.Property
	for rows.Next() {
		property := &models.Property{}
		err := rows.Scan(
			&property.ID, &property.CreatedAt, &property.UpdatedAt, &property.OrganizationID,
			&property.ProjectID, &property.CategoryID, &property.CreatedBy, &property.Title,
			&property.Description, &property.Address, &property.AreaSqft, &property.Price,
			&property.Bedrooms, &property.Bathrooms, &property.Status,
		)
		if err != nil {
			return nil, err
		}
		properties = append(properties, property)
	}

	return properties, nil
}

// DeleteProperties bulk-deletes properties by ID, scoped to an organization.
// Returns the number of rows actually removed.
func (s *PostgresStore) DeleteProperties(ctx context.Context, organizationID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	idStrings := make([]string, len(ids))
	for i, id := range ids {
		idStrings[i] = id.String()
	}

	query := `DELETE FROM properties WHERE organization_id = $1 AND id = ANY($2)`

	result, err := s.getDB().ExecContext(ctx, query, organizationID, pq.Array(idStrings))
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
