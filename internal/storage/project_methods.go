package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/estate-crm/estate-crm-server/internal/models"
)

// CreateProject creates a new development project
func (s *PostgresStore) CreateProject(ctx context.Context, project *models.Project) error {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}

	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now

	query := `
		INSERT INTO projects (
			id, created_at, updated_at, organization_id, name, developer,
			location, description, completion_date, total_units
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)`

	_, err := s.getDB().ExecContext(ctx, query,
		project.ID, project.CreatedAt, project.UpdatedAt, project.OrganizationID,
		project.Name, project.Developer, project.Location, project.Description,
		project.CompletionDate, project.TotalUnits,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

// GetProject gets a project by ID
func (s *PostgresStore) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	query := `
		SELECT id, created_at, updated_at, organization_id, name, developer,
		       location, description, completion_date, total_units
		FROM projects
		WHERE id = $1`

	project := &models.Project{}
	err := s.getDB().QueryRowContext(ctx, query, id).Scan(
		&project.ID, &project.CreatedAt, &project.UpdatedAt, &project.OrganizationID,
		&project.Name, &project.Developer, &project.Location, &project.Description,
		&project.CompletionDate, &project.TotalUnits,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return project, err
}

// UpdateProject updates a project
func (s *PostgresStore) UpdateProject(ctx context.Context, project *models.Project) error {
	project.UpdatedAt = time.Now()

	query := `
		UPDATE projects SET
			updated_at = $2, name = $3, developer = $4, location = $5,
			description = $6, completion_date = $7, total_units = $8
		WHERE id = $1`

	result, err := s.getDB().ExecContext(ctx, query,
		project.ID, project.UpdatedAt, project.Name, project.Developer,
		project.Location, project.Description, project.CompletionDate,
		project.TotalUnits,
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

// DeleteProject deletes a project
func (s *PostgresStore) DeleteProject(ctx context.Context, id uuid.UUID) error {
	result, err := s.getDB().ExecContext(ctx, "DELETE FROM projects WHERE id = $1", id)
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

// ListProjects lists projects for an organization
func (s *PostgresStore) ListProjects(ctx context.Context, organizationID uuid.UUID, limit, offset int) ([]*models.Project, int64, error) {
	countQuery := `SELECT COUNT(*) FROM projects WHERE organization_id = $1`

	var count int64
	err := s.getDB().QueryRowContext(ctx, countQuery, organizationID).Scan(&count)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT id, created_at, updated_at, organization_id, name, developer,
		       location, description, completion_date, total_units
		FROM projects
		WHERE organization_id = $1
		ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := s.getDB().QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project := &models.Project{}
		err := rows.Scan(
			&project.ID, &project.CreatedAt, &project.UpdatedAt, &project.OrganizationID,
			&project.Name, &project.Developer, &project.Location, &project.Description,
			&project.CompletionDate, &project.TotalUnits,
		)
		if err != nil {
			return nil, 0, err
		}
		projects = append(projects, project)
	}

	return projects, count, nil
}

// CreateCategory creates a new property category
func (s *PostgresStore) CreateCategory(ctx context.Context, category *models.Category) error {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}

	now := time.Now()
	category.CreatedAt = now
	category.UpdatedAt = now

	query := `
		INSERT INTO property_categories (
			id, created_at, updated_at, organization_id, name, description
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)`

	_, err := s.getDB().ExecContext(ctx, query,
		category.ID, category.CreatedAt, category.UpdatedAt,
		category.OrganizationID, category.Name, category.Description,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

// GetCategory gets a category by ID
func (s *PostgresStore) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	query := `
		SELECT id, created_at, updated_at, organization_id, name, description
		FROM property_categories
		WHERE id = $1`

	category := &models.Category{}
	err := s.getDB().QueryRowContext(ctx, query, id).Scan(
		&category.ID, &category.CreatedAt, &category.UpdatedAt,
		&category.OrganizationID, &category.Name, &category.Description,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return category, err
}

// UpdateCategory updates a category
func (s *PostgresStore) UpdateCategory(ctx context.Context, category *models.Category) error {
	category.UpdatedAt = time.Now()

	query := `
		UPDATE property_categories SET
			updated_at = $2, name = $3, description = $4
		WHERE id = $1`

	result, err := s.getDB().ExecContext(ctx, query,
		category.ID, category.UpdatedAt, category.Name, category.Description,
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

// DeleteCategory deletes a category
func (s *PostgresStore) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	result, err := s.getDB().ExecContext(ctx, "DELETE FROM property_categories WHERE id = $1", id)
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

// ListCategories lists categories for an organization
func (s *PostgresStore) ListCategories(ctx context.Context, organizationID uuid.UUID) ([]*models.Category, error) {
	query := `
		SELECT id, created_at, updated_at, organization_id, name, description
		FROM property_categories
		WHERE organization_id = $1
		ORDER BY name ASC`

	rows, err := s.getDB().QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		category := &models.Category{}
		err := rows.Scan(
			&category.ID, &category.CreatedAt, &category.UpdatedAt,
			&category.OrganizationID, &category.Name, &category.Description,
		)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}

	return categories, nil
}
