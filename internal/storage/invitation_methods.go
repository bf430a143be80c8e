package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/estate-crm/estate-crm-server/internal/models"
)

// CreateInvitation creates a new invitation
func (s *PostgresStore) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}

	now := time.Now()
	inv.CreatedAt = now
	inv.UpdatedAt = now

	if inv.Status == "" {
		inv.Status = models.InvitationPending
	}

	query := `
		INSERT INTO invitations (
			id, created_at, updated_at, organization_id, email, code, status, created_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)`

	_, err := s.getDB().ExecContext(ctx, query,
		inv.ID, inv.CreatedAt, inv.UpdatedAt, inv.OrganizationID,
		inv.Email, inv.Code, inv.Status, inv.CreatedBy,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

// GetInvitationByCode gets an invitation by its code
func (s *PostgresStore) GetInvitationByCode(ctx context.Context, code string) (*models.Invitation, error) {
	query := `
		SELECT id, created_at, updated_at, organization_id, email, code, status, created_by
		FROM invitations
		WHERE code = $1`

	inv := &models.Invitation{}
	err := s.getDB().QueryRowContext(ctx, query, code).Scan(
		&inv.ID, &inv.CreatedAt, &inv.UpdatedAt, &inv.OrganizationID,
		&inv.Email, &inv.Code, &inv.Status, &inv.CreatedBy,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return inv, err
}

// UpdateInvitation updates an invitation
func (s *PostgresStore) UpdateInvitation(ctx context.Context, inv *models.Invitation) error {
	inv.UpdatedAt = time.Now()

	query := `
		UPDATE invitations SET
			updated_at = $2, status = $3
		WHERE id = $1`

	result, err := s.getDB().ExecContext(ctx, query, inv.ID, inv.UpdatedAt, inv.Status)
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

// DeleteInvitation deletes an invitation
func (s *PostgresStore) DeleteInvitation(ctx context.Context, id uuid.UUID) error {
	result, err := s.getDB().ExecContext(ctx, "DELETE FROM invitations WHERE id = $1", id)
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

// ListInvitations lists invitations for an organization
func (s *PostgresStore) ListInvitations(ctx context.Context, organizationID uuid.UUID) ([]*models.Invitation, error) {
	query := `
		SELECT id, created_at, updated_at, organization_id, email, code, status, created_by
		FROM invitations
		WHERE organization_id = $1
		ORDER BY created_at DESC`

	rows, err := s.getDB().QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []*models.Invitation
	for rows.Next() {
		inv := &models.Invitation{}
		err := rows.Scan(
			&inv.ID, &inv.CreatedAt, &inv.UpdatedAt, &inv.OrganizationID,
			&inv.Email, &inv.Code, &inv.Status, &inv.CreatedBy,
		)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}

	return invitations, nil
}

// ListSubscriptionPlans lists all subscription plans ordered by monthly price
func (s *PostgresStore) ListSubscriptionPlans(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	query := `
		SELECT id, name, description, price_monthly, price_yearly, max_users,
		       stripe_price_id_monthly, stripe_price_id_yearly, features
		FROM subscription_plans
		ORDER BY price_monthly ASC`

	rows, err := s.getDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*models.SubscriptionPlan
	for rows.Next() {
		plan := &models.SubscriptionPlan{}
		err := rows.Scan(
			&plan.ID, &plan.Name, &plan.Description, &plan.PriceMonthly,
			&plan.PriceYearly, &plan.MaxUsers, &plan.StripePriceIDMonthly,
			&plan.StripePriceIDYearly, &plan.Features,
		)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}

	return plans, nil
}
