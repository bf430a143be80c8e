package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/estate-crm/estate-crm-server/internal/models"
)

// CreateOrganization creates a new organization
func (s *PostgresStore) CreateOrganization(ctx context.Context, org *models.Organization) error {
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}

	now := time.Now()
	org.CreatedAt = now
	org.UpdatedAt = now

	if org.SubscriptionStatus == "" {
		org.SubscriptionStatus = models.SubscriptionPending
	}
	if org.BillingCycle == "" {
		org.BillingCycle = models.BillingMonthly
	}

	query := `
		INSERT INTO organizations (
			id, created_at, updated_at, name, subscription_status,
			stripe_subscription_id, subscription_expires_at, billing_cycle
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)`

	_, err := s.getDB().ExecContext(ctx, query,
		org.ID, org.CreatedAt, org.UpdatedAt, org.Name, org.SubscriptionStatus,
		org.StripeSubscriptionID, org.SubscriptionExpiresAt, org.BillingCycle,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

// GetOrganization gets an organization by ID
func (s *PostgresStore) GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	query := `
		SELECT id, created_at, updated_at, name, subscription_status,
		       stripe_subscription_id, subscription_expires_at, billing_cycle
		FROM organizations
		WHERE id = $1`

	org := &models.Organization{}
	err := s.getDB().QueryRowContext(ctx, query, id).Scan(
		&org.ID, &org.CreatedAt, &org.UpdatedAt, &org.Name, &org.SubscriptionStatus,
		&org.StripeSubscriptionID, &org.SubscriptionExpiresAt, &org.BillingCycle,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return org, err
}

// UpdateOrganization updates an organization's profile fields.
// Subscription columns are written only by the billing methods below.
func (s *PostgresStore) UpdateOrganization(ctx context.Context, org *models.Organization) error {
	org.UpdatedAt = time.Now()

	query := `
		UPDATE organizations SET
			updated_at = $2, name = $3
		WHERE id = $1`

	result, err := s.getDB().ExecContext(ctx, query, org.ID, org.UpdatedAt, org.Name)
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

// ActivateSubscription marks an organization active after a completed checkout
func (s *PostgresStore) ActivateSubscription(ctx context.Context, id uuid.UUID, stripeSubscriptionID string, expiresAt time.Time, cycle models.BillingCycle) error {
	query := `
		UPDATE organizations SET
			updated_at = $2, subscription_status = $3,
			stripe_subscription_id = $4, subscription_expires_at = $5,
			billing_cycle = $6
		WHERE id = $1`

	result, err := s.getDB().ExecContext(ctx, query,
		id, time.Now(), models.SubscriptionActive,
		stripeSubscriptionID, expiresAt, cycle,
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

// UpdateSubscriptionStatusBySubscriptionID updates the billing status of the
// organization holding the given Stripe subscription and returns its ID
func (s *PostgresStore) UpdateSubscriptionStatusBySubscriptionID(ctx context.Context, stripeSubscriptionID string, status models.SubscriptionStatus) (uuid.UUID, error) {
	query := `
		UPDATE organizations SET
			updated_at = $2, subscription_status = $3
		WHERE stripe_subscription_id = $1
		RETURNING id`

	var id uuid.UUID
	err := s.getDB().QueryRowContext(ctx, query, stripeSubscriptionID, time.Now(), status).Scan(&id)
	if err == sql.ErrNoRows {
		return uuid.Nil, ErrNotFound
	}

	return id, err
}
