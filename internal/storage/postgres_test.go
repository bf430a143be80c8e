package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estate-crm/estate-crm-server/internal/models"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &PostgresStore{db: db}, mock
}

func TestActivateSubscription(t *testing.T) {
	store, mock := newMockStore(t)
	orgID := uuid.New()
	expiresAt := time.Now().AddDate(0, 1, 0)

	mock.ExpectExec("UPDATE organizations SET").
		WithArgs(orgID, sqlmock.AnyArg(), models.SubscriptionActive, "sub_1", expiresAt, models.BillingMonthly).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.ActivateSubscription(context.Background(), orgID, "sub_1", expiresAt, models.BillingMonthly)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivateSubscriptionUnknownOrganization(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE organizations SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.ActivateSubscription(context.Background(), uuid.New(), "sub_1", time.Now(), models.BillingYearly)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateSubscriptionStatusBySubscriptionID(t *testing.T) {
	store, mock := newMockStore(t)
	orgID := uuid.New()

	mock.ExpectQuery("UPDATE organizations SET").
		WithArgs("sub_1", sqlmock.AnyArg(), models.SubscriptionCancelled).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(orgID.String()))

	got, err := store.UpdateSubscriptionStatusBySubscriptionID(context.Background(), "sub_1", models.SubscriptionCancelled)
	require.NoError(t, err)
	assert.Equal(t, orgID, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSubscriptionStatusUnknownSubscription(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("UPDATE organizations SET").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.UpdateSubscriptionStatusBySubscriptionID(context.Background(), "sub_missing", models.SubscriptionPastDue)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateOrganizationNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE organizations SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	org := &models.Organization{ID: uuid.New(), Name: "Acme"}
	err := store.UpdateOrganization(context.Background(), org)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteProperties(t *testing.T) {
	store, mock := newMockStore(t)
	orgID := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	mock.ExpectExec("DELETE FROM properties").
		WithArgs(orgID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	deleted, err := store.DeleteProperties(context.Background(), orgID, ids)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePropertiesEmptyInput(t *testing.T) {
	store, mock := newMockStore(t)

	deleted, err := store.DeleteProperties(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetClientByWhatsAppNumber(t *testing.T) {
	store, mock := newMockStore(t)
	clientID := uuid.New()
	orgID := uuid.New()
	createdBy := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "created_at", "updated_at", "organization_id", "created_by",
		"name", "email", "phone", "whatsapp_number", "budget_min",
		"budget_max", "preferred_areas", "notes",
	}).AddRow(
		clientID.String(), now, now, orgID.String(), createdBy.String(),
		"Dana", "dana@example.com", "", "15551234567", int64(400000),
		int64(600000), "{marina,downtown}", "",
	)

	mock.ExpectQuery("SELECT (.+) FROM clients").
		WithArgs("15551234567").
		WillReturnRows(rows)

	client, err := store.GetClientByWhatsAppNumber(context.Background(), "15551234567")
	require.NoError(t, err)
	assert.Equal(t, clientID, client.ID)
	assert.Equal(t, orgID, client.OrganizationID)
	assert.Equal(t, "Dana", client.Name)
	assert.Equal(t, []string{"marina", "downtown"}, client.PreferredAreas)
	require.NotNil(t, client.BudgetMin)
	assert.Equal(t, int64(400000), *client.BudgetMin)
}

func TestGetClientByWhatsAppNumberNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM clients").
		WithArgs("19990000000").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetClientByWhatsAppNumber(context.Background(), "19990000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetConversationNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM whatsapp_conversations").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetConversation(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
