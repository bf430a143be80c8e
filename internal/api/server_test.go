package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/estate-crm/estate-crm-server/internal/billing"
	"github.com/estate-crm/estate-crm-server/internal/config"
	"github.com/estate-crm/estate-crm-server/internal/models"
	"github.com/estate-crm/estate-crm-server/internal/storage"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Name: "test", Version: "0.0.0"},
		API:    config.APIConfig{DefaultOrigin: "http://localhost:5173"},
		JWT: config.JWTConfig{
			Secret:          "test-secret",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
		WhatsApp: config.WhatsAppConfig{
			VerifyToken: "verify-me",
			APIURL:      "http://localhost:0",
		},
	}
}

func newTestServer(t *testing.T, store storage.Store, provider billing.Provider) *RESTServer {
	t.Helper()
	return NewRESTServer(testConfig(), store, provider, nil)
}

// bearerFor issues an access token for a user attached to the given
// organization
func bearerFor(t *testing.T, s *RESTServer, orgID uuid.UUID) string {
	t.Helper()

	user := &models.User{
		ID:             uuid.New(),
		Email:          "agent@example.com",
		IsAdmin:        true,
		OrganizationID: &orgID,
	}
	access, _, err := s.auth.GenerateTokenPair(user)
	require.NoError(t, err)
	return "Bearer " + access
}

func doJSON(t *testing.T, s *RESTServer, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// apiFakeStore implements the slices of storage.Store the handler tests
// exercise. Unimplemented methods panic through the embedded nil interface.
type apiFakeStore struct {
	storage.Store

	users         map[uuid.UUID]*models.User
	usersByEmail  map[string]*models.User
	organizations map[uuid.UUID]*models.Organization
	properties    map[uuid.UUID]*models.Property
	clients       map[uuid.UUID]*models.Client
	conversations map[uuid.UUID]*models.Conversation
	plans         []*models.SubscriptionPlan

	scanProperties []*models.Property
	deletedIDs     []uuid.UUID
	messages       []*models.Message
	insights       []*models.Insight
	events         []*models.EventLog

	activatedOrg   uuid.UUID
	activatedSub   string
	activatedCycle models.BillingCycle
}

func newAPIFakeStore() *apiFakeStore {
	return &apiFakeStore{
		users:         make(map[uuid.UUID]*models.User),
		usersByEmail:  make(map[string]*models.User),
		organizations: make(map[uuid.UUID]*models.Organization),
		properties:    make(map[uuid.UUID]*models.Property),
		clients:       make(map[uuid.UUID]*models.Client),
		conversations: make(map[uuid.UUID]*models.Conversation),
	}
}

func (f *apiFakeStore) BeginTx(context.Context) (storage.Store, error) { return f, nil }
func (f *apiFakeStore) Commit() error                                  { return nil }
func (f *apiFakeStore) Rollback() error                                { return nil }

func (f *apiFakeStore) CreateUser(_ context.Context, user *models.User) error {
	if _, exists := f.usersByEmail[user.Email]; exists {
		return storage.ErrDuplicateKey
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.users[user.ID] = user
	f.usersByEmail[user.Email] = user
	return nil
}

func (f *apiFakeStore) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return user, nil
}

func (f *apiFakeStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := f.usersByEmail[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return user, nil
}

func (f *apiFakeStore) UpdateUser(_ context.Context, user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *apiFakeStore) CreateOrganization(_ context.Context, org *models.Organization) error {
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	f.organizations[org.ID] = org
	return nil
}

func (f *apiFakeStore) GetOrganization(_ context.Context, id uuid.UUID) (*models.Organization, error) {
	org, ok := f.organizations[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return org, nil
}

func (f *apiFakeStore) ActivateSubscription(_ context.Context, id uuid.UUID, subID string, _ time.Time, cycle models.BillingCycle) error {
	if _, ok := f.organizations[id]; !ok {
		return storage.ErrNotFound
	}
	f.activatedOrg = id
	f.activatedSub = subID
	f.activatedCycle = cycle
	return nil
}

func (f *apiFakeStore) ListSubscriptionPlans(context.Context) ([]*models.SubscriptionPlan, error) {
	return f.plans, nil
}

func (f *apiFakeStore) GetProperty(_ context.Context, id uuid.UUID) (*models.Property, error) {
	property, ok := f.properties[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return property, nil
}

func (f *apiFakeStore) ListPropertiesForDuplicateScan(context.Context, uuid.UUID) ([]*models.Property, error) {
	return f.scanProperties, nil
}

func (f *apiFakeStore) DeleteProperties(_ context.Context, orgID uuid.UUID, ids []uuid.UUID) (int64, error) {
	var deleted int64
	for _, id := range ids {
		property, ok := f.properties[id]
		if !ok || property.OrganizationID != orgID {
			continue
		}
		delete(f.properties, id)
		f.deletedIDs = append(f.deletedIDs, id)
		deleted++
	}
	return deleted, nil
}

func (f *apiFakeStore) GetClientByWhatsAppNumber(_ context.Context, number string) (*models.Client, error) {
	for _, client := range f.clients {
		if client.WhatsAppNumber == number {
			return client, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *apiFakeStore) GetConversation(_ context.Context, id uuid.UUID) (*models.Conversation, error) {
	conversation, ok := f.conversations[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return conversation, nil
}

func (f *apiFakeStore) GetConversationByClient(_ context.Context, clientID uuid.UUID) (*models.Conversation, error) {
	for _, conversation := range f.conversations {
		if conversation.ClientID == clientID {
			return conversation, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *apiFakeStore) CreateConversation(_ context.Context, conversation *models.Conversation) error {
	if conversation.ID == uuid.Nil {
		conversation.ID = uuid.New()
	}
	f.conversations[conversation.ID] = conversation
	return nil
}

func (f *apiFakeStore) CreateMessage(_ context.Context, message *models.Message) error {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	f.messages = append(f.messages, message)
	return nil
}

func (f *apiFakeStore) CreateInsights(_ context.Context, insights []*models.Insight) error {
	f.insights = append(f.insights, insights...)
	return nil
}

func (f *apiFakeStore) CreateEventLog(_ context.Context, event *models.EventLog) error {
	f.events = append(f.events, event)
	return nil
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	s := newTestServer(t, newAPIFakeStore(), billing.NewMockProvider())

	rec := doJSON(t, s, http.MethodGet, "/api/v1/users/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	s := newTestServer(t, newAPIFakeStore(), billing.NewMockProvider())

	rec := doJSON(t, s, http.MethodGet, "/api/v1/users/me", "Bearer not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, newAPIFakeStore(), billing.NewMockProvider())

	rec := doJSON(t, s, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "healthy", decodeBody(t, rec)["status"])
}

func TestRegisterCreatesUserAndOrganization(t *testing.T) {
	store := newAPIFakeStore()
	s := newTestServer(t, store, billing.NewMockProvider())

	rec := doJSON(t, s, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":            "owner@example.com",
		"password":         "hunter2hunter2",
		"name":             "Owner",
		"organizationName": "Acme Realty",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	require.NotEmpty(t, body["access_token"])
	require.NotEmpty(t, body["refresh_token"])

	require.Len(t, store.organizations, 1)
	for _, org := range store.organizations {
		require.Equal(t, "Acme Realty", org.Name)
		require.Equal(t, models.SubscriptionPending, org.SubscriptionStatus)
	}

	user := store.usersByEmail["owner@example.com"]
	require.NotNil(t, user)
	require.True(t, user.IsAdmin)
	require.NotNil(t, user.OrganizationID)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	store := newAPIFakeStore()
	s := newTestServer(t, store, billing.NewMockProvider())

	payload := map[string]string{
		"email":            "owner@example.com",
		"password":         "hunter2hunter2",
		"name":             "Owner",
		"organizationName": "Acme Realty",
	}
	require.Equal(t, http.StatusCreated, doJSON(t, s, http.MethodPost, "/api/v1/auth/register", "", payload).Code)
	require.Equal(t, http.StatusConflict, doJSON(t, s, http.MethodPost, "/api/v1/auth/register", "", payload).Code)
}

func TestLoginAndRefresh(t *testing.T) {
	store := newAPIFakeStore()
	s := newTestServer(t, store, billing.NewMockProvider())

	rec := doJSON(t, s, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":            "owner@example.com",
		"password":         "hunter2hunter2",
		"name":             "Owner",
		"organizationName": "Acme Realty",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "owner@example.com",
		"password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	refresh := decodeBody(t, rec)["refresh_token"].(string)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": refresh,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, decodeBody(t, rec)["access_token"])
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	store := newAPIFakeStore()
	s := newTestServer(t, store, billing.NewMockProvider())

	doJSON(t, s, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":            "owner@example.com",
		"password":         "hunter2hunter2",
		"name":             "Owner",
		"organizationName": "Acme Realty",
	})

	rec := doJSON(t, s, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "owner@example.com",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
