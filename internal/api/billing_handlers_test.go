package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estate-crm/estate-crm-server/internal/billing"
	"github.com/estate-crm/estate-crm-server/internal/models"
)

func TestCreateCheckoutSession(t *testing.T) {
	store := newAPIFakeStore()
	provider := billing.NewMockProvider()
	s := newTestServer(t, store, provider)

	orgID := uuid.New()
	token := bearerFor(t, s, orgID)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/billing/checkout", token, map[string]string{
		"priceId":        "price_123",
		"organizationId": orgID.String(),
		"billingCycle":   "monthly",
		"planName":       "Pro",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["sessionId"])
	assert.NotEmpty(t, body["url"])

	require.Len(t, provider.CreatedSessions, 1)
	params := provider.CreatedSessions[0]
	assert.Equal(t, "price_123", params.PriceID)
	assert.Equal(t, orgID.String(), params.OrganizationID)
	assert.Equal(t, "monthly", params.BillingCycle)
	assert.Equal(t, "http://localhost:5173", params.Origin)
}

func TestCreateCheckoutUsesOriginHeader(t *testing.T) {
	provider := billing.NewMockProvider()
	s := newTestServer(t, newAPIFakeStore(), provider)
	orgID := uuid.New()
	token := bearerFor(t, s, orgID)

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]string{
		"priceId":        "price_123",
		"organizationId": orgID.String(),
		"billingCycle":   "yearly",
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/checkout", &buf)
	req.Header.Set("Authorization", token)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, provider.CreatedSessions, 1)
	assert.Equal(t, "https://app.example.com", provider.CreatedSessions[0].Origin)
}

func TestCreateCheckoutValidatesInput(t *testing.T) {
	s := newTestServer(t, newAPIFakeStore(), billing.NewMockProvider())
	orgID := uuid.New()
	token := bearerFor(t, s, orgID)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/billing/checkout", token, map[string]string{
		"organizationId": orgID.String(),
		"billingCycle":   "monthly",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/billing/checkout", token, map[string]string{
		"priceId":        "price_123",
		"organizationId": orgID.String(),
		"billingCycle":   "weekly",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateCheckoutRejectsForeignOrganization(t *testing.T) {
	s := newTestServer(t, newAPIFakeStore(), billing.NewMockProvider())
	token := bearerFor(t, s, uuid.New())

	rec := doJSON(t, s, http.MethodPost, "/api/v1/billing/checkout", token, map[string]string{
		"priceId":        "price_123",
		"organizationId": uuid.New().String(),
		"billingCycle":   "monthly",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateCheckoutProviderFailure(t *testing.T) {
	provider := billing.NewMockProvider()
	provider.CreateErr = errors.New("provider down")
	s := newTestServer(t, newAPIFakeStore(), provider)
	orgID := uuid.New()
	token := bearerFor(t, s, orgID)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/billing/checkout", token, map[string]string{
		"priceId":        "price_123",
		"organizationId": orgID.String(),
		"billingCycle":   "monthly",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "failed to create checkout session", body["error"])
	assert.Contains(t, body["details"], "provider down")
}

func TestVerifyPaymentSuccess(t *testing.T) {
	provider := billing.NewMockProvider()
	provider.Sessions["cs_1"] = &billing.SessionDetails{
		ID:             "cs_1",
		PaymentStatus:  "paid",
		Mode:           "subscription",
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
	}
	s := newTestServer(t, newAPIFakeStore(), provider)
	token := bearerFor(t, s, uuid.New())

	rec := doJSON(t, s, http.MethodPost, "/api/v1/billing/verify", token, map[string]string{
		"sessionId": "cs_1",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "cs_1", body["sessionId"])
	assert.Equal(t, "paid", body["paymentStatus"])
	assert.Equal(t, "sub_1", body["subscriptionId"])
}

func TestVerifyPaymentUnpaidSession(t *testing.T) {
	provider := billing.NewMockProvider()
	provider.Sessions["cs_1"] = &billing.SessionDetails{
		ID:            "cs_1",
		PaymentStatus: "unpaid",
	}
	s := newTestServer(t, newAPIFakeStore(), provider)
	token := bearerFor(t, s, uuid.New())

	rec := doJSON(t, s, http.MethodPost, "/api/v1/billing/verify", token, map[string]string{
		"sessionId": "cs_1",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["success"])
}

func TestVerifyPaymentRetrievalFailure(t *testing.T) {
	s := newTestServer(t, newAPIFakeStore(), billing.NewMockProvider())
	token := bearerFor(t, s, uuid.New())

	rec := doJSON(t, s, http.MethodPost, "/api/v1/billing/verify", token, map[string]string{
		"sessionId": "cs_unknown",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["success"])
}

func TestBillingWebhookActivatesSubscription(t *testing.T) {
	store := newAPIFakeStore()
	org := &models.Organization{ID: uuid.New(), SubscriptionStatus: models.SubscriptionPending}
	store.organizations[org.ID] = org
	s := newTestServer(t, store, billing.NewMockProvider())

	payload := map[string]interface{}{
		"type": "checkout.session.completed",
		"data": map[string]interface{}{
			"id":           "cs_1",
			"subscription": "sub_1",
			"metadata": map[string]string{
				"organizationId": org.ID.String(),
				"billingCycle":   "yearly",
			},
		},
	}

	rec := doJSON(t, s, http.MethodPost, "/api/v1/billing/webhook", "", payload)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["received"])
	assert.Equal(t, "checkout.session.completed", body["eventType"])

	assert.Equal(t, org.ID, store.activatedOrg)
	assert.Equal(t, "sub_1", store.activatedSub)
	assert.Equal(t, models.BillingYearly, store.activatedCycle)
	require.NotEmpty(t, store.events)
	assert.Equal(t, models.EventTypeCheckoutCompleted, store.events[0].Type)
}

func TestBillingWebhookRejectsBadSignature(t *testing.T) {
	provider := billing.NewMockProvider()
	provider.VerifyErr = errors.New("bad signature")
	s := newTestServer(t, newAPIFakeStore(), provider)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/billing/webhook", "", map[string]string{"type": "x"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["received"])
}

func TestBillingWebhookProcessingFailure(t *testing.T) {
	// A checkout session without organization metadata cannot be applied;
	// the handler answers non-2xx so the provider redelivers.
	s := newTestServer(t, newAPIFakeStore(), billing.NewMockProvider())

	payload := map[string]interface{}{
		"type": "checkout.session.completed",
		"data": map[string]interface{}{
			"id":           "cs_1",
			"subscription": "sub_1",
		},
	}

	rec := doJSON(t, s, http.MethodPost, "/api/v1/billing/webhook", "", payload)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBillingWebhookIgnoresUnhandledEvents(t *testing.T) {
	s := newTestServer(t, newAPIFakeStore(), billing.NewMockProvider())

	rec := doJSON(t, s, http.MethodPost, "/api/v1/billing/webhook", "", map[string]interface{}{
		"type": "customer.created",
		"data": map[string]interface{}{"id": "cus_1"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["received"])
}

func TestListPlans(t *testing.T) {
	store := newAPIFakeStore()
	store.plans = []*models.SubscriptionPlan{
		{ID: "starter", Name: "Starter", PriceMonthly: 4900},
		{ID: "pro", Name: "Pro", PriceMonthly: 9900},
	}
	s := newTestServer(t, store, billing.NewMockProvider())
	token := bearerFor(t, s, uuid.New())

	rec := doJSON(t, s, http.MethodGet, "/api/v1/billing/plans", token, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	plans := decodeBody(t, rec)["plans"].([]interface{})
	require.Len(t, plans, 2)
}
