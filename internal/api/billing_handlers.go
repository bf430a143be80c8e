package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/estate-crm/estate-crm-server/internal/billing"
)

// ========== Billing handlers ==========

// HandleListPlans lists the purchasable subscription plans
func (s *RESTServer) HandleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.store.ListSubscriptionPlans(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"plans": plans,
	})
}

// HandleCreateCheckout creates a hosted checkout session for the caller's
// organization
func (s *RESTServer) HandleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.organizationID(w, r)
	if !ok {
		return
	}

	var req struct {
		PriceID        string `json:"priceId" validate:"required"`
		OrganizationID string `json:"organizationId" validate:"required,uuid"`
		BillingCycle   string `json:"billingCycle" validate:"required,oneof=monthly yearly"`
		PlanName       string `json:"planName"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.OrganizationID != orgID.String() {
		s.respondError(w, http.StatusForbidden, "organization mismatch")
		return
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = s.config.API.DefaultOrigin
	}

	session, err := s.billingProvider.CreateCheckoutSession(r.Context(), billing.CheckoutParams{
		PriceID:        req.PriceID,
		OrganizationID: orgID.String(),
		BillingCycle:   req.BillingCycle,
		PlanName:       req.PlanName,
		Origin:         origin,
	})
	if err != nil {
		log.Error().Err(err).Str("organization_id", orgID.String()).Msg("Failed to create checkout session")
		s.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "failed to create checkout session",
			"details": err.Error(),
		})
		return
	}

	log.Info().
		Str("organization_id", orgID.String()).
		Str("session_id", session.ID).
		Msg("Checkout session created")

	s.respondJSON(w, http.StatusOK, session)
}

// HandleVerifyPayment checks whether a checkout session completed payment
func (s *RESTServer) HandleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.organizationID(w, r); !ok {
		return
	}

	var req struct {
		SessionID string `json:"sessionId" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	details, err := s.billingProvider.GetCheckoutSession(r.Context(), req.SessionID)
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "failed to retrieve checkout session",
		})
		return
	}

	success := details.PaymentStatus == "paid" && details.Mode == "subscription"

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":        success,
		"sessionId":      details.ID,
		"paymentStatus":  details.PaymentStatus,
		"customerId":     details.CustomerID,
		"subscriptionId": details.SubscriptionID,
	})
}

// HandleBillingWebhook receives payment provider events. The signature is
// checked over the raw body before any parsing. A non-2xx response makes
// the provider redeliver.
func (s *RESTServer) HandleBillingWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	event, err := s.billingProvider.VerifyWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		log.Warn().Err(err).Msg("Webhook signature verification failed")
		s.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":    "signature verification failed",
			"received": false,
		})
		return
	}

	if err := s.billingProcessor.Process(r.Context(), event); err != nil {
		log.Error().Err(err).Str("event_type", event.Type).Msg("Failed to process billing event")
		s.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":    "failed to process event",
			"received": false,
		})
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"received":  true,
		"eventType": event.Type,
	})
}
